package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/UtpalSharma619/Ashtavakra/internal/model"
)

type ExperienceRepository interface {
	FindByID(ctx context.Context, id string) (*model.Experience, error)
}

type experienceRepo struct {
	db *sqlx.DB
}

func NewExperienceRepository(db *sqlx.DB) ExperienceRepository {
	return &experienceRepo{db: db}
}

func (r *experienceRepo) FindByID(ctx context.Context, id string) (*model.Experience, error) {
	var experience model.Experience
	err := r.db.GetContext(ctx, &experience, `
		SELECT * FROM experiences WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &experience, nil
}
