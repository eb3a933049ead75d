package model

import (
	"database/sql"
	"time"
)

// Experience is the template a session is hosted from (e.g. "Sensory
// Coffee Tasting"). Read-only from this core's perspective.
type Experience struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}
