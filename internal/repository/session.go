package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/UtpalSharma619/Ashtavakra/internal/model"
	redisclient "github.com/UtpalSharma619/Ashtavakra/internal/redis"
)

// ErrRoomCodeTaken is returned by Create when another live session already
// holds the requested room code. Callers recover by generating a new code.
var ErrRoomCodeTaken = errors.New("room code already claimed by a live session")

// SessionStore holds session records with store-driven expiry: every record
// is written with a TTL and the store reaps it once ExpiresAt elapses. No
// code path ever deletes a session explicitly.
type SessionStore interface {
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	// FindLiveByCode resolves a canonical room code to its session. Expired
	// and unknown codes are indistinguishable: both return nil, nil.
	FindLiveByCode(ctx context.Context, code string) (*model.Session, error)
	FindByID(ctx context.Context, id string) (*model.Session, error)
	AppendParticipant(ctx context.Context, id string, guestName string) error
}

type sessionStore struct {
	redis *redisclient.Client
}

func NewSessionStore(redis *redisclient.Client) SessionStore {
	return &sessionStore{redis: redis}
}

func (s *sessionStore) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	now := time.Now()
	ttl := time.Until(params.ExpiresAt)
	if ttl <= 0 {
		return nil, fmt.Errorf("session expiry %s is not in the future", params.ExpiresAt)
	}

	session := &model.Session{
		ID:           uuid.NewString(),
		HostID:       params.HostID,
		ExperienceID: params.ExperienceID,
		RoomCode:     params.RoomCode,
		IsPrivate:    params.IsPrivate,
		CreatedAt:    now,
		ExpiresAt:    params.ExpiresAt,
	}

	// Claim the code first. SET NX with the session TTL is the uniqueness
	// constraint among live sessions: an expired claim frees itself.
	claimed, err := s.redis.SetNX(ctx, redisclient.RoomCodeKey(session.RoomCode), session.ID, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("claim room code: %w", err)
	}
	if !claimed {
		return nil, ErrRoomCodeTaken
	}

	doc, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	if err := s.redis.Set(ctx, redisclient.SessionKey(session.ID), doc, ttl).Err(); err != nil {
		// Release the claim so the code is not burned for a session that
		// was never written.
		s.redis.Del(context.WithoutCancel(ctx), redisclient.RoomCodeKey(session.RoomCode))
		return nil, fmt.Errorf("write session: %w", err)
	}

	return session, nil
}

func (s *sessionStore) FindLiveByCode(ctx context.Context, code string) (*model.Session, error) {
	id, err := s.redis.Get(ctx, redisclient.RoomCodeKey(code)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve room code: %w", err)
	}

	session, err := s.findByID(ctx, id)
	if err != nil || session == nil {
		return nil, err
	}

	// The store reaps expired records, but reaping is asynchronous; never
	// hand back a session whose expiry has already passed.
	if !session.ExpiresAt.After(time.Now()) {
		return nil, nil
	}

	return session, nil
}

func (s *sessionStore) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.findByID(ctx, id)
	if err != nil || session == nil {
		return nil, err
	}
	if !session.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return session, nil
}

func (s *sessionStore) findByID(ctx context.Context, id string) (*model.Session, error) {
	doc, err := s.redis.Get(ctx, redisclient.SessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(doc, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// AppendParticipant records a guest on the session document. The list is
// advisory; relay membership is tracked by the connection registry, so a
// lost update here is acceptable.
func (s *sessionStore) AppendParticipant(ctx context.Context, id string, guestName string) error {
	session, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %s not found", id)
	}

	session.Participants = append(session.Participants, model.Participant{GuestName: guestName})

	doc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// KeepTTL preserves the store-driven expiry on rewrite.
	return s.redis.Set(ctx, redisclient.SessionKey(id), doc, goredis.KeepTTL).Err()
}
