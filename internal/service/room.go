package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/UtpalSharma619/Ashtavakra/internal/audit"
	apperrors "github.com/UtpalSharma619/Ashtavakra/internal/errors"
	"github.com/UtpalSharma619/Ashtavakra/internal/model"
	"github.com/UtpalSharma619/Ashtavakra/internal/repository"
	"github.com/UtpalSharma619/Ashtavakra/internal/roomcode"
)

const fallbackHostName = "Host"
const fallbackExperienceTitle = "Live Session"

// RoomService orchestrates the session lifecycle: minting a code, setting
// expiry, persisting the session, and resolving a join code to the reduced
// view a guest is allowed to see.
type RoomService struct {
	sessions        repository.SessionStore
	users           repository.UserRepository
	experiences     repository.ExperienceRepository
	sessionTTL      time.Duration
	maxCodeAttempts int
}

func NewRoomService(
	sessions repository.SessionStore,
	users repository.UserRepository,
	experiences repository.ExperienceRepository,
	sessionTTL time.Duration,
	maxCodeAttempts int,
) *RoomService {
	return &RoomService{
		sessions:        sessions,
		users:           users,
		experiences:     experiences,
		sessionTTL:      sessionTTL,
		maxCodeAttempts: maxCodeAttempts,
	}
}

// CreateRoom mints a room code and persists a new session expiring after
// the retention window. Code collisions are recovered by regenerating;
// exhausting the retry budget is an operation failure, never a silent
// result.
func (s *RoomService) CreateRoom(ctx context.Context, hostID, experienceID string) (*model.Session, error) {
	host, err := s.users.FindByID(ctx, hostID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if host == nil {
		return nil, apperrors.NotFound("Host")
	}

	experience, err := s.experiences.FindByID(ctx, experienceID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if experience == nil {
		return nil, apperrors.NotFound("Experience")
	}

	expiresAt := time.Now().Add(s.sessionTTL)

	for attempt := 1; attempt <= s.maxCodeAttempts; attempt++ {
		code := roomcode.Generate()

		session, err := s.sessions.Create(ctx, model.CreateSessionParams{
			HostID:       hostID,
			ExperienceID: experienceID,
			RoomCode:     code,
			IsPrivate:    true,
			ExpiresAt:    expiresAt,
		})
		if errors.Is(err, repository.ErrRoomCodeTaken) {
			log.Warn().
				Str("roomCode", code).
				Int("attempt", attempt).
				Msg("room code collision, regenerating")
			continue
		}
		if err != nil {
			return nil, apperrors.Internal("Could not create a new room").WithCause(err)
		}

		log.Info().
			Str("sessionId", session.ID).
			Str("roomCode", session.RoomCode).
			Str("hostId", hostID).
			Time("expiresAt", session.ExpiresAt).
			Msg("room created")

		audit.Log(ctx, audit.Event{
			Type:      audit.EventRoomCreate,
			SessionID: session.ID,
			HostID:    hostID,
		})

		return session, nil
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventCodeExhausted,
		HostID: hostID,
	})

	return nil, apperrors.Internal(
		fmt.Sprintf("Could not allocate a unique room code after %d attempts", s.maxCodeAttempts))
}

// JoinRoom resolves a room code to a session and returns the reduced view
// for the joining guest. Unknown and expired codes fail identically.
func (s *RoomService) JoinRoom(ctx context.Context, code, guestName string) (*model.RoomView, error) {
	normalized := roomcode.Normalize(code)

	if !roomcode.IsValid(normalized) {
		audit.Log(ctx, audit.Event{
			Type:    audit.EventJoinRejected,
			Details: map[string]interface{}{"reason": "malformed_code"},
		})
		return nil, apperrors.InvalidRoomCode()
	}

	session, err := s.sessions.FindLiveByCode(ctx, normalized)
	if err != nil {
		log.Error().Err(err).Msg("join room: store error")
		return nil, apperrors.Internal("Server error while joining room").WithCause(err)
	}
	if session == nil {
		log.Warn().Str("roomCode", normalized).Msg("invalid or expired room code")
		audit.Log(ctx, audit.Event{
			Type:    audit.EventJoinRejected,
			Details: map[string]interface{}{"reason": "unknown_or_expired"},
		})
		return nil, apperrors.InvalidRoomCode()
	}

	view := &model.RoomView{
		SessionID:       session.ID,
		HostName:        fallbackHostName,
		ExperienceTitle: fallbackExperienceTitle,
	}

	// Read-side join: the guest sees display data only, never the full
	// session record.
	host, err := s.users.FindByID(ctx, session.HostID)
	if err != nil {
		log.Error().Err(err).Str("hostId", session.HostID).Msg("join room: host lookup failed")
	} else if host != nil {
		view.HostName = host.Username
	}

	experience, err := s.experiences.FindByID(ctx, session.ExperienceID)
	if err != nil {
		log.Error().Err(err).Str("experienceId", session.ExperienceID).Msg("join room: experience lookup failed")
	} else if experience != nil {
		view.ExperienceTitle = experience.Title
	}

	if guestName != "" {
		if err := s.sessions.AppendParticipant(ctx, session.ID, guestName); err != nil {
			// Participant list is advisory; joining still succeeds.
			log.Warn().Err(err).Str("sessionId", session.ID).Msg("failed to record participant")
		}
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("roomCode", normalized).
		Msg("guest joined room")

	audit.Log(ctx, audit.Event{
		Type:      audit.EventRoomJoin,
		SessionID: session.ID,
	})

	return view, nil
}
