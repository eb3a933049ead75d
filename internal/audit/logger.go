package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventRoomCreate    EventType = "room_create"
	EventRoomJoin      EventType = "room_join"
	EventJoinRejected  EventType = "join_rejected"
	EventCodeExhausted EventType = "code_exhausted"
	EventConnRejected  EventType = "conn_rejected"
	EventRateLimited   EventType = "rate_limit_exceeded"
)

type Event struct {
	Type      EventType
	SessionID string
	HostID    string
	IP        string
	Details   map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.SessionID != "" {
		logger = logger.With().Str("session_id", event.SessionID).Logger()
	}
	if event.HostID != "" {
		logger = logger.With().Str("host_id", event.HostID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}
