package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/UtpalSharma619/Ashtavakra/internal/audit"
	apperrors "github.com/UtpalSharma619/Ashtavakra/internal/errors"
	"github.com/UtpalSharma619/Ashtavakra/internal/relay"
	"github.com/UtpalSharma619/Ashtavakra/internal/util"
)

var validRoles = []string{string(relay.RoleHost), string(relay.RoleGuest)}

// WSHandler is the real-time transport binding: it validates the
// handshake, upgrades the connection, and hands it to the relay router.
type WSHandler struct {
	router   *relay.Router
	upgrader websocket.Upgrader
}

func NewWSHandler(router *relay.Router, allowedOrigin string) *WSHandler {
	return &WSHandler{
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// GET /ws?sessionId=...&role=...
//
// A handshake without a session id is refused before the upgrade: the
// connection never exists, so it can never appear in the registry or
// receive a broadcast.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	role := r.URL.Query().Get("role")

	if sessionID == "" {
		log.Warn().Str("remoteAddr", r.RemoteAddr).Msg("websocket handshake missing sessionId")
		audit.Log(r.Context(), audit.Event{
			Type:    audit.EventConnRejected,
			IP:      r.RemoteAddr,
			Details: map[string]interface{}{"reason": "missing_session_id"},
		})
		writeError(w, apperrors.Protocol("sessionId is required"))
		return
	}

	if !util.IsValidEnum(role, validRoles) {
		log.Warn().Str("role", role).Msg("websocket handshake with unknown role")
		audit.Log(r.Context(), audit.Event{
			Type:      audit.EventConnRejected,
			SessionID: sessionID,
			IP:        r.RemoteAddr,
			Details:   map[string]interface{}{"reason": "invalid_role"},
		})
		writeError(w, apperrors.Protocol("role must be host or guest"))
		return
	}
	if role == "" {
		role = string(relay.RoleGuest)
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own response.
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := relay.NewConn(ws, sessionID, relay.Role(role))
	log.Info().
		Str("connId", conn.ID).
		Str("sessionId", sessionID).
		Str("role", role).
		Msg("websocket connected")

	// Blocks until the connection drops; the router guarantees cleanup.
	h.router.Serve(conn)
}
