package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/UtpalSharma619/Ashtavakra/internal/errors"
	"github.com/UtpalSharma619/Ashtavakra/internal/service"
	"github.com/UtpalSharma619/Ashtavakra/internal/util"
)

type RoomHandler struct {
	roomService *service.RoomService
}

func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
	}
}

func (h *RoomHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/create", h.CreateRoom)
	r.Post("/join", h.JoinRoom)

	return r
}

type createRoomRequest struct {
	HostID       string `json:"hostId"`
	ExperienceID string `json:"experienceId"`
}

type createRoomResponse struct {
	SessionID    string `json:"sessionId"`
	RoomCode     string `json:"roomCode"`
	HostID       string `json:"hostId"`
	ExperienceID string `json:"experienceId"`
	ExpiresAt    string `json:"expiresAt"`
}

type joinRoomRequest struct {
	RoomCode  string `json:"roomCode"`
	GuestName string `json:"guestName,omitempty"`
}

// POST /api/room/create
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if req.ExperienceID == "" {
		writeError(w, apperrors.MissingRequired("experienceId"))
		return
	}
	if req.HostID == "" {
		writeError(w, apperrors.MissingRequired("hostId"))
		return
	}
	if !util.IsValidUUID(req.HostID) {
		writeError(w, apperrors.InvalidInput("hostId", "must be a valid id"))
		return
	}
	if !util.IsValidUUID(req.ExperienceID) {
		writeError(w, apperrors.InvalidInput("experienceId", "must be a valid id"))
		return
	}

	session, err := h.roomService.CreateRoom(r.Context(), req.HostID, req.ExperienceID)
	if err != nil {
		log.Error().Err(err).Msg("failed to create room")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createRoomResponse{
		SessionID:    session.ID,
		RoomCode:     session.RoomCode,
		HostID:       session.HostID,
		ExperienceID: session.ExperienceID,
		ExpiresAt:    session.ExpiresAt.Format(time.RFC3339),
	})
}

// POST /api/room/join
func (h *RoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if req.RoomCode == "" {
		writeError(w, apperrors.MissingRequired("roomCode"))
		return
	}

	view, err := h.roomService.JoinRoom(r.Context(), req.RoomCode, req.GuestName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
