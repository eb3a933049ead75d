package model

import "time"

// Session is one live room, addressable by its room code until it expires.
// Stored as a JSON document in Redis with a TTL matching ExpiresAt; the
// store reaps it automatically, nothing ever deletes it explicitly.
type Session struct {
	ID           string        `json:"id"`
	HostID       string        `json:"hostId"`
	ExperienceID string        `json:"experienceId"`
	RoomCode     string        `json:"roomCode"`
	IsPrivate    bool          `json:"isPrivate"`
	Participants []Participant `json:"participants,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	ExpiresAt    time.Time     `json:"expiresAt"`
}

// Participant is a lightweight guest record on the session document.
// Advisory only: live channel membership is tracked by the relay registry.
type Participant struct {
	GuestName string `json:"guestName"`
}

// RoomView is the reduced session view returned to a joining guest.
type RoomView struct {
	SessionID       string `json:"sessionId"`
	ExperienceTitle string `json:"experienceTitle"`
	HostName        string `json:"hostName"`
}

type CreateSessionParams struct {
	HostID       string
	ExperienceID string
	RoomCode     string
	IsPrivate    bool
	ExpiresAt    time.Time
}
