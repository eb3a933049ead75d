package relay

import "encoding/json"

// Event is the wire envelope for everything crossing the real-time
// transport, inbound and outbound.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound event types
const (
	EventChatSend = "chat:send"
)

// Outbound event types
const (
	EventChatReceive        = "chat:receive"
	EventSystemNotification = "system:notification"
	EventError              = "error"
)

// ChatMessage is the opaque chat payload. The relay forwards it verbatim;
// the id is originator-assigned and never inspected here.
type ChatMessage struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Notification is the payload of a system:notification event.
type Notification struct {
	Text string `json:"text"`
}

// ErrorMessage is the payload of a private error event.
type ErrorMessage struct {
	Message string `json:"message"`
}

// Role is what a connection declares about itself at handshake time.
// Advisory only, not authorization.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

func makeEvent(eventType string, payload any) Event {
	data, _ := json.Marshal(payload)
	return Event{Type: eventType, Data: data}
}
