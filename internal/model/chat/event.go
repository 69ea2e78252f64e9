package chat

// EventType enumerates the notifications a conversation publishes.
type EventType string

const (
	EventReset   EventType = "reset"
	EventMessage EventType = "message"
	EventLoading EventType = "loading"
	EventError   EventType = "error"
)

// Event is pushed to session subscribers whenever conversation state changes.
type Event struct {
	Type      EventType `json:"event"`
	SessionID string    `json:"sessionId"`
	PersonaID string    `json:"personaId,omitempty"`
	Message   *Message  `json:"message,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	ErrorKind string    `json:"errorKind,omitempty"`
}
