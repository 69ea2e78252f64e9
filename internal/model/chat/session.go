package chat

import "time"

// Session is a point-in-time snapshot of one conversation.
type Session struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	Messages  []Message `json:"messages"`
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	ErrorKind string    `json:"errorKind,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
