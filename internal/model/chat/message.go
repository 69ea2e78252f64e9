package chat

import "strings"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a message authored by the user.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds a message authored by the character.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Paragraphs splits the content the way the page renders it, one block per line.
func (m Message) Paragraphs() []string {
	return strings.Split(m.Content, "\n")
}
