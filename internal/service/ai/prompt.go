package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/threebody-chat/internal/model/chat"
	"github.com/zhouzirui/threebody-chat/internal/model/persona"
)

const systemTemplate = `You are {name} from the science fiction novel "The Three-Body Problem" by Cixin Liu. ` +
	`Answer questions in the first person as this character, with knowledge limited to what they would know in the book. ` +
	`{personality} Keep responses concise (under 200 words).`

// PromptBuilder renders the outbound conversation for a persona.
type PromptBuilder struct {
	template prompt.ChatTemplate
}

// NewPromptBuilder compiles the system/history/query template.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		template: prompt.FromMessages(
			schema.FString,
			schema.SystemMessage(systemTemplate),
			schema.MessagesPlaceholder("history", true),
			schema.UserMessage("{query}"),
		),
	}
}

// SystemPrompt returns only the persona instruction text.
func (b *PromptBuilder) SystemPrompt(ctx context.Context, p persona.Persona) (string, error) {
	messages, err := b.Build(ctx, p, nil, "")
	if err != nil {
		return "", err
	}
	return messages[0].Content, nil
}

// Build produces [system, history..., user query] for one completion request.
func (b *PromptBuilder) Build(ctx context.Context, p persona.Persona, history []chat.Message, query string) ([]*schema.Message, error) {
	messages, err := b.template.Format(ctx, map[string]any{
		"name":        p.Name(),
		"personality": p.Personality(),
		"history":     toSchemaMessages(history),
		"query":       query,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format prompt for %s: %w", p.ID(), err)
	}
	return messages, nil
}

func toSchemaMessages(history []chat.Message) []*schema.Message {
	if len(history) == 0 {
		return nil
	}

	out := make([]*schema.Message, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case chat.RoleUser:
			out = append(out, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return out
}
