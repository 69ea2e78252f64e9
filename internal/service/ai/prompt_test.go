package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/threebody-chat/internal/model/chat"
	"github.com/zhouzirui/threebody-chat/internal/model/persona"
)

func TestBuildOrdersSystemHistoryAndQuery(t *testing.T) {
	builder := NewPromptBuilder()
	history := []chat.Message{
		chat.AssistantMessage(persona.WangMiao.Greeting()),
		chat.UserMessage("What is the countdown?"),
		chat.AssistantMessage("It only appears in my photos."),
	}

	messages, err := builder.Build(context.Background(), persona.WangMiao, history, "Does it stop?")
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}

	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(messages))
	}
	if messages[0].Role != schema.System {
		t.Fatalf("expected system first, got %s", messages[0].Role)
	}
	wantRoles := []schema.RoleType{schema.Assistant, schema.User, schema.Assistant, schema.User}
	for i, role := range wantRoles {
		if messages[i+1].Role != role {
			t.Fatalf("message %d: expected %s, got %s", i+1, role, messages[i+1].Role)
		}
	}
	if messages[4].Content != "Does it stop?" {
		t.Fatalf("unexpected query %q", messages[4].Content)
	}
}

func TestSystemPromptCarriesPersonality(t *testing.T) {
	builder := NewPromptBuilder()

	for _, p := range persona.All() {
		system, err := builder.SystemPrompt(context.Background(), p)
		if err != nil {
			t.Fatalf("SystemPrompt(%s) err: %v", p, err)
		}
		if !strings.HasPrefix(system, "You are "+p.Name()+" from the science fiction novel") {
			t.Fatalf("unexpected system prompt %q", system)
		}
		if !strings.Contains(system, p.Personality()) {
			t.Fatalf("system prompt for %s misses personality", p)
		}
		if !strings.HasSuffix(system, "Keep responses concise (under 200 words).") {
			t.Fatalf("unexpected system prompt suffix %q", system)
		}
	}
}
