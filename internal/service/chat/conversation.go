package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/threebody-chat/internal/model/chat"
	"github.com/zhouzirui/threebody-chat/internal/model/persona"
	"github.com/zhouzirui/threebody-chat/internal/service/ai"
	"github.com/zhouzirui/threebody-chat/internal/service/credential"
)

var (
	ErrEmptyMessage       = errors.New("message is empty")
	ErrCredentialRequired = errors.New("api key is not set")
	ErrBusy               = errors.New("a reply is already in progress")
	ErrSuperseded         = errors.New("conversation was reset while waiting for the reply")
)

// UserMessage returns the text shown to the user for a failed Send.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrCredentialRequired):
		return "Please enter your Claude API key first"
	case errors.Is(err, ErrEmptyMessage):
		return "Please enter a message"
	case errors.Is(err, ErrBusy):
		return "Please wait for the current reply to finish"
	case errors.Is(err, ErrSuperseded):
		return "The conversation was reset before the reply arrived"
	default:
		return ai.UserMessage(err)
	}
}

// Conversation is the state machine of one chat session. State changes only
// through Initialize and Send; at most one completion is in flight.
type Conversation struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	persona   persona.Persona
	messages  []chat.Message
	loading   bool
	errText   string
	errKind   string
	// epoch increments on every Initialize so replies to an older
	// conversation are dropped.
	epoch uint64

	credentials credential.Source
	completer   ai.Completer
	prompts     *ai.PromptBuilder
	publish     func(chat.Event)
}

// NewConversation returns an empty conversation. Call Initialize before use.
func NewConversation(id string, credentials credential.Source, completer ai.Completer, prompts *ai.PromptBuilder) *Conversation {
	if prompts == nil {
		prompts = ai.NewPromptBuilder()
	}
	return &Conversation{
		id:          id,
		createdAt:   time.Now().UTC(),
		persona:     persona.Default,
		credentials: credentials,
		completer:   completer,
		prompts:     prompts,
	}
}

// Initialize resets the conversation to the persona's greeting. Without a
// credential the conversation is left empty.
func (c *Conversation) Initialize(p persona.Persona) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.persona = p
	c.epoch++
	c.errText = ""
	c.errKind = ""
	if c.credentials.Get() != "" {
		c.messages = []chat.Message{chat.AssistantMessage(p.Greeting())}
	} else {
		c.messages = nil
	}
	c.emit(chat.Event{
		Type:      chat.EventReset,
		SessionID: c.id,
		PersonaID: p.ID(),
		Messages:  append([]chat.Message(nil), c.messages...),
		Loading:   c.loading,
	})
}

// Send appends the user's text, asks the completion client for a reply and
// appends it. The returned error is one of the sentinel errors above or an
// *ai.CompletionError. Once started, the completion is not cancelled by ctx.
func (c *Conversation) Send(ctx context.Context, text string) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, ErrEmptyMessage
	}
	apiKey := c.credentials.Get()
	if apiKey == "" {
		return chat.Message{}, ErrCredentialRequired
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return chat.Message{}, ErrBusy
	}
	history := append([]chat.Message(nil), c.messages...)
	userMsg := chat.UserMessage(text)
	c.messages = append(c.messages, userMsg)
	c.loading = true
	c.errText = ""
	c.errKind = ""
	epoch := c.epoch
	p := c.persona
	c.emit(chat.Event{Type: chat.EventMessage, SessionID: c.id, Message: &userMsg, Loading: true})
	c.emit(chat.Event{Type: chat.EventLoading, SessionID: c.id, Loading: true})
	c.mu.Unlock()

	// A closed tab or reload must not abort a request that is already in flight.
	reply, err := c.complete(context.WithoutCancel(ctx), apiKey, p, history, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading = false
	if c.epoch != epoch {
		log.Printf("[chat] dropped reply for reset session=%s", c.id)
		c.emit(chat.Event{Type: chat.EventLoading, SessionID: c.id})
		return chat.Message{}, ErrSuperseded
	}

	if err != nil {
		c.errText = ai.UserMessage(err)
		c.errKind = string(ai.KindOf(err))
		log.Printf("[chat] send failed session=%s persona=%s: %v", c.id, p.ID(), err)
		c.emit(chat.Event{Type: chat.EventError, SessionID: c.id, Error: c.errText, ErrorKind: c.errKind})
		c.emit(chat.Event{Type: chat.EventLoading, SessionID: c.id})
		return chat.Message{}, err
	}

	assistantMsg := chat.AssistantMessage(reply.Content)
	c.messages = append(c.messages, assistantMsg)
	c.emit(chat.Event{Type: chat.EventMessage, SessionID: c.id, Message: &assistantMsg})
	c.emit(chat.Event{Type: chat.EventLoading, SessionID: c.id})
	return assistantMsg, nil
}

func (c *Conversation) complete(ctx context.Context, apiKey string, p persona.Persona, history []chat.Message, text string) (*schema.Message, error) {
	input, err := c.prompts.Build(ctx, p, history, text)
	if err != nil {
		return nil, err
	}
	return c.completer.Generate(ctx, apiKey, input)
}

// Snapshot copies the current state.
func (c *Conversation) Snapshot() chat.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return chat.Session{
		ID:        c.id,
		PersonaID: c.persona.ID(),
		Messages:  append([]chat.Message{}, c.messages...),
		Loading:   c.loading,
		Error:     c.errText,
		ErrorKind: c.errKind,
		CreatedAt: c.createdAt,
	}
}

// Persona returns the persona the conversation is bound to.
func (c *Conversation) Persona() persona.Persona {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persona
}

// Loading reports whether a reply is outstanding.
func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// emit must be called with c.mu held so subscribers see events in the order
// the state changed. publish never blocks.
func (c *Conversation) emit(ev chat.Event) {
	if c.publish != nil {
		c.publish(ev)
	}
}
