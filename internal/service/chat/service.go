package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/zhouzirui/threebody-chat/internal/model/chat"
	"github.com/zhouzirui/threebody-chat/internal/model/persona"
	"github.com/zhouzirui/threebody-chat/internal/service/ai"
	"github.com/zhouzirui/threebody-chat/internal/service/credential"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrUnknownPersona  = errors.New("persona not found")
	ErrSessionNotFound = errors.New("session not found")
)

// Service keeps every live conversation in memory, keyed by session id.
type Service struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation

	credentials credential.Source
	completer   ai.Completer
	prompts     *ai.PromptBuilder
	events      *broker
}

// NewService wires the conversation registry to the credential holder and the
// completion client.
func NewService(credentials credential.Source, completer ai.Completer) *Service {
	return &Service{
		conversations: make(map[string]*Conversation),
		credentials:   credentials,
		completer:     completer,
		prompts:       ai.NewPromptBuilder(),
		events:        newBroker(),
	}
}

// CreateSession provisions a conversation seeded with the persona greeting.
func (s *Service) CreateSession(_ context.Context, personaID string) (chat.Session, error) {
	p, err := parsePersona(personaID)
	if err != nil {
		return chat.Session{}, err
	}

	conv := NewConversation(uuid.NewString(), s.credentials, s.completer, s.prompts)
	conv.publish = s.events.publish
	conv.Initialize(p)

	s.mu.Lock()
	s.conversations[conv.id] = conv
	s.mu.Unlock()

	log.Printf("[chat] created session=%s persona=%s", conv.id, p.ID())
	return conv.Snapshot(), nil
}

// GetSession retrieves a session snapshot by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	conv, err := s.Conversation(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return conv.Snapshot(), nil
}

// LoadTranscript returns the messages of the provided session.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Messages, nil
}

// SwitchPersona re-binds the session and discards its history.
func (s *Service) SwitchPersona(_ context.Context, sessionID, personaID string) (chat.Session, error) {
	p, err := parsePersona(personaID)
	if err != nil {
		return chat.Session{}, err
	}

	conv, err := s.Conversation(sessionID)
	if err != nil {
		return chat.Session{}, err
	}

	conv.Initialize(p)
	log.Printf("[chat] session=%s switched to persona=%s", sessionID, p.ID())
	return conv.Snapshot(), nil
}

// Send forwards the user's text to the session's conversation.
func (s *Service) Send(ctx context.Context, sessionID, text string) (chat.Message, chat.Session, error) {
	conv, err := s.Conversation(sessionID)
	if err != nil {
		return chat.Message{}, chat.Session{}, err
	}

	reply, err := conv.Send(ctx, text)
	return reply, conv.Snapshot(), err
}

// ReseedAll re-initializes every conversation with its current persona. Used
// when the credential changes.
func (s *Service) ReseedAll(_ context.Context) int {
	s.mu.RLock()
	convs := make([]*Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		convs = append(convs, conv)
	}
	s.mu.RUnlock()

	for _, conv := range convs {
		conv.Initialize(conv.Persona())
	}
	return len(convs)
}

// DeleteSession drops a conversation and closes its subscribers.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	_, ok := s.conversations[sessionID]
	delete(s.conversations, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.events.closeSession(sessionID)
	return nil
}

// Subscribe streams the session's events until cancel is called or the
// session is deleted.
func (s *Service) Subscribe(sessionID string) (<-chan chat.Event, func(), error) {
	// Held across the lookup so DeleteSession cannot close the session's
	// subscribers between the check and the registration.
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[sessionID]; !ok {
		return nil, nil, ErrSessionNotFound
	}
	ch, cancel := s.events.subscribe(sessionID)
	return ch, cancel, nil
}

// Conversation returns the live conversation for sessionID.
func (s *Service) Conversation(sessionID string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return conv, nil
}

func parsePersona(personaID string) (persona.Persona, error) {
	if personaID == "" {
		return 0, ErrPersonaRequired
	}
	p, err := persona.Parse(personaID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnknownPersona, err)
	}
	return p, nil
}
