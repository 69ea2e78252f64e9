package chat

import (
	"sync"

	"github.com/zhouzirui/threebody-chat/internal/model/chat"
)

const subscriberBuffer = 16

// broker fans conversation events out to per-session subscribers. Slow
// subscribers lose events rather than block the conversation.
type broker struct {
	mu   sync.Mutex
	subs map[string]map[chan chat.Event]struct{}
}

func newBroker() *broker {
	return &broker{subs: make(map[string]map[chan chat.Event]struct{})}
}

func (b *broker) subscribe(sessionID string) (<-chan chat.Event, func()) {
	ch := make(chan chat.Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan chat.Event]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		set, ok := b.subs[sessionID]
		if !ok {
			return
		}
		if _, ok := set[ch]; !ok {
			return
		}
		delete(set, ch)
		if len(set) == 0 {
			delete(b.subs, sessionID)
		}
		close(ch)
	}
	return ch, cancel
}

func (b *broker) publish(ev chat.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broker) closeSession(sessionID string) {
	b.mu.Lock()
	set := b.subs[sessionID]
	delete(b.subs, sessionID)
	b.mu.Unlock()

	for ch := range set {
		close(ch)
	}
}
