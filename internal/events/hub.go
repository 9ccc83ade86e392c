// Package events fans timer activity out to the live streams of each user.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"pomofocus/backend/internal/model"
)

type Kind string

const (
	KindState        Kind = "state"
	KindSound        Kind = "sound"
	KindToast        Kind = "toast"
	KindNotification Kind = "notification"
)

const DefaultBuffer = 32

// Message is one item on a user's stream. Only the fields relevant to Kind are
// set.
type Message struct {
	ID       string          `json:"id"`
	Kind     Kind            `json:"kind"`
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
	Sound    string          `json:"sound,omitempty"`
	Title    string          `json:"title,omitempty"`
	Body     string          `json:"body,omitempty"`
	Phase    model.Phase     `json:"phase,omitempty"`
	At       time.Time       `json:"at"`
}

func NewMessage(kind Kind) Message {
	return Message{ID: uuid.NewString(), Kind: kind, At: time.Now().UTC()}
}

// Hub is a per-user publish/subscribe registry. Publish never blocks: a
// subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	closed bool
}

type Subscription struct {
	userID string
	ch     chan Message
	hub    *Hub
	once   sync.Once
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[string]map[*Subscription]struct{}), buffer: buffer}
}

// Subscribe registers a stream for userID. After Close it returns a
// subscription whose channel is already closed.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{userID: userID, ch: make(chan Message, h.buffer), hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	return sub
}

// Publish delivers msg to every current subscriber of userID and returns how
// many received it.
func (h *Hub) Publish(userID string, msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Close removes every subscription and closes their channels. Later
// subscriptions are closed on arrival.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[string]map[*Subscription]struct{})
	h.mu.Unlock()

	for _, set := range subs {
		for sub := range set {
			sub.once.Do(func() { close(sub.ch) })
		}
	}
}

func (s *Subscription) C() <-chan Message {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	if set, ok := s.hub.subs[s.userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(s.hub.subs, s.userID)
		}
	}
	s.hub.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}
