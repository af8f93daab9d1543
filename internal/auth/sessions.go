package auth

import (
	"sync"
)

type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind    EventKind
	UserID  string
	TokenID string
}

// Sessions fans session changes out to subscribers. Handlers are called
// synchronously in subscription order; a handler must not call Subscribe or
// Publish on the same Sessions.
type Sessions struct {
	mu     sync.Mutex
	subs   map[int]func(Event)
	order  []int
	nextID int
	closed bool
}

func NewSessions() *Sessions {
	return &Sessions{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns the func that removes it. Subscribing
// to a closed Sessions is a no-op.
func (s *Sessions) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		})
	}
}

func (s *Sessions) Publish(e Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	handlers := make([]func(Event), 0, len(s.subs))
	live := s.order[:0]
	for _, id := range s.order {
		if fn, ok := s.subs[id]; ok {
			handlers = append(handlers, fn)
			live = append(live, id)
		}
	}
	s.order = live
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(e)
	}
}

// Close detaches every subscriber. Later publishes are dropped.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = make(map[int]func(Event))
	s.order = nil
}

// Len is the number of live subscribers.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
