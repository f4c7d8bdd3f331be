package bus

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// NewEvent stamps an event with the current time.
func NewEvent(typ EventType, source string, data any) Event {
	return Event{Type: typ, Source: source, Timestamp: time.Now(), Data: data}
}

type subscription struct {
	id        string
	eventType EventType
	handler   EventHandler
	active    atomic.Bool
	cancel    func()
}

func (s *subscription) ID() string           { return s.id }
func (s *subscription) EventType() EventType { return s.eventType }
func (s *subscription) IsActive() bool       { return s.active.Load() }
func (s *subscription) Cancel() error {
	if s.active.CompareAndSwap(true, false) && s.cancel != nil {
		s.cancel()
	}
	return nil
}

type inMemoryBus struct {
	mu sync.RWMutex
	// handlers: eventType -> subID -> subscription
	handlers map[EventType]map[string]*subscription

	published atomic.Uint64
	delivered atomic.Uint64
	failures  atomic.Uint64
}

// New creates an empty bus.
func New() EventBus {
	return &inMemoryBus{handlers: make(map[EventType]map[string]*subscription)}
}

func (b *inMemoryBus) Subscribe(eventType EventType, handler EventHandler) (Subscription, error) {
	if eventType == "" {
		return nil, ErrEmptyEventType
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	id := uuid.NewString()
	s := &subscription{id: id, eventType: eventType, handler: handler}
	s.active.Store(true)
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if m, ok := b.handlers[eventType]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(b.handlers, eventType)
			}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]*subscription)
	}
	b.handlers[eventType][id] = s
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) Publish(event Event) error {
	if event.Type == "" || event.Type == AllEvents {
		return ErrEmptyEventType
	}

	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.handlers[event.Type])+len(b.handlers[AllEvents]))
	for _, s := range b.handlers[event.Type] {
		subs = append(subs, s)
	}
	for _, s := range b.handlers[AllEvents] {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	b.published.Add(1)
	var all error
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		b.delivered.Add(1)
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}
	if all != nil {
		b.failures.Add(1)
	}
	return all
}

func (b *inMemoryBus) Stats() Stats {
	b.mu.RLock()
	subs := 0
	for _, m := range b.handlers {
		subs += len(m)
	}
	b.mu.RUnlock()
	return Stats{
		Published:   b.published.Load(),
		Delivered:   b.delivered.Load(),
		Errors:      b.failures.Load(),
		Subscribers: subs,
	}
}
