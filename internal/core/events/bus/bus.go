// Package bus provides the in-memory event bus that carries simulation
// events (frames, sensor reads, run termination) to the recorder, the
// telemetry server and any other observer.
package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types published by the simulation.
const (
	TypeFrame      = "sim.frame"
	TypeFinish     = "sim.finish"
	TypeBoundsExit = "sim.bounds_exit"
	TypeQuit       = "sim.quit"
	TypeSensorRead = "sensor.read"
)

// Event is a published simulation event.
type Event struct {
	Type   string
	Source string
	Time   time.Time
	Data   any
}

// NewEvent stamps an event with the current time.
func NewEvent(typ, source string, data any) Event {
	return Event{Type: typ, Source: source, Time: time.Now(), Data: data}
}

// Handler consumes a delivered event.
type Handler func(Event) error

// Subscription identifies an active handler registration.
type Subscription struct {
	id        string
	eventType string
	cancel    func()
}

// ID returns the subscription's unique id.
func (s *Subscription) ID() string { return s.id }

// EventType returns the subscribed event type.
func (s *Subscription) EventType() string { return s.eventType }

// Cancel removes the subscription from the bus.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Metrics counts bus activity.
type Metrics struct {
	Published uint64
	Delivered uint64
	Errors    uint64
}

// Bus is a mutex-guarded in-memory event bus. Delivery happens on the
// publishing goroutine, which keeps the single-threaded frame loop ordered.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]map[string]Handler // eventType -> subID -> handler
	metrics  Metrics
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[string]map[string]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]Handler)
	}
	id := uuid.NewString()
	b.handlers[eventType][id] = handler
	return &Subscription{
		id:        id,
		eventType: eventType,
		cancel: func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[eventType], id)
		},
	}
}

// Publish delivers an event to every handler subscribed to its type.
// Handler errors are joined and returned, not fatal to delivery.
func (b *Bus) Publish(event Event) error {
	b.mu.RLock()
	subs := make([]Handler, 0, len(b.handlers[event.Type]))
	for _, h := range b.handlers[event.Type] {
		subs = append(subs, h)
	}
	b.mu.RUnlock()

	var all error
	for _, h := range subs {
		if err := h(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	b.mu.Lock()
	b.metrics.Published++
	b.metrics.Delivered += uint64(len(subs))
	if all != nil {
		b.metrics.Errors++
	}
	b.mu.Unlock()
	return all
}

// GetMetrics returns a snapshot of the bus counters.
func (b *Bus) GetMetrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}
