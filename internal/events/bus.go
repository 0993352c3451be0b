// Package events is the notification bus shared by the runtimes and the host.
// Events are validated against a fixed registry, kept in a ring buffer,
// broadcast to subscribers and optionally appended to a persistent sink.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const defaultBufferSize = 256

type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Sink persists events. Both storage journals implement it.
type Sink interface {
	Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error
}

// Subscriber represents a channel that receives events.
type Subscriber chan Event

// Bus owns one event stream. Each runtime host creates its own.
type Bus struct {
	buffer *RingBuffer

	mu          sync.RWMutex
	subscribers map[Subscriber]struct{}

	sinkMu      sync.RWMutex
	sink        Sink
	sessionID   string
	errorLogged bool

	total uint64
}

// NewBus creates a bus with the default ring buffer size.
func NewBus() *Bus {
	return &Bus{
		buffer:      NewRingBuffer(defaultBufferSize),
		subscribers: make(map[Subscriber]struct{}),
	}
}

// SetSink sets the sink events are persisted to. sessionID is recorded with
// every appended event.
func (b *Bus) SetSink(sink Sink, sessionID string) {
	b.sinkMu.Lock()
	b.sink = sink
	b.sessionID = sessionID
	b.errorLogged = false
	b.sinkMu.Unlock()
}

// Emit records and broadcasts an event. It returns the JSON encoding of the
// event, or an error if name is not a registered event.
func (b *Bus) Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	b.buffer.Add(e)
	b.mu.Lock()
	b.total++
	b.mu.Unlock()
	b.broadcast(e)
	b.persist(ts, e)

	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// persist appends to the sink. A failing sink is reported once as a
// system.error added straight to the buffer, never through Emit.
func (b *Bus) persist(ts time.Time, e Event) {
	b.sinkMu.RLock()
	sink := b.sink
	sessionID := b.sessionID
	b.sinkMu.RUnlock()

	if sink == nil {
		return
	}
	err := sink.Append(ts, e.Level, e.Name, e.Message, e.Fields, sessionID)
	if err == nil {
		return
	}

	b.sinkMu.Lock()
	if b.errorLogged {
		b.sinkMu.Unlock()
		return
	}
	b.errorLogged = true
	b.sinkMu.Unlock()

	errEvent := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     "error",
		Name:      "system.error",
		Message:   "event sink append failed",
		Fields: map[string]interface{}{
			"error": err.Error(),
		},
	}
	b.buffer.Add(errEvent)
	b.broadcast(errEvent)
}

// Subscribe adds a new subscriber and returns its channel.
// The channel is buffered so Emit never blocks on a slow client.
func (b *Bus) Subscribe() Subscriber {
	ch := make(Subscriber, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// CloseAllSubscribers closes and removes every subscriber.
func (b *Bus) CloseAllSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = make(map[Subscriber]struct{})
}

// broadcast sends an event to all subscribers.
// If a subscriber's buffer is full, the event is dropped for that subscriber.
func (b *Bus) broadcast(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- e:
		default:
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// TotalCount returns the number of events emitted since the bus was created.
func (b *Bus) TotalCount() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

// Snapshot returns every buffered event, oldest first.
func (b *Bus) Snapshot() []Event {
	return b.buffer.Snapshot()
}

// RecentEvents returns the last n buffered events, oldest first. n <= 0
// returns all of them.
func (b *Bus) RecentEvents(n int) []Event {
	return b.buffer.Last(n)
}

// Buffered returns how many events the history currently holds.
func (b *Bus) Buffered() int {
	return b.buffer.Len()
}

// Clear resets the event buffer.
func (b *Bus) Clear() {
	b.buffer.Clear()
}
