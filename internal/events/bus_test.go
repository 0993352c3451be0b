package events

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	bus := NewBus()

	sub1 := bus.Subscribe()
	if bus.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber after first subscribe, got %d", bus.SubscriberCount())
	}

	sub2 := bus.Subscribe()
	if bus.SubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers after second subscribe, got %d", bus.SubscriberCount())
	}

	bus.Unsubscribe(sub1)
	if bus.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber after unsubscribe, got %d", bus.SubscriberCount())
	}

	bus.Unsubscribe(sub2)
	bus.Unsubscribe(sub2)
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after all unsubscribed, got %d", bus.SubscriberCount())
	}
}

func TestBroadcastToSubscribers(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	if _, err := bus.Emit("info", "transition.started", "test", map[string]interface{}{"node_id": "button"}); err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	select {
	case e := <-sub:
		if e.Name != "transition.started" {
			t.Errorf("expected event name 'transition.started', got '%s'", e.Name)
		}
		if e.Fields["node_id"] != "button" {
			t.Errorf("expected node_id 'button', got '%v'", e.Fields["node_id"])
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for broadcast event")
	}
}

func TestEmitRejectsUnknownEvent(t *testing.T) {
	bus := NewBus()
	if _, err := bus.Emit("info", "not.an.event", "", nil); err == nil {
		t.Fatal("expected error for unknown event")
	}
	if len(bus.Snapshot()) != 0 {
		t.Error("rejected event should not be buffered")
	}
}

func TestNilBusEmitIsNoop(t *testing.T) {
	var bus *Bus
	if _, err := bus.Emit("info", "scene.started", "", nil); err != nil {
		t.Errorf("expected nil bus to ignore emit, got %v", err)
	}
}

func TestRecentEvents(t *testing.T) {
	bus := NewBus()

	for i := 0; i < 10; i++ {
		bus.Emit("info", "interaction.fired", "", map[string]interface{}{"i": i})
	}

	recent := bus.RecentEvents(5)
	if len(recent) != 5 {
		t.Errorf("expected 5 recent events, got %d", len(recent))
	}
	if recent[0].Fields["i"] != 5 {
		t.Errorf("expected first recent event i=5, got %v", recent[0].Fields["i"])
	}

	if all := bus.RecentEvents(100); len(all) != 10 {
		t.Errorf("expected 10 events when requesting 100, got %d", len(all))
	}
	if zero := bus.RecentEvents(0); len(zero) != 10 {
		t.Errorf("expected 10 events when requesting 0, got %d", len(zero))
	}
	if bus.TotalCount() != 10 {
		t.Errorf("expected total count 10, got %d", bus.TotalCount())
	}

	bus.Clear()
	if len(bus.Snapshot()) != 0 {
		t.Error("expected empty buffer after Clear")
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Add(Event{Name: "scene.started", Fields: map[string]interface{}{"i": i}})
	}
	snap := rb.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	if snap[0].Fields["i"] != 2 || snap[2].Fields["i"] != 4 {
		t.Errorf("unexpected order: %v", snap)
	}

	last := rb.Last(2)
	if len(last) != 2 || last[0].Fields["i"] != 3 || last[1].Fields["i"] != 4 {
		t.Errorf("expected the newest two events, got %v", last)
	}
	if rb.Len() != 3 {
		t.Errorf("expected Len 3, got %d", rb.Len())
	}

	rb.Clear()
	if rb.Len() != 0 || len(rb.Last(5)) != 0 {
		t.Error("expected empty buffer after Clear")
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	rb := NewRingBuffer(0)
	rb.Add(Event{Name: "scene.started"})
	rb.Add(Event{Name: "scene.stopped"})
	if got := rb.Snapshot(); len(got) != 1 || got[0].Name != "scene.stopped" {
		t.Errorf("expected only the newest event, got %v", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	bus.Unsubscribe(sub)

	if _, ok := <-sub; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}

func TestCloseAllSubscribers(t *testing.T) {
	bus := NewBus()
	sub1 := bus.Subscribe()
	sub2 := bus.Subscribe()
	sub3 := bus.Subscribe()

	if bus.SubscriberCount() != 3 {
		t.Errorf("expected 3 subscribers, got %d", bus.SubscriberCount())
	}

	bus.CloseAllSubscribers()

	_, ok1 := <-sub1
	_, ok2 := <-sub2
	_, ok3 := <-sub3
	if ok1 || ok2 || ok3 {
		t.Error("expected all channels to be closed")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after CloseAllSubscribers, got %d", bus.SubscriberCount())
	}
}

type mockSink struct {
	mu       sync.Mutex
	appended []string
	sessions []string
	err      error
}

func (m *mockSink) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.appended = append(m.appended, event)
	m.sessions = append(m.sessions, sessionID)
	return nil
}

func TestSinkReceivesEvents(t *testing.T) {
	bus := NewBus()
	sink := &mockSink{}
	bus.SetSink(sink, "session-1")

	bus.Emit("info", "variable.set", "", map[string]interface{}{"variable_id": "score"})

	if len(sink.appended) != 1 || sink.appended[0] != "variable.set" {
		t.Fatalf("expected variable.set to be appended, got %v", sink.appended)
	}
	if sink.sessions[0] != "session-1" {
		t.Errorf("expected session-1, got %s", sink.sessions[0])
	}
}

func TestSinkFailureReportedOnce(t *testing.T) {
	bus := NewBus()
	bus.SetSink(&mockSink{err: errors.New("db down")}, "")

	bus.Emit("info", "scene.started", "", nil)
	bus.Emit("info", "scene.stopped", "", nil)

	errorEvents := 0
	for _, e := range bus.Snapshot() {
		if e.Name == "system.error" {
			errorEvents++
		}
	}
	if errorEvents != 1 {
		t.Errorf("expected exactly 1 system.error, got %d", errorEvents)
	}
	if len(bus.Snapshot()) != 3 {
		t.Errorf("expected 3 buffered events, got %d", len(bus.Snapshot()))
	}
}
