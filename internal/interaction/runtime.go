// Package interaction runs the declarative interaction model: it dispatches
// triggers to the events authored on a node, executes their actions and
// drives state transitions on object handles from the tick loop.
//
// A Runtime is not safe for concurrent use. All calls must happen on the
// goroutine that drives its scheduler.
package interaction

import (
	"time"

	"github.com/AaronLay10/SentientStage/internal/easing"
	"github.com/AaronLay10/SentientStage/internal/events"
	"github.com/AaronLay10/SentientStage/internal/scene"
	"github.com/AaronLay10/SentientStage/internal/scheduler"
)

const (
	DefaultDuration = 300 * time.Millisecond
	MinDuration     = time.Millisecond
)

// Handlers receive the notifications the runtime does not interpret itself.
// Any of them may be nil.
type Handlers struct {
	OnSetVariable   func(variableID string, value any)
	OnPlayAnimation func(name, sourceNodeID string)
	OnOpenLink      func(url string)
}

// Options configures a Runtime. Zero values select the defaults.
type Options struct {
	Bus             *events.Bus
	Handlers        Handlers
	DefaultDuration time.Duration
	DefaultEasing   easing.Kind
}

// Runtime manages interaction dispatch and state transitions.
type Runtime struct {
	document func() *scene.Document
	objects  scene.Registry
	host     scheduler.Host

	bus             *events.Bus
	handlers        Handlers
	defaultDuration time.Duration
	defaultEasing   easing.Kind

	running    bool
	cancelTick scheduler.CancelFunc

	// active holds in-flight transitions in creation order.
	active    []*transition
	pending   map[string]scheduler.CancelFunc
	lastState map[string]string
}

// NewRuntime creates a runtime. document is called whenever the runtime needs
// the scene and is never cached across ticks.
func NewRuntime(document func() *scene.Document, objects scene.Registry, host scheduler.Host, opts Options) *Runtime {
	r := &Runtime{
		document:        document,
		objects:         objects,
		host:            host,
		bus:             opts.Bus,
		handlers:        opts.Handlers,
		defaultDuration: opts.DefaultDuration,
		defaultEasing:   opts.DefaultEasing,
		pending:         make(map[string]scheduler.CancelFunc),
		lastState:       make(map[string]string),
	}
	if r.defaultDuration <= 0 {
		r.defaultDuration = DefaultDuration
	}
	if r.defaultEasing == "" {
		r.defaultEasing = easing.Default
	}
	return r
}

// Start registers the tick callback and fires the start trigger on every node
// with interactions. Calling Start on a running runtime does nothing.
func (r *Runtime) Start() {
	if r.running {
		return
	}
	r.running = true
	r.cancelTick = r.host.OnTick(r.tick)
	r.FireEventForAll(scene.TriggerStart)
}

// Stop removes the tick callback and drops every in-flight transition and
// pending delay. Objects keep whatever values were last applied and no
// completion callbacks run.
func (r *Runtime) Stop() {
	if r.cancelTick != nil {
		r.cancelTick()
		r.cancelTick = nil
	}
	r.running = false

	for id, cancel := range r.pending {
		cancel()
		delete(r.pending, id)
	}
	for _, tr := range r.active {
		tr.done = true
	}
	r.active = nil
}

// Dispose stops the runtime and forgets the last completed state of every node.
func (r *Runtime) Dispose() {
	r.Stop()
	r.lastState = make(map[string]string)
}

// Running reports whether Start has been called without a following Stop.
func (r *Runtime) Running() bool {
	return r.running
}

// FireEvent runs every event on nodeID whose trigger matches and which has no
// key filter, in declaration order.
func (r *Runtime) FireEvent(nodeID string, trigger scene.Trigger) {
	r.fire(nodeID, trigger, "", false)
}

// FireKeyEvent is FireEvent for keyboard triggers. Events without a key filter
// match any key.
func (r *Runtime) FireKeyEvent(nodeID string, trigger scene.Trigger, key string) {
	r.fire(nodeID, trigger, key, true)
}

// FireEventForAll fires trigger on every node carrying interactions, in
// document order.
func (r *Runtime) FireEventForAll(trigger scene.Trigger) {
	doc := r.document()
	if doc == nil {
		return
	}
	ids := make([]string, 0, len(doc.Nodes))
	for i := range doc.Nodes {
		if doc.Nodes[i].Interactions != nil {
			ids = append(ids, doc.Nodes[i].ID)
		}
	}
	for _, id := range ids {
		r.FireEvent(id, trigger)
	}
}

func (r *Runtime) fire(nodeID string, trigger scene.Trigger, key string, keyed bool) {
	node := r.document().Node(nodeID)
	if node == nil || node.Interactions == nil {
		return
	}

	// Copy so actions that fire further events see a stable list.
	evs := append([]scene.InteractionEvent(nil), node.Interactions.Events...)
	for _, ev := range evs {
		if ev.Trigger != trigger {
			continue
		}
		if ev.Key != "" && (!keyed || ev.Key != key) {
			continue
		}
		action := node.Interactions.Action(ev.ActionID)
		if action == nil {
			continue
		}
		fields := map[string]interface{}{
			"node_id":   nodeID,
			"event_id":  ev.ID,
			"trigger":   string(trigger),
			"action_id": action.ID,
		}
		if key != "" {
			fields["key"] = key
		}
		r.emit("interaction.fired", fields)
		r.ExecuteAction(action, nodeID)
	}
}

func (r *Runtime) emit(name string, fields map[string]interface{}) {
	r.bus.Emit("info", name, "", fields)
}
