// Package player hosts one scene: it owns the tick loop, the object model and
// both runtimes, and it is the consumer of their notifications. Variables set
// by interactions land in its store; animation requests are routed to the
// timeline.
//
// Start, Stop, Dispose and the runtime accessors belong to the loop
// goroutine. Every other exported method is safe to call from any goroutine;
// commands are posted onto the loop and take effect on the next tick.
package player

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AaronLay10/SentientStage/internal/easing"
	"github.com/AaronLay10/SentientStage/internal/events"
	"github.com/AaronLay10/SentientStage/internal/interaction"
	"github.com/AaronLay10/SentientStage/internal/scene"
	"github.com/AaronLay10/SentientStage/internal/scheduler"
	"github.com/AaronLay10/SentientStage/internal/timeline"
	"github.com/AaronLay10/SentientStage/internal/viewer"
)

// Options configures a Player.
type Options struct {
	// Bus receives every runtime and host event. A new bus is created if nil.
	Bus *events.Bus
	// OnOpenLink handles openLink actions. The viewer has no browser, so the
	// default only records the request on the bus.
	OnOpenLink      func(url string)
	DefaultDuration time.Duration
	DefaultEasing   easing.Kind
}

type Player struct {
	loop    *scheduler.Loop
	bus     *events.Bus
	doc     *scene.Document
	objects *viewer.Registry

	interactions *interaction.Runtime
	timeline     *timeline.Player

	mu      sync.RWMutex
	vars    map[string]any
	status  timeline.Status
	running bool
}

// New builds a player for doc with one viewer object per node.
func New(doc *scene.Document, opts Options) *Player {
	if doc == nil {
		doc = &scene.Document{Version: scene.DocumentVersion}
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus()
	}

	p := &Player{
		loop:    scheduler.New(),
		bus:     bus,
		doc:     doc,
		objects: viewer.FromDocument(doc),
		vars:    make(map[string]any),
	}

	p.interactions = interaction.NewRuntime(p.document, p.objects, p.loop, interaction.Options{
		Bus: bus,
		Handlers: interaction.Handlers{
			OnSetVariable:   p.setVariable,
			OnPlayAnimation: p.playAnimation,
			OnOpenLink:      opts.OnOpenLink,
		},
		DefaultDuration: opts.DefaultDuration,
		DefaultEasing:   opts.DefaultEasing,
	})

	p.timeline = timeline.NewPlayer(p.objects, p.loop, bus)
	p.status = p.timeline.Status()
	p.timeline.Subscribe(func(s timeline.Status) {
		p.mu.Lock()
		p.status = s
		p.mu.Unlock()
	})

	bus.Emit("info", "scene.loaded", "", map[string]interface{}{
		"nodes": len(doc.Nodes),
		"clips": len(doc.Clips),
	})
	return p
}

func (p *Player) document() *scene.Document {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc
}

// Start starts the interaction runtime, which fires every start trigger.
func (p *Player) Start() {
	if p.interactions.Running() {
		return
	}
	p.interactions.Start()
	p.setRunning(true)
	p.bus.Emit("info", "scene.started", "", map[string]interface{}{
		"nodes": len(p.document().Nodes),
	})
}

// Stop halts both runtimes. Objects keep their current values.
func (p *Player) Stop() {
	p.interactions.Stop()
	p.timeline.Stop()
	p.setRunning(false)
	p.bus.Emit("info", "scene.stopped", "", nil)
}

// Dispose stops the player and releases per-node state and the active clip.
func (p *Player) Dispose() {
	p.interactions.Dispose()
	p.timeline.SetClip(nil)
	p.setRunning(false)
}

// Run drives the loop at hz until ctx is done. ticks > 0 stops after that
// many frames.
func (p *Player) Run(ctx context.Context, hz int, ticks uint64) error {
	return p.loop.Run(ctx, hz, ticks)
}

// Loop returns the scheduler driving the runtimes.
func (p *Player) Loop() *scheduler.Loop { return p.loop }

// Bus returns the player's event bus.
func (p *Player) Bus() *events.Bus { return p.bus }

// Document returns the scene document. It changes on Reload.
func (p *Player) Document() *scene.Document { return p.document() }

// Objects returns the object registry. It is safe for concurrent reads.
func (p *Player) Objects() *viewer.Registry { return p.objects }

// Interactions returns the interaction runtime.
func (p *Player) Interactions() *interaction.Runtime { return p.interactions }

// Timeline returns the timeline player.
func (p *Player) Timeline() *timeline.Player { return p.timeline }

// Running reports whether the scene has been started.
func (p *Player) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

func (p *Player) setRunning(v bool) {
	p.mu.Lock()
	p.running = v
	p.mu.Unlock()
}

// Fire queues trigger on nodeID. key is only used by keyboard triggers.
func (p *Player) Fire(nodeID string, trigger scene.Trigger, key string) error {
	if !scene.ValidTrigger(trigger) {
		return fmt.Errorf("unknown trigger: %s", trigger)
	}
	if p.document().Node(nodeID) == nil {
		return fmt.Errorf("node not found: %s", nodeID)
	}
	p.loop.Post(func() {
		if key != "" {
			p.interactions.FireKeyEvent(nodeID, trigger, key)
			return
		}
		p.interactions.FireEvent(nodeID, trigger)
	})
	return nil
}

// SelectClip queues ref, a clip id or name, as the active clip.
func (p *Player) SelectClip(ref string) error {
	clip := p.findClip(ref)
	if clip == nil {
		return fmt.Errorf("clip not found: %s", ref)
	}
	p.loop.Post(func() { p.timeline.SetClip(clip) })
	return nil
}

// PlayClip queues playback. An empty ref plays the active clip; otherwise ref
// is selected first.
func (p *Player) PlayClip(ref string) error {
	if ref == "" {
		p.loop.Post(p.timeline.Play)
		return nil
	}
	clip := p.findClip(ref)
	if clip == nil {
		return fmt.Errorf("clip not found: %s", ref)
	}
	p.loop.Post(func() {
		p.timeline.SetClip(clip)
		p.timeline.Play()
	})
	return nil
}

// PauseClip queues a timeline pause.
func (p *Player) PauseClip() {
	p.loop.Post(p.timeline.Pause)
}

// StopClip queues a timeline stop.
func (p *Player) StopClip() {
	p.loop.Post(p.timeline.Stop)
}

// SeekClip queues a seek to t seconds.
func (p *Player) SeekClip(t float64) {
	p.loop.Post(func() { p.timeline.Seek(t) })
}

// TimelineStatus returns the transport state as of the last tick.
func (p *Player) TimelineStatus() timeline.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Variable returns the value last set for id.
func (p *Player) Variable(id string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.vars[id]
	return v, ok
}

// Variables returns a copy of the variable store.
func (p *Player) Variables() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]any, len(p.vars))
	for k, v := range p.vars {
		out[k] = v
	}
	return out
}

// VariableIDs returns the ids in the variable store, sorted.
func (p *Player) VariableIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.vars))
	for k := range p.vars {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids
}

func (p *Player) setVariable(id string, value any) {
	p.mu.Lock()
	p.vars[id] = value
	p.mu.Unlock()
}

// playAnimation resolves an animation request by clip name, then id, and
// restarts that clip.
func (p *Player) playAnimation(name, _ string) {
	clip := p.findClip(name)
	if clip == nil {
		return
	}
	p.timeline.SetClip(clip)
	p.timeline.Play()
}

func (p *Player) findClip(ref string) *scene.AnimationClip {
	doc := p.document()
	if c := doc.ClipByName(ref); c != nil {
		return c
	}
	return doc.Clip(ref)
}

// Reload queues a swap to doc. Both runtimes are reset, objects are re-seeded
// from the new nodes and a running scene is started again, so start triggers
// fire once more. The variable store survives.
func (p *Player) Reload(doc *scene.Document) {
	if doc == nil {
		return
	}
	p.loop.Post(func() { p.reload(doc) })
}

func (p *Player) reload(doc *scene.Document) {
	wasRunning := p.interactions.Running()
	p.interactions.Dispose()
	p.timeline.SetClip(nil)

	keep := make(map[string]struct{}, len(doc.Nodes))
	for i := range doc.Nodes {
		keep[doc.Nodes[i].ID] = struct{}{}
	}
	for _, id := range p.objects.IDs() {
		if _, ok := keep[id]; !ok {
			p.objects.Unregister(id)
		}
	}
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		p.objects.Register(n.ID, viewer.NewObjectFromNode(n))
	}

	p.mu.Lock()
	p.doc = doc
	p.running = false
	p.mu.Unlock()

	p.bus.Emit("info", "scene.reloaded", "", map[string]interface{}{
		"nodes": len(doc.Nodes),
		"clips": len(doc.Clips),
	})
	if wasRunning {
		p.Start()
	}
}

// ObjectSnapshots returns a copy of every object's properties keyed by node id.
func (p *Player) ObjectSnapshots() map[string]viewer.Snapshot {
	return p.objects.Snapshots()
}
