// Package timeline plays one animation clip at a time: it advances the clip
// clock on every tick, samples every track and writes the result through the
// object handles.
//
// A Player is not safe for concurrent use; see package scheduler.
package timeline

import (
	"math"
	"time"

	"github.com/AaronLay10/SentientStage/internal/events"
	"github.com/AaronLay10/SentientStage/internal/scene"
	"github.com/AaronLay10/SentientStage/internal/scheduler"
)

// State is the transport state of a Player.
type State string

const (
	StateStopped State = "stopped"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Status is a copy of the transport state handed to listeners.
type Status struct {
	ClipID   string  `json:"clip_id,omitempty"`
	ClipName string  `json:"clip_name,omitempty"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
	Loop     bool    `json:"loop"`
	State    State   `json:"state"`
}

// Listener is called after every state change.
type Listener func(Status)

type Player struct {
	objects scene.Registry
	ticks   scheduler.Ticks
	bus     *events.Bus

	clip       *scene.AnimationClip
	time       float64
	state      State
	cancelTick scheduler.CancelFunc

	listeners    map[int]Listener
	listenerIDs  []int
	nextListener int
}

// NewPlayer creates a stopped player with no clip. bus may be nil.
func NewPlayer(objects scene.Registry, ticks scheduler.Ticks, bus *events.Bus) *Player {
	return &Player{
		objects:   objects,
		ticks:     ticks,
		bus:       bus,
		state:     StateStopped,
		listeners: make(map[int]Listener),
	}
}

// SetClip stops playback, rewinds to 0 and makes clip the active clip.
// A nil clip clears it.
func (p *Player) SetClip(clip *scene.AnimationClip) {
	p.halt()
	p.time = 0
	p.state = StateStopped
	if clip == nil {
		p.clip = nil
	} else {
		c := *clip
		p.clip = &c
	}

	fields := map[string]interface{}{}
	if p.clip != nil {
		fields["clip_id"] = p.clip.ID
		fields["clip_name"] = p.clip.Name
	}
	p.bus.Emit("info", "timeline.clip", "", fields)
	p.notify()
}

// Play starts advancing the clock. It does nothing without a clip or while
// already playing. A non-looping clip sitting at its end restarts from 0.
func (p *Player) Play() {
	if p.clip == nil || p.state == StatePlaying {
		return
	}
	if !p.clip.Loop && p.time >= p.clip.Duration {
		p.time = 0
	}
	p.state = StatePlaying
	p.cancelTick = p.ticks.OnTick(p.tick)

	p.bus.Emit("info", "timeline.play", "", p.fields())
	p.notify()
}

// Pause freezes the clock. Only a playing player can pause.
func (p *Player) Pause() {
	if p.state != StatePlaying {
		return
	}
	p.halt()
	p.state = StatePaused

	p.bus.Emit("info", "timeline.pause", "", p.fields())
	p.notify()
}

// Stop halts playback and rewinds to 0.
func (p *Player) Stop() {
	p.halt()
	p.state = StateStopped
	p.time = 0

	p.bus.Emit("info", "timeline.stop", "", p.fields())
	p.notify()
}

// Seek moves the clock to t, clamped to the clip, and applies every track at
// that time. Playback state is unchanged.
func (p *Player) Seek(t float64) {
	if p.clip == nil {
		return
	}
	p.time = clamp(t, 0, p.clip.Duration)
	p.applyAll()

	p.bus.Emit("info", "timeline.seek", "", p.fields())
	p.notify()
}

// Subscribe registers l and returns a function that removes it.
func (p *Player) Subscribe(l Listener) func() {
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = l
	p.listenerIDs = append(p.listenerIDs, id)

	return func() {
		if _, ok := p.listeners[id]; !ok {
			return
		}
		delete(p.listeners, id)
		for i, v := range p.listenerIDs {
			if v == id {
				p.listenerIDs = append(p.listenerIDs[:i], p.listenerIDs[i+1:]...)
				break
			}
		}
	}
}

// Status returns the current transport state.
func (p *Player) Status() Status {
	s := Status{Time: p.time, State: p.state}
	if p.clip != nil {
		s.ClipID = p.clip.ID
		s.ClipName = p.clip.Name
		s.Duration = p.clip.Duration
		s.Loop = p.clip.Loop
	}
	return s
}

// Time returns the clip clock in seconds.
func (p *Player) Time() float64 {
	return p.time
}

// State returns the transport state.
func (p *Player) State() State {
	return p.state
}

func (p *Player) tick(dt time.Duration) {
	if p.clip == nil || p.state != StatePlaying {
		return
	}

	p.time += dt.Seconds()
	completed := false
	if d := p.clip.Duration; p.time >= d {
		switch {
		case p.clip.Loop && d > 0:
			p.time = math.Mod(p.time, d)
		case p.clip.Loop:
			p.time = 0
		default:
			p.time = d
			p.state = StateStopped
			p.halt()
			completed = true
		}
	}

	p.applyAll()
	if completed {
		p.bus.Emit("info", "timeline.completed", "", p.fields())
	}
	p.notify()
}

// applyAll samples every track in declared order at the current time.
func (p *Player) applyAll() {
	for i := range p.clip.Tracks {
		tr := &p.clip.Tracks[i]
		h, ok := p.objects.Handle(tr.TargetNodeID)
		if !ok {
			continue
		}
		Apply(h, tr.Property, Sample(tr.Keyframes, p.time))
	}
}

func (p *Player) halt() {
	if p.cancelTick != nil {
		p.cancelTick()
		p.cancelTick = nil
	}
}

func (p *Player) notify() {
	if len(p.listenerIDs) == 0 {
		return
	}
	s := p.Status()
	for _, id := range append([]int(nil), p.listenerIDs...) {
		if l, ok := p.listeners[id]; ok {
			l(s)
		}
	}
}

func (p *Player) fields() map[string]interface{} {
	f := map[string]interface{}{
		"time": p.time,
	}
	if p.clip != nil {
		f["clip_id"] = p.clip.ID
	}
	return f
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
