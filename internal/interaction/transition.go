package interaction

import (
	"time"

	"github.com/AaronLay10/SentientStage/internal/easing"
	"github.com/AaronLay10/SentientStage/internal/interp"
	"github.com/AaronLay10/SentientStage/internal/scene"
)

// TransitionOption customizes a single TransitionToState call.
type TransitionOption func(*transitionConfig)

type transitionConfig struct {
	duration   time.Duration
	easing     easing.Kind
	delay      time.Duration
	onComplete func()
}

// WithDuration sets the transition length. Values under a millisecond are
// clamped to one.
func WithDuration(d time.Duration) TransitionOption {
	return func(c *transitionConfig) { c.duration = d }
}

// WithEasing sets the easing curve.
func WithEasing(k easing.Kind) TransitionOption {
	return func(c *transitionConfig) { c.easing = k }
}

// WithDelay postpones the start of the transition.
func WithDelay(d time.Duration) TransitionOption {
	return func(c *transitionConfig) { c.delay = d }
}

// OnComplete is called once the transition runs to completion. It is not
// called for superseded or stopped transitions.
func OnComplete(fn func()) TransitionOption {
	return func(c *transitionConfig) { c.onComplete = fn }
}

type transition struct {
	handleID string
	nodeID   string
	stateID  string
	handle   scene.Handle

	from scene.StateOverrides
	to   scene.StateOverrides

	duration time.Duration
	elapsed  time.Duration
	ease     func(float64) float64

	onComplete func()
	done       bool
}

// TransitionInfo describes an in-flight transition.
type TransitionInfo struct {
	HandleID string               `json:"handle_id"`
	NodeID   string               `json:"node_id"`
	StateID  string               `json:"state_id"`
	From     scene.StateOverrides `json:"from"`
	To       scene.StateOverrides `json:"to"`
	Elapsed  time.Duration        `json:"elapsed"`
	Duration time.Duration        `json:"duration"`
}

// TransitionToState blends nodeID's object toward state. A later call for the
// same object replaces both a pending delayed start and an in-flight
// transition; the replacement blends from wherever the object is when it
// actually starts.
func (r *Runtime) TransitionToState(nodeID string, state *scene.ObjectState, opts ...TransitionOption) {
	if state == nil {
		return
	}
	// Handle ids are node ids.
	handleID := nodeID
	handle, ok := r.objects.Handle(handleID)
	if !ok || handle == nil {
		return
	}

	cfg := transitionConfig{
		duration: r.defaultDuration,
		easing:   r.defaultEasing,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.duration < MinDuration {
		cfg.duration = MinDuration
	}

	if cancel, ok := r.pending[handleID]; ok {
		cancel()
		delete(r.pending, handleID)
		r.emit("transition.superseded", map[string]interface{}{
			"node_id": nodeID,
			"pending": true,
		})
	}

	stateID := state.ID
	to := state.Overrides
	start := func() {
		r.begin(handleID, nodeID, stateID, handle, to, cfg)
	}

	if cfg.delay <= 0 {
		start()
		return
	}

	r.pending[handleID] = r.host.Schedule(cfg.delay, func() {
		delete(r.pending, handleID)
		start()
	})
	r.emit("transition.scheduled", map[string]interface{}{
		"node_id":  nodeID,
		"state_id": stateID,
		"delay_ms": cfg.delay.Milliseconds(),
	})
}

func (r *Runtime) begin(handleID, nodeID, stateID string, handle scene.Handle, to scene.StateOverrides, cfg transitionConfig) {
	from := capture(handle, to)

	for i, tr := range r.active {
		if tr.handleID != handleID {
			continue
		}
		tr.done = true
		r.active = append(r.active[:i], r.active[i+1:]...)
		r.emit("transition.superseded", map[string]interface{}{
			"node_id":  tr.nodeID,
			"state_id": tr.stateID,
		})
		break
	}

	r.active = append(r.active, &transition{
		handleID:   handleID,
		nodeID:     nodeID,
		stateID:    stateID,
		handle:     handle,
		from:       from,
		to:         to,
		duration:   cfg.duration,
		ease:       easing.Func(cfg.easing),
		onComplete: cfg.onComplete,
	})
	r.emit("transition.started", map[string]interface{}{
		"node_id":     nodeID,
		"state_id":    stateID,
		"duration_ms": cfg.duration.Milliseconds(),
		"easing":      string(cfg.easing),
	})
}

func (r *Runtime) tick(dt time.Duration) {
	for _, tr := range append([]*transition(nil), r.active...) {
		if tr.done {
			continue
		}
		tr.elapsed += dt
		progress := float64(tr.elapsed) / float64(tr.duration)
		if progress > 1 {
			progress = 1
		}
		applyOverrides(tr.handle, tr.from, tr.to, tr.ease(progress))

		if progress >= 1 {
			r.finish(tr)
		}
	}
}

func (r *Runtime) finish(tr *transition) {
	tr.done = true
	for i, v := range r.active {
		if v == tr {
			r.active = append(r.active[:i], r.active[i+1:]...)
			break
		}
	}
	r.lastState[tr.nodeID] = tr.stateID
	r.emit("transition.completed", map[string]interface{}{
		"node_id":  tr.nodeID,
		"state_id": tr.stateID,
	})
	if tr.onComplete != nil {
		tr.onComplete()
	}
}

// RestoreState snaps nodeID onto stateID and records it as the last state,
// without a transition and without events. It reports whether the node, the
// state and the object all resolved.
func (r *Runtime) RestoreState(nodeID, stateID string) bool {
	state := r.lookupState(nodeID, stateID)
	if state == nil {
		return false
	}
	h, ok := r.objects.Handle(nodeID)
	if !ok {
		return false
	}
	applyOverrides(h, capture(h, state.Overrides), state.Overrides, 1)
	r.lastState[nodeID] = stateID
	return true
}

// ActiveTransitions returns the in-flight transitions in creation order.
func (r *Runtime) ActiveTransitions() []TransitionInfo {
	out := make([]TransitionInfo, 0, len(r.active))
	for _, tr := range r.active {
		out = append(out, TransitionInfo{
			HandleID: tr.handleID,
			NodeID:   tr.nodeID,
			StateID:  tr.stateID,
			From:     tr.from,
			To:       tr.to,
			Elapsed:  tr.elapsed,
			Duration: tr.duration,
		})
	}
	return out
}

// PendingCount returns the number of delayed transitions waiting to start.
func (r *Runtime) PendingCount() int {
	return len(r.pending)
}

// LastState returns the last state nodeID completed a transition to.
func (r *Runtime) LastState(nodeID string) (string, bool) {
	id, ok := r.lastState[nodeID]
	return id, ok
}

// capture reads the live value of every channel set in to. Rotation is
// captured in degrees to match authored overrides. Material channels the
// object does not have stay nil.
func capture(h scene.Handle, to scene.StateOverrides) scene.StateOverrides {
	var from scene.StateOverrides
	if to.Position != nil {
		v := h.Position()
		from.Position = &v
	}
	if to.Rotation != nil {
		v := scene.DegreesVec(h.Rotation())
		from.Rotation = &v
	}
	if to.Scale != nil {
		v := h.Scale()
		from.Scale = &v
	}
	if to.Visible != nil {
		v := h.Visible()
		from.Visible = &v
	}
	if to.Color != nil {
		if v, ok := h.Color(); ok {
			from.Color = &v
		}
	}
	if to.Opacity != nil {
		if v, ok := h.Opacity(); ok {
			from.Opacity = &v
		}
	}
	if to.Emissive != nil {
		if v, ok := h.Emissive(); ok {
			from.Emissive = &v
		}
	}
	if to.EmissiveIntensity != nil {
		if v, ok := h.EmissiveIntensity(); ok {
			from.EmissiveIntensity = &v
		}
	}
	return from
}

// applyOverrides writes every channel present in both from and to at eased
// progress t.
func applyOverrides(h scene.Handle, from, to scene.StateOverrides, t float64) {
	if from.Position != nil && to.Position != nil {
		h.SetPosition(interp.Vec3(*from.Position, *to.Position, t))
	}
	if from.Rotation != nil && to.Rotation != nil {
		h.SetRotation(scene.RadiansVec(interp.Vec3(*from.Rotation, *to.Rotation, t)))
	}
	if from.Scale != nil && to.Scale != nil {
		h.SetScale(interp.Vec3(*from.Scale, *to.Scale, t))
	}
	if from.Visible != nil && to.Visible != nil {
		if v, ok := interp.Interpolate(*from.Visible, *to.Visible, t).(bool); ok {
			h.SetVisible(v)
		}
	}
	if from.Color != nil && to.Color != nil {
		if v, ok := interp.Interpolate(*from.Color, *to.Color, t).(string); ok {
			h.SetColor(v)
		}
	}
	if from.Opacity != nil && to.Opacity != nil {
		h.SetOpacity(interp.Number(*from.Opacity, *to.Opacity, t))
	}
	if from.Emissive != nil && to.Emissive != nil {
		if v, ok := interp.Interpolate(*from.Emissive, *to.Emissive, t).(string); ok {
			h.SetEmissive(v)
		}
	}
	if from.EmissiveIntensity != nil && to.EmissiveIntensity != nil {
		h.SetEmissiveIntensity(interp.Number(*from.EmissiveIntensity, *to.EmissiveIntensity, t))
	}
}
