package player

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/AaronLay10/SentientStage/internal/scene"
	"github.com/AaronLay10/SentientStage/internal/timeline"
)

func loadDemo(t *testing.T) *Player {
	t.Helper()
	doc, err := scene.LoadDocument("../../scenes/demo/scene.json")
	if err != nil {
		t.Fatalf("failed to load demo scene: %v", err)
	}
	return New(doc, Options{})
}

func advance(p *Player, total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		p.Loop().Advance(step)
	}
}

func TestStartRunsDelayedStartAction(t *testing.T) {
	p := loadDemo(t)
	p.Start()
	if !p.Running() {
		t.Fatal("expected player to be running")
	}

	lamp := p.Objects().Get("lamp")
	advance(p, 100*time.Millisecond, 100*time.Millisecond)
	if v, _ := lamp.EmissiveIntensity(); v != 0 {
		t.Fatalf("expected intensity 0 before the delayed transition runs, got %v", v)
	}

	advance(p, 300*time.Millisecond, 100*time.Millisecond)
	if v, _ := lamp.EmissiveIntensity(); math.Abs(v-1.2) > 1e-9 {
		t.Errorf("expected intensity 1.2 at 300ms into the transition, got %v", v)
	}

	advance(p, 200*time.Millisecond, 100*time.Millisecond)
	if v, _ := lamp.EmissiveIntensity(); v != 2 {
		t.Errorf("expected intensity 2 after completion, got %v", v)
	}
	if last, _ := p.Interactions().LastState("lamp"); last != "on" {
		t.Errorf("expected lamp last state on, got %q", last)
	}
}

func TestFireToggle(t *testing.T) {
	p := loadDemo(t)
	p.Start()

	if err := p.Fire("button", scene.TriggerClick, ""); err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	advance(p, 200*time.Millisecond, 50*time.Millisecond)

	button := p.Objects().Get("button")
	if got := button.Position(); got != (scene.Vec3{0, -0.1, 0}) {
		t.Errorf("expected pressed position, got %v", got)
	}
	if c, _ := button.Color(); c != "#ff3366" {
		t.Errorf("expected pressed color #ff3366, got %s", c)
	}

	p.Fire("button", scene.TriggerClick, "")
	advance(p, 200*time.Millisecond, 50*time.Millisecond)
	if c, _ := button.Color(); c != "#3366ff" {
		t.Errorf("expected raised color #3366ff, got %s", c)
	}
}

func TestFireValidation(t *testing.T) {
	p := loadDemo(t)

	if err := p.Fire("button", scene.Trigger("wave"), ""); err == nil {
		t.Error("expected error for unknown trigger")
	}
	if err := p.Fire("ghost", scene.TriggerClick, ""); err == nil {
		t.Error("expected error for missing node")
	}
	if err := p.PlayClip("nope"); err == nil {
		t.Error("expected error for missing clip")
	}
	if err := p.SelectClip("nope"); err == nil {
		t.Error("expected error for missing clip")
	}
}

func TestPlayAnimationRoutesToTimeline(t *testing.T) {
	p := loadDemo(t)
	p.Start()

	if err := p.Fire("button", scene.TriggerKeyDown, "Space"); err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	p.Loop().Advance(500 * time.Millisecond)

	status := p.TimelineStatus()
	if status.ClipID != "clip-spin" || status.State != timeline.StatePlaying {
		t.Fatalf("expected clip-spin playing, got %+v", status)
	}
	rot := p.Objects().Get("lamp").Rotation()
	if math.Abs(rot[1]-math.Pi/2) > 1e-9 {
		t.Errorf("expected lamp rotation.y pi/2, got %v", rot[1])
	}

	p.PauseClip()
	p.SeekClip(1)
	p.Loop().Advance(0)

	status = p.TimelineStatus()
	if status.State != timeline.StatePaused || status.Time != 1 {
		t.Errorf("expected paused at 1, got %+v", status)
	}
	rot = p.Objects().Get("lamp").Rotation()
	if math.Abs(rot[1]-math.Pi) > 1e-9 {
		t.Errorf("expected lamp rotation.y pi after seek, got %v", rot[1])
	}

	p.StopClip()
	p.Loop().Advance(0)
	if s := p.TimelineStatus(); s.State != timeline.StateStopped || s.Time != 0 {
		t.Errorf("expected stopped at 0, got %+v", s)
	}

	played := false
	for _, e := range p.Bus().Snapshot() {
		if e.Name == "animation.play" && e.Fields["animation"] == "spin" {
			played = true
		}
	}
	if !played {
		t.Error("expected animation.play event for spin")
	}
}

func TestSetVariable(t *testing.T) {
	p := loadDemo(t)
	p.Fire("lamp", scene.TriggerMouseEnter, "")
	p.Loop().Advance(time.Millisecond)

	v, ok := p.Variable("hovered")
	if !ok || v != true {
		t.Errorf("expected hovered=true, got %v %v", v, ok)
	}
	if ids := p.VariableIDs(); len(ids) != 1 || ids[0] != "hovered" {
		t.Errorf("unexpected variable ids %v", ids)
	}
	vars := p.Variables()
	vars["hovered"] = false
	if v, _ := p.Variable("hovered"); v != true {
		t.Error("Variables must return a copy")
	}
}

func TestStopAndDispose(t *testing.T) {
	p := loadDemo(t)
	p.Start()
	p.PlayClip("spin")
	p.Loop().Advance(50 * time.Millisecond)
	if p.Interactions().PendingCount() != 1 {
		t.Fatalf("expected the delayed start action pending, got %d", p.Interactions().PendingCount())
	}

	p.Stop()
	if p.Running() {
		t.Error("expected player stopped")
	}
	if p.Timeline().State() != timeline.StateStopped {
		t.Errorf("expected timeline stopped, got %s", p.Timeline().State())
	}
	if p.Interactions().PendingCount() != 0 {
		t.Error("expected pending start action cancelled")
	}

	advance(p, 700*time.Millisecond, 100*time.Millisecond)
	if v, _ := p.Objects().Get("lamp").EmissiveIntensity(); v != 0 {
		t.Errorf("cancelled start action changed intensity to %v", v)
	}
	for _, e := range p.Bus().Snapshot() {
		if e.Name == "transition.started" {
			t.Errorf("unexpected transition.started after stop: %v", e.Fields)
		}
	}

	p.Dispose()
	if p.Timeline().Status().ClipID != "" {
		t.Error("expected clip cleared after dispose")
	}
}

func TestRunDrivesLoop(t *testing.T) {
	p := loadDemo(t)
	p.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Run(ctx, 200, 5); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if p.Loop().Frames() != 5 {
		t.Errorf("expected 5 frames, got %d", p.Loop().Frames())
	}
}

const overlapScene = `{
  "version": 1,
  "nodes": [
    {
      "id": "box",
      "name": "Box",
      "transform": {"position": [0, 0, 0], "rotation": [0, 0, 0], "scale": [1, 1, 1]},
      "visible": true,
      "interactions": {
        "states": [
          {"id": "right", "name": "Right", "overrides": {"position": [10, 0, 0]}}
        ],
        "events": [
          {"id": "ev-click", "trigger": "click", "actionId": "act-right"}
        ],
        "actions": [
          {"id": "act-right", "kind": "transition", "targetStateId": "right", "duration": 1000, "easing": "linear"}
        ]
      }
    }
  ],
  "clips": [
    {
      "id": "clip-slide",
      "name": "slide",
      "duration": 4,
      "loop": false,
      "tracks": [
        {
          "id": "trk-x",
          "targetNodeId": "box",
          "property": "position.x",
          "keyframes": [
            {"time": 0, "value": 0, "easing": "linear"},
            {"time": 4, "value": 4, "easing": "linear"}
          ]
        }
      ]
    }
  ]
}`

func TestTimelineWinsSharedPropertyWithinTick(t *testing.T) {
	doc, err := scene.ParseJSON([]byte(overlapScene))
	if err != nil {
		t.Fatalf("failed to parse scene: %v", err)
	}
	p := New(doc, Options{})
	p.Start()
	p.PlayClip("slide")
	p.Fire("box", scene.TriggerClick, "")

	p.Loop().Advance(500 * time.Millisecond)
	if len(p.Interactions().ActiveTransitions()) != 1 {
		t.Fatalf("expected the transition in flight, got %d", len(p.Interactions().ActiveTransitions()))
	}
	box := p.Objects().Get("box")
	if got, want := box.Position()[0], p.Timeline().Time(); math.Abs(got-want) > 1e-9 || want == 0 {
		t.Errorf("expected timeline value %v for position.x, got %v", want, got)
	}

	// The transition completes and snaps to 10 on this tick, then the track writes.
	p.Loop().Advance(600 * time.Millisecond)
	if last, _ := p.Interactions().LastState("box"); last != "right" {
		t.Fatalf("expected transition complete, got last state %q", last)
	}
	if got, want := box.Position()[0], p.Timeline().Time(); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected timeline value %v after completion, got %v", want, got)
	}
}

const reloadedScene = `{
  "version": 1,
  "nodes": [
    {
      "id": "lamp",
      "name": "Lamp",
      "transform": {"position": [5, 0, 0], "rotation": [0, 0, 0], "scale": [1, 1, 1]},
      "visible": true,
      "material": {"color": "#202020", "opacity": 1, "emissive": "#ffcc00", "emissiveIntensity": 0}
    }
  ]
}`

func TestReloadSwapsDocument(t *testing.T) {
	p := loadDemo(t)
	p.Start()
	p.Fire("lamp", scene.TriggerMouseEnter, "")
	advance(p, 700*time.Millisecond, 100*time.Millisecond)
	if last, _ := p.Interactions().LastState("lamp"); last != "on" {
		t.Fatalf("expected lamp on before reload, got %q", last)
	}

	doc, err := scene.ParseJSON([]byte(reloadedScene))
	if err != nil {
		t.Fatalf("failed to parse scene: %v", err)
	}
	p.Reload(doc)
	p.Loop().Advance(0)

	if p.Objects().Get("button") != nil {
		t.Error("expected button unregistered after reload")
	}
	lamp := p.Objects().Get("lamp")
	if lamp.Position() != (scene.Vec3{5, 0, 0}) {
		t.Errorf("expected lamp re-seeded at [5 0 0], got %v", lamp.Position())
	}
	if v, _ := lamp.EmissiveIntensity(); v != 0 {
		t.Errorf("expected re-seeded intensity 0, got %v", v)
	}
	if _, ok := p.Interactions().LastState("lamp"); ok {
		t.Error("expected last state cleared by reload")
	}
	if !p.Running() {
		t.Error("expected running scene to restart after reload")
	}
	if v, ok := p.Variable("hovered"); !ok || v != true {
		t.Error("expected variables to survive reload")
	}
	if err := p.Fire("button", scene.TriggerClick, ""); err == nil {
		t.Error("expected fire on removed node to fail")
	}

	reloaded := false
	for _, e := range p.Bus().Snapshot() {
		if e.Name == "scene.reloaded" {
			reloaded = true
		}
	}
	if !reloaded {
		t.Error("expected scene.reloaded event")
	}
}

func TestReloadNilIgnored(t *testing.T) {
	p := loadDemo(t)
	p.Reload(nil)
	p.Loop().Advance(0)
	if p.Objects().Get("button") == nil {
		t.Error("nil reload must keep the current document")
	}
}
