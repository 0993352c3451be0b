// Package viewer is the backend-free object model used by the exported
// viewer: every scene object is a plain property bag behind scene.Handle.
// The interaction and timeline runtimes drive it exactly as they drive a
// rendering backend.
package viewer

import (
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/AaronLay10/SentientStage/internal/scene"
)

// Object is a property bag for one scene object.
type Object struct {
	mu sync.RWMutex

	position scene.Vec3
	rotation scene.Vec3 // radians
	scale    scene.Vec3
	visible  bool

	hasMaterial       bool
	color             string
	opacity           float64
	emissive          string
	emissiveIntensity float64
}

// NewObject creates an object without a material at the origin.
func NewObject() *Object {
	return &Object{
		scale:   scene.Vec3{1, 1, 1},
		visible: true,
	}
}

// NewObjectFromNode seeds an object from a node's transform, visibility and
// material. Node rotation is authored in degrees.
func NewObjectFromNode(n *scene.SceneNode) *Object {
	o := &Object{
		position: n.Transform.Position,
		rotation: scene.RadiansVec(n.Transform.Rotation),
		scale:    n.Transform.Scale,
		visible:  n.Visible,
	}
	if m := n.Material; m != nil {
		o.hasMaterial = true
		o.color = normalizeHex(m.Color, "#ffffff")
		o.opacity = m.Opacity
		o.emissive = normalizeHex(m.Emissive, "#000000")
		o.emissiveIntensity = m.EmissiveIntensity
	}
	return o
}

// WithMaterial gives the object a material with the given base color.
func (o *Object) WithMaterial(color string) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hasMaterial = true
	o.color = normalizeHex(color, "#ffffff")
	o.opacity = 1
	o.emissive = "#000000"
	return o
}

// normalizeHex canonicalizes authored colors so values read back from the
// object compare equal to what the interpolator produces.
func normalizeHex(s, fallback string) string {
	if s == "" {
		return fallback
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return strings.ToLower(s)
	}
	return c.Hex()
}

func (o *Object) Position() scene.Vec3 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.position
}

func (o *Object) SetPosition(v scene.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.position = v
}

func (o *Object) Rotation() scene.Vec3 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.rotation
}

func (o *Object) SetRotation(v scene.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rotation = v
}

func (o *Object) Scale() scene.Vec3 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.scale
}

func (o *Object) SetScale(v scene.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scale = v
}

func (o *Object) Visible() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.visible
}

func (o *Object) SetVisible(v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visible = v
}

func (o *Object) Color() (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.color, o.hasMaterial
}

func (o *Object) SetColor(c string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hasMaterial {
		o.color = c
	}
}

func (o *Object) Opacity() (float64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.opacity, o.hasMaterial
}

func (o *Object) SetOpacity(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hasMaterial {
		o.opacity = v
	}
}

func (o *Object) Emissive() (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.emissive, o.hasMaterial
}

func (o *Object) SetEmissive(c string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hasMaterial {
		o.emissive = c
	}
}

func (o *Object) EmissiveIntensity() (float64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.emissiveIntensity, o.hasMaterial
}

func (o *Object) SetEmissiveIntensity(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hasMaterial {
		o.emissiveIntensity = v
	}
}

// Snapshot is a serializable copy of an object's properties. Rotation is
// reported in degrees.
type Snapshot struct {
	Position          scene.Vec3 `json:"position"`
	Rotation          scene.Vec3 `json:"rotation"`
	Scale             scene.Vec3 `json:"scale"`
	Visible           bool       `json:"visible"`
	Color             string     `json:"color,omitempty"`
	Opacity           *float64   `json:"opacity,omitempty"`
	Emissive          string     `json:"emissive,omitempty"`
	EmissiveIntensity *float64   `json:"emissiveIntensity,omitempty"`
}

// Snapshot returns a copy of the object's current properties.
func (o *Object) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := Snapshot{
		Position: o.position,
		Rotation: scene.DegreesVec(o.rotation),
		Scale:    o.scale,
		Visible:  o.visible,
	}
	if o.hasMaterial {
		opacity, intensity := o.opacity, o.emissiveIntensity
		s.Color = o.color
		s.Opacity = &opacity
		s.Emissive = o.emissive
		s.EmissiveIntensity = &intensity
	}
	return s
}
