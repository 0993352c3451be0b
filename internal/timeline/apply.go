package timeline

import (
	"github.com/AaronLay10/SentientStage/internal/interp"
	"github.com/AaronLay10/SentientStage/internal/scene"
)

// Apply writes a sampled value to one property of h. Rotation values are
// degrees and are written in radians. Values of the wrong type for the
// property, and nil, are ignored.
func Apply(h scene.Handle, prop scene.Property, value any) {
	if h == nil || value == nil {
		return
	}

	if group, axis, ok := prop.Axis(); ok {
		f, ok := interp.Float(value)
		if !ok {
			return
		}
		switch group {
		case "position":
			v := h.Position()
			v[axis] = f
			h.SetPosition(v)
		case "rotation":
			v := h.Rotation()
			v[axis] = scene.Radians(f)
			h.SetRotation(v)
		case "scale":
			v := h.Scale()
			v[axis] = f
			h.SetScale(v)
		}
		return
	}

	switch prop {
	case scene.PropOpacity:
		if f, ok := interp.Float(value); ok {
			h.SetOpacity(f)
		}
	case scene.PropEmissiveIntensity:
		if f, ok := interp.Float(value); ok {
			h.SetEmissiveIntensity(f)
		}
	case scene.PropColor:
		if s, ok := value.(string); ok {
			h.SetColor(s)
		}
	case scene.PropVisible:
		if b, ok := value.(bool); ok {
			h.SetVisible(b)
		}
	}
}
