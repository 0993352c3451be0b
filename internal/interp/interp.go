// Package interp blends two channel values given eased progress.
//
// Dispatch is on the type of the target value. Numbers blend linearly, Vec3
// values blend per component, "#RRGGBB" strings blend per RGB channel and
// booleans step at the midpoint. Anything else, including operands whose types
// disagree, holds the start value until progress reaches 1 and then snaps.
package interp

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/AaronLay10/SentientStage/internal/scene"
)

// Interpolate returns the value between from and to at eased progress t.
func Interpolate(from, to any, t float64) any {
	switch tv := to.(type) {
	case bool:
		fv, ok := from.(bool)
		if !ok {
			return snap(from, to, t)
		}
		if t >= 0.5 {
			return tv
		}
		return fv
	case string:
		if out, ok := Color(from, tv, t); ok {
			return out
		}
		return snap(from, to, t)
	case scene.Vec3:
		fv, ok := from.(scene.Vec3)
		if !ok {
			return snap(from, to, t)
		}
		return Vec3(fv, tv, t)
	}

	if tn, ok := Float(to); ok {
		if fn, ok := Float(from); ok {
			return Number(fn, tn, t)
		}
	}
	return snap(from, to, t)
}

// Number blends two numbers linearly. t == 1 returns to exactly.
func Number(from, to, t float64) float64 {
	if t == 1 {
		return to
	}
	return from + (to-from)*t
}

// Vec3 blends two vectors per component.
func Vec3(from, to scene.Vec3, t float64) scene.Vec3 {
	return scene.Vec3{
		Number(from[0], to[0], t),
		Number(from[1], to[1], t),
		Number(from[2], to[2], t),
	}
}

// Color blends two hex colors in RGB space. Each channel is rounded to the
// nearest integer before re-encoding. ok is false if either operand is not a
// parseable hex color.
func Color(from any, to string, t float64) (string, bool) {
	fs, ok := from.(string)
	if !ok {
		return "", false
	}
	fc, err := colorful.Hex(fs)
	if err != nil {
		return "", false
	}
	tc, err := colorful.Hex(to)
	if err != nil {
		return "", false
	}

	fr, fg, fb := fc.RGB255()
	tr, tg, tb := tc.RGB255()
	out := colorful.Color{
		R: blendByte(fr, tr, t) / 255,
		G: blendByte(fg, tg, t) / 255,
		B: blendByte(fb, tb, t) / 255,
	}
	return out.Hex(), true
}

func blendByte(from, to uint8, t float64) float64 {
	v := math.Round(Number(float64(from), float64(to), t))
	return math.Max(0, math.Min(255, v))
}

// Float converts any Go numeric kind to float64. Documents decoded from YAML
// carry ints where JSON would carry float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func snap(from, to any, t float64) any {
	if t >= 1 {
		return to
	}
	return from
}
