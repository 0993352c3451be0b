// Package easing maps normalized progress to eased progress.
package easing

import (
	"math"

	"github.com/fogleman/ease"
)

// Kind names an easing curve as authored in scene documents.
type Kind string

const (
	Linear    Kind = "linear"
	EaseIn    Kind = "easeIn"
	EaseOut   Kind = "easeOut"
	EaseInOut Kind = "easeInOut"
	Spring    Kind = "spring"
	Bounce    Kind = "bounce"
)

// Default is used when an action or keyframe omits its easing.
const Default = EaseInOut

// Func returns the curve for kind. Unknown kinds fall back to easeInOut.
func Func(kind Kind) func(float64) float64 {
	switch kind {
	case Linear:
		return ease.Linear
	case EaseIn:
		return ease.InCubic
	case EaseOut:
		return ease.OutCubic
	case EaseInOut:
		return ease.InOutCubic
	case Spring:
		return spring
	case Bounce:
		return bounce
	default:
		return ease.InOutCubic
	}
}

// Apply eases t with the curve for kind.
func Apply(kind Kind, t float64) float64 {
	return Func(kind)(t)
}

// Valid reports whether kind is one of the known curves.
func Valid(kind Kind) bool {
	switch kind {
	case Linear, EaseIn, EaseOut, EaseInOut, Spring, Bounce:
		return true
	}
	return false
}

// spring is an exponentially decaying sine that overshoots before settling.
// The endpoints are pinned so a finished transition lands exactly on target.
func spring(t float64) float64 {
	if t == 0 {
		return 0
	}
	if t == 1 {
		return 1
	}
	const c4 = (2 * math.Pi) / 3
	return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*c4) + 1
}

// bounce is the standard bounce-out curve.
func bounce(t float64) float64 {
	const n1 = 7.5625
	const d1 = 2.75

	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}
