package timeline

import (
	"github.com/AaronLay10/SentientStage/internal/easing"
	"github.com/AaronLay10/SentientStage/internal/interp"
	"github.com/AaronLay10/SentientStage/internal/scene"
)

// Sample returns the value of a keyframe list at time t (seconds). An empty
// list yields nil, which Apply ignores. Times outside the keyframe range hold
// the first or last value. Each segment is eased with the curve of the
// keyframe it ends at.
func Sample(kfs []scene.Keyframe, t float64) any {
	switch len(kfs) {
	case 0:
		return nil
	case 1:
		return kfs[0].Value
	}

	first, last := kfs[0], kfs[len(kfs)-1]
	if t <= first.Time {
		return first.Value
	}
	if t >= last.Time {
		return last.Value
	}

	for i := 1; i < len(kfs); i++ {
		k0, k1 := kfs[i-1], kfs[i]
		if t < k0.Time || t > k1.Time {
			continue
		}
		span := k1.Time - k0.Time
		if span <= 0 {
			return k1.Value
		}
		p := (t - k0.Time) / span
		return interp.Interpolate(k0.Value, k1.Value, easing.Apply(k1.Easing, p))
	}
	return last.Value
}
