package scene

import "math"

// Property is the path a timeline track writes to.
type Property string

const (
	PropPositionX         Property = "position.x"
	PropPositionY         Property = "position.y"
	PropPositionZ         Property = "position.z"
	PropRotationX         Property = "rotation.x"
	PropRotationY         Property = "rotation.y"
	PropRotationZ         Property = "rotation.z"
	PropScaleX            Property = "scale.x"
	PropScaleY            Property = "scale.y"
	PropScaleZ            Property = "scale.z"
	PropOpacity           Property = "opacity"
	PropColor             Property = "material.color"
	PropEmissiveIntensity Property = "material.emissiveIntensity"
	PropVisible           Property = "visible"
)

// Axis splits a transform property into its vector group and axis index.
// ok is false for non-transform properties.
func (p Property) Axis() (group string, axis int, ok bool) {
	switch p {
	case PropPositionX:
		return "position", 0, true
	case PropPositionY:
		return "position", 1, true
	case PropPositionZ:
		return "position", 2, true
	case PropRotationX:
		return "rotation", 0, true
	case PropRotationY:
		return "rotation", 1, true
	case PropRotationZ:
		return "rotation", 2, true
	case PropScaleX:
		return "scale", 0, true
	case PropScaleY:
		return "scale", 1, true
	case PropScaleZ:
		return "scale", 2, true
	}
	return "", 0, false
}

// Valid reports whether p is a known property path.
func (p Property) Valid() bool {
	if _, _, ok := p.Axis(); ok {
		return true
	}
	switch p {
	case PropOpacity, PropColor, PropEmissiveIntensity, PropVisible:
		return true
	}
	return false
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// RadiansVec converts a degree triple to radians.
func RadiansVec(v Vec3) Vec3 {
	return Vec3{Radians(v[0]), Radians(v[1]), Radians(v[2])}
}

// DegreesVec converts a radian triple to degrees.
func DegreesVec(v Vec3) Vec3 {
	return Vec3{Degrees(v[0]), Degrees(v[1]), Degrees(v[2])}
}
