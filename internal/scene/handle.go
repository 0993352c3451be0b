package scene

// Handle is the runtime's view of one renderable object. Rotation is in the
// backend's native unit (radians).
//
// Material channels are capabilities: objects without a material report
// ok=false from the getters and ignore the setters, so callers apply channels
// uniformly across object kinds.
type Handle interface {
	Position() Vec3
	SetPosition(Vec3)
	Rotation() Vec3
	SetRotation(Vec3)
	Scale() Vec3
	SetScale(Vec3)
	Visible() bool
	SetVisible(bool)

	Color() (string, bool)
	SetColor(string)
	Opacity() (float64, bool)
	SetOpacity(float64)
	Emissive() (string, bool)
	SetEmissive(string)
	EmissiveIntensity() (float64, bool)
	SetEmissiveIntensity(float64)
}

// Registry resolves a node id to its object handle.
type Registry interface {
	Handle(id string) (Handle, bool)
}
