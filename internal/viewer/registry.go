package viewer

import (
	"sync"

	"github.com/AaronLay10/SentientStage/internal/scene"
)

// Registry maps node ids to their objects.
type Registry struct {
	mu      sync.RWMutex
	objects map[string]*Object
	order   []string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		objects: make(map[string]*Object),
	}
}

// FromDocument creates one object per node, seeded from the node.
func FromDocument(doc *scene.Document) *Registry {
	r := NewRegistry()
	if doc == nil {
		return r
	}
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		r.Register(n.ID, NewObjectFromNode(n))
	}
	return r
}

// Register adds or replaces the object for id.
func (r *Registry) Register(id string, obj *Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.objects[id]; !exists {
		r.order = append(r.order, id)
	}
	r.objects[id] = obj
}

// Unregister removes the object for id.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.objects[id]; !exists {
		return
	}
	delete(r.objects, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Handle implements scene.Registry.
func (r *Registry) Handle(id string) (scene.Handle, bool) {
	obj := r.Get(id)
	if obj == nil {
		return nil, false
	}
	return obj, true
}

// Get returns the object for id, or nil if not found.
func (r *Registry) Get(id string) *Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.objects[id]
}

// IDs returns registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

// Count returns the number of registered objects.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// Snapshots returns a copy of every object's properties keyed by id.
func (r *Registry) Snapshots() map[string]Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Snapshot, len(r.objects))
	for id, obj := range r.objects {
		out[id] = obj.Snapshot()
	}
	return out
}
