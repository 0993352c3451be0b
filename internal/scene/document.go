// Package scene holds the scene document model the runtimes read and the
// object-handle contract they write through.
package scene

import (
	"github.com/AaronLay10/SentientStage/internal/easing"
)

// Document is the read-only snapshot the runtimes consume. It is produced by
// the editor's document layer; runtimes never write back into it.
type Document struct {
	Version int             `json:"version" yaml:"version"`
	Nodes   []SceneNode     `json:"nodes" yaml:"nodes"`
	Clips   []AnimationClip `json:"clips,omitempty" yaml:"clips,omitempty"`
}

// Vec3 is a position, rotation or scale triple.
type Vec3 [3]float64

// Transform is a node's local transform. Rotation is in degrees.
type Transform struct {
	Position Vec3 `json:"position" yaml:"position"`
	Rotation Vec3 `json:"rotation" yaml:"rotation"`
	Scale    Vec3 `json:"scale" yaml:"scale"`
}

// Material seeds the material channels of an object. Nodes without a material
// (groups, lights, cameras) leave it nil.
type Material struct {
	Color             string  `json:"color,omitempty" yaml:"color,omitempty"`
	Opacity           float64 `json:"opacity" yaml:"opacity"`
	Emissive          string  `json:"emissive,omitempty" yaml:"emissive,omitempty"`
	EmissiveIntensity float64 `json:"emissiveIntensity" yaml:"emissiveIntensity"`
}

// SceneNode is one entry of the scene graph.
// The parent owns the child list; ParentID is a back reference only.
type SceneNode struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	ParentID     string            `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Children     []string          `json:"children,omitempty" yaml:"children,omitempty"`
	Transform    Transform         `json:"transform" yaml:"transform"`
	Visible      bool              `json:"visible" yaml:"visible"`
	Material     *Material         `json:"material,omitempty" yaml:"material,omitempty"`
	Interactions *NodeInteractions `json:"interactions,omitempty" yaml:"interactions,omitempty"`
	Tracks       []string          `json:"tracks,omitempty" yaml:"tracks,omitempty"`
}

// NodeInteractions is the declarative interaction data attached to a node.
type NodeInteractions struct {
	States  []ObjectState       `json:"states,omitempty" yaml:"states,omitempty"`
	Events  []InteractionEvent  `json:"events,omitempty" yaml:"events,omitempty"`
	Actions []InteractionAction `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// ObjectState is a named, partial snapshot of channel values.
type ObjectState struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Overrides StateOverrides `json:"overrides" yaml:"overrides"`
}

// StateOverrides is a sparse set of channel values. A nil field means the
// channel is left untouched; each field is an independent channel.
type StateOverrides struct {
	Position          *Vec3    `json:"position,omitempty" yaml:"position,omitempty"`
	Rotation          *Vec3    `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Scale             *Vec3    `json:"scale,omitempty" yaml:"scale,omitempty"`
	Visible           *bool    `json:"visible,omitempty" yaml:"visible,omitempty"`
	Color             *string  `json:"color,omitempty" yaml:"color,omitempty"`
	Opacity           *float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Emissive          *string  `json:"emissive,omitempty" yaml:"emissive,omitempty"`
	EmissiveIntensity *float64 `json:"emissiveIntensity,omitempty" yaml:"emissiveIntensity,omitempty"`
}

// Empty reports whether no channel is set.
func (o StateOverrides) Empty() bool {
	return o.Position == nil && o.Rotation == nil && o.Scale == nil &&
		o.Visible == nil && o.Color == nil && o.Opacity == nil &&
		o.Emissive == nil && o.EmissiveIntensity == nil
}

// Trigger is a class of external event that can fire an action.
type Trigger string

const (
	TriggerClick       Trigger = "click"
	TriggerDoubleClick Trigger = "doubleClick"
	TriggerMouseEnter  Trigger = "mouseEnter"
	TriggerMouseLeave  Trigger = "mouseLeave"
	TriggerMouseDown   Trigger = "mouseDown"
	TriggerMouseUp     Trigger = "mouseUp"
	TriggerKeyDown     Trigger = "keyDown"
	TriggerKeyUp       Trigger = "keyUp"
	TriggerStart       Trigger = "start"
	TriggerScroll      Trigger = "scroll"
)

// ValidTrigger reports whether t is one of the known triggers.
func ValidTrigger(t Trigger) bool {
	switch t {
	case TriggerClick, TriggerDoubleClick, TriggerMouseEnter, TriggerMouseLeave,
		TriggerMouseDown, TriggerMouseUp, TriggerKeyDown, TriggerKeyUp,
		TriggerStart, TriggerScroll:
		return true
	}
	return false
}

// InteractionEvent binds a trigger on a node to one action.
type InteractionEvent struct {
	ID       string  `json:"id" yaml:"id"`
	Trigger  Trigger `json:"trigger" yaml:"trigger"`
	Key      string  `json:"key,omitempty" yaml:"key,omitempty"`
	ActionID string  `json:"actionId" yaml:"actionId"`
}

// ActionKind selects what an action does.
type ActionKind string

const (
	ActionTransition    ActionKind = "transition"
	ActionToggle        ActionKind = "toggle"
	ActionSetVariable   ActionKind = "setVariable"
	ActionOpenLink      ActionKind = "openLink"
	ActionPlayAnimation ActionKind = "playAnimation"
)

// InteractionAction is the effect an event fires.
type InteractionAction struct {
	ID            string      `json:"id" yaml:"id"`
	Kind          ActionKind  `json:"kind" yaml:"kind"`
	TargetNodeID  string      `json:"targetNodeId,omitempty" yaml:"targetNodeId,omitempty"`
	TargetStateID string      `json:"targetStateId,omitempty" yaml:"targetStateId,omitempty"`
	StateA        string      `json:"stateA,omitempty" yaml:"stateA,omitempty"`
	StateB        string      `json:"stateB,omitempty" yaml:"stateB,omitempty"`
	DurationMs    *int        `json:"duration,omitempty" yaml:"duration,omitempty"`
	Easing        easing.Kind `json:"easing,omitempty" yaml:"easing,omitempty"`
	DelayMs       int         `json:"delay,omitempty" yaml:"delay,omitempty"`
	URL           string      `json:"url,omitempty" yaml:"url,omitempty"`
	VariableID    string      `json:"variableId,omitempty" yaml:"variableId,omitempty"`
	Value         any         `json:"value,omitempty" yaml:"value,omitempty"`
	AnimationName string      `json:"animationName,omitempty" yaml:"animationName,omitempty"`
}

// AnimationClip is a named timeline of per-property tracks.
type AnimationClip struct {
	ID       string           `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Duration float64          `json:"duration" yaml:"duration"`
	Loop     bool             `json:"loop" yaml:"loop"`
	Tracks   []AnimationTrack `json:"tracks" yaml:"tracks"`
}

// AnimationTrack animates one property of one node.
type AnimationTrack struct {
	ID           string     `json:"id" yaml:"id"`
	TargetNodeID string     `json:"targetNodeId" yaml:"targetNodeId"`
	Property     Property   `json:"property" yaml:"property"`
	Keyframes    []Keyframe `json:"keyframes" yaml:"keyframes"`
}

// Keyframe is a time/value sample. Easing shapes the segment that ends at
// this keyframe.
type Keyframe struct {
	Time   float64     `json:"time" yaml:"time"`
	Value  any         `json:"value" yaml:"value"`
	Easing easing.Kind `json:"easing,omitempty" yaml:"easing,omitempty"`
}

// Node returns the node with the given id, or nil.
func (d *Document) Node(id string) *SceneNode {
	if d == nil {
		return nil
	}
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// Clip returns the clip with the given id, or nil.
func (d *Document) Clip(id string) *AnimationClip {
	if d == nil {
		return nil
	}
	for i := range d.Clips {
		if d.Clips[i].ID == id {
			return &d.Clips[i]
		}
	}
	return nil
}

// ClipByName returns the first clip with the given name, or nil.
func (d *Document) ClipByName(name string) *AnimationClip {
	if d == nil {
		return nil
	}
	for i := range d.Clips {
		if d.Clips[i].Name == name {
			return &d.Clips[i]
		}
	}
	return nil
}

// State returns the state with the given id, or nil.
func (ni *NodeInteractions) State(id string) *ObjectState {
	if ni == nil {
		return nil
	}
	for i := range ni.States {
		if ni.States[i].ID == id {
			return &ni.States[i]
		}
	}
	return nil
}

// Action returns the action with the given id, or nil.
func (ni *NodeInteractions) Action(id string) *InteractionAction {
	if ni == nil {
		return nil
	}
	for i := range ni.Actions {
		if ni.Actions[i].ID == id {
			return &ni.Actions[i]
		}
	}
	return nil
}
