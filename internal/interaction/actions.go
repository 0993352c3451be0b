package interaction

import (
	"time"

	"github.com/AaronLay10/SentientStage/internal/scene"
)

// ExecuteAction performs action on behalf of sourceNodeID. Actions that do not
// resolve (missing node, missing state) do nothing.
func (r *Runtime) ExecuteAction(action *scene.InteractionAction, sourceNodeID string) {
	if action == nil {
		return
	}

	target := action.TargetNodeID
	if target == "" {
		target = sourceNodeID
	}

	switch action.Kind {
	case scene.ActionTransition:
		state := r.lookupState(target, action.TargetStateID)
		if state == nil {
			return
		}
		r.TransitionToState(target, state, r.actionOptions(action)...)

	case scene.ActionToggle:
		next := action.StateA
		if last, ok := r.lastState[target]; ok && last == action.StateA {
			next = action.StateB
		}
		state := r.lookupState(target, next)
		if state == nil {
			return
		}
		r.TransitionToState(target, state, r.actionOptions(action)...)

	case scene.ActionOpenLink:
		if action.URL == "" {
			return
		}
		r.emit("link.open", map[string]interface{}{
			"node_id": sourceNodeID,
			"url":     action.URL,
		})
		if r.handlers.OnOpenLink != nil {
			r.handlers.OnOpenLink(action.URL)
		}

	case scene.ActionSetVariable:
		if action.VariableID == "" {
			return
		}
		r.emit("variable.set", map[string]interface{}{
			"node_id":     sourceNodeID,
			"variable_id": action.VariableID,
			"value":       action.Value,
		})
		if r.handlers.OnSetVariable != nil {
			r.handlers.OnSetVariable(action.VariableID, action.Value)
		}

	case scene.ActionPlayAnimation:
		if action.AnimationName == "" {
			return
		}
		r.emit("animation.play", map[string]interface{}{
			"node_id":   sourceNodeID,
			"animation": action.AnimationName,
		})
		if r.handlers.OnPlayAnimation != nil {
			r.handlers.OnPlayAnimation(action.AnimationName, sourceNodeID)
		}
	}
}

func (r *Runtime) lookupState(nodeID, stateID string) *scene.ObjectState {
	if stateID == "" {
		return nil
	}
	node := r.document().Node(nodeID)
	if node == nil {
		return nil
	}
	return node.Interactions.State(stateID)
}

// actionOptions converts an action's authored timing into transition options.
// A missing duration selects the runtime default; zero is kept and clamped.
func (r *Runtime) actionOptions(action *scene.InteractionAction) []TransitionOption {
	var opts []TransitionOption
	if action.DurationMs != nil {
		opts = append(opts, WithDuration(time.Duration(*action.DurationMs)*time.Millisecond))
	}
	if action.Easing != "" {
		opts = append(opts, WithEasing(action.Easing))
	}
	if action.DelayMs > 0 {
		opts = append(opts, WithDelay(time.Duration(action.DelayMs)*time.Millisecond))
	}
	return opts
}
