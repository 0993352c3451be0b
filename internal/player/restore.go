package player

import (
	"context"

	"github.com/AaronLay10/SentientStage/internal/storage"
)

// DefaultRestoreLimit is the number of journaled events read on restore.
const DefaultRestoreLimit = 1000

// RestoredState is what a previous run left behind in the journal.
type RestoredState struct {
	Variables  map[string]any
	LastStates map[string]string // node id -> state id
	ClipID     string
}

// RestoreFromJournal reads the newest limit events and replays them. It
// returns nil when journal is nil or empty.
func RestoreFromJournal(ctx context.Context, journal storage.Journal, limit int) (*RestoredState, int, error) {
	if journal == nil {
		return nil, 0, nil
	}
	if limit <= 0 {
		limit = DefaultRestoreLimit
	}

	rows, err := journal.Query(ctx, limit)
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}
	return Replay(rows), len(rows), nil
}

// Replay folds journal rows, newest first as Query returns them, into a
// RestoredState.
func Replay(rows []storage.EventRow) *RestoredState {
	state := &RestoredState{
		Variables:  make(map[string]any),
		LastStates: make(map[string]string),
	}

	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		switch row.Event {
		case "variable.set":
			if id, ok := row.Fields["variable_id"].(string); ok && id != "" {
				state.Variables[id] = row.Fields["value"]
			}

		case "transition.completed":
			nodeID, _ := row.Fields["node_id"].(string)
			stateID, _ := row.Fields["state_id"].(string)
			if nodeID != "" && stateID != "" {
				state.LastStates[nodeID] = stateID
			}

		case "timeline.clip":
			clipID, _ := row.Fields["clip_id"].(string)
			state.ClipID = clipID

		case "scene.reloaded":
			// Reload resets objects and the timeline; variables carry over.
			state.LastStates = make(map[string]string)
			state.ClipID = ""
		}
	}
	return state
}

// ApplyRestored puts variables back, snaps objects onto their last states and
// selects the last clip. It emits no per-item events and must be called
// from the loop goroutine, before Start.
func (p *Player) ApplyRestored(state *RestoredState) {
	if state == nil {
		return
	}

	p.mu.Lock()
	for id, v := range state.Variables {
		p.vars[id] = v
	}
	p.mu.Unlock()

	restored := 0
	for nodeID, stateID := range state.LastStates {
		if p.interactions.RestoreState(nodeID, stateID) {
			restored++
		}
	}

	clip := ""
	if state.ClipID != "" {
		if c := p.document().Clip(state.ClipID); c != nil {
			p.timeline.SetClip(c)
			clip = c.ID
		}
	}

	p.bus.Emit("info", "system.restored", "", map[string]interface{}{
		"variables": len(state.Variables),
		"states":    restored,
		"clip_id":   clip,
	})
}

// EmitStartup records system.startup on the bus with the scene's size merged
// into fields. Call it after the journal sink is attached so it is persisted.
func (p *Player) EmitStartup(fields map[string]interface{}) {
	doc := p.document()
	out := map[string]interface{}{
		"nodes": len(doc.Nodes),
		"clips": len(doc.Clips),
	}
	for k, v := range fields {
		out[k] = v
	}
	p.bus.Emit("info", "system.startup", "", out)
}
