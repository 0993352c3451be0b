package scene

import "fmt"

// Issue is one authoring problem found by Validate.
type Issue struct {
	NodeID  string
	Message string
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return i.Message
	}
	return i.NodeID + ": " + i.Message
}

// Validate reports authoring problems for the host to surface. The runtimes
// never call it; a document with issues still plays, and every dangling
// reference degrades to a no-op.
func (d *Document) Validate() []Issue {
	var issues []Issue
	add := func(nodeID, format string, args ...any) {
		issues = append(issues, Issue{NodeID: nodeID, Message: fmt.Sprintf(format, args...)})
	}

	byID := make(map[string]*SceneNode, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if _, dup := byID[n.ID]; dup {
			add(n.ID, "duplicate node id")
			continue
		}
		byID[n.ID] = n
	}

	// Parent/child links must agree in both directions.
	for i := range d.Nodes {
		n := &d.Nodes[i]
		for _, childID := range n.Children {
			child, ok := byID[childID]
			if !ok {
				add(n.ID, "child %s does not exist", childID)
				continue
			}
			if child.ParentID != n.ID {
				add(childID, "listed as child of %s but parent is %q", n.ID, child.ParentID)
			}
		}
		if n.ParentID != "" {
			parent, ok := byID[n.ParentID]
			if !ok {
				add(n.ID, "parent %s does not exist", n.ParentID)
			} else if !contains(parent.Children, n.ID) {
				add(n.ID, "parent %s does not list it as a child", n.ParentID)
			}
		}
	}

	for i := range d.Nodes {
		n := &d.Nodes[i]
		if hasCycle(n, byID) {
			add(n.ID, "parent chain forms a cycle")
		}
	}

	for i := range d.Nodes {
		issues = append(issues, d.Nodes[i].validateInteractions(d)...)
	}

	for _, c := range d.Clips {
		for _, tr := range c.Tracks {
			if _, ok := byID[tr.TargetNodeID]; !ok {
				add("", "clip %s track %s targets missing node %s", c.ID, tr.ID, tr.TargetNodeID)
			}
			if !tr.Property.Valid() {
				add("", "clip %s track %s has unknown property %q", c.ID, tr.ID, tr.Property)
			}
			for i := 1; i < len(tr.Keyframes); i++ {
				if tr.Keyframes[i].Time < tr.Keyframes[i-1].Time {
					add("", "clip %s track %s keyframes are not ordered by time", c.ID, tr.ID)
					break
				}
			}
		}
	}

	return issues
}

func (n *SceneNode) validateInteractions(d *Document) []Issue {
	ni := n.Interactions
	if ni == nil {
		return nil
	}

	var issues []Issue
	for _, st := range ni.States {
		if st.Overrides.Empty() {
			issues = append(issues, Issue{n.ID, fmt.Sprintf("state %s has no overrides", st.ID)})
		}
	}
	for _, ev := range ni.Events {
		if !ValidTrigger(ev.Trigger) {
			issues = append(issues, Issue{n.ID, fmt.Sprintf("event %s has unknown trigger %q", ev.ID, ev.Trigger)})
		}
		if ni.Action(ev.ActionID) == nil {
			issues = append(issues, Issue{n.ID, fmt.Sprintf("event %s references missing action %s", ev.ID, ev.ActionID)})
		}
	}

	for _, a := range ni.Actions {
		target := n
		if a.TargetNodeID != "" {
			target = d.Node(a.TargetNodeID)
			if target == nil {
				issues = append(issues, Issue{n.ID, fmt.Sprintf("action %s targets missing node %s", a.ID, a.TargetNodeID)})
				continue
			}
		}
		var states []string
		switch a.Kind {
		case ActionTransition:
			states = []string{a.TargetStateID}
		case ActionToggle:
			states = []string{a.StateA, a.StateB}
		case ActionPlayAnimation:
			if d.ClipByName(a.AnimationName) == nil {
				issues = append(issues, Issue{n.ID, fmt.Sprintf("action %s plays missing animation %q", a.ID, a.AnimationName)})
			}
		}
		for _, s := range states {
			if target.Interactions.State(s) == nil {
				issues = append(issues, Issue{n.ID, fmt.Sprintf("action %s references missing state %s on %s", a.ID, s, target.ID)})
			}
		}
	}
	return issues
}

func hasCycle(n *SceneNode, byID map[string]*SceneNode) bool {
	seen := map[string]bool{n.ID: true}
	for cur := n; cur.ParentID != ""; {
		if seen[cur.ParentID] {
			return true
		}
		seen[cur.ParentID] = true
		next, ok := byID[cur.ParentID]
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
