package viewer

import (
	"time"

	"api-doc-explorer/internal/disclosure"
)

// Snapshot is a point-in-time copy of a view, detached from its sessions.
type Snapshot struct {
	Method       string        `json:"method"`
	Route        string        `json:"route"`
	Summary      string        `json:"summary,omitempty"`
	Sections     []Section     `json:"sections"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
	Failures     []string      `json:"failures,omitempty"`
}

// Section is the parameter tree of one location.
type Section struct {
	Location disclosure.Location `json:"location"`
	Root     Node                `json:"root"`
}

// Node mirrors one node of a parameter tree with its disclosure state.
type Node struct {
	Name        string     `json:"name"`
	Pointer     string     `json:"pointer"`
	Type        string     `json:"type"`
	Leaf        bool       `json:"leaf"`
	Expanded    bool       `json:"expanded"`
	Status      string     `json:"status,omitempty"`
	Description *string    `json:"description,omitempty"`
	AddedDate   *time.Time `json:"added_date,omitempty"`
	Children    []Node     `json:"children,omitempty"`
}

// Alternative is one other operation on the route.
type Alternative struct {
	Key         string  `json:"key"`
	Expanded    bool    `json:"expanded"`
	Status      string  `json:"status"`
	Description *string `json:"description,omitempty"`
}

// Snapshot captures the current state of every session.
func (v *EndpointView) Snapshot() Snapshot {
	snap := Snapshot{
		Method:  v.endpoint.Method,
		Route:   v.endpoint.Path,
		Summary: v.endpoint.Summary,
	}
	for _, loc := range v.locations {
		coord := v.sections[loc]
		snap.Sections = append(snap.Sections, Section{
			Location: loc,
			Root:     snapshotNode(coord.Tree(), coord.State(), nil),
		})
	}

	if v.alternatives != nil {
		entries := v.alternatives.Entries()
		for _, key := range v.alternatives.Keys() {
			e := entries[key]
			alt := Alternative{Key: key, Expanded: e.Expanded, Status: e.Status.String()}
			if e.HasDescription {
				alt.Description = &e.Description
			}
			snap.Alternatives = append(snap.Alternatives, alt)
		}
	}

	for _, fe := range v.Failures() {
		snap.Failures = append(snap.Failures, fe.Error())
	}
	return snap
}

func snapshotNode(n *disclosure.TreeNode, s *disclosure.State, path []string) Node {
	out := Node{
		Name:     n.Name(),
		Pointer:  disclosure.PathKey(path),
		Type:     n.VarType(),
		Leaf:     n.IsLeaf(),
		Expanded: s.Expanded(),
	}
	if d, ok := n.Descriptor(); ok {
		out.Status = s.Status().String()
		if text, ok := s.Description(); ok {
			out.Description = &text
		}
		if !d.AddedDate.IsZero() {
			added := d.AddedDate
			out.AddedDate = &added
		}
	}
	for _, name := range n.ChildNames() {
		child, _ := n.Child(name)
		childState, ok := s.Child(name)
		if !ok {
			continue
		}
		childPath := append(append([]string(nil), path...), name)
		out.Children = append(out.Children, snapshotNode(child, childState, childPath))
	}
	return out
}
