package disclosure

import "fmt"

// Status is the description load status of a leaf.
type Status int

const (
	StatusUnloaded Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUnloaded:
		return "unloaded"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// State is one node of the persistent disclosure tree. A State is never
// modified after it is published; updates return a new root that shares
// every subtree off the updated path.
type State struct {
	expanded    bool
	leaf        bool
	description *string
	status      Status
	children    map[string]*State
}

// Expanded reports whether the node's children are disclosed.
func (s *State) Expanded() bool { return s.expanded }

// IsLeaf reports whether the mirrored node carries a descriptor.
func (s *State) IsLeaf() bool { return s.leaf }

// Status returns the description load status. It is only meaningful for
// leaves.
func (s *State) Status() Status { return s.status }

// Description returns the cached description text. ok is false when no text
// is cached, including a loaded leaf that has no description.
func (s *State) Description() (text string, ok bool) {
	if s.description == nil {
		return "", false
	}
	return *s.description, true
}

// Child returns the named child state.
func (s *State) Child(name string) (*State, bool) {
	c, ok := s.children[name]
	return c, ok
}

// ChildNames returns the child names in lexical order.
func (s *State) ChildNames() []string {
	return sortedKeys(s.children)
}

// Lookup resolves path from this node.
func (s *State) Lookup(path []string) (*State, bool) {
	cur := s
	for _, seg := range path {
		next, ok := cur.children[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

type initOptions struct {
	expanded  map[string]bool
	preloaded map[string]string
}

// InitOption seeds the initial state.
type InitOption func(*initOptions)

// WithExpandedPaths starts the nodes at the given PathKey values expanded.
func WithExpandedPaths(keys ...string) InitOption {
	return func(o *initOptions) {
		for _, k := range keys {
			o.expanded[k] = true
		}
	}
}

// WithPreloaded seeds leaf descriptions keyed by PathKey. Those leaves start
// StatusLoaded. Keys that do not name a leaf are ignored.
func WithPreloaded(texts map[string]string) InitOption {
	return func(o *initOptions) {
		for k, v := range texts {
			o.preloaded[k] = v
		}
	}
}

// Initialize builds a state tree isomorphic to tree. Every node starts
// collapsed and unloaded unless seeded by opts.
func Initialize(tree *TreeNode, opts ...InitOption) *State {
	o := initOptions{
		expanded:  make(map[string]bool),
		preloaded: make(map[string]string),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return initNode(tree, nil, &o)
}

func initNode(n *TreeNode, path []string, o *initOptions) *State {
	key := PathKey(path)
	s := &State{
		expanded: o.expanded[key],
		leaf:     n.descriptor != nil,
	}
	if text, ok := o.preloaded[key]; ok && s.leaf {
		s.description = &text
		s.status = StatusLoaded
	}
	if len(n.children) > 0 {
		s.children = make(map[string]*State, len(n.children))
		for name, child := range n.children {
			childPath := append(append([]string(nil), path...), name)
			s.children[name] = initNode(child, childPath, o)
		}
	}
	return s
}

// WithToggledChildren returns a new root with the expanded flag of the node
// at path flipped. Only the nodes from the root to the target are cloned.
func WithToggledChildren(state *State, path []string) (*State, error) {
	return update(state, path, func(s *State) error {
		s.expanded = !s.expanded
		return nil
	})
}

// Outcome is the settled result of a description fetch.
type Outcome struct {
	OK   bool
	Text *string
}

// Succeeded is a successful fetch. A nil text means no description exists.
func Succeeded(text *string) Outcome { return Outcome{OK: true, Text: text} }

// Failed is a failed fetch.
func Failed() Outcome { return Outcome{} }

// WithDescription records a settled fetch at the leaf at path. On failure
// any previously cached text is kept.
func WithDescription(state *State, path []string, result Outcome) (*State, error) {
	return update(state, path, func(s *State) error {
		if !s.leaf {
			return ErrNotLeaf
		}
		if !result.OK {
			s.status = StatusFailed
			return nil
		}
		s.status = StatusLoaded
		if result.Text != nil {
			text := *result.Text
			s.description = &text
		} else {
			s.description = nil
		}
		return nil
	})
}

// withStatus marks the leaf at path with status, leaving its text alone.
func withStatus(state *State, path []string, status Status) (*State, error) {
	return update(state, path, func(s *State) error {
		if !s.leaf {
			return ErrNotLeaf
		}
		s.status = status
		return nil
	})
}

// update clones the root-to-target spine and applies fn to the cloned target.
func update(state *State, path []string, fn func(*State) error) (*State, error) {
	if _, ok := state.Lookup(path); !ok {
		return nil, &PathNotFoundError{Path: append([]string(nil), path...)}
	}
	return rewrite(state, path, fn)
}

func rewrite(s *State, path []string, fn func(*State) error) (*State, error) {
	clone := *s
	if len(path) == 0 {
		if err := fn(&clone); err != nil {
			return nil, err
		}
		return &clone, nil
	}
	child, err := rewrite(s.children[path[0]], path[1:], fn)
	if err != nil {
		return nil, err
	}
	clone.children = make(map[string]*State, len(s.children))
	for name, c := range s.children {
		clone.children[name] = c
	}
	clone.children[path[0]] = child
	return &clone, nil
}

// SameShape reports whether state mirrors tree: identical key sets at every
// level and leaf flags matching descriptors.
func SameShape(tree *TreeNode, state *State) bool {
	if tree == nil || state == nil {
		return tree == nil && state == nil
	}
	if (tree.descriptor != nil) != state.leaf {
		return false
	}
	if len(tree.children) != len(state.children) {
		return false
	}
	for name, tc := range tree.children {
		sc, ok := state.children[name]
		if !ok || !SameShape(tc, sc) {
			return false
		}
	}
	return true
}

// StateEqual reports whether two state trees are deep-equal.
func StateEqual(a, b *State) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	if a.expanded != b.expanded || a.leaf != b.leaf || a.status != b.status {
		return false
	}
	if (a.description == nil) != (b.description == nil) {
		return false
	}
	if a.description != nil && *a.description != *b.description {
		return false
	}
	if len(a.children) != len(b.children) {
		return false
	}
	for name, ac := range a.children {
		bc, ok := b.children[name]
		if !ok || !StateEqual(ac, bc) {
			return false
		}
	}
	return true
}
