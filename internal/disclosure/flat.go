package disclosure

import "fmt"

// EntryState is the disclosure state of one flat collection entry.
type EntryState struct {
	Expanded       bool
	Description    string
	HasDescription bool
	Status         Status
}

// FlatCollection is a keyed set of sibling entries, each expandable and
// lazily described on its own. It is a depth-one tree driven by a
// Coordinator, so it shares the same dedup and caching rules.
type FlatCollection struct {
	coord *Coordinator
}

// NewFlatCollection builds a collection keyed by descriptor name. Entries
// must not carry a path.
func NewFlatCollection(entries []LeafDescriptor, opts ...Option) (*FlatCollection, error) {
	for _, e := range entries {
		if len(e.Path) > 0 {
			return nil, fmt.Errorf("entry %q: %w", e.Name, ErrNestedEntry)
		}
	}
	tree, err := Build(entries)
	if err != nil {
		return nil, err
	}
	coord, err := NewCoordinator(tree, nil, opts...)
	if err != nil {
		return nil, err
	}
	return &FlatCollection{coord: coord}, nil
}

// Keys returns the entry keys in lexical order.
func (f *FlatCollection) Keys() []string {
	return f.coord.Tree().ChildNames()
}

// Len returns the number of entries.
func (f *FlatCollection) Len() int {
	return len(f.coord.Tree().children)
}

// Toggle flips the expanded flag of the entry.
func (f *FlatCollection) Toggle(key string) error {
	_, err := f.coord.Toggle([]string{key})
	return err
}

// RequestDescription loads the entry's description if needed.
func (f *FlatCollection) RequestDescription(key string) (*Settlement, error) {
	_, settle, err := f.coord.RequestDescription([]string{key})
	return settle, err
}

// Entry returns the current state of one entry.
func (f *FlatCollection) Entry(key string) (EntryState, bool) {
	s, ok := f.coord.State().Child(key)
	if !ok {
		return EntryState{}, false
	}
	return entryState(s), true
}

// Entries returns the current state of every entry.
func (f *FlatCollection) Entries() map[string]EntryState {
	root := f.coord.State()
	out := make(map[string]EntryState, len(root.children))
	for key, s := range root.children {
		out[key] = entryState(s)
	}
	return out
}

// Coordinator exposes the underlying session.
func (f *FlatCollection) Coordinator() *Coordinator { return f.coord }

// Dispose ends the collection's session.
func (f *FlatCollection) Dispose() { f.coord.Dispose() }

func entryState(s *State) EntryState {
	text, ok := s.Description()
	return EntryState{
		Expanded:       s.expanded,
		Description:    text,
		HasDescription: ok,
		Status:         s.status,
	}
}
