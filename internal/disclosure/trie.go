package disclosure

import (
	"sort"
)

// ObjectType is the varType given to intermediate nodes.
const ObjectType = "object"

// DefaultRootName is the display name of the root node unless overridden.
const DefaultRootName = "root"

// TreeNode is an immutable node of the parameter tree. A node carries a
// descriptor iff it corresponds to exactly one input leaf, and has children
// iff at least one leaf path passes through it.
type TreeNode struct {
	name       string
	varType    string
	descriptor *LeafDescriptor
	children   map[string]*TreeNode
}

// Name returns the node's segment name (the display name for the root).
func (n *TreeNode) Name() string { return n.name }

// VarType returns the leaf's type, or ObjectType for intermediate nodes.
func (n *TreeNode) VarType() string { return n.varType }

// Descriptor returns the leaf descriptor, if this node is a leaf.
func (n *TreeNode) Descriptor() (LeafDescriptor, bool) {
	if n.descriptor == nil {
		return LeafDescriptor{}, false
	}
	return *n.descriptor, true
}

// IsLeaf reports whether the node corresponds to an input descriptor.
func (n *TreeNode) IsLeaf() bool { return n.descriptor != nil }

// HasChildren reports whether any leaf path passes through this node.
func (n *TreeNode) HasChildren() bool { return len(n.children) > 0 }

// Child returns the named child.
func (n *TreeNode) Child(name string) (*TreeNode, bool) {
	c, ok := n.children[name]
	return c, ok
}

// ChildNames returns the child names in lexical order.
func (n *TreeNode) ChildNames() []string {
	return sortedKeys(n.children)
}

// Lookup resolves path from this node.
func (n *TreeNode) Lookup(path []string) (*TreeNode, bool) {
	cur := n
	for _, seg := range path {
		next, ok := cur.children[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Walk visits every node depth first, children in lexical order. Returning
// false from fn skips the node's subtree.
func (n *TreeNode) Walk(fn func(path []string, node *TreeNode) bool) {
	n.walk(nil, fn)
}

func (n *TreeNode) walk(path []string, fn func([]string, *TreeNode) bool) {
	if !fn(path, n) {
		return
	}
	for _, name := range n.ChildNames() {
		childPath := append(append([]string(nil), path...), name)
		n.children[name].walk(childPath, fn)
	}
}

// Leaves returns every descriptor in the tree in walk order.
func (n *TreeNode) Leaves() []LeafDescriptor {
	var leaves []LeafDescriptor
	n.Walk(func(_ []string, node *TreeNode) bool {
		if node.descriptor != nil {
			leaves = append(leaves, *node.descriptor)
		}
		return true
	})
	return leaves
}

type buildOptions struct {
	rootName string
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithRootName sets the display name of the root node.
func WithRootName(name string) BuildOption {
	return func(o *buildOptions) { o.rootName = name }
}

// Build folds descriptors into a tree. The result does not depend on the
// order of descriptors.
func Build(descriptors []LeafDescriptor, opts ...BuildOption) (*TreeNode, error) {
	o := buildOptions{rootName: DefaultRootName}
	for _, opt := range opts {
		opt(&o)
	}

	root := &TreeNode{name: o.rootName, varType: ObjectType}
	for i := range descriptors {
		d := descriptors[i]
		d.Path = append([]string(nil), d.Path...)

		cur := root
		for _, seg := range d.Path {
			cur = cur.ensureChild(seg)
		}
		leaf := cur.ensureChild(d.Name)
		if leaf.descriptor != nil {
			return nil, &DuplicateLeafError{Path: d.FullPath()}
		}
		leaf.descriptor = &d
		leaf.varType = d.VarType
	}
	return root, nil
}

// ensureChild returns the named child, creating an intermediate object node
// if needed. Only used during Build, before the tree is published.
func (n *TreeNode) ensureChild(name string) *TreeNode {
	if n.children == nil {
		n.children = make(map[string]*TreeNode)
	}
	child, ok := n.children[name]
	if !ok {
		child = &TreeNode{name: name, varType: ObjectType}
		n.children[name] = child
	}
	return child
}

// Equal reports whether two trees have the same shape, names, types and
// leaf identities. Fetch functions are not compared.
func Equal(a, b *TreeNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.name != b.name || a.varType != b.varType {
		return false
	}
	if (a.descriptor == nil) != (b.descriptor == nil) {
		return false
	}
	if a.descriptor != nil {
		if a.descriptor.Key() != b.descriptor.Key() || !a.descriptor.AddedDate.Equal(b.descriptor.AddedDate) {
			return false
		}
	}
	if len(a.children) != len(b.children) {
		return false
	}
	for name, ac := range a.children {
		bc, ok := b.children[name]
		if !ok || !Equal(ac, bc) {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
