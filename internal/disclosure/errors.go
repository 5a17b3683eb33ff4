package disclosure

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLeaf indicates a description operation on a node without a descriptor.
	ErrNotLeaf = errors.New("node is not a leaf")

	// ErrDisposed indicates the owning session was torn down.
	ErrDisposed = errors.New("disclosure session disposed")

	// ErrNestedEntry indicates a flat collection entry with a non-empty path.
	ErrNestedEntry = errors.New("flat collection entries cannot be nested")

	// ErrShapeMismatch indicates a state tree that does not mirror its TreeNode tree.
	ErrShapeMismatch = errors.New("state tree does not match node tree")

	// ErrLoadingSeed indicates a seed state with a leaf marked Loading. A new
	// session has no fetch in flight to settle it.
	ErrLoadingSeed = errors.New("seed state has leaves in loading status")
)

// DuplicateLeafError is returned by Build when two descriptors resolve to the
// same node. The caller must deduplicate its input.
type DuplicateLeafError struct {
	Path []string
}

func (e *DuplicateLeafError) Error() string {
	return fmt.Sprintf("duplicate leaf at %q", PathKey(e.Path))
}

// PathNotFoundError means the caller and the tree are out of sync. It is a
// programming error and should not be retried.
type PathNotFoundError struct {
	Path []string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path %q not found in tree", PathKey(e.Path))
}

// FetchError reports a failed description fetch. It is recoverable: the
// leaf moves to StatusFailed and may be requested again.
type FetchError struct {
	Key  LeafKey
	Path []string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch description for %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
