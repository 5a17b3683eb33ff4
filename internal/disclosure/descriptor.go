// Package disclosure implements the lazy disclosure tree behind the endpoint
// documentation viewer.
//
// A flat list of path-addressed leaf descriptors is folded into an immutable
// TreeNode tree by Build. A parallel State tree carries the per-node
// presentation state (expanded, description, load status) and is only ever
// replaced, never mutated: every update clones the nodes between the root and
// the touched node and shares everything else with the previous root.
//
// Coordinator owns the current State root for one view session and fills
// descriptions lazily, keeping at most one fetch in flight per leaf.
// FlatCollection is the one-level variant used for sibling lists.
package disclosure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-openapi/jsonpointer"
)

// Location is where a parameter lives in a request.
type Location string

const (
	PathParam   Location = "path"
	QueryParam  Location = "query"
	HeaderParam Location = "header"
	BodyParam   Location = "body"
)

// Locations lists every parameter location in display order.
var Locations = []Location{PathParam, QueryParam, HeaderParam, BodyParam}

// ParseLocation maps an OpenAPI "in" value onto a Location.
func ParseLocation(in string) (Location, error) {
	switch loc := Location(strings.ToLower(in)); loc {
	case PathParam, QueryParam, HeaderParam, BodyParam:
		return loc, nil
	default:
		return "", fmt.Errorf("unknown parameter location %q", in)
	}
}

// FetchFunc loads the descriptive text of a single leaf. A nil text with a
// nil error means the leaf has no description.
type FetchFunc func(ctx context.Context) (*string, error)

// LeafDescriptor describes one documented parameter. For body parameters
// Path addresses the containing object (empty for top level) and Name is the
// final segment.
type LeafDescriptor struct {
	Location  Location
	Path      []string
	Name      string
	VarType   string
	AddedDate time.Time
	Fetch     FetchFunc
}

// LeafKey identifies a leaf across location, path and name.
type LeafKey string

// Key returns the identity used to coalesce fetches for this leaf.
func (d LeafDescriptor) Key() LeafKey {
	return LeafKey(string(d.Location) + ":" + PathKey(d.FullPath()))
}

// FullPath is the path of the leaf node itself: Path followed by Name.
func (d LeafDescriptor) FullPath() []string {
	full := make([]string, 0, len(d.Path)+1)
	full = append(full, d.Path...)
	return append(full, d.Name)
}

// PathKey encodes a path as an RFC 6901 JSON pointer. The root path encodes
// to the empty string.
func PathKey(path []string) string {
	if len(path) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range path {
		b.WriteByte('/')
		b.WriteString(jsonpointer.Escape(seg))
	}
	return b.String()
}

// ParsePathKey is the inverse of PathKey.
func ParsePathKey(key string) ([]string, error) {
	if key == "" {
		return nil, nil
	}
	if !strings.HasPrefix(key, "/") {
		return nil, fmt.Errorf("path key %q must start with '/'", key)
	}
	parts := strings.Split(key[1:], "/")
	path := make([]string, len(parts))
	for i, p := range parts {
		path[i] = jsonpointer.Unescape(p)
	}
	return path, nil
}
