package disclosure

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func leaf(loc Location, name string, path ...string) LeafDescriptor {
	return LeafDescriptor{Location: loc, Path: path, Name: name, VarType: "string"}
}

func TestBuildScenario(t *testing.T) {
	tree, err := Build([]LeafDescriptor{
		leaf(BodyParam, "foo"),
		leaf(BodyParam, "baz", "bar"),
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultRootName, tree.Name())
	assert.False(t, tree.IsLeaf())
	assert.Equal(t, []string{"bar", "foo"}, tree.ChildNames())

	foo, ok := tree.Child("foo")
	require.True(t, ok)
	assert.True(t, foo.IsLeaf())
	assert.False(t, foo.HasChildren())
	assert.Equal(t, "string", foo.VarType())

	bar, ok := tree.Child("bar")
	require.True(t, ok)
	assert.False(t, bar.IsLeaf())
	assert.Equal(t, ObjectType, bar.VarType())
	assert.Equal(t, []string{"baz"}, bar.ChildNames())

	baz, ok := tree.Lookup([]string{"bar", "baz"})
	require.True(t, ok)
	d, ok := baz.Descriptor()
	require.True(t, ok)
	assert.Equal(t, []string{"bar"}, d.Path)
	assert.Equal(t, "baz", d.Name)
}

func TestBuildDuplicateLeaf(t *testing.T) {
	tests := []struct {
		name  string
		descs []LeafDescriptor
		path  []string
	}{
		{
			name:  "top level",
			descs: []LeafDescriptor{leaf(QueryParam, "id"), leaf(QueryParam, "id")},
			path:  []string{"id"},
		},
		{
			name:  "nested",
			descs: []LeafDescriptor{leaf(BodyParam, "city", "address"), leaf(BodyParam, "city", "address")},
			path:  []string{"address", "city"},
		},
		{
			name:  "different locations still collide",
			descs: []LeafDescriptor{leaf(QueryParam, "id"), leaf(HeaderParam, "id")},
			path:  []string{"id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.descs)
			var dup *DuplicateLeafError
			require.True(t, errors.As(err, &dup), "got %v", err)
			assert.Equal(t, tt.path, dup.Path)
		})
	}
}

func TestBuildLeafSharesNameWithObject(t *testing.T) {
	a := LeafDescriptor{Location: BodyParam, Name: "tags", VarType: "array"}
	b := leaf(BodyParam, "label", "tags")

	forward, err := Build([]LeafDescriptor{a, b})
	require.NoError(t, err)
	backward, err := Build([]LeafDescriptor{b, a})
	require.NoError(t, err)

	assert.True(t, Equal(forward, backward))
	tags, _ := forward.Child("tags")
	assert.True(t, tags.IsLeaf())
	assert.True(t, tags.HasChildren())
	assert.Equal(t, "array", tags.VarType())
}

func TestBuildRootName(t *testing.T) {
	tree, err := Build(nil, WithRootName("Body"))
	require.NoError(t, err)
	assert.Equal(t, "Body", tree.Name())
	assert.False(t, tree.HasChildren())
}

func TestBuildCopiesPath(t *testing.T) {
	path := []string{"a"}
	tree, err := Build([]LeafDescriptor{{Location: BodyParam, Path: path, Name: "b"}})
	require.NoError(t, err)
	path[0] = "mutated"

	node, ok := tree.Lookup([]string{"a", "b"})
	require.True(t, ok)
	d, _ := node.Descriptor()
	assert.Equal(t, []string{"a"}, d.Path)
}

func TestEqualComparesAddedDate(t *testing.T) {
	d := leaf(QueryParam, "limit")
	later := d
	later.AddedDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a, _ := Build([]LeafDescriptor{d})
	b, _ := Build([]LeafDescriptor{later})
	assert.False(t, Equal(a, b))
}

func TestLeavesWalkOrder(t *testing.T) {
	tree, err := Build([]LeafDescriptor{
		leaf(BodyParam, "z"),
		leaf(BodyParam, "b", "a"),
		leaf(BodyParam, "a"),
	})
	require.NoError(t, err)

	var names []string
	for _, l := range tree.Leaves() {
		names = append(names, PathKey(l.FullPath()))
	}
	assert.Equal(t, []string{"/a", "/a/b", "/z"}, names)
}

func TestPathKeyRoundTrip(t *testing.T) {
	tests := [][]string{
		nil,
		{"a"},
		{"a/b", "c~d"},
		{""},
	}
	for _, path := range tests {
		key := PathKey(path)
		got, err := ParsePathKey(key)
		require.NoError(t, err)
		if len(path) == 0 {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, path, got)
	}
	assert.Equal(t, "/a~1b/c~0d", PathKey([]string{"a/b", "c~d"}))

	_, err := ParsePathKey("no-slash")
	assert.Error(t, err)
}

// descriptorSet draws descriptors with unique (path, name) identities.
func descriptorSet() *rapid.Generator[[]LeafDescriptor] {
	return rapid.Custom(func(t *rapid.T) []LeafDescriptor {
		segment := rapid.SampledFrom([]string{"a", "b", "c", "d"})
		n := rapid.IntRange(0, 12).Draw(t, "n")
		seen := make(map[string]bool)
		var out []LeafDescriptor
		for i := 0; i < n; i++ {
			path := rapid.SliceOfN(segment, 0, 3).Draw(t, "path")
			d := LeafDescriptor{
				Location: rapid.SampledFrom(Locations).Draw(t, "location"),
				Path:     path,
				Name:     segment.Draw(t, "name"),
				VarType:  rapid.SampledFrom([]string{"string", "integer", "array"}).Draw(t, "type"),
			}
			key := PathKey(d.FullPath())
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, d)
		}
		return out
	})
}

func TestBuildOrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		descs := descriptorSet().Draw(t, "descs")
		shuffled := rapid.Permutation(descs).Draw(t, "shuffled")

		a, err := Build(descs)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		b, err := Build(shuffled)
		if err != nil {
			t.Fatalf("build shuffled: %v", err)
		}
		if !Equal(a, b) {
			t.Fatalf("trees differ for permutation")
		}
	})
}

func TestBuildMarksEveryLeaf(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		descs := descriptorSet().Draw(t, "descs")
		tree, err := Build(descs)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if got := len(tree.Leaves()); got != len(descs) {
			t.Fatalf("got %d leaves, want %d", got, len(descs))
		}
		for _, d := range descs {
			node, ok := tree.Lookup(d.FullPath())
			if !ok || !node.IsLeaf() {
				t.Fatalf("leaf %s missing", PathKey(d.FullPath()))
			}
		}
	})
}
