package disclosure

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatCollection(t *testing.T) {
	var calls atomic.Int32
	get := LeafDescriptor{Location: PathParam, Name: "GET /users/{id}", Fetch: immediate(strPtr("Fetch a user"), nil, &calls)}
	del := LeafDescriptor{Location: PathParam, Name: "DELETE /users/{id}", Fetch: immediate(nil, errors.New("unavailable"), &calls)}

	flat, err := NewFlatCollection([]LeafDescriptor{get, del})
	require.NoError(t, err)
	defer flat.Dispose()

	assert.Equal(t, 2, flat.Len())
	assert.Equal(t, []string{"DELETE /users/{id}", "GET /users/{id}"}, flat.Keys())

	require.NoError(t, flat.Toggle("GET /users/{id}"))
	entry, ok := flat.Entry("GET /users/{id}")
	require.True(t, ok)
	assert.True(t, entry.Expanded)
	assert.Equal(t, StatusUnloaded, entry.Status)

	ctx := waitCtx(t)
	s, err := flat.RequestDescription("GET /users/{id}")
	require.NoError(t, err)
	_, err = s.Wait(ctx)
	require.NoError(t, err)

	s, err = flat.RequestDescription("DELETE /users/{id}")
	require.NoError(t, err)
	_, err = s.Wait(ctx)
	require.NoError(t, err)
	assert.Error(t, s.Err())

	entries := flat.Entries()
	assert.Equal(t, EntryState{Expanded: true, Description: "Fetch a user", HasDescription: true, Status: StatusLoaded}, entries["GET /users/{id}"])
	assert.Equal(t, EntryState{Status: StatusFailed}, entries["DELETE /users/{id}"])

	_, err = flat.RequestDescription("GET /users/{id}")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	_, ok = flat.Entry("PUT /users/{id}")
	assert.False(t, ok)
	var notFound *PathNotFoundError
	assert.True(t, errors.As(flat.Toggle("PUT /users/{id}"), &notFound))
}

func TestFlatCollectionRejectsNestedEntries(t *testing.T) {
	_, err := NewFlatCollection([]LeafDescriptor{leaf(BodyParam, "b", "a")})
	assert.ErrorIs(t, err, ErrNestedEntry)
}

func TestFlatCollectionRejectsDuplicates(t *testing.T) {
	_, err := NewFlatCollection([]LeafDescriptor{leaf(BodyParam, "a"), leaf(BodyParam, "a")})
	var dup *DuplicateLeafError
	assert.True(t, errors.As(err, &dup))
}

func TestFlatCollectionSharesCoordinatorRules(t *testing.T) {
	gate := newGatedFetch(strPtr("alt"), nil)
	flat, err := NewFlatCollection([]LeafDescriptor{{Name: "alt", Fetch: gate.fetch}})
	require.NoError(t, err)

	s1, err := flat.RequestDescription("alt")
	require.NoError(t, err)
	s2, err := flat.RequestDescription("alt")
	require.NoError(t, err)
	entry, _ := flat.Entry("alt")
	assert.Equal(t, StatusLoading, entry.Status)

	flat.Dispose()
	assert.True(t, flat.Coordinator().Disposed())
	_, err = s1.Wait(context.Background())
	assert.ErrorIs(t, err, ErrDisposed)
	_, err = s2.Wait(context.Background())
	assert.ErrorIs(t, err, ErrDisposed)
	assert.Equal(t, int32(1), gate.calls.Load())
}
