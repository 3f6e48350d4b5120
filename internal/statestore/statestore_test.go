package statestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursegrid/coursegrid/internal/course"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInstanceStateRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	loc := course.NewLocation("edX", "demo", "problem", "p1")

	// Unsaved state reads as empty, not as an error.
	state, err := store.InstanceState(ctx, "alice", loc)
	require.NoError(t, err)
	assert.Empty(t, state)

	require.NoError(t, store.SaveInstanceState(ctx, "alice", loc, `{"attempts": 1}`))
	state, err = store.InstanceState(ctx, "alice", loc)
	require.NoError(t, err)
	assert.Equal(t, `{"attempts": 1}`, state)

	// Saving again overwrites.
	require.NoError(t, store.SaveInstanceState(ctx, "alice", loc, `{"attempts": 2}`))
	state, err = store.InstanceState(ctx, "alice", loc)
	require.NoError(t, err)
	assert.Equal(t, `{"attempts": 2}`, state)

	// Students are isolated.
	state, err = store.InstanceState(ctx, "bob", loc)
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestSharedStateRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSharedState(ctx, "alice", "problem", "ps1", `{"seen": true}`))

	state, err := store.SharedState(ctx, "alice", "problem", "ps1")
	require.NoError(t, err)
	assert.Equal(t, `{"seen": true}`, state)

	// Shared state is keyed per category and key, not per location.
	state, err = store.SharedState(ctx, "alice", "problem", "other")
	require.NoError(t, err)
	assert.Empty(t, state)

	state, err = store.SharedState(ctx, "alice", "video", "ps1")
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestStudentCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	loc := course.NewLocation("edX", "demo", "problem", "p1")

	count, err := store.StudentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.SaveInstanceState(ctx, "alice", loc, "{}"))
	require.NoError(t, store.SaveInstanceState(ctx, "bob", loc, "{}"))
	require.NoError(t, store.SaveInstanceState(ctx, "alice",
		course.NewLocation("edX", "demo", "video", "v1"), "{}"))

	count, err = store.StudentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStatePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()
	loc := course.NewLocation("edX", "demo", "problem", "p1")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveInstanceState(ctx, "alice", loc, `{"attempts": 3}`))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	state, err := reopened.InstanceState(ctx, "alice", loc)
	require.NoError(t, err)
	assert.Equal(t, `{"attempts": 3}`, state)
}
