package fleetmeta

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewSQLiteStore_EmptyPathRejected(t *testing.T) {
	_, err := NewSQLiteStore("   ")
	require.Error(t, err)
}

func TestWatchlistRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	count, err := store.ReplaceWatchlist(ctx, "hot-swaps", []string{"Fuel Pump", "Hydraulic Actuator", "Fuel Pump", "  "})
	require.NoError(t, err)
	assert.Equal(t, 2, count, "duplicates and blanks are dropped")

	components, err := store.ComponentsForWatchlist(ctx, "hot-swaps")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fuel Pump", "Hydraulic Actuator"}, components)

	lists, err := store.ListWatchlists(ctx, 10)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "hot-swaps", lists[0].Name)
	assert.Equal(t, int64(2), lists[0].ComponentCount)

	deleted, err := store.DeleteWatchlist(ctx, "hot-swaps")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	components, err = store.ComponentsForWatchlist(ctx, "hot-swaps")
	require.NoError(t, err)
	assert.Empty(t, components)
}

func TestReplaceWatchlist_NameRequired(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ReplaceWatchlist(context.Background(), "  ", []string{"Fuel Pump"})
	require.Error(t, err)
}

func TestSavedViewUpsertAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.UpsertSavedView(ctx, "fleet overview", "default landing view", `{"charts":["pareto"]}`)
	require.NoError(t, err)
	require.Positive(t, id)

	view, err := store.GetSavedView(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "fleet overview", view.Name)
	assert.Equal(t, `{"charts":["pareto"]}`, view.ConfigJSON)
	assert.NotNil(t, view.CreatedAt)

	// A second upsert with the same name updates in place.
	again, err := store.UpsertSavedView(ctx, "fleet overview", "updated", `{"charts":["mtbur"]}`)
	require.NoError(t, err)

	view, err = store.GetSavedView(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, "updated", view.Description)
	assert.Equal(t, `{"charts":["mtbur"]}`, view.ConfigJSON)

	views, err := store.ListSavedViews(ctx, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)

	deleted, err := store.DeleteSavedView(ctx, views[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestUpsertSavedView_RejectsEmptyFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertSavedView(ctx, "", "d", `{}`)
	require.Error(t, err)

	_, err = store.UpsertSavedView(ctx, "v", "d", "   ")
	require.Error(t, err)
}
