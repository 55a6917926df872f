package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Roundtrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	params := map[string]string{"origin": "OPO", "destination": "CDG"}

	_, hit, err := store.Get(ctx, "amadeus:flight-offers", params)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, store.Set(ctx, "amadeus:flight-offers", params, []byte(`{"data":[]}`)))

	value, hit, err := store.Get(ctx, "amadeus:flight-offers", params)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte(`{"data":[]}`), value)
}

func TestSQLiteStore_KeyDependsOnParams(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "ep", map[string]string{"origin": "OPO"}, []byte("a")))

	_, hit, err := store.Get(ctx, "ep", map[string]string{"origin": "LIS"})
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = store.Get(ctx, "other", map[string]string{"origin": "OPO"})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSQLiteStore_ExpiredEntryIsMiss(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	params := map[string]string{"origin": "OPO"}

	current := time.Now()
	store.now = func() time.Time { return current }

	require.NoError(t, store.Set(ctx, "ep", params, []byte("v")))

	current = current.Add(2 * time.Hour)

	_, hit, err := store.Get(ctx, "ep", params)
	require.NoError(t, err)
	assert.False(t, hit)

	// The expired row is removed on read.
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()
	params := map[string]string{"origin": "OPO"}

	store, err := NewSQLiteStore(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "ep", params, []byte("persisted")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path, time.Hour)
	require.NoError(t, err)
	defer reopened.Close()

	value, hit, err := reopened.Get(ctx, "ep", params)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte("persisted"), value)
}

func TestSQLiteStore_ClearExpired(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	require.NoError(t, store.Set(ctx, "ep", map[string]string{"k": "old"}, []byte("old")))

	current = current.Add(30 * time.Minute)
	require.NoError(t, store.Set(ctx, "ep", map[string]string{"k": "fresh"}, []byte("fresh")))

	current = current.Add(45 * time.Minute)

	removed, err := store.ClearExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Valid)
}

func TestSQLiteStore_ClearAll(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "ep", map[string]string{"k": "1"}, []byte("1")))
	require.NoError(t, store.Set(ctx, "ep", map[string]string{"k": "2"}, []byte("2")))

	require.NoError(t, store.ClearAll(ctx))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	params := map[string]string{"origin": "OPO"}

	require.NoError(t, store.Set(ctx, "ep", params, []byte("first")))
	require.NoError(t, store.Set(ctx, "ep", params, []byte("second")))

	value, hit, err := store.Get(ctx, "ep", params)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte("second"), value)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestKey_Deterministic(t *testing.T) {
	a := Key("ep", map[string]string{"origin": "OPO", "destination": "CDG"})
	b := Key("ep", map[string]string{"destination": "CDG", "origin": "OPO"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c := Key("ep", map[string]string{"origin": "LIS", "destination": "CDG"})
	assert.NotEqual(t, a, c)
}
