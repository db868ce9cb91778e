package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metromatch/metromatch/internal/domain"
	"github.com/metromatch/metromatch/internal/normalize"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "bpm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestGetMiss(t *testing.T) {
	store := newTestStore(t)

	rec, ok := store.Get(normalize.Key("Daft Punk", "Get Lucky"))

	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestPutThenGet(t *testing.T) {
	store := newTestStore(t)
	key := normalize.Key("Daft Punk", "Get Lucky")

	store.Put(key, 116.0, domain.SourceAPI, map[string]string{"song_id": "abc123"})

	rec, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, 116.0, rec.BPM)
	assert.Equal(t, domain.SourceAPI, rec.Source)
	assert.Equal(t, "daft punk", rec.Artist)
	assert.Equal(t, "get lucky", rec.Title)
	assert.Equal(t, "abc123", rec.Metadata["song_id"])
	assert.False(t, rec.LastUpdated.IsZero())
}

func TestPutUpserts(t *testing.T) {
	store := newTestStore(t)
	key := normalize.Key("Daft Punk", "Get Lucky")

	store.Put(key, 116.0, domain.SourceAPI, nil)
	store.Put(key, 117.0, domain.SourceScraper, nil)

	rec, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, 117.0, rec.BPM)
	assert.Equal(t, domain.SourceScraper, rec.Source)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestKeyIdentityIsNormalized(t *testing.T) {
	store := newTestStore(t)

	store.Put(normalize.Key("Daft Punk", " Get Lucky "), 116.0, domain.SourceAPI, nil)

	rec, ok := store.Get(normalize.Key("daft punk", "get lucky"))
	require.True(t, ok)
	assert.Equal(t, 116.0, rec.BPM)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	key := normalize.Key("Daft Punk", "Get Lucky")

	store.Put(key, 116.0, domain.SourceAPI, nil)
	require.NoError(t, store.Delete(key))

	_, ok := store.Get(key)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	store.Put(normalize.Key("a", "b"), 100, domain.SourceAPI, nil)
	store.Put(normalize.Key("c", "d"), 120, domain.SourceScraper, nil)

	require.NoError(t, store.Clear())

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
