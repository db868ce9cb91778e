package resolver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metromatch/metromatch/internal/cache"
	"github.com/metromatch/metromatch/internal/domain"
	"github.com/metromatch/metromatch/internal/normalize"
)

type fakeCache struct {
	records map[domain.NormalizedKey]*domain.BPMRecord
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{records: make(map[domain.NormalizedKey]*domain.BPMRecord)}
}

func (c *fakeCache) Get(key domain.NormalizedKey) (*domain.BPMRecord, bool) {
	rec, ok := c.records[key]
	return rec, ok
}

func (c *fakeCache) Put(key domain.NormalizedKey, bpm float64, source domain.Source, metadata map[string]string) {
	c.puts++
	c.records[key] = &domain.BPMRecord{
		Artist:   key.Artist,
		Title:    key.Title,
		BPM:      bpm,
		Source:   source,
		Metadata: metadata,
	}
}

type fakeAPI struct {
	result *domain.ResolutionResult
	calls  int
}

func (a *fakeAPI) Search(_ context.Context, _, _ string) (*domain.ResolutionResult, bool) {
	a.calls++
	return a.result, a.result != nil
}

type fakeWeb struct {
	result *domain.ResolutionResult
	calls  int
}

func (w *fakeWeb) Resolve(_ context.Context, _, _ string) (*domain.ResolutionResult, bool) {
	w.calls++
	return w.result, w.result != nil
}

func TestResolveEmptyQueryIsProgrammerError(t *testing.T) {
	r := New(nil, nil, nil)

	_, err := r.Resolve(context.Background(), "", "Get Lucky")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = r.Resolve(context.Background(), "Daft Punk", "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestResolveCacheHitShortCircuits(t *testing.T) {
	c := newFakeCache()
	c.records[normalize.Key("Daft Punk", "Get Lucky")] = &domain.BPMRecord{BPM: 116.0, Source: domain.SourceAPI}
	api := &fakeAPI{result: &domain.ResolutionResult{BPM: 999, Source: domain.SourceAPI}}
	web := &fakeWeb{result: &domain.ResolutionResult{BPM: 999, Source: domain.SourceScraper}}

	r := New(c, api, web)
	result, err := r.Resolve(context.Background(), "Daft Punk", "Get Lucky")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 116.0, result.BPM)
	assert.Equal(t, domain.SourceCache, result.Source)
	assert.Zero(t, api.calls)
	assert.Zero(t, web.calls)
	assert.Zero(t, c.puts, "a cache hit must not be written back")
}

func TestResolveAPIHitIsWrittenBack(t *testing.T) {
	c := newFakeCache()
	api := &fakeAPI{result: &domain.ResolutionResult{BPM: 116.0, Source: domain.SourceAPI}}
	web := &fakeWeb{}

	r := New(c, api, web)
	result, err := r.Resolve(context.Background(), "Daft Punk", "Get Lucky")

	require.NoError(t, err)
	assert.Equal(t, 116.0, result.BPM)
	assert.Zero(t, web.calls)

	rec, ok := c.Get(normalize.Key("Daft Punk", "Get Lucky"))
	require.True(t, ok)
	assert.Equal(t, domain.SourceAPI, rec.Source)
}

func TestResolveScraperHitIsWrittenBack(t *testing.T) {
	c := newFakeCache()
	api := &fakeAPI{}
	web := &fakeWeb{result: &domain.ResolutionResult{BPM: 128.0, Source: domain.SourceScraper}}

	r := New(c, api, web)
	result, err := r.Resolve(context.Background(), "Daft Punk", "Get Lucky")

	require.NoError(t, err)
	assert.Equal(t, 128.0, result.BPM)
	assert.Equal(t, 1, api.calls)

	rec, ok := c.Get(normalize.Key("Daft Punk", "Get Lucky"))
	require.True(t, ok)
	assert.Equal(t, domain.SourceScraper, rec.Source)
}

func TestResolveDisabledTiersAreSkipped(t *testing.T) {
	r := New(nil, nil, nil)

	result, err := r.Resolve(context.Background(), "Daft Punk", "Get Lucky")

	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestResolveAllTiersMiss(t *testing.T) {
	c := newFakeCache()
	r := New(c, &fakeAPI{}, &fakeWeb{})

	result, err := r.Resolve(context.Background(), "Nobody", "Nothing")

	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Zero(t, c.puts)
}

func TestResolveSecondCallServedFromCache(t *testing.T) {
	c := newFakeCache()
	api := &fakeAPI{result: &domain.ResolutionResult{BPM: 116.0, Source: domain.SourceAPI}}

	r := New(c, api, nil)

	first, err := r.Resolve(context.Background(), "Daft Punk", "Get Lucky")
	require.NoError(t, err)

	second, err := r.Resolve(context.Background(), "daft punk", " get lucky ")
	require.NoError(t, err)

	assert.Equal(t, first.BPM, second.BPM)
	assert.Equal(t, domain.SourceCache, second.Source)
	assert.Equal(t, 1, api.calls, "second call must not reach the API")
}

func TestResolveWithSQLiteCacheSeeded(t *testing.T) {
	// Full scenario: a seeded persistent cache answers with zero network
	// tiers wired at all.
	store, err := cache.New(filepath.Join(t.TempDir(), "bpm.db"))
	require.NoError(t, err)
	defer store.Close()

	store.Put(normalize.Key("daft punk", "get lucky"), 116.0, domain.SourceAPI, nil)

	r := New(store, nil, nil)
	result, err := r.Resolve(context.Background(), "Daft Punk", "Get Lucky")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 116.0, result.BPM)
	assert.Equal(t, domain.SourceCache, result.Source)
}
