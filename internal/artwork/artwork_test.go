package artwork

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLookup(endpoint string) *Lookup {
	l := NewLookup()
	l.endpoint = endpoint
	return l
}

func TestCoverURLReturnsUpscaledURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "song", r.URL.Query().Get("entity"))
		assert.Equal(t, "Daft Punk Get Lucky", r.URL.Query().Get("term"))
		_ = json.NewEncoder(w).Encode(searchResponse{
			Results: []searchResult{
				{ArtworkURL100: "https://example.com/art/100x100bb.jpg"},
			},
		})
	}))
	defer srv.Close()

	l := newTestLookup(srv.URL)
	assert.Equal(t, "https://example.com/art/600x600bb.jpg", l.CoverURL("Daft Punk", "Get Lucky"))
}

func TestCoverURLCachesResults(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(searchResponse{
			Results: []searchResult{
				{ArtworkURL100: "https://example.com/art/100x100bb.jpg"},
			},
		})
	}))
	defer srv.Close()

	l := newTestLookup(srv.URL)
	l.CoverURL("Daft Punk", "Get Lucky")
	l.CoverURL("Daft Punk", "Get Lucky")
	l.CoverURL("Daft Punk", "Get Lucky")

	assert.Equal(t, int32(1), hits.Load())
}

func TestCoverURLEmptyOnNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer srv.Close()

	l := newTestLookup(srv.URL)
	assert.Empty(t, l.CoverURL("Unknown", "Nothing"))
}

func TestCoverURLEmptyOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := newTestLookup(srv.URL)
	assert.Empty(t, l.CoverURL("Artist", "Title"))
}

func TestCoverURLEmptyOnUnreachable(t *testing.T) {
	l := newTestLookup("http://127.0.0.1:1")
	assert.Empty(t, l.CoverURL("Artist", "Title"))
}
