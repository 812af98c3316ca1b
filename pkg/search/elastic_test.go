package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := es.NewClient(es.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewClient(client, zerolog.New(io.Discard))
}

func TestDecodeHitsSkipsNonNumericIDs(t *testing.T) {
	raw := `{"hits":{"hits":[{"_index":"led_scholars","_id":"4","_score":2.5},{"_index":"led_scholars","_id":"abc","_score":1}]}}`
	hits, err := decodeHits(strings.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, []Hit{{Index: IndexScholars, ID: 4, Score: 2.5}}, hits)
}

func TestSearchSendsMultiMatch(t *testing.T) {
	var received map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, IndexActivities)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = io.WriteString(w, `{"hits":{"hits":[{"_index":"led_activities","_id":"12","_score":1.2}]}}`)
	})

	hits, err := client.Search(context.Background(), "hackathon", []string{IndexActivities}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, uint(12), hits[0].ID)
	require.EqualValues(t, 5, received["size"])
}

func TestSearchReportsBackendError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"unavailable"}`)
	})

	_, err := client.Search(context.Background(), "abc", []string{IndexScholars}, 5)
	require.ErrorIs(t, err, ErrUnavailable)
}
