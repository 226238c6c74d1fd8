package annclient_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lex-retriever/internal/adapter/annclient"
	"lex-retriever/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newClient(t *testing.T, handler http.HandlerFunc) *annclient.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := annclient.DefaultConfig()
	cfg.BaseURL = server.URL
	return annclient.New(server.Client(), cfg, domain.CorpusLegislation, discardLogger())
}

func TestSearch_ReturnsHits(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)

		var req struct {
			Corpus    string    `json:"corpus"`
			Embedding []float32 `json:"embedding"`
			Limit     int       `json:"limit"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "legislation", req.Corpus)
		assert.Equal(t, 5, req.Limit)

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": "p1", "similarity": 0.91},
				{"id": "p2", "similarity": 0.85},
			},
		})
	})

	hits, err := client.Search(context.Background(), []float32{0.1, 0.2}, 5)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "p1", hits[0].PassageID)
	assert.InDelta(t, 0.91, float64(hits[0].Similarity), 1e-6)
}

func TestSearch_ServerErrorIsUnavailable(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Search(context.Background(), []float32{0.1}, 5)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestSearch_RequestTimeoutIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	cfg := annclient.DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.Timeout = 20 * time.Millisecond
	client := annclient.New(server.Client(), cfg, domain.CorpusLegislation, discardLogger())

	start := time.Now()
	_, err := client.Search(context.Background(), []float32{0.1}, 5)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestSearch_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		_, err := client.Search(context.Background(), []float32{0.1}, 5)
		require.Error(t, err)
	}
	require.Equal(t, 5, calls)

	// Circuit is open now: the next call fails fast without reaching the
	// server, still reporting unavailability.
	_, err := client.Search(context.Background(), []float32{0.1}, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, 5, calls)
}
