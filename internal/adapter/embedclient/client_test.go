package embedclient_test

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

	"lex-retriever/internal/adapter/embedclient"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newClient(t *testing.T, handler http.HandlerFunc) *embedclient.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := embedclient.DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.InitialInterval = 5 * time.Millisecond
	cfg.RequestsPerSecond = 1000
	return embedclient.New(server.Client(), cfg, discardLogger())
}

func embedResponse(w http.ResponseWriter, vec []float32) {
	json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{vec}})
}

func TestEmbed_ReturnsVector(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "opzegtermijn ontslag", req.Input)

		embedResponse(w, []float32{0.1, 0.2, 0.3})
	})

	vec, err := client.Embed(context.Background(), "opzegtermijn ontslag")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbed_CachesIdenticalQueries(t *testing.T) {
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		embedResponse(w, []float32{0.5})
	})

	for i := 0; i < 3; i++ {
		_, err := client.Embed(context.Background(), "verjaring")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, calls)
}

func TestEmbed_RetriesOnRateLimit(t *testing.T) {
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		embedResponse(w, []float32{0.7})
	})

	vec, err := client.Embed(context.Background(), "huurovereenkomst")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.7}, vec)
	assert.Equal(t, 3, calls)
}

func TestEmbed_RateLimitExhaustsAttempts(t *testing.T) {
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Embed(context.Background(), "btw vrijstelling")

	require.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestEmbed_ServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Embed(context.Background(), "dagvaarding")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestEmbed_RequestTimeoutIsTerminal(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	cfg := embedclient.DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.Timeout = 20 * time.Millisecond
	cfg.RequestsPerSecond = 1000
	client := embedclient.New(server.Client(), cfg, discardLogger())

	_, err := client.Embed(context.Background(), "concurrentiebeding")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestEmbed_EmptyVectorIsError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
	})

	_, err := client.Embed(context.Background(), "alimentatie")
	assert.Error(t, err)
}
