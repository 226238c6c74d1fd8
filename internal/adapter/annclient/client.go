package annclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"lex-retriever/internal/domain"
)

// Config holds the ANN service connection parameters.
type Config struct {
	BaseURL string
	// Timeout bounds each search request with a per-call context deadline.
	Timeout time.Duration
	// BreakerMaxFailures consecutive failures open the circuit; calls then
	// fail fast with ErrUnavailable until the cooldown elapses.
	BreakerMaxFailures uint32
	BreakerCooldown    time.Duration
}

// DefaultConfig returns the standard client parameters.
func DefaultConfig() Config {
	return Config{
		Timeout:            3 * time.Second,
		BreakerMaxFailures: 5,
		BreakerCooldown:    30 * time.Second,
	}
}

// Client calls the external approximate nearest-neighbor service over HTTP.
// All failure modes surface as domain.ErrUnavailable so the caller can fall
// back to the sampled exact scan without inspecting transport details.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	corpus     domain.CorpusID
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// New creates a corpus-scoped ANN client.
func New(httpClient *http.Client, cfg Config, corpus domain.CorpusID, logger *slog.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: fmt.Sprintf("ann-%s", corpus),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		Timeout: cfg.BreakerCooldown,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ann_breaker_state_changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		corpus:     corpus,
		breaker:    breaker,
		logger:     logger,
	}
}

type searchRequest struct {
	Corpus    string    `json:"corpus"`
	Embedding []float32 `json:"embedding"`
	Limit     int       `json:"limit"`
}

type searchResponse struct {
	Results []struct {
		ID         string  `json:"id"`
		Similarity float32 `json:"similarity"`
	} `json:"results"`
}

// Search returns the top-K nearest passages by embedding.
func (c *Client) Search(ctx context.Context, embedding []float32, limit int) ([]domain.AnnHit, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.doSearch(ctx, embedding, limit)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("ann circuit open: %w", domain.ErrUnavailable)
		}
		return nil, err
	}
	return result.([]domain.AnnHit), nil
}

func (c *Client) doSearch(ctx context.Context, embedding []float32, limit int) ([]domain.AnnHit, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(searchRequest{
		Corpus:    string(c.corpus),
		Embedding: embedding,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ann request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ann request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ann request failed: %w", errors.Join(err, domain.ErrUnavailable))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ann service returned %d: %w", resp.StatusCode, domain.ErrUnavailable)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode ann response: %w", errors.Join(err, domain.ErrUnavailable))
	}

	hits := make([]domain.AnnHit, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		hits = append(hits, domain.AnnHit{PassageID: r.ID, Similarity: r.Similarity})
	}
	return hits, nil
}
