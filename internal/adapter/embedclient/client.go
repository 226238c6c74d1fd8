package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"lex-retriever/internal/domain"
)

// Config holds the embedding provider connection parameters.
type Config struct {
	BaseURL string
	Model   string
	// Timeout bounds each provider request with a per-call context
	// deadline. Retries get a fresh deadline each attempt.
	Timeout time.Duration
	// MaxAttempts bounds retries of rate-limited requests. Only HTTP 429 is
	// retried; every other failure is terminal.
	MaxAttempts     int
	InitialInterval time.Duration
	// RequestsPerSecond throttles outgoing calls below the provider quota.
	RequestsPerSecond float64
	// CacheSize and CacheTTL bound the query-embedding cache. Identical
	// questions recur often enough in legal Q&A to make this worthwhile.
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultConfig returns the standard client parameters.
func DefaultConfig() Config {
	return Config{
		Model:             "nomic-embed-text",
		Timeout:           10 * time.Second,
		MaxAttempts:       4,
		InitialInterval:   500 * time.Millisecond,
		RequestsPerSecond: 5,
		CacheSize:         512,
		CacheTTL:          15 * time.Minute,
	}
}

// Client generates query embeddings via the external provider, with a
// rate limiter in front of the wire and an expiring cache in front of both.
type Client struct {
	httpClient *http.Client
	cfg        Config
	limiter    *rate.Limiter
	cache      *expirable.LRU[string, []float32]
	logger     *slog.Logger
}

// New creates an embedding client.
func New(httpClient *http.Client, cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cache:      expirable.NewLRU[string, []float32](cfg.CacheSize, nil, cfg.CacheTTL),
		logger:     logger,
	}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns the embedding for text, from cache when possible.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := c.cache.Get(text); ok {
		return cached, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limiter: %w", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(backoff.WithInitialInterval(c.cfg.InitialInterval)),
		uint64(c.cfg.MaxAttempts-1)), ctx)

	embedding, err := backoff.RetryWithData(func() ([]float32, error) {
		vec, status, err := c.doEmbed(ctx, text)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if status == http.StatusTooManyRequests {
			c.logger.Warn("embedding_rate_limited_retrying")
			return nil, fmt.Errorf("embedding provider rate limited")
		}
		if status != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("embedding provider returned %d: %w", status, domain.ErrUnavailable))
		}
		return vec, nil
	}, policy)
	if err != nil {
		return nil, err
	}

	c.cache.Add(text, embedding)
	return embedding, nil
}

func (c *Client) doEmbed(ctx context.Context, text string) ([]float32, int, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(embedRequest{Model: c.cfg.Model, Input: text})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("embed request failed: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode embed response: %w", err)
	}
	if len(parsed.Embeddings) == 0 || len(parsed.Embeddings[0]) == 0 {
		return nil, 0, fmt.Errorf("embedding provider returned empty vector")
	}
	return parsed.Embeddings[0], http.StatusOK, nil
}
