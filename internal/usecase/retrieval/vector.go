package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"lex-retriever/internal/domain"
)

// VectorConfig holds vector-search parameters.
type VectorConfig struct {
	// Limit is the top-K result count requested from either path.
	Limit int
	// FallbackSampleSize bounds the exact-scan fallback. Fixed, independent
	// of corpus size; corpora smaller than the sample are scanned in full.
	// Whether this should grow with the corpus is a tuning question, so it
	// stays a knob.
	FallbackSampleSize int
	// LanguageBoost multiplies the similarity of passages whose language
	// matches the requester's preference. Must be > 1.0.
	LanguageBoost float32
}

// DefaultVectorConfig returns the standard vector-search parameters.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Limit:              15,
		FallbackSampleSize: 10000,
		LanguageBoost:      1.2,
	}
}

// Validate checks the configuration for sanity.
func (c VectorConfig) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("vector limit must be positive, got %d", c.Limit)
	}
	if c.FallbackSampleSize <= 0 {
		return fmt.Errorf("fallbackSampleSize must be positive, got %d", c.FallbackSampleSize)
	}
	if c.LanguageBoost <= 1.0 {
		return fmt.Errorf("languageBoost must be > 1.0, got %f", c.LanguageBoost)
	}
	return nil
}

// VectorSearcher retrieves the top-K most similar passages. The primary
// path delegates to the external ANN service; when that is unavailable the
// searcher scans a bounded random sample of stored embeddings with exact
// cosine similarity. The sampled scan trades recall for bounded latency.
type VectorSearcher struct {
	ann     domain.AnnSearcher
	reader  domain.PassageReader
	sampler domain.EmbeddingSampler
	cfg     VectorConfig
	logger  *slog.Logger
}

// NewVectorSearcher creates a vector searcher for one corpus.
func NewVectorSearcher(
	ann domain.AnnSearcher,
	reader domain.PassageReader,
	sampler domain.EmbeddingSampler,
	cfg VectorConfig,
	logger *slog.Logger,
) *VectorSearcher {
	return &VectorSearcher{ann: ann, reader: reader, sampler: sampler, cfg: cfg, logger: logger}
}

// Search returns language-boosted candidates sorted by similarity, and
// whether the fallback scan was used. Filters apply to the full records,
// before scoring.
func (s *VectorSearcher) Search(ctx context.Context, embedding []float32, preferred domain.Language, filters domain.Filters) ([]domain.Candidate, bool, error) {
	hits, fellBack, err := s.topHits(ctx, embedding)
	if err != nil {
		return nil, fellBack, err
	}
	if len(hits) == 0 {
		return nil, fellBack, nil
	}

	ids := make([]string, len(hits))
	similarity := make(map[string]float32, len(hits))
	for i, h := range hits {
		ids[i] = h.PassageID
		similarity[h.PassageID] = h.Similarity
	}

	records, err := s.reader.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, fellBack, fmt.Errorf("vector hit fetch: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(records))
	for _, rec := range records {
		if !filters.Matches(&rec) {
			continue
		}
		score := similarity[rec.ID]
		if rec.Language == preferred {
			score *= s.cfg.LanguageBoost
		}
		candidates = append(candidates, RecordToCandidate(rec, score, domain.SourceVector))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].PassageID < candidates[j].PassageID
	})
	return candidates, fellBack, nil
}

func (s *VectorSearcher) topHits(ctx context.Context, embedding []float32) ([]domain.AnnHit, bool, error) {
	start := time.Now()
	hits, err := s.ann.Search(ctx, embedding, s.cfg.Limit)
	if err == nil {
		s.logger.Info("ann_search_completed",
			slog.Int("hit_count", len(hits)),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return hits, false, nil
	}

	s.logger.Warn("ann_search_unavailable_using_sampled_scan",
		slog.String("error", err.Error()))

	hits, err = s.sampledScan(ctx, embedding)
	if err != nil {
		return nil, true, err
	}
	return hits, true, nil
}

// sampledScan computes exact cosine similarity over a bounded random sample
// and keeps the top-K in a fixed-size buffer.
func (s *VectorSearcher) sampledScan(ctx context.Context, embedding []float32) ([]domain.AnnHit, error) {
	start := time.Now()
	sample, err := s.sampler.SampleEmbeddings(ctx, s.cfg.FallbackSampleSize)
	if err != nil {
		return nil, fmt.Errorf("embedding sample: %w", err)
	}

	buffer := NewTopKBuffer(s.cfg.Limit)
	for _, ep := range sample {
		buffer.Offer(ep.PassageID, CosineSimilarity(embedding, ep.Embedding))
	}

	hits := buffer.Hits()
	s.logger.Info("fallback_scan_completed",
		slog.Int("sample_size", len(sample)),
		slog.Int("hit_count", len(hits)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return hits, nil
}

// CosineSimilarity is the dot product over the product of magnitudes. The
// similarity is 0 when either vector has zero magnitude or the dimensions
// disagree.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}

// TopKBuffer keeps the K highest-similarity hits seen so far by replacing
// the current minimum whenever a larger similarity arrives.
type TopKBuffer struct {
	k    int
	hits []domain.AnnHit
}

// NewTopKBuffer creates a buffer holding at most k hits.
func NewTopKBuffer(k int) *TopKBuffer {
	return &TopKBuffer{k: k, hits: make([]domain.AnnHit, 0, k)}
}

// Offer considers one scored passage for inclusion.
func (b *TopKBuffer) Offer(passageID string, similarity float32) {
	if len(b.hits) < b.k {
		b.hits = append(b.hits, domain.AnnHit{PassageID: passageID, Similarity: similarity})
		return
	}
	minIdx := 0
	for i := 1; i < len(b.hits); i++ {
		if b.hits[i].Similarity < b.hits[minIdx].Similarity {
			minIdx = i
		}
	}
	if similarity > b.hits[minIdx].Similarity {
		b.hits[minIdx] = domain.AnnHit{PassageID: passageID, Similarity: similarity}
	}
}

// Hits returns the buffered hits sorted by similarity descending.
func (b *TopKBuffer) Hits() []domain.AnnHit {
	out := make([]domain.AnnHit, len(b.hits))
	copy(out, b.hits)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].PassageID < out[j].PassageID
	})
	return out
}
