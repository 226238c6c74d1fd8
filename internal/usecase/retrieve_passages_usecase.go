package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lex-retriever/internal/domain"
	"lex-retriever/internal/usecase/retrieval"
)

// OrchestratorConfig holds fan-out parameters.
type OrchestratorConfig struct {
	// WorkerTimeout bounds each corpus worker independently. A worker that
	// has not completed by then is treated as having returned empty; its
	// late result is discarded, not awaited.
	WorkerTimeout time.Duration
	// JoinGrace is the extra time the collector waits for workers whose
	// contexts have already expired to observe cancellation.
	JoinGrace time.Duration
	// MaxQueryLength rejects malformed input before any retrieval.
	MaxQueryLength int
	// DefaultPerCorpusLimit applies when the request does not set one.
	DefaultPerCorpusLimit int
}

// DefaultOrchestratorConfig returns the standard fan-out parameters.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		WorkerTimeout:         8 * time.Second,
		JoinGrace:             500 * time.Millisecond,
		MaxQueryLength:        1000,
		DefaultPerCorpusLimit: 15,
	}
}

// Validate checks the configuration for sanity.
func (c OrchestratorConfig) Validate() error {
	if c.WorkerTimeout <= 0 {
		return fmt.Errorf("workerTimeout must be positive, got %v", c.WorkerTimeout)
	}
	if c.MaxQueryLength <= 0 {
		return fmt.Errorf("maxQueryLength must be positive, got %d", c.MaxQueryLength)
	}
	if c.DefaultPerCorpusLimit <= 0 {
		return fmt.Errorf("defaultPerCorpusLimit must be positive, got %d", c.DefaultPerCorpusLimit)
	}
	return nil
}

// CorpusPipeline bundles one corpus with its own lexical and vector
// backends. Workers never share mutable state; each pipeline computes an
// independent partial result.
type CorpusPipeline struct {
	Corpus  domain.CorpusID
	Lexical *retrieval.LexicalSelector
	Vector  *retrieval.VectorSearcher
	Fusion  *retrieval.FusionEngine
	Reader  domain.PassageReader
}

// RetrievePassagesUsecase is the library entry point: find, score, merge and
// rank the passages relevant to a legal question across all corpora.
type RetrievePassagesUsecase interface {
	Execute(ctx context.Context, req domain.RetrievalRequest) (*domain.RetrievalResult, error)
}

type retrievePassagesUsecase struct {
	pipelines   []CorpusPipeline
	embedder    domain.EmbeddingClient
	convStore   domain.ConversationStore
	followupCfg retrieval.FollowupConfig
	cfg         OrchestratorConfig
	logger      *slog.Logger
}

// NewRetrievePassagesUsecase wires the orchestrator. convStore may be nil
// when conversation state is not configured; follow-up expansion is then
// skipped.
func NewRetrievePassagesUsecase(
	pipelines []CorpusPipeline,
	embedder domain.EmbeddingClient,
	convStore domain.ConversationStore,
	followupCfg retrieval.FollowupConfig,
	cfg OrchestratorConfig,
	logger *slog.Logger,
) RetrievePassagesUsecase {
	return &retrievePassagesUsecase{
		pipelines:   pipelines,
		embedder:    embedder,
		convStore:   convStore,
		followupCfg: followupCfg,
		cfg:         cfg,
		logger:      logger,
	}
}

func (u *retrievePassagesUsecase) Execute(ctx context.Context, req domain.RetrievalRequest) (*domain.RetrievalResult, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if len([]rune(req.Query)) > u.cfg.MaxQueryLength {
		return nil, fmt.Errorf("%w: %d runes, maximum %d", domain.ErrQueryTooLong, len([]rune(req.Query)), u.cfg.MaxQueryLength)
	}

	retrievalID := uuid.NewString()
	limit := req.PerCorpusLimit
	if limit <= 0 {
		limit = u.cfg.DefaultPerCorpusLimit
	}

	effectiveQuery, prior := u.expandFollowup(ctx, retrievalID, req)
	tokens := domain.Tokenize(effectiveQuery, req.Language)

	u.logger.Info("retrieval_started",
		slog.String("retrieval_id", retrievalID),
		slog.String("language", string(req.Language)),
		slog.Int("token_count", len(tokens)),
		slog.Int("corpus_count", len(u.pipelines)))

	// One embedding per call, shared by all corpus workers. A failed
	// embedding degrades every worker to lexical-only; it never aborts the
	// call.
	var embedding []float32
	if u.embedder != nil {
		var err error
		embedding, err = u.embedder.Embed(ctx, effectiveQuery)
		if err != nil {
			u.logger.Warn("embedding_unavailable_lexical_only",
				slog.String("retrieval_id", retrievalID),
				slog.String("error", err.Error()))
			embedding = nil
		}
	}

	partials := u.dispatch(ctx, retrievalID, req, effectiveQuery, tokens, embedding, prior, limit)
	return u.collect(retrievalID, partials), nil
}

type corpusPartial struct {
	corpus     domain.CorpusID
	candidates []domain.Candidate
	diag       domain.SourceDiagnostics
}

// dispatch fans out one worker per corpus, each in its own failure
// boundary, and joins with a bounded deadline. Workers past the deadline
// are discarded.
func (u *retrievePassagesUsecase) dispatch(
	ctx context.Context,
	retrievalID string,
	req domain.RetrievalRequest,
	effectiveQuery string,
	tokens []domain.Token,
	embedding []float32,
	prior *domain.ConversationTurn,
	limit int,
) map[domain.CorpusID]corpusPartial {
	results := make(chan corpusPartial, len(u.pipelines))

	for _, p := range u.pipelines {
		go func(p CorpusPipeline) {
			workerCtx, cancel := context.WithTimeout(ctx, u.cfg.WorkerTimeout)
			defer cancel()

			defer func() {
				if r := recover(); r != nil {
					u.logger.Error("corpus_worker_panic",
						slog.String("retrieval_id", retrievalID),
						slog.String("corpus", string(p.Corpus)),
						slog.Any("panic", r))
					results <- corpusPartial{
						corpus: p.Corpus,
						diag:   domain.SourceDiagnostics{Corpus: p.Corpus, Error: fmt.Sprintf("panic: %v", r)},
					}
				}
			}()

			results <- u.runWorker(workerCtx, p, req, effectiveQuery, tokens, embedding, prior, limit)
		}(p)
	}

	partials := make(map[domain.CorpusID]corpusPartial, len(u.pipelines))
	deadline := time.NewTimer(u.cfg.WorkerTimeout + u.cfg.JoinGrace)
	defer deadline.Stop()

	for range u.pipelines {
		select {
		case partial := <-results:
			partials[partial.corpus] = partial
		case <-deadline.C:
			// Remaining workers are discarded; their corpora report as
			// timed out below.
			for _, p := range u.pipelines {
				if _, ok := partials[p.Corpus]; !ok {
					partials[p.Corpus] = corpusPartial{
						corpus: p.Corpus,
						diag:   domain.SourceDiagnostics{Corpus: p.Corpus, TimedOut: true},
					}
				}
			}
			return partials
		}
	}
	return partials
}

// runWorker executes the full per-corpus pipeline: lexical, vector,
// follow-up injection, fusion, truncation.
func (u *retrievePassagesUsecase) runWorker(
	ctx context.Context,
	p CorpusPipeline,
	req domain.RetrievalRequest,
	effectiveQuery string,
	tokens []domain.Token,
	embedding []float32,
	prior *domain.ConversationTurn,
	limit int,
) corpusPartial {
	start := time.Now()
	diag := domain.SourceDiagnostics{Corpus: p.Corpus}

	// Lexical and vector searches are independent; run them concurrently.
	// Either path failing only degrades this corpus to the other path, so
	// the group functions record failures in the diagnostics instead of
	// returning them.
	var (
		lexical []domain.Candidate
		vector  []domain.Candidate
		mu      sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		outcome, err := p.Lexical.Find(gctx, effectiveQuery, tokens)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			diag.Error = err.Error()
			return nil
		}
		diag.Strategy = outcome.Strategy
		for _, rec := range outcome.Records {
			if !req.Filters.Matches(&rec) {
				continue
			}
			lexical = append(lexical, retrieval.RecordToCandidate(rec, outcome.Scores[rec.ID], domain.SourceLexical))
		}
		return nil
	})

	if embedding != nil && p.Vector != nil {
		g.Go(func() error {
			candidates, fellBack, err := p.Vector.Search(gctx, embedding, req.Language, req.Filters)
			mu.Lock()
			defer mu.Unlock()
			diag.FallbackUsed = fellBack
			if err != nil {
				if diag.Error == "" {
					diag.Error = err.Error()
				}
				return nil
			}
			vector = candidates
			return nil
		})
	}

	_ = g.Wait()

	injected := retrieval.InjectCitedDocuments(ctx, p.Reader, prior, tokens, u.followupCfg, u.logger)

	fused := p.Fusion.Fuse(ctx, p.Corpus, tokens, lexical, vector, injected)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	diag.Latency = time.Since(start)
	diag.CandidateCount = len(fused)
	return corpusPartial{corpus: p.Corpus, candidates: fused, diag: diag}
}

// collect assembles partials in fixed corpus order. When every corpus came
// back empty the result is the distinct no-information terminal state, not
// an empty-looking success.
func (u *retrievePassagesUsecase) collect(retrievalID string, partials map[domain.CorpusID]corpusPartial) *domain.RetrievalResult {
	result := &domain.RetrievalResult{}
	total := 0

	for _, p := range u.pipelines {
		partial, ok := partials[p.Corpus]
		if !ok {
			partial = corpusPartial{
				corpus: p.Corpus,
				diag:   domain.SourceDiagnostics{Corpus: p.Corpus, TimedOut: true},
			}
		}
		result.Candidates = append(result.Candidates, partial.candidates...)
		result.Diagnostics = append(result.Diagnostics, partial.diag)
		total += len(partial.candidates)
	}

	result.NoInformationFound = total == 0
	u.logger.Info("retrieval_completed",
		slog.String("retrieval_id", retrievalID),
		slog.Int("candidate_count", total),
		slog.Bool("no_information_found", result.NoInformationFound))
	return result
}

// expandFollowup reads prior conversation state and compensates elliptical
// queries. Best-effort: a failing conversation store never fails the call.
func (u *retrievePassagesUsecase) expandFollowup(ctx context.Context, retrievalID string, req domain.RetrievalRequest) (string, *domain.ConversationTurn) {
	if u.convStore == nil || req.ConversationID == "" {
		return req.Query, nil
	}
	prior, err := u.convStore.PriorTurn(ctx, req.ConversationID)
	if err != nil {
		u.logger.Warn("conversation_state_unavailable",
			slog.String("retrieval_id", retrievalID),
			slog.String("error", err.Error()))
		return req.Query, nil
	}
	if prior == nil {
		return req.Query, nil
	}

	tokenCount := len(domain.Tokenize(req.Query, req.Language))
	if !retrieval.IsFollowupQuery(req.Query, req.Language, tokenCount, u.followupCfg) {
		return req.Query, nil
	}

	expanded := retrieval.ExpandWithPriorTurn(req.Query, prior, req.Language, u.followupCfg)
	u.logger.Info("followup_query_expanded",
		slog.String("retrieval_id", retrievalID),
		slog.Int("cited_documents", len(prior.CitedDocumentIDs)))
	return expanded, prior
}
