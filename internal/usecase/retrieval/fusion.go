package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"lex-retriever/internal/domain"
)

// FusionEngine merges candidates from the lexical, vector and injection
// paths into one re-scored, deduplicated ranking. The stage order is fixed
// and boost application is order-dependent by design: merge/dedup, authority
// injection, multiplicative boosts, re-sort, topical filter, similarity
// floor.
type FusionEngine struct {
	reader domain.PassageReader
	cfg    BoostConfig
	logger *slog.Logger
}

// NewFusionEngine creates a fusion engine for one corpus.
func NewFusionEngine(reader domain.PassageReader, cfg BoostConfig, logger *slog.Logger) *FusionEngine {
	return &FusionEngine{reader: reader, cfg: cfg, logger: logger}
}

// Fuse runs the full fusion pipeline. The concatenation order of the input
// lists does not affect the output; the boost order does.
func (e *FusionEngine) Fuse(ctx context.Context, corpus domain.CorpusID, tokens []domain.Token, lists ...[]domain.Candidate) []domain.Candidate {
	merged := mergeDedup(lists)
	inputCount := len(merged)

	merged = e.injectAuthority(ctx, corpus, tokens, merged)
	e.applyBoosts(tokens, merged)
	sortByScore(merged)
	merged = e.topicalFilter(tokens, merged)
	merged = e.similarityFilter(merged)

	e.logger.Info("fusion_completed",
		slog.String("corpus", string(corpus)),
		slog.Int("input_count", inputCount),
		slog.Int("output_count", len(merged)))
	return merged
}

// mergeDedup unions the lists keeping, per passage id, the instance with
// the higher pre-boost score. Provenance flags are merged with OR so an
// injected duplicate stays marked as injected.
func mergeDedup(lists [][]domain.Candidate) []domain.Candidate {
	byID := make(map[string]domain.Candidate)
	order := make([]string, 0)

	for _, list := range lists {
		for _, c := range list {
			existing, ok := byID[c.PassageID]
			if !ok {
				byID[c.PassageID] = c
				order = append(order, c.PassageID)
				continue
			}
			keep := existing
			if c.Score > existing.Score {
				keep = c
			}
			keep.Injected = existing.Injected || c.Injected
			keep.ContextInjected = existing.ContextInjected || c.ContextInjected
			keep.Abolished = existing.Abolished || c.Abolished
			byID[c.PassageID] = keep
		}
	}

	// Deterministic pre-sort order regardless of input concatenation.
	sort.Strings(order)
	out := make([]domain.Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

// injectAuthority synthesizes candidates from foundational documents that
// the query triggers but the merged list missed entirely.
func (e *FusionEngine) injectAuthority(ctx context.Context, corpus domain.CorpusID, tokens []domain.Token, merged []domain.Candidate) []domain.Candidate {
	docs := domain.FoundationalDocumentsFor(corpus, tokens)
	if len(docs) == 0 {
		return merged
	}

	present := make(map[string]bool, len(merged))
	for _, c := range merged {
		present[c.DocumentID] = true
	}

	for _, doc := range docs {
		if present[doc.DocumentID] {
			continue
		}
		records, err := e.reader.FetchByDocumentID(ctx, doc.DocumentID, e.cfg.AuthorityMaxInjected)
		if err != nil {
			e.logger.Warn("authority_injection_fetch_failed",
				slog.String("document_id", doc.DocumentID),
				slog.String("error", err.Error()))
			continue
		}
		injected := 0
		for _, rec := range records {
			if injected >= e.cfg.AuthorityMaxInjected {
				break
			}
			score := e.cfg.AuthorityBaseScore * rootMatchFraction(rec.Text, tokens)
			if score <= 0 {
				continue
			}
			c := RecordToCandidate(rec, score, domain.SourceAuthority)
			c.Injected = true
			merged = append(merged, c)
			injected++
		}
		if injected > 0 {
			e.logger.Info("authority_injection_applied",
				slog.String("document_id", doc.DocumentID),
				slog.String("title", doc.Title),
				slog.Int("injected_count", injected))
		}
	}
	return merged
}

// applyBoosts compounds the independent multipliers in fixed order.
func (e *FusionEngine) applyBoosts(tokens []domain.Token, candidates []domain.Candidate) {
	for i := range candidates {
		c := &candidates[i]

		if domain.IsFoundationalDocument(c.DocumentID) {
			c.Score *= e.cfg.FoundationalBoost
			if domain.DocumentMatchesTrigger(c.DocumentID, tokens) {
				c.Score *= e.cfg.TriggerBonus
			}
		}
		if domain.HasSectoralAgreementSignals(c.Title, c.Text) {
			c.Score *= e.cfg.SectoralPenalty
		}
		if domain.HasTemporaryMeasureSignals(c.Title, c.Text) {
			c.Score *= e.cfg.TemporaryPenalty
		}
		// Two independent abolition penalties: the structured flag and the
		// wording of the passage itself may disagree.
		if c.Abolished {
			c.Score *= e.cfg.AbolishedPenalty
		}
		if domain.HasAbolitionLanguage(c.Text) {
			c.Score *= e.cfg.AbolishedPenalty
		}
		if c.AmendmentCount >= e.cfg.FreshnessMinAmendments {
			c.Score *= e.cfg.FreshnessBoost
		}
	}
}

// topicalFilter drops candidates whose parent-document title shares nothing
// with the query and whose score is not already high. Skipped entirely when
// it would leave fewer than the minimum floor: an over-aggressive heuristic
// must never empty a result set.
func (e *FusionEngine) topicalFilter(tokens []domain.Token, candidates []domain.Candidate) []domain.Candidate {
	kept := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= e.cfg.TopicalBypassScore ||
			titleSharesTerm(c.Title, tokens) ||
			domain.DocumentMatchesTrigger(c.DocumentID, tokens) {
			kept = append(kept, c)
		}
	}
	if len(kept) < e.cfg.MinResults {
		e.logger.Info("topical_filter_skipped",
			slog.Int("would_remain", len(kept)),
			slog.Int("min_results", e.cfg.MinResults))
		return candidates
	}
	return kept
}

// similarityFilter keeps candidates above the similarity floor, falling
// back to a fixed top-N when too few qualify.
func (e *FusionEngine) similarityFilter(candidates []domain.Candidate) []domain.Candidate {
	kept := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= e.cfg.SimilarityFloor {
			kept = append(kept, c)
		}
	}
	if len(kept) >= e.cfg.MinResults {
		return kept
	}
	if len(candidates) > e.cfg.TopNFallback {
		return candidates[:e.cfg.TopNFallback]
	}
	return candidates
}

func sortByScore(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].PassageID < candidates[j].PassageID
	})
}

// titleSharesTerm reports whether the title contains any token variant.
// Short variants require exact word equality; longer ones may match inside
// Dutch compound words.
func titleSharesTerm(title string, tokens []domain.Token) bool {
	lower := strings.ToLower(title)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == ':' || r == ';'
	})
	for _, tok := range tokens {
		for _, variant := range tok.Variants() {
			if len([]rune(variant)) >= 4 {
				if strings.Contains(lower, variant) {
					return true
				}
				continue
			}
			for _, w := range words {
				if w == variant {
					return true
				}
			}
		}
	}
	return false
}

// rootMatchFraction counts how many query-term roots occur in the text.
// The root of a token is its leading segment, which survives Dutch and
// French inflection well enough for injection scoring.
func rootMatchFraction(text string, tokens []domain.Token) float32 {
	if len(tokens) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, tok := range tokens {
		for _, variant := range tok.Variants() {
			if strings.Contains(lower, termRoot(variant)) {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return 0
	}
	// Partial matches still justify injection, scaled below the base.
	return 0.5 + 0.5*float32(matched)/float32(len(tokens))
}

func termRoot(term string) string {
	runes := []rune(term)
	if len(runes) <= 5 {
		return term
	}
	return string(runes[:len(runes)-2])
}
