package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"lex-retriever/internal/domain"
)

// Lexical strategy names, reported in diagnostics.
const (
	StrategyIdentifier = "identifier"
	StrategyNgram      = "ngram"
	StrategyFullText   = "fulltext"
	StrategyLiteral    = "literal"
)

// LexicalConfig holds strategy-selector parameters.
type LexicalConfig struct {
	// Limit caps the number of records any single strategy may return.
	Limit int
	// MinNgramLength is the shingle size; terms shorter than this skip the
	// n-gram index entirely.
	MinNgramLength int
	// SynonymWeight discounts coverage credit for tokens matched only via
	// a cross-language synonym.
	SynonymWeight float32
	// FloorScore is the minimum score of any genuine lexical match. The
	// authority-injection base score sits just below it.
	FloorScore float32
}

// DefaultLexicalConfig returns the standard selector parameters.
func DefaultLexicalConfig() LexicalConfig {
	return LexicalConfig{
		Limit:          50,
		MinNgramLength: 3,
		SynonymWeight:  0.8,
		FloorScore:     0.5,
	}
}

// Validate checks the configuration for sanity.
func (c LexicalConfig) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("lexical limit must be positive, got %d", c.Limit)
	}
	if c.MinNgramLength < 2 {
		return fmt.Errorf("minNgramLength must be at least 2, got %d", c.MinNgramLength)
	}
	if c.SynonymWeight <= 0 || c.SynonymWeight > 1 {
		return fmt.Errorf("synonymWeight must be in (0, 1], got %f", c.SynonymWeight)
	}
	if c.FloorScore <= 0 || c.FloorScore >= 1 {
		return fmt.Errorf("floorScore must be in (0, 1), got %f", c.FloorScore)
	}
	return nil
}

// LexicalOutcome is the result of one selector call.
type LexicalOutcome struct {
	Records  []domain.PassageRecord
	Scores   map[string]float32
	Strategy string
}

// LexicalSelector picks the cheapest index strategy that can answer a query
// and falls back down the chain when a prerequisite index is absent, empty,
// or erroring: verified n-gram -> full-text prefix -> literal scan.
type LexicalSelector struct {
	reader   domain.PassageReader
	ngram    domain.NgramIndex
	fulltext domain.FullTextIndex
	cfg      LexicalConfig
	logger   *slog.Logger
}

// NewLexicalSelector creates a selector. ngram and fulltext may be nil when
// the corpus has no auxiliary indexes; the selector then scans literally.
func NewLexicalSelector(
	reader domain.PassageReader,
	ngram domain.NgramIndex,
	fulltext domain.FullTextIndex,
	cfg LexicalConfig,
	logger *slog.Logger,
) *LexicalSelector {
	return &LexicalSelector{
		reader:   reader,
		ngram:    ngram,
		fulltext: fulltext,
		cfg:      cfg,
		logger:   logger,
	}
}

// Find runs the flexible multi-token search: every token (or one of its
// synonyms) must independently match somewhere in the title, the tag field
// or the body text. A query that is exactly a 10-digit numeric identifier
// bypasses tokenization and resolves against the document-number field.
func (s *LexicalSelector) Find(ctx context.Context, rawQuery string, tokens []domain.Token) (*LexicalOutcome, error) {
	if domain.IsNumericIdentifier(rawQuery) {
		return s.findByIdentifier(ctx, strings.TrimSpace(rawQuery))
	}
	if len(tokens) == 0 {
		return &LexicalOutcome{Strategy: StrategyLiteral, Scores: map[string]float32{}}, nil
	}

	// A term below the shingle size defeats both index strategies: the
	// n-gram index cannot shingle it and a prefix index cannot see it
	// mid-word, where short Dutch terms usually sit inside compounds. Only
	// the literal scan keeps substring semantics, so go there directly.
	if hasShortToken(tokens, s.cfg.MinNgramLength) {
		s.logFallback(StrategyNgram, "term_below_index_length")
		s.logFallback(StrategyFullText, "term_below_index_length")
		outcome, err := s.searchLiteral(ctx, tokens)
		if err != nil {
			return nil, fmt.Errorf("literal scan failed: %w", err)
		}
		s.logStrategy(StrategyLiteral, "short_term_query", len(outcome.Records))
		return outcome, nil
	}

	if reason := s.ngramUnavailableReason(ctx); reason == "" {
		outcome, err := s.searchNgram(ctx, tokens)
		if err == nil {
			s.logStrategy(StrategyNgram, "ngram_index_served", len(outcome.Records))
			return outcome, nil
		}
		s.logFallback(StrategyNgram, err.Error())
	} else {
		s.logFallback(StrategyNgram, reason)
	}

	if s.fulltext != nil && s.fulltext.Available(ctx) {
		outcome, err := s.searchFullText(ctx, tokens)
		if err == nil {
			s.logStrategy(StrategyFullText, "fulltext_index_served", len(outcome.Records))
			return outcome, nil
		}
		s.logFallback(StrategyFullText, err.Error())
	} else {
		s.logFallback(StrategyFullText, "fulltext_index_absent")
	}

	outcome, err := s.searchLiteral(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("literal scan failed: %w", err)
	}
	s.logStrategy(StrategyLiteral, "last_resort", len(outcome.Records))
	return outcome, nil
}

// FindExactPhrase matches the whole normalized phrase contiguously.
func (s *LexicalSelector) FindExactPhrase(ctx context.Context, phrase string) (*LexicalOutcome, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
	if normalized == "" {
		return &LexicalOutcome{Strategy: StrategyLiteral, Scores: map[string]float32{}}, nil
	}

	if len([]rune(normalized)) >= s.cfg.MinNgramLength && s.ngram != nil && s.ngram.Available(ctx) {
		ids, err := s.ngram.CandidateIDs(ctx, normalized)
		if err == nil {
			records, ferr := s.reader.FetchByIDs(ctx, ids)
			if ferr == nil {
				verified := make([]domain.PassageRecord, 0, len(records))
				for _, rec := range records {
					if recordContains(&rec, normalized) {
						verified = append(verified, rec)
					}
				}
				s.logStrategy(StrategyNgram, "phrase_ngram_verified", len(verified))
				return s.scorePhrase(verified), nil
			}
		}
		s.logFallback(StrategyNgram, "phrase_ngram_failed")
	}

	records, err := s.reader.ScanLiteral(ctx, normalized, s.cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("phrase scan failed: %w", err)
	}
	s.logStrategy(StrategyLiteral, "phrase_last_resort", len(records))
	return s.scorePhrase(records), nil
}

func (s *LexicalSelector) findByIdentifier(ctx context.Context, number string) (*LexicalOutcome, error) {
	records, err := s.reader.FindByDocumentNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("identifier lookup failed: %w", err)
	}
	scores := make(map[string]float32, len(records))
	for _, rec := range records {
		scores[rec.ID] = 1.0
	}
	s.logStrategy(StrategyIdentifier, "numeric_identifier_query", len(records))
	return &LexicalOutcome{Records: records, Scores: scores, Strategy: StrategyIdentifier}, nil
}

// ngramUnavailableReason returns a non-empty reason when the n-gram strategy
// cannot run.
func (s *LexicalSelector) ngramUnavailableReason(ctx context.Context) string {
	if s.ngram == nil {
		return "ngram_index_absent"
	}
	if !s.ngram.Available(ctx) {
		return "ngram_index_empty"
	}
	return ""
}

func hasShortToken(tokens []domain.Token, minLength int) bool {
	for _, tok := range tokens {
		if len([]rune(tok.Text)) < minLength {
			return true
		}
	}
	return false
}

// searchNgram narrows candidates through the shingle index per token, then
// re-verifies every candidate with a literal substring check: n-gram
// co-occurrence does not imply substring occurrence.
func (s *LexicalSelector) searchNgram(ctx context.Context, tokens []domain.Token) (*LexicalOutcome, error) {
	perToken := make([]map[string]bool, len(tokens))
	union := make(map[string]bool)

	for i, tok := range tokens {
		ids := make(map[string]bool)
		for _, variant := range tok.Variants() {
			if len([]rune(variant)) < s.cfg.MinNgramLength {
				continue
			}
			candidateIDs, err := s.ngram.CandidateIDs(ctx, variant)
			if err != nil {
				return nil, fmt.Errorf("ngram candidates for %q: %w", variant, err)
			}
			for _, id := range candidateIDs {
				ids[id] = true
				union[id] = true
			}
		}
		if len(ids) == 0 {
			// No candidate contains all shingles of this token: AND fails.
			return &LexicalOutcome{Strategy: StrategyNgram, Scores: map[string]float32{}}, nil
		}
		perToken[i] = ids
	}

	// Intersect candidate sets across tokens before fetching.
	intersect := make([]string, 0, len(union))
	for id := range union {
		inAll := true
		for _, ids := range perToken {
			if !ids[id] {
				inAll = false
				break
			}
		}
		if inAll {
			intersect = append(intersect, id)
		}
	}

	records, err := s.reader.FetchByIDs(ctx, intersect)
	if err != nil {
		return nil, fmt.Errorf("ngram candidate fetch: %w", err)
	}
	return s.verifyAndScore(records, tokens, StrategyNgram), nil
}

// searchFullText issues one AND-of-OR-groups prefix query, then verifies.
func (s *LexicalSelector) searchFullText(ctx context.Context, tokens []domain.Token) (*LexicalOutcome, error) {
	groups := make([][]string, len(tokens))
	for i, tok := range tokens {
		groups[i] = tok.Variants()
	}
	ids, err := s.fulltext.SearchPrefixGroups(ctx, groups, s.cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("fulltext search: %w", err)
	}
	records, err := s.reader.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fulltext candidate fetch: %w", err)
	}
	return s.verifyAndScore(records, tokens, StrategyFullText), nil
}

// searchLiteral scans per token variant and intersects the matches.
func (s *LexicalSelector) searchLiteral(ctx context.Context, tokens []domain.Token) (*LexicalOutcome, error) {
	byID := make(map[string]domain.PassageRecord)
	perToken := make([]map[string]bool, len(tokens))

	for i, tok := range tokens {
		ids := make(map[string]bool)
		for _, variant := range tok.Variants() {
			records, err := s.reader.ScanLiteral(ctx, variant, s.cfg.Limit)
			if err != nil {
				return nil, fmt.Errorf("literal scan for %q: %w", variant, err)
			}
			for _, rec := range records {
				ids[rec.ID] = true
				byID[rec.ID] = rec
			}
		}
		perToken[i] = ids
	}

	var matched []domain.PassageRecord
	for id, rec := range byID {
		inAll := true
		for _, ids := range perToken {
			if !ids[id] {
				inAll = false
				break
			}
		}
		if inAll {
			matched = append(matched, rec)
		}
	}
	return s.verifyAndScore(matched, tokens, StrategyLiteral), nil
}

// verifyAndScore keeps only records where every token (or a synonym of it)
// literally occurs in at least one searched field, and scores them by
// coverage with synonym hits discounted.
func (s *LexicalSelector) verifyAndScore(records []domain.PassageRecord, tokens []domain.Token, strategy string) *LexicalOutcome {
	outcome := &LexicalOutcome{Strategy: strategy, Scores: make(map[string]float32)}

	for _, rec := range records {
		weight, ok := coverage(&rec, tokens, s.cfg.SynonymWeight)
		if !ok {
			continue
		}
		score := s.cfg.FloorScore + (1.0-s.cfg.FloorScore)*weight
		outcome.Records = append(outcome.Records, rec)
		outcome.Scores[rec.ID] = score
		if len(outcome.Records) >= s.cfg.Limit {
			break
		}
	}
	return outcome
}

func (s *LexicalSelector) scorePhrase(records []domain.PassageRecord) *LexicalOutcome {
	outcome := &LexicalOutcome{Strategy: StrategyLiteral, Scores: make(map[string]float32)}
	for _, rec := range records {
		outcome.Records = append(outcome.Records, rec)
		outcome.Scores[rec.ID] = 1.0
		if len(outcome.Records) >= s.cfg.Limit {
			break
		}
	}
	return outcome
}

func (s *LexicalSelector) logStrategy(strategy, reason string, count int) {
	s.logger.Info("lexical_strategy_selected",
		slog.String("strategy", strategy),
		slog.String("reason", reason),
		slog.Int("result_count", count))
}

func (s *LexicalSelector) logFallback(strategy, reason string) {
	s.logger.Info("lexical_strategy_skipped",
		slog.String("strategy", strategy),
		slog.String("reason", reason))
}

// coverage returns the per-record match weight in [0, 1] and whether every
// token matched at all (AND semantics).
func coverage(rec *domain.PassageRecord, tokens []domain.Token, synonymWeight float32) (float32, bool) {
	if len(tokens) == 0 {
		return 0, false
	}
	var total float32
	for _, tok := range tokens {
		if recordContains(rec, tok.Text) {
			total += 1.0
			continue
		}
		matched := false
		for _, syn := range tok.Synonyms {
			if recordContains(rec, syn) {
				total += synonymWeight
				matched = true
				break
			}
		}
		if !matched {
			return 0, false
		}
	}
	return total / float32(len(tokens)), true
}

func recordContains(rec *domain.PassageRecord, term string) bool {
	return strings.Contains(strings.ToLower(rec.Title), term) ||
		strings.Contains(strings.ToLower(rec.Tags), term) ||
		strings.Contains(strings.ToLower(rec.Text), term)
}
