package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"lex-retriever/internal/domain"
)

// FollowupConfig holds follow-up detection and compensation parameters.
type FollowupConfig struct {
	// MaxTokens is the token count at or below which a query counts as a
	// possible elliptical continuation.
	MaxTokens int
	// BaseScore is the fixed high score of context-injected candidates,
	// reflecting conversational continuity.
	BaseScore float32
	// MaxPerDocument caps injected passages per previously cited document.
	MaxPerDocument int
	// MaxAppendedTerms caps how many salient prior-turn terms are appended
	// to the effective query.
	MaxAppendedTerms int
}

// DefaultFollowupConfig returns the standard follow-up parameters.
func DefaultFollowupConfig() FollowupConfig {
	return FollowupConfig{
		MaxTokens:        5,
		BaseScore:        0.88,
		MaxPerDocument:   2,
		MaxAppendedTerms: 4,
	}
}

// Validate checks the configuration for sanity.
func (c FollowupConfig) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("maxTokens must be positive, got %d", c.MaxTokens)
	}
	if c.BaseScore <= 0 || c.BaseScore > 1.0 {
		return fmt.Errorf("baseScore must be in (0, 1], got %f", c.BaseScore)
	}
	if c.MaxPerDocument <= 0 {
		return fmt.Errorf("maxPerDocument must be positive, got %d", c.MaxPerDocument)
	}
	return nil
}

// Anaphora and continuation patterns per supported language. A query
// starting with a continuation prefix, or containing a demonstrative that
// refers to something unstated, signals an elliptical follow-up.
var continuationPrefixes = map[domain.Language][]string{
	domain.LanguageDutch: {
		"en ", "maar ", "dus ", "ook ", "wat met ", "wat als ", "hoe zit het",
	},
	domain.LanguageFrench: {
		"et ", "mais ", "donc ", "alors ", "qu'en est-il", "et si ",
	},
}

var continuationMarkers = map[domain.Language][]string{
	domain.LanguageDutch: {
		"daarvan", "daarover", "hiervan", "hierover", "daarbij", "in dat geval",
		"leg meer uit", "vertel meer", "meer details",
	},
	domain.LanguageFrench: {
		"celui-ci", "celle-ci", "à ce sujet", "dans ce cas", "de cela",
		"expliquez davantage", "plus de détails",
	},
}

// IsFollowupQuery detects an elliptical continuation of a prior turn:
// a short query, or one matching a continuation pattern for the language.
func IsFollowupQuery(query string, lang domain.Language, tokenCount int, cfg FollowupConfig) bool {
	if tokenCount > 0 && tokenCount <= cfg.MaxTokens {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(query))
	for _, prefix := range continuationPrefixes[lang] {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	for _, marker := range continuationMarkers[lang] {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ExpandWithPriorTurn appends salient terms from the previous turn's query
// to the current query text, before tokenization and embedding.
func ExpandWithPriorTurn(query string, prior *domain.ConversationTurn, lang domain.Language, cfg FollowupConfig) string {
	if prior == nil || prior.Query == "" {
		return query
	}
	current := strings.ToLower(query)
	priorTokens := domain.Tokenize(prior.Query, lang)

	appended := 0
	var sb strings.Builder
	sb.WriteString(query)
	for _, tok := range priorTokens {
		if appended >= cfg.MaxAppendedTerms {
			break
		}
		if strings.Contains(current, tok.Text) {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(tok.Text)
		appended++
	}
	return sb.String()
}

// InjectCitedDocuments builds context-injected candidates from documents
// cited in the previous turn, scored at the fixed continuity base score and
// ranked within each document by term matches against the current query.
// They enter the pipeline at the same merge point as authority injection.
func InjectCitedDocuments(
	ctx context.Context,
	reader domain.PassageReader,
	prior *domain.ConversationTurn,
	tokens []domain.Token,
	cfg FollowupConfig,
	logger *slog.Logger,
) []domain.Candidate {
	if prior == nil || len(prior.CitedDocumentIDs) == 0 {
		return nil
	}

	var out []domain.Candidate
	for _, docID := range prior.CitedDocumentIDs {
		records, err := reader.FetchByDocumentID(ctx, docID, cfg.MaxPerDocument*3)
		if err != nil {
			logger.Warn("followup_injection_fetch_failed",
				slog.String("document_id", docID),
				slog.String("error", err.Error()))
			continue
		}
		if len(records) == 0 {
			continue
		}

		type scored struct {
			rec     domain.PassageRecord
			matches int
		}
		ranked := make([]scored, 0, len(records))
		for _, rec := range records {
			ranked = append(ranked, scored{rec: rec, matches: termMatches(rec.Text, tokens)})
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].matches != ranked[j].matches {
				return ranked[i].matches > ranked[j].matches
			}
			return ranked[i].rec.ID < ranked[j].rec.ID
		})

		for i := 0; i < len(ranked) && i < cfg.MaxPerDocument; i++ {
			c := RecordToCandidate(ranked[i].rec, cfg.BaseScore, domain.SourceFollowup)
			c.ContextInjected = true
			out = append(out, c)
		}
	}

	if len(out) > 0 {
		logger.Info("followup_injection_applied",
			slog.Int("cited_documents", len(prior.CitedDocumentIDs)),
			slog.Int("injected_count", len(out)))
	}
	return out
}

func termMatches(text string, tokens []domain.Token) int {
	lower := strings.ToLower(text)
	matched := 0
	for _, tok := range tokens {
		for _, variant := range tok.Variants() {
			if strings.Contains(lower, variant) {
				matched++
				break
			}
		}
	}
	return matched
}
