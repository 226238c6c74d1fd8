package meili

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"lex-retriever/internal/domain"
)

// FullTextIndex is the Meilisearch implementation of the full-text search
// contract, used when the deployment runs a search engine next to the
// relational store. The selector re-verifies every candidate, so this
// adapter only needs recall, not precise AND semantics.
type FullTextIndex struct {
	client meilisearch.ServiceManager
	index  meilisearch.IndexManager
	corpus domain.CorpusID
	logger *slog.Logger
}

// New creates a corpus-scoped full-text index backed by one shared
// Meilisearch index with a corpus filter attribute.
func New(client meilisearch.ServiceManager, indexName string, corpus domain.CorpusID, logger *slog.Logger) *FullTextIndex {
	return &FullTextIndex{
		client: client,
		index:  client.Index(indexName),
		corpus: corpus,
		logger: logger,
	}
}

// Available reports whether the search engine answers health checks.
func (f *FullTextIndex) Available(ctx context.Context) bool {
	return f.client.IsHealthy()
}

// SearchPrefixGroups issues one query of the primary group terms with the
// all-words matching strategy. Synonym variants are left to the engine's
// own synonym registry; the caller's literal re-verification restores the
// exact AND-of-OR-groups contract.
func (f *FullTextIndex) SearchPrefixGroups(ctx context.Context, groups [][]string, limit int) ([]string, error) {
	terms := make([]string, 0, len(groups))
	for _, group := range groups {
		if len(group) > 0 {
			terms = append(terms, group[0])
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}
	query := strings.Join(terms, " ")

	result, err := f.index.SearchWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		Filter:               fmt.Sprintf("corpus = %q", string(f.corpus)),
		MatchingStrategy:     meilisearch.All,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch query: %w", err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var doc struct {
			ID string `json:"id"`
		}
		if err := hit.Decode(&doc); err != nil {
			f.logger.Warn("meilisearch_hit_decode_failed", slog.String("error", err.Error()))
			continue
		}
		if doc.ID != "" {
			ids = append(ids, doc.ID)
		}
	}
	return ids, nil
}

// RegisterSynonyms pushes the legal thesaurus into the engine so its own
// matching agrees with the pipeline's synonym expansion.
func (f *FullTextIndex) RegisterSynonyms(ctx context.Context, synonyms map[string][]string) error {
	task, err := f.index.UpdateSynonymsWithContext(ctx, &synonyms)
	if err != nil {
		return fmt.Errorf("update synonyms: %w", err)
	}
	if _, err := f.index.WaitForTaskWithContext(ctx, task.TaskUID, 0); err != nil {
		return fmt.Errorf("wait for synonyms update: %w", err)
	}
	return nil
}
