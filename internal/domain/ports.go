package domain

import (
	"context"
	"time"
)

// PassageRecord is one stored passage as the relational store returns it.
type PassageRecord struct {
	ID             string
	DocumentID     string
	DocumentNumber string
	Corpus         CorpusID
	Title          string
	Tags           string
	Text           string
	Language       Language
	DocumentType   string
	Abolished      bool
	AmendmentCount int
	DecreeCount    int
	PublishedAt    time.Time
}

// PassageReader is the narrow query contract against the relational/text
// store: record-by-id fetch and range/LIKE scan. Implementations must apply
// no ranking; ordering is the pipeline's job.
type PassageReader interface {
	GetByID(ctx context.Context, id string) (*PassageRecord, error)
	FetchByIDs(ctx context.Context, ids []string) ([]PassageRecord, error)
	// FetchByDocumentID returns the leading passages of a parent document,
	// ordered by position. Used for authority and follow-up injection.
	FetchByDocumentID(ctx context.Context, documentID string, limit int) ([]PassageRecord, error)
	// FindByDocumentNumber resolves an exact 10-digit document identifier.
	FindByDocumentNumber(ctx context.Context, number string) ([]PassageRecord, error)
	// ScanLiteral matches term as a literal substring against title, tags
	// and body text. Always correct; last-resort strategy.
	ScanLiteral(ctx context.Context, term string, limit int) ([]PassageRecord, error)
}

// NgramIndex exposes the precomputed 3-character shingle index. Candidate
// ids are a superset of true matches; callers must re-verify by literal
// substring check.
type NgramIndex interface {
	// Available reports whether the backing table exists and is non-empty.
	Available(ctx context.Context) bool
	// CandidateIDs returns ids of passages containing every 3-gram of term.
	CandidateIDs(ctx context.Context, term string) ([]string, error)
}

// FullTextIndex exposes token-prefix search. groups is an AND of OR-groups:
// every group must match, a group matches when any of its variants matches
// as a prefix.
type FullTextIndex interface {
	Available(ctx context.Context) bool
	SearchPrefixGroups(ctx context.Context, groups [][]string, limit int) ([]string, error)
}

// AnnHit is one result from the approximate nearest-neighbor service.
type AnnHit struct {
	PassageID  string
	Similarity float32
}

// AnnSearcher is the external ANN service contract. Implementations map
// non-2xx responses, timeouts and open circuit breakers to ErrUnavailable.
type AnnSearcher interface {
	Search(ctx context.Context, embedding []float32, limit int) ([]AnnHit, error)
}

// EmbeddedPassage is a stored embedding row used by the fallback exact scan.
type EmbeddedPassage struct {
	PassageID string
	Language  Language
	Embedding []float32
}

// EmbeddingSampler returns a bounded random sample of stored embeddings.
// Corpora smaller than the limit are returned in full.
type EmbeddingSampler interface {
	SampleEmbeddings(ctx context.Context, limit int) ([]EmbeddedPassage, error)
}

// EmbeddingClient generates a query embedding via the external provider.
// Rate-limit responses are retried with bounded exponential backoff; all
// other failures are returned as-is.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ConversationTurn is the read-only prior-turn state used by follow-up
// expansion.
type ConversationTurn struct {
	Query            string
	CitedDocumentIDs []string
}

// ConversationStore reads prior conversation state. The engine never writes
// it. A missing conversation returns (nil, nil).
type ConversationStore interface {
	PriorTurn(ctx context.Context, conversationID string) (*ConversationTurn, error)
}
