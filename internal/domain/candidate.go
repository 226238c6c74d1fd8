package domain

import "time"

// CorpusID identifies one independently indexed document collection.
type CorpusID string

const (
	CorpusLegislation   CorpusID = "legislation"
	CorpusCaseLaw       CorpusID = "caselaw"
	CorpusParliamentary CorpusID = "parliamentary"
	CorpusTax           CorpusID = "tax"
)

// AllCorpora lists the corpora in their fixed assembly order.
var AllCorpora = []CorpusID{CorpusLegislation, CorpusCaseLaw, CorpusParliamentary, CorpusTax}

// SourceKind discriminates which retrieval strategy produced a Candidate.
// Downstream code switches on this field instead of relying on structural
// compatibility between result shapes.
type SourceKind string

const (
	SourceVector    SourceKind = "vector"
	SourceLexical   SourceKind = "lexical"
	SourceAuthority SourceKind = "authority"
	SourceFollowup  SourceKind = "followup"
)

// Candidate is one retrievable passage with a score and provenance metadata.
// Scores are unbounded above 1.0 after boosting.
type Candidate struct {
	Corpus     CorpusID
	PassageID  string
	DocumentID string
	Title      string
	Text       string
	Language   Language
	Score      float32
	Source     SourceKind

	Abolished       bool
	Injected        bool
	ContextInjected bool

	AmendmentCount int
	DecreeCount    int
	PublishedAt    time.Time
}

// Filters narrows a retrieval call.
type Filters struct {
	PublishedFrom *time.Time
	PublishedTo   *time.Time
	DocumentTypes []string
	IncludeDutch  bool
	IncludeFrench bool
}

// Matches reports whether a passage record passes the filter set.
func (f Filters) Matches(rec *PassageRecord) bool {
	if f.PublishedFrom != nil && rec.PublishedAt.Before(*f.PublishedFrom) {
		return false
	}
	if f.PublishedTo != nil && rec.PublishedAt.After(*f.PublishedTo) {
		return false
	}
	if rec.Language == LanguageDutch && !f.IncludeDutch {
		return false
	}
	if rec.Language == LanguageFrench && !f.IncludeFrench {
		return false
	}
	if len(f.DocumentTypes) > 0 {
		found := false
		for _, dt := range f.DocumentTypes {
			if dt == rec.DocumentType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// DefaultFilters includes both languages and no date bounds.
func DefaultFilters() Filters {
	return Filters{IncludeDutch: true, IncludeFrench: true}
}

// RetrievalRequest is the per-call input contract. Immutable once received.
type RetrievalRequest struct {
	Query          string
	Language       Language
	ConversationID string
	PerCorpusLimit int
	Filters        Filters
}

// SourceDiagnostics records what happened inside one corpus worker.
// Observability only; never load-bearing for ranking.
type SourceDiagnostics struct {
	Corpus         CorpusID
	Strategy       string
	FallbackUsed   bool
	Latency        time.Duration
	CandidateCount int
	TimedOut       bool
	Error          string
}

// RetrievalResult is the ordered, deduplicated output handed to the result
// assembler. Candidates are grouped per corpus in the fixed AllCorpora
// order; within each group they are sorted descending by final score and
// contain no duplicate passage ids. Never mutated after creation.
type RetrievalResult struct {
	Candidates  []Candidate
	Diagnostics []SourceDiagnostics

	// NoInformationFound is the distinct terminal state for "every corpus
	// came back empty". It is not an error.
	NoInformationFound bool
}
