package retrieval

import (
	"lex-retriever/internal/domain"
)

// RecordToCandidate converts a stored passage record into a scored
// candidate from the given source.
func RecordToCandidate(rec domain.PassageRecord, score float32, source domain.SourceKind) domain.Candidate {
	return domain.Candidate{
		Corpus:         rec.Corpus,
		PassageID:      rec.ID,
		DocumentID:     rec.DocumentID,
		Title:          rec.Title,
		Text:           rec.Text,
		Language:       rec.Language,
		Score:          score,
		Source:         source,
		Abolished:      rec.Abolished,
		AmendmentCount: rec.AmendmentCount,
		DecreeCount:    rec.DecreeCount,
		PublishedAt:    rec.PublishedAt,
	}
}
