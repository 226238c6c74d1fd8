package retrieval

import (
	"fmt"
	"strings"

	"lex-retriever/internal/domain"
)

// ContextBlock is one rendered passage with inline provenance, compact
// enough for the answer-generation collaborator to reason about authority
// without re-querying storage.
type ContextBlock struct {
	PassageID  string
	DocumentID string
	Title      string
	Text       string
	Provenance string
}

// Citation is one attribution entry for UI rendering.
type Citation struct {
	PassageID   string
	Title       string
	Similarity  float32
	URLFragment string
}

// AssembledContext is the final contract handed to the answer-generation
// collaborator. Deterministic given its input.
type AssembledContext struct {
	Blocks             []ContextBlock
	Citations          []Citation
	NoInformationFound bool
}

// Assemble truncates the ranked result to the requested limit and renders
// provenance blocks plus a parallel citation list.
func Assemble(result *domain.RetrievalResult, limit int) AssembledContext {
	if result == nil || result.NoInformationFound || len(result.Candidates) == 0 {
		return AssembledContext{NoInformationFound: true}
	}

	candidates := result.Candidates
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := AssembledContext{
		Blocks:    make([]ContextBlock, 0, len(candidates)),
		Citations: make([]Citation, 0, len(candidates)),
	}
	for _, c := range candidates {
		out.Blocks = append(out.Blocks, ContextBlock{
			PassageID:  c.PassageID,
			DocumentID: c.DocumentID,
			Title:      c.Title,
			Text:       c.Text,
			Provenance: renderProvenance(c),
		})
		out.Citations = append(out.Citations, Citation{
			PassageID:   c.PassageID,
			Title:       c.Title,
			Similarity:  c.Score,
			URLFragment: fmt.Sprintf("/doc/%s#%s", c.DocumentID, c.PassageID),
		})
	}
	return out
}

func renderProvenance(c domain.Candidate) string {
	parts := make([]string, 0, 5)
	parts = append(parts, fmt.Sprintf("corpus=%s", c.Corpus))
	if c.Abolished {
		parts = append(parts, "OPGEHEVEN")
	}
	if c.AmendmentCount > 0 {
		parts = append(parts, fmt.Sprintf("wijzigingen=%d", c.AmendmentCount))
	}
	if c.DecreeCount > 0 {
		parts = append(parts, fmt.Sprintf("uitvoeringsbesluiten=%d", c.DecreeCount))
	}
	if c.Injected {
		parts = append(parts, "injected=authority")
	}
	if c.ContextInjected {
		parts = append(parts, "injected=context")
	}
	return strings.Join(parts, "; ")
}
