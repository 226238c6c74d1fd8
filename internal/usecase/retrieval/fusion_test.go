package retrieval_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lex-retriever/internal/domain"
	"lex-retriever/internal/usecase/retrieval"
)

func newFusionEngine(reader *MockPassageReader) *retrieval.FusionEngine {
	return retrieval.NewFusionEngine(reader, retrieval.DefaultBoostConfig(), discardLogger())
}

func candidate(id, title string, score float32) domain.Candidate {
	return domain.Candidate{
		Corpus:     domain.CorpusLegislation,
		PassageID:  id,
		DocumentID: "doc-" + id,
		Title:      title,
		Text:       title,
		Language:   domain.LanguageDutch,
		Score:      score,
		Source:     domain.SourceLexical,
	}
}

func TestFuse_DedupKeepsMaxScoreAndMergesFlags(t *testing.T) {
	reader := new(MockPassageReader)
	engine := newFusionEngine(reader)
	tokens := []domain.Token{{Text: "verjaring"}}

	lexical := candidate("p1", "Verjaring van vorderingen", 0.7)
	vector := candidate("p1", "Verjaring van vorderingen", 0.9)
	vector.Source = domain.SourceVector
	vector.Abolished = true

	out := engine.Fuse(context.Background(), domain.CorpusLegislation, tokens,
		[]domain.Candidate{lexical}, []domain.Candidate{vector})

	require.Len(t, out, 1)
	// Max pre-boost score 0.9, abolished flag carried over, one penalty.
	assert.True(t, out[0].Abolished)
	assert.InDelta(t, 0.45, float64(out[0].Score), 1e-6)
}

func TestFuse_ConcatenationOrderIndependent(t *testing.T) {
	tokens := []domain.Token{{Text: "verjaring"}}

	a := []domain.Candidate{
		candidate("p1", "Verjaring deel 1", 0.7),
		candidate("p2", "Verjaring deel 2", 0.6),
	}
	b := []domain.Candidate{
		candidate("p2", "Verjaring deel 2", 0.8),
		candidate("p3", "Verjaring deel 3", 0.5),
	}

	first := newFusionEngine(new(MockPassageReader)).Fuse(
		context.Background(), domain.CorpusLegislation, tokens, a, b)
	second := newFusionEngine(new(MockPassageReader)).Fuse(
		context.Background(), domain.CorpusLegislation, tokens, b, a)

	assert.Equal(t, first, second)
}

func TestFuse_AuthorityInjectionOutranksSectoralAgreements(t *testing.T) {
	reader := new(MockPassageReader)
	engine := newFusionEngine(reader)

	tokens := domain.Tokenize("opzegtermijn bij ontslag", domain.LanguageDutch)

	// Retrieval found only narrow collective agreements.
	var sectoral []domain.Candidate
	for i := 0; i < 6; i++ {
		c := candidate(fmt.Sprintf("cao%d", i),
			fmt.Sprintf("Opzegtermijnen CAO Paritair Comité %d", 100+i), 0.8)
		sectoral = append(sectoral, c)
	}

	reader.On("FetchByDocumentID", mock.Anything, "1978070303", 2).Return([]domain.PassageRecord{
		{
			ID:         "wet-art37",
			DocumentID: "1978070303",
			Corpus:     domain.CorpusLegislation,
			Title:      "Wet betreffende de arbeidsovereenkomsten",
			Text:       "De opzegtermijn bij ontslag door de werkgever bedraagt.",
			Language:   domain.LanguageDutch,
		},
		{
			ID:         "wet-art38",
			DocumentID: "1978070303",
			Corpus:     domain.CorpusLegislation,
			Title:      "Wet betreffende de arbeidsovereenkomsten",
			Text:       "De opzegtermijn wordt verlengd bij ontslag tijdens schorsing.",
			Language:   domain.LanguageDutch,
		},
	}, nil)

	out := engine.Fuse(context.Background(), domain.CorpusLegislation, tokens, sectoral)

	require.GreaterOrEqual(t, len(out), 3)
	// Injected statute passages outrank every penalized sectoral agreement:
	// 0.48 base * 2.0 foundational * 1.1 trigger = 1.056 versus 0.8 * 0.6.
	assert.Equal(t, "1978070303", out[0].DocumentID)
	assert.Equal(t, "1978070303", out[1].DocumentID)
	assert.True(t, out[0].Injected)
	assert.Greater(t, out[0].Score, float32(1.0))
	assert.InDelta(t, 0.48, float64(out[2].Score), 1e-6)
}

func TestFuse_AuthorityInjectionSkippedWhenDocumentPresent(t *testing.T) {
	reader := new(MockPassageReader)
	engine := newFusionEngine(reader)

	tokens := domain.Tokenize("opzegtermijn", domain.LanguageDutch)

	present := candidate("p1", "Opzegtermijnen", 0.9)
	present.DocumentID = "1978070303"

	engine.Fuse(context.Background(), domain.CorpusLegislation, tokens,
		[]domain.Candidate{present})

	reader.AssertNotCalled(t, "FetchByDocumentID", mock.Anything, mock.Anything, mock.Anything)
}

func TestFuse_TopicalFilterDropsOffTopicCandidates(t *testing.T) {
	reader := new(MockPassageReader)
	engine := newFusionEngine(reader)
	tokens := []domain.Token{{Text: "verjaring"}}

	var lists []domain.Candidate
	for i := 0; i < 5; i++ {
		lists = append(lists, candidate(fmt.Sprintf("on%d", i),
			fmt.Sprintf("Verjaring hoofdstuk %d", i), 0.7))
	}
	offTopic := candidate("off1", "Subsidies voor zonnepanelen", 0.6)
	lists = append(lists, offTopic)

	out := engine.Fuse(context.Background(), domain.CorpusLegislation, tokens, lists)

	require.Len(t, out, 5)
	for _, c := range out {
		assert.NotEqual(t, "off1", c.PassageID)
	}
}

func TestFuse_TopicalFilterSkippedBelowMinimum(t *testing.T) {
	reader := new(MockPassageReader)
	engine := newFusionEngine(reader)
	tokens := []domain.Token{{Text: "verjaring"}}

	// Dropping the off-topic candidate would leave one result; the filter
	// must stand down instead of gutting the set.
	lists := []domain.Candidate{
		candidate("on1", "Verjaring", 0.7),
		candidate("off1", "Subsidies voor zonnepanelen", 0.6),
	}

	out := engine.Fuse(context.Background(), domain.CorpusLegislation, tokens, lists)

	assert.Len(t, out, 2)
}

func TestFuse_HighScoreBypassesTopicalFilter(t *testing.T) {
	reader := new(MockPassageReader)
	engine := newFusionEngine(reader)
	tokens := []domain.Token{{Text: "verjaring"}}

	var lists []domain.Candidate
	for i := 0; i < 5; i++ {
		lists = append(lists, candidate(fmt.Sprintf("on%d", i),
			fmt.Sprintf("Verjaring hoofdstuk %d", i), 0.7))
	}
	strong := candidate("strong", "Titel zonder gedeelde termen", 0.95)
	lists = append(lists, strong)

	out := engine.Fuse(context.Background(), domain.CorpusLegislation, tokens, lists)

	require.Len(t, out, 6)
	assert.Equal(t, "strong", out[0].PassageID)
}

func TestFuse_SimilarityFloorFallsBackToTopN(t *testing.T) {
	reader := new(MockPassageReader)
	engine := newFusionEngine(reader)
	tokens := []domain.Token{{Text: "verjaring"}}

	var lists []domain.Candidate
	for i := 0; i < 12; i++ {
		lists = append(lists, candidate(fmt.Sprintf("p%02d", i),
			fmt.Sprintf("Verjaring aflevering %d", i), 0.1))
	}

	out := engine.Fuse(context.Background(), domain.CorpusLegislation, tokens, lists)

	// Nothing clears the 0.35 floor; the top-10 fallback applies instead of
	// returning an empty set.
	assert.Len(t, out, 10)
}

func TestFuse_AbolitionPenaltiesCompound(t *testing.T) {
	reader := new(MockPassageReader)
	engine := newFusionEngine(reader)
	tokens := []domain.Token{{Text: "verjaring"}}

	c := candidate("p1", "Verjaring", 0.8)
	c.Abolished = true
	c.Text = "Deze bepaling inzake verjaring wordt opgeheven."

	out := engine.Fuse(context.Background(), domain.CorpusLegislation, tokens,
		[]domain.Candidate{c})

	require.Len(t, out, 1)
	// Structured flag and abolition wording each apply the 0.5 penalty.
	assert.InDelta(t, 0.2, float64(out[0].Score), 1e-6)
}

func TestFuse_FreshnessBoostAboveThreshold(t *testing.T) {
	reader := new(MockPassageReader)
	engine := newFusionEngine(reader)
	tokens := []domain.Token{{Text: "verjaring"}}

	fresh := candidate("p1", "Verjaring recent", 0.8)
	fresh.AmendmentCount = 4
	stale := candidate("p2", "Verjaring oud", 0.8)

	out := engine.Fuse(context.Background(), domain.CorpusLegislation, tokens,
		[]domain.Candidate{fresh, stale})

	require.Len(t, out, 2)
	assert.Equal(t, "p1", out[0].PassageID)
	assert.InDelta(t, 0.84, float64(out[0].Score), 1e-4)
	assert.InDelta(t, 0.8, float64(out[1].Score), 1e-6)
}
