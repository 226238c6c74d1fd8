package retrieval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lex-retriever/internal/domain"
	"lex-retriever/internal/usecase/retrieval"
)

func TestIsFollowupQuery(t *testing.T) {
	cfg := retrieval.DefaultFollowupConfig()

	// Short queries count as possible continuations.
	assert.True(t, retrieval.IsFollowupQuery("en voor arbeiders", domain.LanguageDutch, 2, cfg))

	// Continuation prefix, even on a longer query.
	assert.True(t, retrieval.IsFollowupQuery(
		"wat met de opzegtermijn voor bedienden in de bouwsector dan", domain.LanguageDutch, 8, cfg))

	// Anaphoric marker.
	assert.True(t, retrieval.IsFollowupQuery(
		"kan u daarover meer uitleg geven over de gevolgen en uitzonderingen", domain.LanguageDutch, 9, cfg))

	assert.True(t, retrieval.IsFollowupQuery(
		"qu'en est-il pour les employés du secteur public en Belgique", domain.LanguageFrench, 9, cfg))

	// Long self-contained question is not a follow-up.
	assert.False(t, retrieval.IsFollowupQuery(
		"welke opzegtermijn geldt voor een bediende met tien jaar anciënniteit", domain.LanguageDutch, 7, cfg))
}

func TestExpandWithPriorTurn_AppendsSalientTerms(t *testing.T) {
	cfg := retrieval.DefaultFollowupConfig()
	prior := &domain.ConversationTurn{
		Query: "wat is de opzegtermijn bij ontslag van een bediende",
	}

	expanded := retrieval.ExpandWithPriorTurn("en voor arbeiders", prior, domain.LanguageDutch, cfg)

	assert.Contains(t, expanded, "en voor arbeiders")
	assert.Contains(t, expanded, "opzegtermijn")
	assert.Contains(t, expanded, "ontslag")
}

func TestExpandWithPriorTurn_SkipsTermsAlreadyPresent(t *testing.T) {
	cfg := retrieval.DefaultFollowupConfig()
	prior := &domain.ConversationTurn{Query: "opzegtermijn ontslag"}

	expanded := retrieval.ExpandWithPriorTurn("opzegtermijn arbeiders", prior, domain.LanguageDutch, cfg)

	// "opzegtermijn" occurs in the current query; only "ontslag" is appended.
	assert.Equal(t, "opzegtermijn arbeiders ontslag", expanded)
}

func TestExpandWithPriorTurn_NilPriorIsIdentity(t *testing.T) {
	cfg := retrieval.DefaultFollowupConfig()
	assert.Equal(t, "en dan", retrieval.ExpandWithPriorTurn("en dan", nil, domain.LanguageDutch, cfg))
}

func TestInjectCitedDocuments_RanksByTermMatchesAndCaps(t *testing.T) {
	reader := new(MockPassageReader)
	cfg := retrieval.DefaultFollowupConfig()
	tokens := []domain.Token{{Text: "arbeiders"}}

	prior := &domain.ConversationTurn{
		Query:            "opzegtermijn bedienden",
		CitedDocumentIDs: []string{"1978070303"},
	}

	reader.On("FetchByDocumentID", mock.Anything, "1978070303", cfg.MaxPerDocument*3).Return([]domain.PassageRecord{
		{ID: "a1", DocumentID: "1978070303", Text: "bepalingen voor bedienden"},
		{ID: "a2", DocumentID: "1978070303", Text: "opzegtermijnen voor arbeiders"},
		{ID: "a3", DocumentID: "1978070303", Text: "arbeiders en hun rechten"},
	}, nil)

	out := retrieval.InjectCitedDocuments(context.Background(), reader, prior, tokens, cfg, discardLogger())

	require.Len(t, out, cfg.MaxPerDocument)
	// The two passages mentioning "arbeiders" win; tie broken by id.
	assert.Equal(t, "a2", out[0].PassageID)
	assert.Equal(t, "a3", out[1].PassageID)
	for _, c := range out {
		assert.True(t, c.ContextInjected)
		assert.Equal(t, domain.SourceFollowup, c.Source)
		assert.Equal(t, cfg.BaseScore, c.Score)
	}
}

func TestInjectCitedDocuments_FetchFailureIsSkipped(t *testing.T) {
	reader := new(MockPassageReader)
	cfg := retrieval.DefaultFollowupConfig()

	prior := &domain.ConversationTurn{
		Query:            "opzegtermijn",
		CitedDocumentIDs: []string{"broken", "1978070303"},
	}

	reader.On("FetchByDocumentID", mock.Anything, "broken", mock.Anything).
		Return(nil, assert.AnError)
	reader.On("FetchByDocumentID", mock.Anything, "1978070303", mock.Anything).Return([]domain.PassageRecord{
		{ID: "a1", DocumentID: "1978070303", Text: "opzegtermijn"},
	}, nil)

	out := retrieval.InjectCitedDocuments(context.Background(), reader, prior, nil, cfg, discardLogger())

	require.Len(t, out, 1)
	assert.Equal(t, "a1", out[0].PassageID)
}

func TestInjectCitedDocuments_NoPriorNoCandidates(t *testing.T) {
	out := retrieval.InjectCitedDocuments(context.Background(), new(MockPassageReader), nil, nil,
		retrieval.DefaultFollowupConfig(), discardLogger())
	assert.Nil(t, out)
}
