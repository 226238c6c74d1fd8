package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lex-retriever/internal/domain"
)

func TestFoundationalDocumentsFor_TriggeredByQueryTerm(t *testing.T) {
	tokens := domain.Tokenize("opzegtermijn bij ontslag", domain.LanguageDutch)

	docs := domain.FoundationalDocumentsFor(domain.CorpusLegislation, tokens)

	require.Len(t, docs, 1)
	assert.Equal(t, "1978070303", docs[0].DocumentID)
}

func TestFoundationalDocumentsFor_RestrictedToCorpus(t *testing.T) {
	tokens := domain.Tokenize("btw vrijstelling factuur", domain.LanguageDutch)

	assert.Empty(t, domain.FoundationalDocumentsFor(domain.CorpusLegislation, tokens))

	docs := domain.FoundationalDocumentsFor(domain.CorpusTax, tokens)
	require.Len(t, docs, 1)
	assert.Equal(t, "1969070305", docs[0].DocumentID)
}

func TestFoundationalDocumentsFor_TriggeredViaSynonym(t *testing.T) {
	// French query; the Dutch trigger matches through the thesaurus entry.
	tokens := domain.Tokenize("délai de préavis", domain.LanguageFrench)

	docs := domain.FoundationalDocumentsFor(domain.CorpusLegislation, tokens)

	require.NotEmpty(t, docs)
	assert.Equal(t, "1978070303", docs[0].DocumentID)
}

func TestFoundationalDocumentsFor_NoTriggerNoDocs(t *testing.T) {
	tokens := domain.Tokenize("fietspad verkeersbord", domain.LanguageDutch)

	assert.Empty(t, domain.FoundationalDocumentsFor(domain.CorpusLegislation, tokens))
}

func TestIsFoundationalDocument(t *testing.T) {
	assert.True(t, domain.IsFoundationalDocument("2019040586"))
	assert.False(t, domain.IsFoundationalDocument("0000000000"))
}

func TestDocumentMatchesTrigger(t *testing.T) {
	tokens := domain.Tokenize("minimumkapitaal vennootschap", domain.LanguageDutch)

	assert.True(t, domain.DocumentMatchesTrigger("2019040586", tokens))
	assert.False(t, domain.DocumentMatchesTrigger("1978070303", tokens))
}
