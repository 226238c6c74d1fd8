package domain

// FoundationalDocument is a statute or code that answers a whole class of
// questions but is statistically under-represented in similarity search
// compared to narrow sector-specific texts.
type FoundationalDocument struct {
	// DocumentID is the stable parent-document identifier (numac).
	DocumentID string
	Title      string
	Corpus     CorpusID
}

type authorityEntry struct {
	triggers []string
	doc      FoundationalDocument
}

// Static authority registry keyed by trigger terms found in the query.
// Loaded once at process start; never mutated at request time.
var authorityRegistry = []authorityEntry{
	{
		triggers: []string{"opzegtermijn", "opzegging", "ontslag", "arbeidsovereenkomst", "préavis", "licenciement", "werkgever", "werknemer"},
		doc: FoundationalDocument{
			DocumentID: "1978070303",
			Title:      "Wet betreffende de arbeidsovereenkomsten",
			Corpus:     CorpusLegislation,
		},
	},
	{
		triggers: []string{"vennootschap", "aandeelhouder", "bestuurder", "minimumkapitaal", "société", "actionnaire", "statuten"},
		doc: FoundationalDocument{
			DocumentID: "2019040586",
			Title:      "Wetboek van vennootschappen en verenigingen",
			Corpus:     CorpusLegislation,
		},
	},
	{
		triggers: []string{"huur", "huurovereenkomst", "bail", "verhuurder", "huurder"},
		doc: FoundationalDocument{
			DocumentID: "1991022150",
			Title:      "Burgerlijk Wetboek, Boek III, Titel VIII: Huur",
			Corpus:     CorpusLegislation,
		},
	},
	{
		triggers: []string{"eigendom", "aansprakelijkheid", "schade", "verbintenis", "contract", "propriété", "responsabilité", "dommage"},
		doc: FoundationalDocument{
			DocumentID: "1804032150",
			Title:      "Oud Burgerlijk Wetboek",
			Corpus:     CorpusLegislation,
		},
	},
	{
		triggers: []string{"echtscheiding", "erfenis", "alimentatie", "divorce", "succession", "huwelijk"},
		doc: FoundationalDocument{
			DocumentID: "2022040958",
			Title:      "Burgerlijk Wetboek, Boek 2 en Boek 4: Personen, familie en erfenissen",
			Corpus:     CorpusLegislation,
		},
	},
	{
		triggers: []string{"btw", "tva", "factuur", "vrijstelling"},
		doc: FoundationalDocument{
			DocumentID: "1969070305",
			Title:      "Wetboek van de belasting over de toegevoegde waarde",
			Corpus:     CorpusTax,
		},
	},
	{
		triggers: []string{"belasting", "personenbelasting", "vennootschapsbelasting", "aftrek", "impôt", "déduction", "aanslag"},
		doc: FoundationalDocument{
			DocumentID: "1992003455",
			Title:      "Wetboek van de inkomstenbelastingen 1992",
			Corpus:     CorpusTax,
		},
	},
}

// FoundationalDocumentsFor returns the foundational documents whose trigger
// terms occur in the token list (synonyms included), restricted to one
// corpus. Order is the fixed registry order, deduplicated.
func FoundationalDocumentsFor(corpus CorpusID, tokens []Token) []FoundationalDocument {
	var docs []FoundationalDocument
	seen := make(map[string]bool)
	for _, entry := range authorityRegistry {
		if entry.doc.Corpus != corpus || seen[entry.doc.DocumentID] {
			continue
		}
		if matchesAnyTrigger(entry.triggers, tokens) {
			docs = append(docs, entry.doc)
			seen[entry.doc.DocumentID] = true
		}
	}
	return docs
}

// IsFoundationalDocument reports whether the document id is in the registry.
func IsFoundationalDocument(documentID string) bool {
	for _, entry := range authorityRegistry {
		if entry.doc.DocumentID == documentID {
			return true
		}
	}
	return false
}

// DocumentMatchesTrigger reports whether any trigger term of the given
// document occurs in the token list. Used for the keyword-trigger bonus on
// top of the foundational boost.
func DocumentMatchesTrigger(documentID string, tokens []Token) bool {
	for _, entry := range authorityRegistry {
		if entry.doc.DocumentID != documentID {
			continue
		}
		if matchesAnyTrigger(entry.triggers, tokens) {
			return true
		}
	}
	return false
}

func matchesAnyTrigger(triggers []string, tokens []Token) bool {
	for _, trigger := range triggers {
		for _, tok := range tokens {
			for _, variant := range tok.Variants() {
				if variant == trigger {
					return true
				}
			}
		}
	}
	return false
}
