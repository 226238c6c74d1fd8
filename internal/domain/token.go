package domain

// Language is the requester's preferred language. The engine serves the two
// national legal languages of the indexed corpora.
type Language string

const (
	LanguageDutch  Language = "nl"
	LanguageFrench Language = "fr"
)

// Token is a normalized lowercase query unit of length >= 2, or a single
// digit (so citations like "boek 3" survive tokenization). A token may carry
// cross-language legal synonyms from the static thesaurus; matching code
// treats synonym hits as weaker evidence than a hit on the token itself.
type Token struct {
	Text     string
	Synonyms []string
}

// Variants returns the token text followed by its synonyms.
func (t Token) Variants() []string {
	out := make([]string, 0, 1+len(t.Synonyms))
	out = append(out, t.Text)
	out = append(out, t.Synonyms...)
	return out
}

// TokenTexts extracts the primary texts of a token list.
func TokenTexts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}
