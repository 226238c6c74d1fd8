package domain

import (
	"strings"
	"unicode"
)

// Tokenize normalizes a raw query into an ordered, deduplicated token list:
// lowercase, split on non-alphanumeric boundaries, keep units of length >= 2
// or single digits, drop stop-words for the given language. A query that
// consists entirely of stop-words keeps them, so a degenerate query remains
// usable. Idempotent: re-tokenizing the rejoined output yields the same list.
func Tokenize(query string, lang Language) []Token {
	units := splitUnits(query)

	kept := make([]string, 0, len(units))
	for _, u := range units {
		if !IsStopWord(u, lang) {
			kept = append(kept, u)
		}
	}
	if len(kept) == 0 {
		kept = units
	}

	seen := make(map[string]bool, len(kept))
	tokens := make([]Token, 0, len(kept))
	for _, text := range kept {
		if seen[text] {
			continue
		}
		seen[text] = true
		tokens = append(tokens, Token{
			Text:     text,
			Synonyms: LegalSynonyms(text),
		})
	}
	return tokens
}

// RejoinTokens renders a token list back into a normalized query string.
func RejoinTokens(tokens []Token) string {
	return strings.Join(TokenTexts(tokens), " ")
}

// IsNumericIdentifier reports whether the raw query is exactly a 10-digit
// document identifier, which bypasses tokenization entirely.
func IsNumericIdentifier(query string) bool {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) != 10 {
		return false
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func splitUnits(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	units := make([]string, 0, len(fields))
	for _, f := range fields {
		runes := []rune(f)
		if len(runes) >= 2 {
			units = append(units, f)
			continue
		}
		if len(runes) == 1 && unicode.IsDigit(runes[0]) {
			units = append(units, f)
		}
	}
	return units
}
