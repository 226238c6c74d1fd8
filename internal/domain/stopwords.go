package domain

// Closed stop-word lists per supported language. Loaded once, never mutated
// at request time.
var stopWords = map[Language]map[string]struct{}{
	LanguageDutch:  toSet(dutchStopWords),
	LanguageFrench: toSet(frenchStopWords),
}

var dutchStopWords = []string{
	"de", "het", "een", "en", "of", "maar", "want", "dus", "als", "dan",
	"dat", "die", "dit", "deze", "er", "hier", "daar", "wat", "wie", "hoe",
	"waar", "wanneer", "waarom", "is", "zijn", "was", "waren", "wordt",
	"worden", "kan", "kunnen", "moet", "moeten", "mag", "mogen", "heeft",
	"hebben", "had", "ik", "je", "jij", "hij", "zij", "wij", "jullie",
	"mijn", "zijn", "haar", "ons", "hun", "van", "voor", "naar", "met",
	"bij", "aan", "op", "in", "uit", "over", "onder", "tussen", "door",
	"niet", "geen", "wel", "ook", "nog", "al", "te", "om",
}

var frenchStopWords = []string{
	"le", "la", "les", "un", "une", "des", "du", "de", "et", "ou", "mais",
	"donc", "car", "si", "que", "qui", "quoi", "dont", "ce", "cette", "ces",
	"cela", "il", "elle", "ils", "elles", "je", "tu", "nous", "vous", "on",
	"mon", "ma", "mes", "son", "sa", "ses", "notre", "votre", "leur",
	"est", "sont", "était", "sera", "être", "avoir", "peut", "doit",
	"pour", "par", "avec", "sans", "sur", "sous", "dans", "vers", "entre",
	"pas", "ne", "plus", "aussi", "très", "tout", "tous", "au", "aux",
}

// IsStopWord reports whether the unit is on the closed list for lang.
func IsStopWord(unit string, lang Language) bool {
	set, ok := stopWords[lang]
	if !ok {
		return false
	}
	_, stop := set[unit]
	return stop
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
