package domain

import "strings"

// Pattern rules for the boost/penalty stage. All matching is done on
// lowercased text; the tables are immutable after process start.

var sectoralAgreementPatterns = []string{
	"paritair comité",
	"paritair subcomité",
	"commission paritaire",
	"sous-commission paritaire",
	"collectieve arbeidsovereenkomst",
	"convention collective de travail",
	"sectoraal akkoord",
	"sectorakkoord",
}

var sectorKeywords = []string{
	"bouwbedrijf", "horeca", "metaalbouw", "textielnijverheid",
	"voedingsnijverheid", "schoonmaaksector", "vervoersector",
	"gezondheidsinrichtingen", "diamantnijverheid",
}

var temporaryMeasurePatterns = []string{
	"covid", "corona", "pandemie", "pandémie",
	"crisismaatregel", "mesure de crise",
	"tijdelijke maatregel", "mesure temporaire",
	"tijdelijke werkloosheid wegens overmacht",
	"steunmaatregel", "relanceplan",
}

var abolitionPatterns = []string{
	"wordt opgeheven", "is opgeheven", "opgeheven bij",
	"wordt ingetrokken", "buiten werking gesteld",
	"est abrogé", "est abrogée", "abrogé par",
	"vervangen door de wet van", "remplacé par la loi du",
}

// HasSectoralAgreementSignals detects narrow collective-agreement passages
// that should not outrank general law for general questions.
func HasSectoralAgreementSignals(title, text string) bool {
	lower := strings.ToLower(title + " " + text)
	for _, p := range sectoralAgreementPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	matched := 0
	for _, kw := range sectorKeywords {
		if strings.Contains(lower, kw) {
			matched++
			if matched >= 2 {
				return true
			}
		}
	}
	return false
}

// HasTemporaryMeasureSignals detects crisis or temporary-measure passages so
// stale emergency rules do not outrank permanent law.
func HasTemporaryMeasureSignals(title, text string) bool {
	lower := strings.ToLower(title + " " + text)
	for _, p := range temporaryMeasurePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// HasAbolitionLanguage detects abolition wording inside the passage text
// itself, covering records where the structured abolished flag was never
// set.
func HasAbolitionLanguage(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range abolitionPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
