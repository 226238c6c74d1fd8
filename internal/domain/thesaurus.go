package domain

// Bilingual legal thesaurus: term -> cross-language equivalents. Both
// directions are listed explicitly so lookup stays a single map access.
// This is data, not algorithm; extend freely.
var legalThesaurus = map[string][]string{
	// procedure
	"dagvaarding":   {"citation", "assignation"},
	"citation":      {"dagvaarding"},
	"assignation":   {"dagvaarding"},
	"vonnis":        {"jugement"},
	"jugement":      {"vonnis"},
	"arrest":        {"arrêt"},
	"arrêt":         {"arrest"},
	"beroep":        {"appel", "recours"},
	"appel":         {"beroep"},
	"recours":       {"beroep"},
	"verjaring":     {"prescription"},
	"prescription":  {"verjaring"},
	"rechtbank":     {"tribunal"},
	"tribunal":      {"rechtbank"},

	// employment
	"opzegtermijn":         {"délai de préavis", "préavis"},
	"préavis":              {"opzegtermijn", "opzegging"},
	"ontslag":              {"licenciement"},
	"licenciement":         {"ontslag"},
	"arbeidsovereenkomst":  {"contrat de travail"},
	"werkgever":            {"employeur"},
	"employeur":            {"werkgever"},
	"werknemer":            {"travailleur"},
	"travailleur":          {"werknemer"},
	"loon":                 {"rémunération", "salaire"},
	"salaire":              {"loon"},
	"rémunération":         {"loon"},

	// corporate
	"vennootschap":    {"société"},
	"société":         {"vennootschap"},
	"aandeelhouder":   {"actionnaire"},
	"actionnaire":     {"aandeelhouder"},
	"bestuurder":      {"administrateur"},
	"administrateur":  {"bestuurder"},
	"minimumkapitaal": {"capital minimum"},
	"faillissement":   {"faillite"},
	"faillite":        {"faillissement"},

	// property and contracts
	"huur":             {"bail", "location"},
	"bail":             {"huur"},
	"huurovereenkomst": {"contrat de bail"},
	"eigendom":         {"propriété"},
	"propriété":        {"eigendom"},
	"koop":             {"vente", "achat"},
	"vente":            {"koop"},
	"schade":           {"dommage"},
	"dommage":          {"schade"},
	"aansprakelijkheid": {"responsabilité"},
	"responsabilité":    {"aansprakelijkheid"},

	// family and succession
	"echtscheiding": {"divorce"},
	"divorce":       {"echtscheiding"},
	"erfenis":       {"succession", "héritage"},
	"succession":    {"erfenis"},
	"alimentatie":   {"pension alimentaire"},

	// tax
	"belasting":          {"impôt", "taxe"},
	"impôt":              {"belasting"},
	"taxe":               {"belasting"},
	"btw":                {"tva"},
	"tva":                {"btw"},
	"aftrek":             {"déduction"},
	"déduction":          {"aftrek"},
	"personenbelasting":  {"impôt des personnes physiques"},
	"vennootschapsbelasting": {"impôt des sociétés"},
}

// LegalSynonyms returns the cross-language equivalents for a normalized
// term, or nil when the thesaurus has no entry. The returned slice is
// shared; callers must not mutate it.
func LegalSynonyms(term string) []string {
	return legalThesaurus[term]
}
