package retrieval

import "fmt"

// BoostConfig holds the tunable multipliers of the score-fusion stage.
// The values are empirically tuned for ranking quality; none of them is a
// correctness invariant, so they stay configuration rather than constants.
type BoostConfig struct {
	// FoundationalBoost multiplies foundational-document candidates. It
	// corrects for generic statutes being statistically under-represented
	// versus narrow sector-specific agreements.
	FoundationalBoost float32
	// TriggerBonus is the extra multiplier when the foundational document
	// was also a keyword-trigger match for this query.
	TriggerBonus float32
	// SectoralPenalty deprioritizes narrow collective agreements detected
	// by pattern rules.
	SectoralPenalty float32
	// TemporaryPenalty deprioritizes crisis/temporary-measure passages.
	TemporaryPenalty float32
	// AbolishedPenalty applies twice independently: once for the
	// structured abolished flag, once for abolition wording in the text.
	AbolishedPenalty float32
	// FreshnessBoost is the minor multiplier for frequently amended
	// documents, a proxy for continued legal relevance.
	FreshnessBoost float32
	// FreshnessMinAmendments is the amendment count at which the
	// freshness boost kicks in.
	FreshnessMinAmendments int

	// AuthorityBaseScore sits below the lexical floor so injected items
	// never outrank genuine strong matches before boosting.
	AuthorityBaseScore float32
	// AuthorityMaxInjected caps injected passages per foundational
	// document.
	AuthorityMaxInjected int

	// SimilarityFloor is the soft score threshold of the final filter.
	SimilarityFloor float32
	// MinResults is the floor below which the soft filters disable
	// themselves rather than empty the result set.
	MinResults int
	// TopNFallback is the fixed top-N kept when too few candidates pass
	// the similarity floor.
	TopNFallback int
	// TopicalBypassScore lets high-scoring candidates through the topical
	// relevance filter even when their title shares nothing with the
	// query.
	TopicalBypassScore float32
}

// DefaultBoostConfig returns the tuned defaults.
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{
		FoundationalBoost:      2.0,
		TriggerBonus:           1.1,
		SectoralPenalty:        0.6,
		TemporaryPenalty:       0.7,
		AbolishedPenalty:       0.5,
		FreshnessBoost:         1.05,
		FreshnessMinAmendments: 3,
		AuthorityBaseScore:     0.48,
		AuthorityMaxInjected:   2,
		SimilarityFloor:        0.35,
		MinResults:             5,
		TopNFallback:           10,
		TopicalBypassScore:     0.9,
	}
}

// Validate checks the configuration values are within acceptable ranges.
func (c BoostConfig) Validate() error {
	if c.FoundationalBoost < 1.0 {
		return fmt.Errorf("foundationalBoost must be >= 1.0, got %f", c.FoundationalBoost)
	}
	if c.TriggerBonus < 1.0 {
		return fmt.Errorf("triggerBonus must be >= 1.0, got %f", c.TriggerBonus)
	}
	for name, penalty := range map[string]float32{
		"sectoralPenalty":  c.SectoralPenalty,
		"temporaryPenalty": c.TemporaryPenalty,
		"abolishedPenalty": c.AbolishedPenalty,
	} {
		if penalty <= 0 || penalty > 1.0 {
			return fmt.Errorf("%s must be in (0, 1], got %f", name, penalty)
		}
	}
	if c.FreshnessBoost < 1.0 {
		return fmt.Errorf("freshnessBoost must be >= 1.0, got %f", c.FreshnessBoost)
	}
	if c.AuthorityBaseScore <= 0 || c.AuthorityBaseScore >= 1.0 {
		return fmt.Errorf("authorityBaseScore must be in (0, 1), got %f", c.AuthorityBaseScore)
	}
	if c.AuthorityMaxInjected < 0 {
		return fmt.Errorf("authorityMaxInjected must be non-negative, got %d", c.AuthorityMaxInjected)
	}
	if c.MinResults <= 0 {
		return fmt.Errorf("minResults must be positive, got %d", c.MinResults)
	}
	if c.TopNFallback < c.MinResults {
		return fmt.Errorf("topNFallback (%d) must be >= minResults (%d)", c.TopNFallback, c.MinResults)
	}
	return nil
}
