package metrics

import "fmt"

// Tier is a qualitative stutter rating, ordered best to worst.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierModerate  Tier = "moderate"
	TierPoor      Tier = "poor"
)

// TierBoundaries are the stutter-percentage cut points between tiers.
// A stutter percentage s maps to excellent when s <= ExcellentMax, good when
// s <= GoodMax, moderate when s <= ModerateMax, and poor otherwise, so the
// mapping is total and non-overlapping over [0,100].
type TierBoundaries struct {
	ExcellentMax float64 `yaml:"excellent_max" json:"excellent_max"`
	GoodMax      float64 `yaml:"good_max" json:"good_max"`
	ModerateMax  float64 `yaml:"moderate_max" json:"moderate_max"`
}

// DefaultTierBoundaries returns the default cut points. The original tool
// never documented its numeric boundaries, so these are a fixed policy here.
func DefaultTierBoundaries() TierBoundaries {
	return TierBoundaries{
		ExcellentMax: 1.0,
		GoodMax:      3.0,
		ModerateMax:  7.0,
	}
}

// Validate checks that the boundaries are strictly increasing.
func (b TierBoundaries) Validate() error {
	if b.ExcellentMax < 0 {
		return fmt.Errorf("metrics: excellent boundary must be >= 0, got %v", b.ExcellentMax)
	}
	if b.GoodMax <= b.ExcellentMax || b.ModerateMax <= b.GoodMax {
		return fmt.Errorf("metrics: tier boundaries must be strictly increasing: %v, %v, %v",
			b.ExcellentMax, b.GoodMax, b.ModerateMax)
	}
	return nil
}

// Classify maps a stutter percentage to its tier.
func (b TierBoundaries) Classify(stutterPercent float64) Tier {
	switch {
	case stutterPercent <= b.ExcellentMax:
		return TierExcellent
	case stutterPercent <= b.GoodMax:
		return TierGood
	case stutterPercent <= b.ModerateMax:
		return TierModerate
	default:
		return TierPoor
	}
}
