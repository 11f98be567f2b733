package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tier unlocks Percent off once the subtotal reaches Threshold.
type Tier struct {
	Threshold decimal.Decimal `json:"threshold"`
	Percent   int             `json:"percent"`
}

func NewTier(threshold string, percent int) (Tier, error) {
	th, err := decimal.NewFromString(threshold)
	if err != nil {
		return Tier{}, err
	}
	if th.IsNegative() {
		return Tier{}, fmt.Errorf("%w: %s", ErrNegativeThreshold, threshold)
	}
	if percent < 0 || percent > 100 {
		return Tier{}, fmt.Errorf("%w: %d", ErrPercentRange, percent)
	}
	return Tier{Threshold: th, Percent: percent}, nil
}

func DefaultTiers() []Tier {
	return []Tier{
		{Threshold: decimal.NewFromInt(50), Percent: 5},
		{Threshold: decimal.NewFromInt(100), Percent: 10},
		{Threshold: decimal.NewFromInt(200), Percent: 15},
	}
}

// BestTier picks the qualifying tier with the highest percentage, not the
// highest threshold. Equal percentages resolve to the earlier tier.
func BestTier(tiers []Tier, subtotal decimal.Decimal) (Tier, bool) {
	var best Tier
	found := false
	for _, t := range tiers {
		if subtotal.LessThan(t.Threshold) {
			continue
		}
		if !found || t.Percent > best.Percent {
			best = t
			found = true
		}
	}
	return best, found
}
