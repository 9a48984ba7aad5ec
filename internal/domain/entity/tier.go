// Package entity contains the core business objects of the loyalty engine.
package entity

// TierLevel is a named loyalty level derived solely from lifetime points earned.
type TierLevel string

const (
	// TierBronze covers [0, 500) lifetime points.
	TierBronze TierLevel = "bronze"
	// TierSilver covers [500, 2000) lifetime points.
	TierSilver TierLevel = "silver"
	// TierGold covers [2000, 5000) lifetime points.
	TierGold TierLevel = "gold"
	// TierPlatinum covers 5000 lifetime points and above.
	TierPlatinum TierLevel = "platinum"
)

// Inclusive lower bounds of each tier.
const (
	SilverThreshold   int64 = 500
	GoldThreshold     int64 = 2000
	PlatinumThreshold int64 = 5000
)

// ClassifyTier maps lifetime-earned points to a tier. Every input maps to exactly one tier;
// negative totals never occur for a valid profile and are treated as bronze.
func ClassifyTier(totalPointsEarned int64) TierLevel {
	switch {
	case totalPointsEarned >= PlatinumThreshold:
		return TierPlatinum
	case totalPointsEarned >= GoldThreshold:
		return TierGold
	case totalPointsEarned >= SilverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// String returns the string representation of the TierLevel.
func (t TierLevel) String() string {
	return string(t)
}

// IsValid checks if the TierLevel is a known value.
func (t TierLevel) IsValid() bool {
	return t.Rank() >= 0
}

// Rank orders tiers from bronze (0) to platinum (3); unknown tiers rank -1.
func (t TierLevel) Rank() int {
	switch t {
	case TierBronze:
		return 0
	case TierSilver:
		return 1
	case TierGold:
		return 2
	case TierPlatinum:
		return 3
	default:
		return -1
	}
}
