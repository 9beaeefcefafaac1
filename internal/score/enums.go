package score

import (
	"fmt"
	"strings"
)

// Tier is the reward classification derived from an average score.
type Tier string

const (
	TierBronze  Tier = "Bronze"
	TierSilver  Tier = "Silver"
	TierGold    Tier = "Gold"
	TierDiamond Tier = "Diamond"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierBronze, TierSilver, TierGold, TierDiamond}

func (t Tier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierDiamond:
		return true
	}
	return false
}

// rank returns a sort key (higher = better tier, -1 = invalid).
func (t Tier) rank() int {
	switch t {
	case TierBronze:
		return 0
	case TierSilver:
		return 1
	case TierGold:
		return 2
	case TierDiamond:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether t is the same tier as other or ranks above it.
func (t Tier) AtLeast(other Tier) bool {
	return t.Valid() && t.rank() >= other.rank()
}

// ParseTier parses a tier label case-insensitively.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("score.ParseTier: unknown tier %q", s)
}
