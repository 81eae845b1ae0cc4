// Package rank maps ranked points onto the competitive ladder.
package rank

import (
	"strings"
)

// Tier is the coarse ladder bracket used for ranked pairing.
type Tier string

const (
	TierBronze      Tier = "Bronze"
	TierSilver      Tier = "Silver"
	TierGold        Tier = "Gold"
	TierPlatinum    Tier = "Platinum"
	TierDiamond     Tier = "Diamond"
	TierHeroic      Tier = "Heroic"
	TierGrandmaster Tier = "Grandmaster"

	// TierUnranked is reported for empty or unrecognised labels.
	TierUnranked Tier = "Unranked"
)

// Rank is a tier plus an optional division (1-based, 0 when the tier has none).
type Rank struct {
	Tier     Tier
	Division int
}

// Default is the rank assigned to new profiles.
var Default = Rank{Tier: TierBronze, Division: 1}

type step struct {
	min  int
	rank Rank
}

// ladder is ordered from the highest threshold down.
var ladder = []step{
	{3200, Rank{TierGrandmaster, 0}},
	{2600, Rank{TierHeroic, 0}},
	{2450, Rank{TierDiamond, 4}},
	{2300, Rank{TierDiamond, 3}},
	{2150, Rank{TierDiamond, 2}},
	{2000, Rank{TierDiamond, 1}},
	{1850, Rank{TierPlatinum, 4}},
	{1700, Rank{TierPlatinum, 3}},
	{1600, Rank{TierPlatinum, 2}},
	{1500, Rank{TierPlatinum, 1}},
	{1450, Rank{TierGold, 4}},
	{1400, Rank{TierGold, 3}},
	{1350, Rank{TierGold, 2}},
	{1300, Rank{TierGold, 1}},
	{1200, Rank{TierSilver, 3}},
	{1100, Rank{TierSilver, 2}},
	{1000, Rank{TierSilver, 1}},
	{800, Rank{TierBronze, 3}},
	{500, Rank{TierBronze, 2}},
}

// Compute returns the rank for a ranked-points total.
func Compute(points int) Rank {
	for _, s := range ladder {
		if points >= s.min {
			return s.rank
		}
	}
	return Default
}

var numerals = []string{"", "I", "II", "III", "IV"}

// String renders the display label, e.g. "Gold III" or "Heroic".
func (r Rank) String() string {
	if r.Tier == "" {
		return string(TierUnranked)
	}
	if r.Division <= 0 || r.Division >= len(numerals) {
		return string(r.Tier)
	}
	return string(r.Tier) + " " + numerals[r.Division]
}

// Parse reads a display label back into a Rank. The tier is the first
// word of the label; unknown divisions are dropped.
func Parse(label string) Rank {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return Rank{Tier: TierUnranked}
	}
	r := Rank{Tier: Tier(fields[0])}
	if len(fields) > 1 {
		for i, n := range numerals {
			if i > 0 && n == fields[1] {
				r.Division = i
				break
			}
		}
	}
	return r
}

// SameTier reports whether two ranks share a ladder bracket.
func SameTier(a, b Rank) bool {
	return a.Tier == b.Tier
}

// MarshalText encodes the rank as its display label.
func (r Rank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a display label.
func (r *Rank) UnmarshalText(b []byte) error {
	*r = Parse(string(b))
	return nil
}
