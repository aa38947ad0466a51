/*
tier.go - Rank ladder over the points balance

PURPOSE:
  Maps a balance to a named rank tier. Tiers are static configuration:
  an ordered list of bands covering the full non-negative integer range
  with no gaps and no overlaps. A balance is in exactly one tier, and
  anything past the last band saturates into the terminal tier.

VALIDATION:
  The partition invariant is enforced once, at startup. A ladder that is
  empty, unsorted, overlapping, or leaves gaps is a configuration bug,
  not a runtime condition: initialization fails and the process exits.

SEE ALSO:
  - balance.go: TierFor and ProgressToNextTier
*/
package ledger

import "math"

// =============================================================================
// TIER - Named band of the balance range
// =============================================================================

type Tier struct {
	Name        string
	Description string

	// Inclusive bounds. The terminal tier uses MaxPoints = math.MaxInt64.
	MinPoints int64
	MaxPoints int64
}

// Contains reports whether balance falls inside the band.
func (t Tier) Contains(balance int64) bool {
	return balance >= t.MinPoints && balance <= t.MaxPoints
}

// Terminal reports whether this is the last (unbounded) tier.
func (t Tier) Terminal() bool {
	return t.MaxPoints == math.MaxInt64
}

// =============================================================================
// DEFAULT LADDER - Hunter ranks, E through S
// =============================================================================

// DefaultTiers is the launcher's rank ladder. The bands are contiguous
// and the S rank saturates everything above it.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "E-Rank", Description: "The weakest hunter. Everyone starts here.", MinPoints: 0, MaxPoints: 99},
		{Name: "D-Rank", Description: "Showing discipline. Keep grinding.", MinPoints: 100, MaxPoints: 249},
		{Name: "C-Rank", Description: "A capable hunter with steady habits.", MinPoints: 250, MaxPoints: 499},
		{Name: "B-Rank", Description: "Focus is becoming second nature.", MinPoints: 500, MaxPoints: 999},
		{Name: "A-Rank", Description: "Elite. Distractions rarely win.", MinPoints: 1000, MaxPoints: 1999},
		{Name: "S-Rank", Description: "The apex. A monarch of focus.", MinPoints: 2000, MaxPoints: math.MaxInt64},
	}
}

// =============================================================================
// VALIDATION - Total, gap-free, saturating partition
// =============================================================================

// ValidateTiers checks the partition invariant over the ladder.
// Returns a TierTableError naming the offending entry.
func ValidateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return &TierTableError{Index: 0, Reason: "ladder is empty"}
	}
	if tiers[0].MinPoints != 0 {
		return &TierTableError{Index: 0, Reason: "first tier must start at 0"}
	}
	for i, t := range tiers {
		if t.Name == "" {
			return &TierTableError{Index: i, Reason: "tier has no name"}
		}
		if t.MaxPoints < t.MinPoints {
			return &TierTableError{Index: i, Reason: "max below min"}
		}
		if i < len(tiers)-1 {
			next := tiers[i+1]
			if next.MinPoints != t.MaxPoints+1 {
				return &TierTableError{Index: i + 1, Reason: "bands must be contiguous"}
			}
		}
	}
	last := tiers[len(tiers)-1]
	if !last.Terminal() {
		return &TierTableError{Index: len(tiers) - 1, Reason: "terminal tier must be unbounded"}
	}
	return nil
}
