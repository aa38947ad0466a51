/*
balance.go - Balance, trend and tier calculation

PURPOSE:
  The read side of the ledger. Answers "how many points do I have?",
  "which rank am I?", and "how close is the next rank?" - always by
  aggregating the transaction log, never from a cached counter.

KEY QUERIES:
  CurrentBalance:     sum(EARNED) - sum(SPENT); may be negative after a
                      paid confirmation under the permissive gate policy
  AvailablePoints:    max(0, CurrentBalance); what the gate may spend
  TierFor:            rank band containing a balance (saturating)
  ProgressToNextTier: percentage through the current band, 100 at S rank
  TrendSince:         INCREASING/DECREASING/STABLE over a window

PRECISION:
  Amounts are integers; only the progress percentage is fractional and
  uses decimal arithmetic to avoid float drift at band boundaries.

SEE ALSO:
  - tier.go: Ladder definition and startup validation
  - store.go: Aggregate queries
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CALCULATOR - Pure queries over the ledger
// =============================================================================

type Calculator struct {
	store Store
	tiers []Tier
}

// NewCalculator builds a calculator over the store and rank ladder.
// The ladder is validated once here; an invalid table is fatal.
func NewCalculator(store Store, tiers []Tier) (*Calculator, error) {
	if err := ValidateTiers(tiers); err != nil {
		return nil, err
	}
	return &Calculator{store: store, tiers: tiers}, nil
}

// Tiers returns the ladder (for display).
func (c *Calculator) Tiers() []Tier { return c.tiers }

// CurrentBalance recomputes the balance from the log. Never cached
// beyond this single read.
func (c *Calculator) CurrentBalance(ctx context.Context) (int64, error) {
	earned, err := c.store.Sum(ctx, KindEarned)
	if err != nil {
		return 0, err
	}
	spent, err := c.store.Sum(ctx, KindSpent)
	if err != nil {
		return 0, err
	}
	return earned - spent, nil
}

// AvailablePoints clamps the balance at zero so the gate never presents
// a negative spendable amount.
func (c *Calculator) AvailablePoints(ctx context.Context) (int64, error) {
	balance, err := c.CurrentBalance(ctx)
	if err != nil {
		return 0, err
	}
	if balance < 0 {
		return 0, nil
	}
	return balance, nil
}

// TrendSince compares the current balance against the balance as of
// windowStart. Equal values classify as STABLE; delta is the absolute
// magnitude of the change.
func (c *Calculator) TrendSince(ctx context.Context, windowStart time.Time) (Trend, error) {
	current, err := c.CurrentBalance(ctx)
	if err != nil {
		return Trend{}, err
	}
	// Balance at the window start = current minus everything after it.
	now := time.Now().UTC().Add(24 * time.Hour) // open upper bound
	earnedAfter, err := c.store.SumInRange(ctx, KindEarned, windowStart, now)
	if err != nil {
		return Trend{}, err
	}
	spentAfter, err := c.store.SumInRange(ctx, KindSpent, windowStart, now)
	if err != nil {
		return Trend{}, err
	}
	change := earnedAfter - spentAfter
	atStart := current - change

	switch {
	case current > atStart:
		return Trend{Direction: TrendIncreasing, Delta: current - atStart}, nil
	case current < atStart:
		return Trend{Direction: TrendDecreasing, Delta: atStart - current}, nil
	default:
		return Trend{Direction: TrendStable, Delta: 0}, nil
	}
}

// TierFor maps a balance to its rank. Negative balances clamp into the
// first tier; anything past the last band saturates into the terminal
// tier. Never errors: the ladder is a total partition by construction.
func (c *Calculator) TierFor(balance int64) Tier {
	if balance < 0 {
		return c.tiers[0]
	}
	for _, t := range c.tiers {
		if t.Contains(balance) {
			return t
		}
	}
	return c.tiers[len(c.tiers)-1]
}

// NextTier returns the tier above the one containing balance, or false
// when balance is already in the terminal tier.
func (c *Calculator) NextTier(balance int64) (Tier, bool) {
	current := c.TierFor(balance)
	for i, t := range c.tiers {
		if t.MinPoints == current.MinPoints && i < len(c.tiers)-1 {
			return c.tiers[i+1], true
		}
	}
	return Tier{}, false
}

// ProgressToNextTier returns how far balance has travelled through its
// band, as a percentage in [0, 100]. The terminal tier is always 100.
// Band boundaries are strictly increasing (validated at startup), so the
// divisor is never zero.
func (c *Calculator) ProgressToNextTier(balance int64) decimal.Decimal {
	current := c.TierFor(balance)
	next, ok := c.NextTier(balance)
	if !ok {
		return decimal.NewFromInt(100)
	}
	if balance < current.MinPoints {
		return decimal.Zero
	}
	span := decimal.NewFromInt(next.MinPoints - current.MinPoints)
	into := decimal.NewFromInt(balance - current.MinPoints)
	pct := into.Div(span).Mul(decimal.NewFromInt(100)).Round(2)
	hundred := decimal.NewFromInt(100)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// =============================================================================
// BALANCE SUMMARY - What the launcher home screen shows
// =============================================================================

type BalanceSummary struct {
	Balance   int64
	Available int64
	Tier      Tier
	Progress  decimal.Decimal
	Trend     Trend
}

// Summary bundles the home-screen numbers in one pass.
func (c *Calculator) Summary(ctx context.Context, trendWindow time.Duration) (BalanceSummary, error) {
	balance, err := c.CurrentBalance(ctx)
	if err != nil {
		return BalanceSummary{}, err
	}
	available := balance
	if available < 0 {
		available = 0
	}
	trend, err := c.TrendSince(ctx, time.Now().UTC().Add(-trendWindow))
	if err != nil {
		return BalanceSummary{}, err
	}
	return BalanceSummary{
		Balance:   balance,
		Available: available,
		Tier:      c.TierFor(balance),
		Progress:  c.ProgressToNextTier(balance),
		Trend:     trend,
	}, nil
}
