/*
Package ledger provides the points ledger engine for the focus launcher.

PURPOSE:
  This package contains the core types and algorithms for tracking focus
  points. Users earn points by completing tasks and spend them to open
  distracting apps. Every point movement is recorded as an immutable
  transaction; balance is always derived from the transaction log.

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: An immutable ledger entry recording an earn or a spend
  - Kind: EARNED vs SPENT (sign lives in the kind, never in the amount)
  - Seq: Monotonic insertion order, the tie-break for identical timestamps

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified, only reversed
     (the single exception is the task-rename label update, see store.go)
  2. Derived balance: There is no stored balance field that can drift
  3. Auditability: Every transaction carries provenance (task or app label)

USAGE:
  tx := ledger.Transaction{
      Kind:     ledger.KindEarned,
      Amount:   20,
      TaskID:   "task-123",
      TaskName: "Read 30 pages",
  }

SEE ALSO:
  - store.go: Persistence contract
  - balance.go: Balance, trend and tier calculation
  - tier.go: Rank ladder definition and validation
*/
package ledger

import (
	"time"
)

// =============================================================================
// TRANSACTION - Atomic change to the points balance
// =============================================================================

type TransactionID string

// Kind is the direction of a transaction. The stored amount is always a
// non-negative magnitude; the kind carries the sign.
type Kind string

const (
	KindEarned Kind = "earned" // Points earned from completing a task
	KindSpent  Kind = "spent"  // Points spent to open a gated app
)

// Valid reports whether k is one of the closed set of kinds.
func (k Kind) Valid() bool {
	return k == KindEarned || k == KindSpent
}

type Transaction struct {
	ID TransactionID

	// Provenance. Earn transactions link back to the task that produced
	// them; spend transactions carry the app identifier in Label instead.
	TaskID   string
	TaskName string
	Label    string

	Kind   Kind
	Amount int64 // non-negative magnitude

	// IdempotencyKey guards against duplicate appends from retries.
	// Empty key skips the check.
	IdempotencyKey string

	// Timestamp is assigned at insert and is the ordering key for all
	// time-ranged queries. Seq is the store-assigned insertion counter
	// that breaks ties between transactions in the same millisecond.
	Timestamp time.Time
	Seq       int64
}

// Signed returns the balance contribution of the transaction.
func (t Transaction) Signed() int64 {
	if t.Kind == KindSpent {
		return -t.Amount
	}
	return t.Amount
}

// =============================================================================
// TREND - Balance movement over a window
// =============================================================================

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// Trend describes how the balance moved since a window start.
// Delta is the absolute magnitude of the change.
type Trend struct {
	Direction TrendDirection
	Delta     int64
}
