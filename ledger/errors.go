/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As; the API layer maps these
  to HTTP status codes.

ERROR CATEGORIES:
  1. Not-found errors - Missing transactions or tasks
  2. Validation errors - Business rule violations (tier table, funds)
  3. Store errors - Persistence-level failures

SEE ALSO:
  - store.go: Uses these errors
  - tier.go: ErrInvalidTierTable at startup
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTransactionNotFound is returned when a referenced transaction
	// does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateIdempotencyKey is returned when a transaction with the
	// same idempotency key already exists. Expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("invalid transaction amount")

	// ErrInvalidKind is returned when a transaction carries a kind other
	// than EARNED or SPENT.
	ErrInvalidKind = errors.New("invalid transaction kind")

	// ErrStoreUnavailable is returned when the persistence layer cannot
	// complete a read or write. Never retried by the engine itself.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidTierTable is returned when the rank ladder is empty, has
	// gaps, or is unsorted. Fatal at startup, never recoverable at runtime.
	ErrInvalidTierTable = errors.New("invalid tier table")

	// ErrInsufficientPoints is returned only when the strict gate policy
	// is enabled and a paid confirmation would drop below the threshold.
	ErrInsufficientPoints = errors.New("insufficient points")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientPointsError provides details about a blocked confirmation.
// The threshold is fractional: it echoes the settings value verbatim.
type InsufficientPointsError struct {
	Available int64
	Requested int64
	Threshold float64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: available %d, requested %d, threshold %g",
		e.Available, e.Requested, e.Threshold)
}

func (e *InsufficientPointsError) Unwrap() error {
	return ErrInsufficientPoints
}

// TierTableError pinpoints the invalid entry in a rank ladder.
type TierTableError struct {
	Index  int
	Reason string
}

func (e *TierTableError) Error() string {
	return fmt.Sprintf("invalid tier table at index %d: %s", e.Index, e.Reason)
}

func (e *TierTableError) Unwrap() error {
	return ErrInvalidTierTable
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTransactionNotFound)
}

// IsClientError reports whether the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrDuplicateIdempotencyKey) ||
		errors.Is(err, ErrInsufficientPoints)
}
