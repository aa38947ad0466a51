/*
store.go - Persistence contract for the points ledger

PURPOSE:
  Defines the interface between the ledger engine and the database.
  The core is agnostic to the backing engine: production uses SQLite,
  tests use the in-memory implementation in ledger/store.

APPEND-MOSTLY CONTRACT:
  The ledger is append-mostly, not strictly append-only:
  - Append / AppendBatch: The write path. Atomic and durable on return.
  - RelabelByTask: The single sanctioned mutation. When a task is
    renamed, its transactions' label fields follow. Kind and amount are
    NEVER changed retroactively; corrections are new transactions.
  - Delete / ClearAll: Administrative escape hatches (coupled-write
    rollback and full reset), never part of normal flows.

ORDERING:
  ListAll and ListInRange order by timestamp descending. Two
  transactions can land in the same millisecond (batch insert path), so
  the store assigns a monotonic Seq at insert and uses it as tie-break.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - ledger/store: In-memory store for tests

SEE ALSO:
  - ledger.go: Higher-level entry point using Store
  - balance.go: Reads aggregates through Store
*/
package ledger

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Transaction persistence
// =============================================================================

// Store handles persistence of point transactions.
//
// Append assigns Seq and, when the transaction carries a zero Timestamp,
// the insert time. Each append is atomic with respect to concurrent
// aggregate reads: a reader sees the full effect of an append or none
// of it, never a partial transaction.
type Store interface {
	// Append persists a transaction and returns it with Seq (and
	// Timestamp, when unset) filled in. Fails with
	// ErrDuplicateIdempotencyKey if the key already exists.
	Append(ctx context.Context, tx Transaction) (Transaction, error)

	// AppendBatch persists multiple transactions atomically.
	// Either all succeed or none do.
	AppendBatch(ctx context.Context, txs []Transaction) ([]Transaction, error)

	// Get returns the transaction with the given id, or
	// ErrTransactionNotFound.
	Get(ctx context.Context, id TransactionID) (Transaction, error)

	// ListAll returns every transaction, newest first.
	ListAll(ctx context.Context) ([]Transaction, error)

	// ListByKind returns transactions of one kind, newest first.
	ListByKind(ctx context.Context, kind Kind) ([]Transaction, error)

	// ListInRange returns transactions with from <= timestamp <= to,
	// newest first.
	ListInRange(ctx context.Context, from, to time.Time) ([]Transaction, error)

	// Sum returns the total magnitude of one kind.
	Sum(ctx context.Context, kind Kind) (int64, error)

	// SumInRange returns the total magnitude of one kind inside [from, to].
	SumInRange(ctx context.Context, kind Kind, from, to time.Time) (int64, error)

	// Count returns the total number of transactions.
	Count(ctx context.Context) (int64, error)

	// CountByKind returns the number of transactions of one kind.
	CountByKind(ctx context.Context, kind Kind) (int64, error)

	// RelabelByTask updates TaskName on every transaction linked to the
	// task. Label-only: kind and amount are untouched.
	RelabelByTask(ctx context.Context, taskID, taskName string) error

	// Delete removes a transaction. Used only to roll back the earn half
	// of a failed coupled write; returns ErrTransactionNotFound when the
	// id does not exist.
	Delete(ctx context.Context, id TransactionID) error

	// ClearAll wipes the ledger (reset/demo flows).
	ClearAll(ctx context.Context) error

	// Exists checks if an idempotency key has been used.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}
