/*
ledger.go - Entry point for ledger writes

PURPOSE:
  The Ledger is the single write path into the transaction log. Only the
  task completion coordinator and the access gate go through it; no other
  component fabricates transactions. It validates amounts, stamps ids and
  timestamps, and enforces idempotency before handing off to the Store.

WHY DERIVED BALANCE?
  There is no stored balance counter. sum(EARNED) - sum(SPENT) over the
  log IS the balance, recomputed on every observation. A cached counter
  next to a log is two sources of truth; one of them always drifts.

SEE ALSO:
  - store.go: Persistence contract
  - balance.go: The read side
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEDGER - Validated write path over a Store
// =============================================================================

type Ledger struct {
	store Store
	now   func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock injects the time source. Tests pin it for determinism.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Store exposes the underlying store for read paths.
func (l *Ledger) Store() Store { return l.store }

// Earn appends an EARNED transaction for a completed task.
func (l *Ledger) Earn(ctx context.Context, taskID, taskName string, amount int64, idempotencyKey string) (Transaction, error) {
	return l.Append(ctx, Transaction{
		TaskID:         taskID,
		TaskName:       taskName,
		Kind:           KindEarned,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
	})
}

// Spend appends a SPENT transaction for an app debit.
func (l *Ledger) Spend(ctx context.Context, label string, amount int64, idempotencyKey string) (Transaction, error) {
	return l.Append(ctx, Transaction{
		Label:          label,
		Kind:           KindSpent,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
	})
}

// Append validates and persists a transaction, assigning id and timestamp
// when unset. This is the ONLY write path into the log.
func (l *Ledger) Append(ctx context.Context, tx Transaction) (Transaction, error) {
	if err := l.prepare(&tx); err != nil {
		return Transaction{}, err
	}
	if tx.IdempotencyKey != "" {
		exists, err := l.store.Exists(ctx, tx.IdempotencyKey)
		if err != nil {
			return Transaction{}, err
		}
		if exists {
			return Transaction{}, ErrDuplicateIdempotencyKey
		}
	}
	return l.store.Append(ctx, tx)
}

// AppendBatch atomically persists multiple transactions. Used by the
// split-screen path where one user action produces several entries.
func (l *Ledger) AppendBatch(ctx context.Context, txs []Transaction) ([]Transaction, error) {
	for i := range txs {
		if err := l.prepare(&txs[i]); err != nil {
			return nil, err
		}
		if txs[i].IdempotencyKey == "" {
			continue
		}
		exists, err := l.store.Exists(ctx, txs[i].IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateIdempotencyKey
		}
	}
	return l.store.AppendBatch(ctx, txs)
}

func (l *Ledger) prepare(tx *Transaction) error {
	if tx.Amount < 0 {
		return ErrInvalidAmount
	}
	if !tx.Kind.Valid() {
		return ErrInvalidKind
	}
	if tx.ID == "" {
		tx.ID = TransactionID(uuid.NewString())
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = l.now().UTC()
	}
	return nil
}
