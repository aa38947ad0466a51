// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arise/focus-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	transactions []ledger.Transaction
	idempotency  map[string]bool
	nextSeq      int64
}

func NewMemory() *Memory {
	return &Memory{
		idempotency: make(map[string]bool),
		nextSeq:     1,
	}
}

// Append adds a single transaction, assigning Seq and Timestamp.
func (m *Memory) Append(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(tx)
}

// AppendBatch adds multiple transactions atomically.
func (m *Memory) AppendBatch(_ context.Context, txs []ledger.Transaction) ([]ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all idempotency keys first (atomic check)
	for _, tx := range txs {
		if tx.IdempotencyKey != "" && m.idempotency[tx.IdempotencyKey] {
			return nil, ledger.ErrDuplicateIdempotencyKey
		}
	}

	out := make([]ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		stored, err := m.appendLocked(tx)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

func (m *Memory) appendLocked(tx ledger.Transaction) (ledger.Transaction, error) {
	if tx.IdempotencyKey != "" && m.idempotency[tx.IdempotencyKey] {
		return ledger.Transaction{}, ledger.ErrDuplicateIdempotencyKey
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}
	tx.Seq = m.nextSeq
	m.nextSeq++

	m.transactions = append(m.transactions, tx)
	if tx.IdempotencyKey != "" {
		m.idempotency[tx.IdempotencyKey] = true
	}
	return tx, nil
}

func (m *Memory) Get(_ context.Context, id ledger.TransactionID) (ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, tx := range m.transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return ledger.Transaction{}, ledger.ErrTransactionNotFound
}

func (m *Memory) ListAll(_ context.Context) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(func(ledger.Transaction) bool { return true }), nil
}

func (m *Memory) ListByKind(_ context.Context, kind ledger.Kind) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(func(tx ledger.Transaction) bool { return tx.Kind == kind }), nil
}

func (m *Memory) ListInRange(_ context.Context, from, to time.Time) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(func(tx ledger.Transaction) bool {
		return !tx.Timestamp.Before(from) && !tx.Timestamp.After(to)
	}), nil
}

// sorted copies matching transactions ordered newest first, Seq as
// tie-break for identical timestamps.
func (m *Memory) sorted(match func(ledger.Transaction) bool) []ledger.Transaction {
	var result []ledger.Transaction
	for _, tx := range m.transactions {
		if match(tx) {
			result = append(result, tx)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Seq > result[j].Seq
		}
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result
}

func (m *Memory) Sum(_ context.Context, kind ledger.Kind) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, tx := range m.transactions {
		if tx.Kind == kind {
			total += tx.Amount
		}
	}
	return total, nil
}

func (m *Memory) SumInRange(_ context.Context, kind ledger.Kind, from, to time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, tx := range m.transactions {
		if tx.Kind == kind && !tx.Timestamp.Before(from) && !tx.Timestamp.After(to) {
			total += tx.Amount
		}
	}
	return total, nil
}

func (m *Memory) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.transactions)), nil
}

func (m *Memory) CountByKind(_ context.Context, kind ledger.Kind) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, tx := range m.transactions {
		if tx.Kind == kind {
			n++
		}
	}
	return n, nil
}

func (m *Memory) RelabelByTask(_ context.Context, taskID, taskName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.transactions {
		if m.transactions[i].TaskID == taskID {
			m.transactions[i].TaskName = taskName
		}
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, id ledger.TransactionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, tx := range m.transactions {
		if tx.ID == id {
			if tx.IdempotencyKey != "" {
				delete(m.idempotency, tx.IdempotencyKey)
			}
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return ledger.ErrTransactionNotFound
}

func (m *Memory) ClearAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transactions = nil
	m.idempotency = make(map[string]bool)
	return nil
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}

// Compile-time check
var _ ledger.Store = (*Memory)(nil)
