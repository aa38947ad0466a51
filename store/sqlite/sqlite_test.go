package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arise/focus-engine/gate"
	"github.com/arise/focus-engine/ledger"
	"github.com/arise/focus-engine/settings"
	"github.com/arise/focus-engine/tasks"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *Store {
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func earned(id, key string, amount int64, at time.Time) ledger.Transaction {
	return ledger.Transaction{
		ID:             ledger.TransactionID(id),
		TaskID:         "task-" + id,
		TaskName:       "Task " + id,
		Kind:           ledger.KindEarned,
		Amount:         amount,
		IdempotencyKey: key,
		Timestamp:      at,
	}
}

// =============================================================================
// LEDGER FACADE TESTS
// =============================================================================

func TestLedgerStore_AppendAssignsIncreasingSeq(t *testing.T) {
	// GIVEN: An empty ledger
	// WHEN: Appending three transactions
	// THEN: Seq is store-assigned and strictly increasing

	store := newTestStore(t)
	ctx := context.Background()
	l := store.Ledger()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	var prev int64
	for _, id := range []string{"a", "b", "c"} {
		tx, err := l.Append(ctx, earned(id, "", 10, at))
		require.NoError(t, err)
		assert.Greater(t, tx.Seq, prev)
		prev = tx.Seq
	}
}

func TestLedgerStore_ListAllBreaksTimestampTiesBySeq(t *testing.T) {
	// Identical timestamps order by insertion (Seq), newest first.

	store := newTestStore(t)
	ctx := context.Background()
	l := store.Ledger()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"first", "second", "third"} {
		_, err := l.Append(ctx, earned(id, "", 5, at))
		require.NoError(t, err)
	}

	all, err := l.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ledger.TransactionID("third"), all[0].ID)
	assert.Equal(t, ledger.TransactionID("second"), all[1].ID)
	assert.Equal(t, ledger.TransactionID("first"), all[2].ID)
}

func TestLedgerStore_FractionalTimestampsSortChronologically(t *testing.T) {
	// GIVEN: A whole-second timestamp and a fractional one in the same
	// second (the stored encoding pads fractional digits; an unpadded
	// encoding would string-sort the whole second as newer)
	// WHEN: Listing and range-querying
	// THEN: Ordering and bounds follow time order

	store := newTestStore(t)
	ctx := context.Background()
	l := store.Ledger()

	whole := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	frac := whole.Add(500 * time.Millisecond)

	_, err := l.Append(ctx, earned("whole", "", 1, whole))
	require.NoError(t, err)
	_, err = l.Append(ctx, earned("frac", "", 2, frac))
	require.NoError(t, err)

	all, err := l.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ledger.TransactionID("frac"), all[0].ID, "the fractional entry is newer")
	assert.Equal(t, ledger.TransactionID("whole"), all[1].ID)

	inRange, err := l.ListInRange(ctx, whole, whole)
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, ledger.TransactionID("whole"), inRange[0].ID)

	sum, err := l.SumInRange(ctx, ledger.KindEarned, whole, frac)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum)
}

func TestLedgerStore_AppendFillsZeroTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.Ledger().Append(ctx, ledger.Transaction{
		ID:     "tx-1",
		Kind:   ledger.KindEarned,
		Amount: 10,
	})
	require.NoError(t, err)
	assert.False(t, tx.Timestamp.IsZero())
}

func TestLedgerStore_DuplicateIdempotencyKeyRejected(t *testing.T) {
	// GIVEN: A transaction stored under a key
	// WHEN: Appending a different transaction with the same key
	// THEN: The UNIQUE constraint surfaces as a domain error

	store := newTestStore(t)
	ctx := context.Background()
	l := store.Ledger()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	_, err := l.Append(ctx, earned("a", "complete:t1:1", 10, at))
	require.NoError(t, err)

	_, err = l.Append(ctx, earned("b", "complete:t1:1", 10, at))
	assert.ErrorIs(t, err, ledger.ErrDuplicateIdempotencyKey)

	exists, err := l.Exists(ctx, "complete:t1:1")
	require.NoError(t, err)
	assert.True(t, exists)

	// Empty keys never collide.
	_, err = l.Append(ctx, earned("c", "", 10, at))
	require.NoError(t, err)
	_, err = l.Append(ctx, earned("d", "", 10, at))
	require.NoError(t, err)
}

func TestLedgerStore_AppendBatchIsAtomic(t *testing.T) {
	// GIVEN: One transaction already stored under key "dup"
	// WHEN: A batch contains a transaction reusing that key
	// THEN: No element of the batch survives

	store := newTestStore(t)
	ctx := context.Background()
	l := store.Ledger()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	_, err := l.Append(ctx, earned("seed", "dup", 10, at))
	require.NoError(t, err)

	_, err = l.AppendBatch(ctx, []ledger.Transaction{
		earned("x", "", 5, at),
		earned("y", "dup", 5, at),
		earned("z", "", 5, at),
	})
	assert.ErrorIs(t, err, ledger.ErrDuplicateIdempotencyKey)

	count, err := l.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "only the seed survives")
}

func TestLedgerStore_SumsAndRanges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	l := store.Ledger()

	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	_, err := l.Append(ctx, earned("a", "", 10, base))
	require.NoError(t, err)
	_, err = l.Append(ctx, earned("b", "", 20, base.Add(1*time.Hour)))
	require.NoError(t, err)
	_, err = l.Append(ctx, ledger.Transaction{
		ID: "s1", Label: "Instagram", Kind: ledger.KindSpent, Amount: 5,
		Timestamp: base.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	sum, err := l.Sum(ctx, ledger.KindEarned)
	require.NoError(t, err)
	assert.Equal(t, int64(30), sum)

	sum, err = l.Sum(ctx, ledger.KindSpent)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sum)

	// Range bounds are inclusive on both ends.
	sum, err = l.SumInRange(ctx, ledger.KindEarned, base, base.Add(1*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(30), sum)

	inRange, err := l.ListInRange(ctx, base.Add(30*time.Minute), base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, ledger.TransactionID("b"), inRange[0].ID)

	spends, err := l.ListByKind(ctx, ledger.KindSpent)
	require.NoError(t, err)
	require.Len(t, spends, 1)
	assert.Equal(t, "Instagram", spends[0].Label)

	n, err := l.CountByKind(ctx, ledger.KindEarned)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestLedgerStore_GetDeleteRelabelClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	l := store.Ledger()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	stored, err := l.Append(ctx, earned("a", "k1", 10, at))
	require.NoError(t, err)

	got, err := l.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Seq, got.Seq)
	assert.Equal(t, "task-a", got.TaskID)
	assert.True(t, got.Timestamp.Equal(at))

	// Rename propagation touches task_name only.
	require.NoError(t, l.RelabelByTask(ctx, "task-a", "Renamed"))
	got, err = l.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.TaskName)
	assert.Equal(t, int64(10), got.Amount)

	require.NoError(t, l.Delete(ctx, stored.ID))
	_, err = l.Get(ctx, stored.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
	assert.ErrorIs(t, l.Delete(ctx, stored.ID), ledger.ErrTransactionNotFound)

	// Deleting the row frees its idempotency key.
	_, err = l.Append(ctx, earned("a2", "k1", 10, at))
	require.NoError(t, err)

	require.NoError(t, l.ClearAll(ctx))
	count, err := l.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

// =============================================================================
// TASK FACADE TESTS
// =============================================================================

func TestTaskStore_RoundTrip(t *testing.T) {
	// GIVEN: A task with links and a completion timestamp
	// WHEN: Creating, reading back, updating, and deleting it
	// THEN: Every field survives the JSON and timestamp encoding

	store := newTestStore(t)
	ctx := context.Background()
	ts := store.Tasks()

	at := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)
	done := at.Add(2 * time.Hour)
	task := tasks.Task{
		ID:          "t1",
		Title:       "Read one chapter",
		Description: "SICP ch. 2",
		Points:      20,
		Category:    tasks.CategoryIntelligence,
		Priority:    3,
		Links:       []tasks.Link{{URL: "https://example.com/sicp", Title: "SICP", Type: "book"}},
		IsCompleted: true,
		CompletedAt: &done,
		CreatedAt:   at,
	}

	_, err := ts.Create(ctx, task)
	require.NoError(t, err)

	got, err := ts.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, task.Links, got.Links)
	assert.True(t, got.IsCompleted)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(done))
	assert.True(t, got.CreatedAt.Equal(at))

	got.IsCompleted = false
	got.CompletedAt = nil
	got.Title = "Read two chapters"
	_, err = ts.Update(ctx, got)
	require.NoError(t, err)

	got, err = ts.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Read two chapters", got.Title)
	assert.False(t, got.IsCompleted)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, ts.Delete(ctx, "t1"))
	_, err = ts.Get(ctx, "t1")
	assert.ErrorIs(t, err, tasks.ErrTaskNotFound)
	assert.ErrorIs(t, ts.Delete(ctx, "t1"), tasks.ErrTaskNotFound)

	_, err = ts.Update(ctx, task)
	assert.ErrorIs(t, err, tasks.ErrTaskNotFound)
}

func TestTaskStore_ListFiltersAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := store.Tasks()

	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	seed := []tasks.Task{
		{ID: "low", Title: "Low", Points: 5, Category: tasks.CategoryPersonal, Priority: 1, CreatedAt: base},
		{ID: "high", Title: "High", Points: 5, Category: tasks.CategoryWork, Priority: 5, CreatedAt: base},
		{ID: "done", Title: "Done", Points: 5, Category: tasks.CategoryWork, Priority: 5,
			IsCompleted: true, CreatedAt: base.Add(time.Minute)},
	}
	for _, task := range seed {
		_, err := ts.Create(ctx, task)
		require.NoError(t, err)
	}

	// Priority descending, then newest first.
	all, err := ts.List(ctx, tasks.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "done", all[0].ID)
	assert.Equal(t, "high", all[1].ID)
	assert.Equal(t, "low", all[2].ID)

	work := tasks.CategoryWork
	filtered, err := ts.List(ctx, tasks.Filter{Category: &work, HideCompleted: true})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "high", filtered[0].ID)
}

// =============================================================================
// APP CATALOG FACADE TESTS
// =============================================================================

func TestAppStore_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	as := store.Apps()

	app := gate.App{ID: "insta", Name: "Instagram", Package: "com.instagram.android",
		Category: gate.CategoryDistraction, PointCost: 25}
	_, err := as.CreateApp(ctx, app)
	require.NoError(t, err)
	_, err = as.CreateApp(ctx, gate.App{ID: "calc", Name: "Calculator",
		Package: "com.android.calculator2", Category: gate.CategoryEssential})
	require.NoError(t, err)

	got, err := as.GetApp(ctx, "insta")
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.PointCost)
	assert.Equal(t, gate.CategoryDistraction, got.Category)
	assert.False(t, got.Free())

	got.PointCost = 40
	_, err = as.UpdateApp(ctx, got)
	require.NoError(t, err)
	got, err = as.GetApp(ctx, "insta")
	require.NoError(t, err)
	assert.Equal(t, int64(40), got.PointCost)

	// Name ascending.
	list, err := as.ListApps(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Calculator", list[0].Name)
	assert.Equal(t, "Instagram", list[1].Name)

	require.NoError(t, as.DeleteApp(ctx, "insta"))
	_, err = as.GetApp(ctx, "insta")
	assert.ErrorIs(t, err, gate.ErrAppNotFound)
	assert.ErrorIs(t, as.DeleteApp(ctx, "insta"), gate.ErrAppNotFound)
	_, err = as.UpdateApp(ctx, app)
	assert.ErrorIs(t, err, gate.ErrAppNotFound)
}

// =============================================================================
// SETTINGS FACADE TESTS
// =============================================================================

func TestSettingsStore_DefaultsUpdateReset(t *testing.T) {
	// GIVEN: A fresh store with no settings row
	// WHEN: Reading, updating, then resetting
	// THEN: Defaults apply before the first write and again after reset

	store := newTestStore(t)
	ctx := context.Background()
	p := store.Settings()

	cfg, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), cfg)

	cfg.BlockBelowThreshold = true
	cfg.PointBlockThreshold = 50
	cfg.AppDrawerDelaySeconds = 30
	require.NoError(t, p.Update(ctx, cfg))

	got, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	// Update is an upsert, not an insert-once.
	got.PointBlockThreshold = 75
	require.NoError(t, p.Update(ctx, got))
	again, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(75), again.PointBlockThreshold)

	require.NoError(t, p.Reset(ctx))
	cfg, err = p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), cfg)
}
