package tasks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arise/focus-engine/ledger"
	ledgerstore "github.com/arise/focus-engine/ledger/store"
	"github.com/arise/focus-engine/settings"
	"github.com/arise/focus-engine/tasks"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	coordinator *tasks.Coordinator
	taskStore   tasks.Store
	ledgerStore *ledgerstore.Memory
	calc        *ledger.Calculator
	settings    settings.Provider
}

func newFixture(t *testing.T) *fixture {
	mem := ledgerstore.NewMemory()
	eng := ledger.New(mem)
	calc, err := ledger.NewCalculator(mem, ledger.DefaultTiers())
	require.NoError(t, err)

	taskStore := tasks.NewMemory()
	prov := settings.NewMemory()

	return &fixture{
		coordinator: tasks.NewCoordinator(taskStore, eng, prov),
		taskStore:   taskStore,
		ledgerStore: mem,
		calc:        calc,
		settings:    prov,
	}
}

func (f *fixture) addTask(t *testing.T, title string, points int64) tasks.Task {
	task, err := f.coordinator.AddTask(context.Background(), tasks.NewTask{
		Title:    title,
		Points:   points,
		Category: tasks.CategoryIntelligence,
	})
	require.NoError(t, err)
	return task
}

// =============================================================================
// COMPLETION TESTS
// =============================================================================

func TestComplete_EarnsTaskPoints(t *testing.T) {
	// GIVEN: An empty ledger and a 20-point task
	// WHEN: Completing the task
	// THEN: Balance is 20 with exactly one EARNED transaction

	f := newFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "Read", 20)

	done, err := f.coordinator.Complete(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletedAt)

	balance, err := f.calc.CurrentBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance)

	earns, err := f.ledgerStore.ListByKind(ctx, ledger.KindEarned)
	require.NoError(t, err)
	require.Len(t, earns, 1)
	assert.Equal(t, int64(20), earns[0].Amount)
	assert.Equal(t, task.ID, earns[0].TaskID)
	assert.Equal(t, "Read", earns[0].TaskName)
}

func TestComplete_Idempotent(t *testing.T) {
	// GIVEN: A completed task
	// WHEN: Completing it again
	// THEN: No second transaction, completedAt unchanged

	f := newFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "Read", 20)

	first, err := f.coordinator.Complete(ctx, task.ID)
	require.NoError(t, err)
	second, err := f.coordinator.Complete(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, first.CompletedAt, second.CompletedAt)

	count, err := f.ledgerStore.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestComplete_UnknownTask(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.Complete(context.Background(), "missing")
	assert.ErrorIs(t, err, tasks.ErrTaskNotFound)
}

// failingTaskStore lets Get through but fails every write, simulating a
// store outage between the earn and the flag write.
type failingTaskStore struct {
	tasks.Store
}

func (f *failingTaskStore) Update(context.Context, tasks.Task) (tasks.Task, error) {
	return tasks.Task{}, ledger.ErrStoreUnavailable
}

func TestComplete_RollsBackEarnWhenFlagWriteFails(t *testing.T) {
	// GIVEN: A task store that fails on Update
	// WHEN: Completing a task
	// THEN: The error propagates and the earn is rolled back. The task
	// must never look complete with no matching transaction, or vice
	// versa.

	mem := ledgerstore.NewMemory()
	eng := ledger.New(mem)
	inner := tasks.NewMemory()
	coordinator := tasks.NewCoordinator(&failingTaskStore{Store: inner}, eng, settings.NewMemory())

	ctx := context.Background()
	task, err := coordinator.AddTask(ctx, tasks.NewTask{
		Title:    "Read",
		Points:   20,
		Category: tasks.CategoryIntelligence,
	})
	require.NoError(t, err)

	_, err = coordinator.Complete(ctx, task.ID)
	require.ErrorIs(t, err, ledger.ErrStoreUnavailable)

	count, err := mem.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "compensating delete removed the earn")

	stored, err := inner.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCompleted)
}

// intermittentTaskStore lets the first Update through, then fails every
// later write, simulating an outage that hits the uncomplete flag write
// after the completion already committed.
type intermittentTaskStore struct {
	tasks.Store
	updates int
}

func (f *intermittentTaskStore) Update(ctx context.Context, t tasks.Task) (tasks.Task, error) {
	f.updates++
	if f.updates > 1 {
		return tasks.Task{}, ledger.ErrStoreUnavailable
	}
	return f.Store.Update(ctx, t)
}

func TestUncomplete_RollsBackReversalWhenFlagWriteFails(t *testing.T) {
	// GIVEN: reverseOnUncomplete enabled and a task store that fails the
	// uncomplete flag write
	// WHEN: Un-completing a completed task
	// THEN: The error propagates and the compensating spend is rolled
	// back. The task must never stay flagged complete with its earn
	// already reversed.

	mem := ledgerstore.NewMemory()
	eng := ledger.New(mem)
	inner := tasks.NewMemory()
	prov := settings.NewMemory()
	coordinator := tasks.NewCoordinator(&intermittentTaskStore{Store: inner}, eng, prov)

	ctx := context.Background()
	cfg, err := prov.Get(ctx)
	require.NoError(t, err)
	cfg.ReverseOnUncomplete = true
	require.NoError(t, prov.Update(ctx, cfg))

	task, err := coordinator.AddTask(ctx, tasks.NewTask{
		Title:    "Read",
		Points:   20,
		Category: tasks.CategoryIntelligence,
	})
	require.NoError(t, err)

	_, err = coordinator.Complete(ctx, task.ID)
	require.NoError(t, err)

	_, err = coordinator.Uncomplete(ctx, task.ID)
	require.ErrorIs(t, err, ledger.ErrStoreUnavailable)

	stored, err := inner.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted, "flag write failed, task stays complete")

	spends, err := mem.CountByKind(ctx, ledger.KindSpent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), spends, "compensating delete removed the reversal")

	earned, err := mem.Sum(ctx, ledger.KindEarned)
	require.NoError(t, err)
	assert.Equal(t, int64(20), earned, "the original earn is untouched")
}

// =============================================================================
// UNCOMPLETE TESTS
// =============================================================================

func TestUncomplete_DefaultKeepsEarnedEntry(t *testing.T) {
	// GIVEN: A completed task under the default policy
	// WHEN: Un-completing and re-completing it
	// THEN: The original earn stays and the re-complete earns again
	// (the reference toggle-farming behavior, preserved by default)

	f := newFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "Read", 20)

	_, err := f.coordinator.Complete(ctx, task.ID)
	require.NoError(t, err)

	undone, err := f.coordinator.Uncomplete(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, undone.IsCompleted)
	assert.Nil(t, undone.CompletedAt)

	balance, err := f.calc.CurrentBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance, "earn is not reversed by default")

	_, err = f.coordinator.Complete(ctx, task.ID)
	require.NoError(t, err)
	balance, err = f.calc.CurrentBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)
}

func TestUncomplete_ReversePolicyEmitsCompensatingSpend(t *testing.T) {
	// GIVEN: The reverseOnUncomplete setting enabled
	// WHEN: Un-completing a completed task
	// THEN: A compensating SPENT of the task's points lands and the
	// balance returns to zero

	f := newFixture(t)
	ctx := context.Background()

	cfg, err := f.settings.Get(ctx)
	require.NoError(t, err)
	cfg.ReverseOnUncomplete = true
	require.NoError(t, f.settings.Update(ctx, cfg))

	task := f.addTask(t, "Read", 20)
	_, err = f.coordinator.Complete(ctx, task.ID)
	require.NoError(t, err)

	_, err = f.coordinator.Uncomplete(ctx, task.ID)
	require.NoError(t, err)

	balance, err := f.calc.CurrentBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	spends, err := f.ledgerStore.ListByKind(ctx, ledger.KindSpent)
	require.NoError(t, err)
	require.Len(t, spends, 1)
	assert.Equal(t, int64(20), spends[0].Amount)
	assert.Equal(t, task.ID, spends[0].TaskID)
}

func TestUncomplete_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "Read", 20)

	undone, err := f.coordinator.Uncomplete(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, undone.IsCompleted)

	count, err := f.ledgerStore.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "uncomplete of an incomplete task is a no-op")
}

// =============================================================================
// EDIT / DELETE TESTS
// =============================================================================

func TestEditTask_RenamePropagatesToLedger(t *testing.T) {
	// GIVEN: A completed task with a ledger entry
	// WHEN: Renaming the task
	// THEN: The entry's label follows; amount and kind are untouched

	f := newFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "Old name", 20)

	_, err := f.coordinator.Complete(ctx, task.ID)
	require.NoError(t, err)

	newTitle := "New name"
	_, err = f.coordinator.EditTask(ctx, task.ID, tasks.TaskEdit{Title: &newTitle})
	require.NoError(t, err)

	earns, err := f.ledgerStore.ListByKind(ctx, ledger.KindEarned)
	require.NoError(t, err)
	require.Len(t, earns, 1)
	assert.Equal(t, "New name", earns[0].TaskName)
	assert.Equal(t, int64(20), earns[0].Amount)
	assert.Equal(t, ledger.KindEarned, earns[0].Kind)
}

func TestEditTask_RejectsNegativePoints(t *testing.T) {
	f := newFixture(t)
	task := f.addTask(t, "Read", 20)

	bad := int64(-5)
	_, err := f.coordinator.EditTask(context.Background(), task.ID, tasks.TaskEdit{Points: &bad})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestDeleteTask_LedgerHistorySurvives(t *testing.T) {
	// GIVEN: A completed, then deleted task
	// WHEN: Reading the ledger
	// THEN: The earned transaction is still there

	f := newFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "Read", 20)

	_, err := f.coordinator.Complete(ctx, task.ID)
	require.NoError(t, err)
	require.NoError(t, f.coordinator.DeleteTask(ctx, task.ID))

	_, err = f.coordinator.Get(ctx, task.ID)
	assert.ErrorIs(t, err, tasks.ErrTaskNotFound)

	balance, err := f.calc.CurrentBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance, "historical transactions are permanent")
}

// =============================================================================
// LISTING TESTS
// =============================================================================

func TestList_FilterAndOrdering(t *testing.T) {
	// GIVEN: Tasks with mixed priorities and one completed
	// WHEN: Listing with hide-completed
	// THEN: Completed tasks are hidden; higher priority first

	f := newFixture(t)
	ctx := context.Background()

	low, err := f.coordinator.AddTask(ctx, tasks.NewTask{
		Title: "Low", Points: 5, Category: tasks.CategoryOther, Priority: 1,
	})
	require.NoError(t, err)
	high, err := f.coordinator.AddTask(ctx, tasks.NewTask{
		Title: "High", Points: 5, Category: tasks.CategoryOther, Priority: 9,
	})
	require.NoError(t, err)
	done, err := f.coordinator.AddTask(ctx, tasks.NewTask{
		Title: "Done", Points: 5, Category: tasks.CategoryOther, Priority: 5,
	})
	require.NoError(t, err)
	_, err = f.coordinator.Complete(ctx, done.ID)
	require.NoError(t, err)

	list, err := f.coordinator.List(ctx, tasks.Filter{HideCompleted: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, high.ID, list[0].ID)
	assert.Equal(t, low.ID, list[1].ID)
}

func TestAddTask_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coordinator.AddTask(ctx, tasks.NewTask{
		Title: "Bad", Points: -1, Category: tasks.CategoryOther,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = f.coordinator.AddTask(ctx, tasks.NewTask{
		Title: "Bad", Points: 1, Category: "chores",
	})
	assert.Error(t, err)
}

func TestCoordinator_WithClockPinsCompletedAt(t *testing.T) {
	mem := ledgerstore.NewMemory()
	eng := ledger.New(mem)
	fixed := time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC)
	coordinator := tasks.NewCoordinator(tasks.NewMemory(), eng, settings.NewMemory(),
		tasks.WithClock(func() time.Time { return fixed }))

	ctx := context.Background()
	task, err := coordinator.AddTask(ctx, tasks.NewTask{
		Title: "Read", Points: 20, Category: tasks.CategoryIntelligence,
	})
	require.NoError(t, err)

	done, err := coordinator.Complete(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(fixed))
	assert.True(t, done.CreatedAt.Equal(fixed))
}
