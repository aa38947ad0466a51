/*
coordinator.go - Task completion state machine + ledger coupling

PURPOSE:
  Couples a task's completion toggle to its matching ledger entry. The
  state machine has exactly two transitions:

    INCOMPLETE --complete--> COMPLETE --uncomplete--> INCOMPLETE

  Completing appends an EARNED transaction; the two mutations are one
  logical unit. The earn is written first and the task flag second: if
  the earn fails the task is untouched, and if the flag write fails the
  earn is compensated by deleting it. The launcher can therefore never
  show a completed task with no corresponding transaction.

THE UNCOMPLETE QUESTION:
  The reference launcher does NOT reverse the earned entry when a task
  is un-completed, which allows farming points by toggling. Both
  policies are supported: the default preserves the reference behavior;
  setting reverseOnUncomplete emits a compensating SPENT transaction of
  the task's points instead.

SEE ALSO:
  - types.go: Task model and Store contract
  - ledger/ledger.go: The write path used here
*/
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arise/focus-engine/ledger"
	"github.com/arise/focus-engine/settings"
)

// =============================================================================
// COORDINATOR - The only component that couples tasks to the ledger
// =============================================================================

type Coordinator struct {
	tasks    Store
	ledger   *ledger.Ledger
	settings settings.Provider
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock injects the time source. Tests pin it for determinism.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(tasks Store, l *ledger.Ledger, s settings.Provider, opts ...Option) *Coordinator {
	c := &Coordinator{
		tasks:    tasks,
		ledger:   l,
		settings: s,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// TASK LIFECYCLE
// =============================================================================

// NewTask is the input for AddTask.
type NewTask struct {
	Title       string
	Description string
	Points      int64
	Category    Category
	Priority    int
	Links       []Link
}

// AddTask creates and persists a new incomplete task. The ledger is not
// touched: points exist only once the task is completed.
func (c *Coordinator) AddTask(ctx context.Context, in NewTask) (Task, error) {
	if in.Points < 0 {
		return Task{}, ledger.ErrInvalidAmount
	}
	if !in.Category.Valid() {
		return Task{}, fmt.Errorf("unknown category %q", in.Category)
	}
	t := Task{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Points:      in.Points,
		Category:    in.Category,
		Priority:    in.Priority,
		Links:       in.Links,
		CreatedAt:   c.now().UTC(),
	}
	return c.tasks.Create(ctx, t)
}

// TaskEdit carries the editable fields. Nil pointers leave the stored
// value alone.
type TaskEdit struct {
	Title       *string
	Description *string
	Points      *int64
	Category    *Category
	Priority    *int
	Links       *[]Link
}

// EditTask applies an edit. Renaming a task propagates to the label
// fields of its ledger entries (the single sanctioned ledger mutation);
// kind and amount of past transactions are never changed.
func (c *Coordinator) EditTask(ctx context.Context, id string, edit TaskEdit) (Task, error) {
	t, err := c.tasks.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}

	renamed := false
	if edit.Title != nil && *edit.Title != t.Title {
		t.Title = *edit.Title
		renamed = true
	}
	if edit.Description != nil {
		t.Description = *edit.Description
	}
	if edit.Points != nil {
		if *edit.Points < 0 {
			return Task{}, ledger.ErrInvalidAmount
		}
		t.Points = *edit.Points
	}
	if edit.Category != nil {
		if !edit.Category.Valid() {
			return Task{}, fmt.Errorf("unknown category %q", *edit.Category)
		}
		t.Category = *edit.Category
	}
	if edit.Priority != nil {
		t.Priority = *edit.Priority
	}
	if edit.Links != nil {
		t.Links = *edit.Links
	}

	updated, err := c.tasks.Update(ctx, t)
	if err != nil {
		return Task{}, err
	}
	if renamed {
		if err := c.ledger.Store().RelabelByTask(ctx, t.ID, t.Title); err != nil {
			return Task{}, err
		}
	}
	return updated, nil
}

// DeleteTask removes the task. Historical transactions it generated are
// permanent regardless of task lifecycle: the ledger is never touched.
func (c *Coordinator) DeleteTask(ctx context.Context, id string) error {
	return c.tasks.Delete(ctx, id)
}

// List returns tasks matching the filter.
func (c *Coordinator) List(ctx context.Context, f Filter) ([]Task, error) {
	return c.tasks.List(ctx, f)
}

// Get returns a single task.
func (c *Coordinator) Get(ctx context.Context, id string) (Task, error) {
	return c.tasks.Get(ctx, id)
}

// =============================================================================
// COMPLETION TOGGLE - The coupled mutation
// =============================================================================

// Complete marks a task done and earns its points. Idempotent: calling
// it on a completed task is a no-op producing no second transaction.
func (c *Coordinator) Complete(ctx context.Context, id string) (Task, error) {
	t, err := c.tasks.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if t.IsCompleted {
		return t, nil
	}

	// Earn first. If the append fails the task stays incomplete and the
	// caller sees the failure; the completion is not committed.
	key := fmt.Sprintf("complete:%s:%s", t.ID, uuid.NewString())
	tx, err := c.ledger.Earn(ctx, t.ID, t.Title, t.Points, key)
	if err != nil {
		return Task{}, err
	}

	completedAt := c.now().UTC()
	t.IsCompleted = true
	t.CompletedAt = &completedAt

	updated, err := c.tasks.Update(ctx, t)
	if err != nil {
		// Compensate: without the flag the earn must not stand.
		_ = c.ledger.Store().Delete(ctx, tx.ID)
		return Task{}, err
	}
	return updated, nil
}

// Uncomplete marks a task not done. Idempotent. The earned entry stays
// in the ledger unless the reverseOnUncomplete setting is enabled, in
// which case a compensating SPENT transaction of the task's points is
// appended.
func (c *Coordinator) Uncomplete(ctx context.Context, id string) (Task, error) {
	t, err := c.tasks.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !t.IsCompleted {
		return t, nil
	}

	cfg, err := c.settings.Get(ctx)
	if err != nil {
		return Task{}, err
	}
	var reversal *ledger.Transaction
	if cfg.ReverseOnUncomplete {
		key := fmt.Sprintf("uncomplete:%s:%s", t.ID, uuid.NewString())
		tx, err := c.ledger.Append(ctx, ledger.Transaction{
			TaskID:         t.ID,
			TaskName:       t.Title,
			Kind:           ledger.KindSpent,
			Amount:         t.Points,
			IdempotencyKey: key,
		})
		if err != nil {
			return Task{}, err
		}
		reversal = &tx
	}

	t.IsCompleted = false
	t.CompletedAt = nil
	updated, err := c.tasks.Update(ctx, t)
	if err != nil {
		// Compensate: the reversal must not stand while the task is
		// still flagged complete.
		if reversal != nil {
			_ = c.ledger.Store().Delete(ctx, reversal.ID)
		}
		return Task{}, err
	}
	return updated, nil
}
