/*
Package tasks provides the task model and the completion coordinator.

PURPOSE:
  Tasks are the earning side of the focus economy: each carries a point
  reward that lands in the ledger exactly when the task is completed.
  The coordinator in coordinator.go is the only place where task state
  and ledger writes are coupled.

KEY CONCEPTS IN THIS FILE (types.go):
  - Task: User-defined work item with a fixed point reward
  - Category: Closed enumeration used for grouping, never for ledger
    semantics
  - Link: Reference resources attached to a task

SEE ALSO:
  - coordinator.go: Completion state machine + ledger coupling
  - store/sqlite: Persistent store implementation
*/
package tasks

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// CATEGORY - Closed grouping enumeration
// =============================================================================

type Category string

const (
	CategoryUrgent       Category = "urgent"
	CategoryWork         Category = "work"
	CategoryPersonal     Category = "personal"
	CategoryIntelligence Category = "intelligence"
	CategoryPhysical     Category = "physical"
	CategoryWealth       Category = "wealth"
	CategoryOther        Category = "other"
)

// Categories lists the closed set, in display order.
func Categories() []Category {
	return []Category{
		CategoryUrgent, CategoryWork, CategoryPersonal,
		CategoryIntelligence, CategoryPhysical, CategoryWealth,
		CategoryOther,
	}
}

// Valid reports whether c is a known category. Unknown strings never
// silently fall into a default bucket.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// =============================================================================
// LINK - Reference resource attached to a task
// =============================================================================

type Link struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Description string `json:"description,omitempty"`
}

// =============================================================================
// TASK - User-defined work item
// =============================================================================

type Task struct {
	ID          string
	Title       string
	Description string

	// Points is the reward, fixed at creation. Editable only by an
	// explicit edit, never by completion toggling.
	Points   int64
	Category Category
	Priority int
	Links    []Link

	IsCompleted bool
	// CompletedAt is set exactly when IsCompleted flips false->true and
	// cleared on true->false.
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// =============================================================================
// STORE - Task persistence contract
// =============================================================================

var ErrTaskNotFound = errors.New("task not found")

// Filter narrows List results. Nil/zero fields match everything.
type Filter struct {
	Category      *Category
	HideCompleted bool
}

type Store interface {
	// Create persists a new task. The id must already be assigned.
	Create(ctx context.Context, t Task) (Task, error)

	// Get returns the task or ErrTaskNotFound.
	Get(ctx context.Context, id string) (Task, error)

	// Update overwrites the stored task or returns ErrTaskNotFound.
	Update(ctx context.Context, t Task) (Task, error)

	// Delete removes the task or returns ErrTaskNotFound.
	Delete(ctx context.Context, id string) error

	// List returns tasks matching the filter, ordered by priority
	// descending then creation time descending.
	List(ctx context.Context, f Filter) ([]Task, error)
}
