/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/arise/focus-engine/gate"
	"github.com/arise/focus-engine/ledger"
	"github.com/arise/focus-engine/tasks"
)

// =============================================================================
// TASKS
// =============================================================================

// TaskDTO represents a task in API responses.
type TaskDTO struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Points      int64        `json:"points"`
	Category    string       `json:"category"`
	Priority    int          `json:"priority"`
	Links       []tasks.Link `json:"links,omitempty"`
	IsCompleted bool         `json:"isCompleted"`
	CompletedAt *string      `json:"completedAt,omitempty"`
	CreatedAt   string       `json:"createdAt"`
}

func toTaskDTO(t tasks.Task) TaskDTO {
	dto := TaskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Points:      t.Points,
		Category:    string(t.Category),
		Priority:    t.Priority,
		Links:       t.Links,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &s
	}
	return dto
}

func toTaskDTOs(ts []tasks.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(ts))
	for i, t := range ts {
		dtos[i] = toTaskDTO(t)
	}
	return dtos
}

// CreateTaskRequest is the request to create a task.
type CreateTaskRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Points      int64        `json:"points"`
	Category    string       `json:"category"`
	Priority    int          `json:"priority"`
	Links       []tasks.Link `json:"links"`
}

// UpdateTaskRequest carries a partial task edit. Absent fields leave
// the stored value alone.
type UpdateTaskRequest struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Points      *int64        `json:"points"`
	Category    *string       `json:"category"`
	Priority    *int          `json:"priority"`
	Links       *[]tasks.Link `json:"links"`
}

// =============================================================================
// LEDGER
// =============================================================================

// TransactionDTO represents a point transaction in API responses.
type TransactionDTO struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Amount    int64  `json:"amount"`
	Signed    int64  `json:"signed"`
	TaskID    string `json:"taskId,omitempty"`
	TaskName  string `json:"taskName,omitempty"`
	Label     string `json:"label,omitempty"`
	Timestamp string `json:"timestamp"`
	Seq       int64  `json:"seq"`
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:        string(tx.ID),
		Kind:      string(tx.Kind),
		Amount:    tx.Amount,
		Signed:    tx.Signed(),
		TaskID:    tx.TaskID,
		TaskName:  tx.TaskName,
		Label:     tx.Label,
		Timestamp: tx.Timestamp.Format(time.RFC3339Nano),
		Seq:       tx.Seq,
	}
}

// TransactionPageDTO is a paginated transaction listing.
type TransactionPageDTO struct {
	Transactions []TransactionDTO `json:"transactions"`
	Total        int              `json:"total"`
	Limit        int              `json:"limit"`
	Offset       int              `json:"offset"`
}

// DaySummaryDTO is one day's earned/spent totals.
type DaySummaryDTO struct {
	Date   string `json:"date"`
	Earned int64  `json:"earned"`
	Spent  int64  `json:"spent"`
	Net    int64  `json:"net"`
}

// =============================================================================
// BALANCE & TIERS
// =============================================================================

// TierDTO represents a rank tier in API responses.
type TierDTO struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MinPoints   int64  `json:"minPoints"`
	MaxPoints   *int64 `json:"maxPoints,omitempty"` // absent on the terminal tier
}

func toTierDTO(t ledger.Tier) TierDTO {
	dto := TierDTO{
		Name:        t.Name,
		Description: t.Description,
		MinPoints:   t.MinPoints,
	}
	if !t.Terminal() {
		max := t.MaxPoints
		dto.MaxPoints = &max
	}
	return dto
}

// BalanceSummaryDTO is the home-screen balance block.
type BalanceSummaryDTO struct {
	Balance        int64   `json:"balance"`
	Available      int64   `json:"available"`
	Tier           TierDTO `json:"tier"`
	Progress       float64 `json:"progress"`
	TrendDirection string  `json:"trendDirection"`
	TrendDelta     int64   `json:"trendDelta"`
}

// =============================================================================
// APPS
// =============================================================================

// AppDTO represents a gated app in API responses.
type AppDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Package   string `json:"package"`
	Category  string `json:"category"`
	PointCost int64  `json:"pointCost"`
}

func toAppDTO(a gate.App) AppDTO {
	return AppDTO{
		ID:        a.ID,
		Name:      a.Name,
		Package:   a.Package,
		Category:  string(a.Category),
		PointCost: a.PointCost,
	}
}

// SaveAppRequest is the request to create or update an app. A nil
// PointCost takes the category default.
type SaveAppRequest struct {
	Name      string `json:"name"`
	Package   string `json:"package"`
	Category  string `json:"category"`
	PointCost *int64 `json:"pointCost"`
}

// =============================================================================
// GATE SESSIONS
// =============================================================================

// GateSessionDTO is a gate session snapshot.
type GateSessionDTO struct {
	ID        string  `json:"id"`
	State     string  `json:"state"`
	Remaining int     `json:"remaining"`
	App       *AppDTO `json:"app,omitempty"`
}

func toGateSessionDTO(id string, snap gate.StateChange) GateSessionDTO {
	dto := GateSessionDTO{
		ID:        id,
		State:     string(snap.State),
		Remaining: snap.Remaining,
	}
	if snap.App != nil {
		app := toAppDTO(*snap.App)
		dto.App = &app
	}
	return dto
}

// SelectAppRequest names the app to select in a gate session.
type SelectAppRequest struct {
	AppID string `json:"appId"`
}

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
