/*
handlers.go - HTTP API handlers for the focus engine

PURPOSE:
  Exposes the points ledger and access gate via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Tasks:
    GET    /api/tasks                    List tasks (?category=, ?hide_completed=)
    POST   /api/tasks                    Create task
    GET    /api/tasks/{id}               Get task
    PUT    /api/tasks/{id}               Edit task
    DELETE /api/tasks/{id}               Delete task (ledger history kept)
    POST   /api/tasks/{id}/complete      Complete task, earn points
    POST   /api/tasks/{id}/uncomplete    Un-complete task

  Balance:
    GET    /api/balance                  Balance, tier, progress, trend
    GET    /api/tiers                    Rank ladder

  Transactions:
    GET    /api/transactions             Paginated history (?kind=, ?from=, ?to=)
    GET    /api/transactions/daily       Per-day earned/spent summaries

  Apps:
    GET/POST /api/apps, GET/PUT/DELETE /api/apps/{id}

  Settings:
    GET/PUT /api/settings, POST /api/settings/reset

  Gate:
    POST   /api/gate/sessions            Open a session (countdown starts)
    GET    /api/gate/sessions/{id}       Session state
    POST   /api/gate/sessions/{id}/select   Select an app
    POST   /api/gate/sessions/{id}/confirm  Confirm paid open (debits)
    POST   /api/gate/sessions/{id}/cancel   Cancel pending confirmation
    DELETE /api/gate/sessions/{id}       Close session

  Admin:
    POST   /api/admin/reset              Wipe the ledger (dev only)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 402: Insufficient points under the strict gate policy
  - 404: Resource not found
  - 409: Conflict (idempotency, duplicate)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arise/focus-engine/gate"
	"github.com/arise/focus-engine/ledger"
	"github.com/arise/focus-engine/settings"
	"github.com/arise/focus-engine/tasks"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Coordinator *tasks.Coordinator
	Ledger      *ledger.Ledger
	Calc        *ledger.Calculator
	Settings    settings.Provider
	Apps        gate.AppStore
	Gate        *gate.Manager

	// TrendWindow is the lookback for the balance trend block.
	TrendWindow time.Duration
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(coord *tasks.Coordinator, l *ledger.Ledger, calc *ledger.Calculator, s settings.Provider, apps gate.AppStore, g *gate.Manager, trendWindow time.Duration) *Handler {
	return &Handler{
		Coordinator: coord,
		Ledger:      l,
		Calc:        calc,
		Settings:    s,
		Apps:        apps,
		Gate:        g,
		TrendWindow: trendWindow,
	}
}

// =============================================================================
// TASK ENDPOINTS
// =============================================================================

// ListTasks returns tasks, honoring the hideCompletedTasks setting
// unless the query overrides it.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var f tasks.Filter
	if c := r.URL.Query().Get("category"); c != "" {
		cat := tasks.Category(c)
		if !cat.Valid() {
			writeError(w, http.StatusBadRequest, "Unknown category", nil)
			return
		}
		f.Category = &cat
	}

	if v := r.URL.Query().Get("hide_completed"); v != "" {
		f.HideCompleted = v == "true" || v == "1"
	} else {
		cfg, err := h.Settings.Get(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
			return
		}
		f.HideCompleted = cfg.HideCompletedTasks
	}

	list, err := h.Coordinator.List(ctx, f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTOs(list))
}

// CreateTask creates a new incomplete task.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required", nil)
		return
	}
	if !tasks.Category(req.Category).Valid() {
		writeError(w, http.StatusBadRequest, "Unknown category", nil)
		return
	}

	t, err := h.Coordinator.AddTask(r.Context(), tasks.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		Category:    tasks.Category(req.Category),
		Priority:    req.Priority,
		Links:       req.Links,
	})
	if err != nil {
		writeDomainError(w, "Failed to create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(t))
}

// GetTask returns a single task.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Coordinator.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(t))
}

// UpdateTask applies a partial edit.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	edit := tasks.TaskEdit{
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		Priority:    req.Priority,
		Links:       req.Links,
	}
	if req.Category != nil {
		cat := tasks.Category(*req.Category)
		edit.Category = &cat
	}

	t, err := h.Coordinator.EditTask(r.Context(), chi.URLParam(r, "id"), edit)
	if err != nil {
		writeDomainError(w, "Failed to update task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(t))
}

// DeleteTask removes a task. Its ledger history is permanent.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Coordinator.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask marks the task done and earns its points.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Coordinator.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to complete task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(t))
}

// UncompleteTask marks the task not done.
func (h *Handler) UncompleteTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Coordinator.Uncomplete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to uncomplete task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(t))
}

// =============================================================================
// BALANCE ENDPOINTS
// =============================================================================

// GetBalance returns the home-screen balance summary.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Calc.Summary(r.Context(), h.TrendWindow)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to calculate balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceSummaryDTO{
		Balance:        summary.Balance,
		Available:      summary.Available,
		Tier:           toTierDTO(summary.Tier),
		Progress:       summary.Progress.InexactFloat64(),
		TrendDirection: string(summary.Trend.Direction),
		TrendDelta:     summary.Trend.Delta,
	})
}

// ListTiers returns the rank ladder.
func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers := h.Calc.Tiers()
	dtos := make([]TierDTO, len(tiers))
	for i, t := range tiers {
		dtos[i] = toTierDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TRANSACTION ENDPOINTS
// =============================================================================

// ListTransactions returns the point history, newest first, with
// optional kind and time range filters and limit/offset pagination.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		txs []ledger.Transaction
		err error
	)
	switch {
	case q.Get("from") != "" || q.Get("to") != "":
		from, to, perr := parseRange(q.Get("from"), q.Get("to"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid time range (use RFC3339)", perr)
			return
		}
		txs, err = h.Ledger.Store().ListInRange(ctx, from, to)
	case q.Get("kind") != "":
		kind := ledger.Kind(q.Get("kind"))
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "Unknown kind", nil)
			return
		}
		txs, err = h.Ledger.Store().ListByKind(ctx, kind)
	default:
		txs, err = h.Ledger.Store().ListAll(ctx)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	// Kind filter can combine with a time range.
	if k := q.Get("kind"); k != "" && (q.Get("from") != "" || q.Get("to") != "") {
		kind := ledger.Kind(k)
		filtered := txs[:0]
		for _, tx := range txs {
			if tx.Kind == kind {
				filtered = append(filtered, tx)
			}
		}
		txs = filtered
	}

	total := len(txs)
	limit := parseIntDefault(q.Get("limit"), 50)
	offset := parseIntDefault(q.Get("offset"), 0)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := txs[offset:end]

	dtos := make([]TransactionDTO, len(page))
	for i, tx := range page {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, TransactionPageDTO{
		Transactions: dtos,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

// ListDailySummaries returns per-day earned/spent totals over the trend
// window, oldest day first.
func (h *Handler) ListDailySummaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	txs, err := h.Ledger.Store().ListInRange(ctx, now.Add(-h.TrendWindow), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	byDay := make(map[string]*DaySummaryDTO)
	for _, tx := range txs {
		day := tx.Timestamp.UTC().Format("2006-01-02")
		s, ok := byDay[day]
		if !ok {
			s = &DaySummaryDTO{Date: day}
			byDay[day] = s
		}
		switch tx.Kind {
		case ledger.KindEarned:
			s.Earned += tx.Amount
		case ledger.KindSpent:
			s.Spent += tx.Amount
		}
		s.Net = s.Earned - s.Spent
	}

	out := make([]DaySummaryDTO, 0, len(byDay))
	for _, s := range byDay {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// APP CATALOG ENDPOINTS
// =============================================================================

// ListApps returns the gated app catalog.
func (h *Handler) ListApps(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Apps.ListApps(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list apps", err)
		return
	}
	dtos := make([]AppDTO, len(apps))
	for i, a := range apps {
		dtos[i] = toAppDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateApp adds an app to the catalog.
func (h *Handler) CreateApp(w http.ResponseWriter, r *http.Request) {
	var req SaveAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	app, err := appFromRequest(uuid.NewString(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	created, err := h.Apps.CreateApp(r.Context(), app)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create app", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppDTO(created))
}

// GetApp returns a single catalog entry.
func (h *Handler) GetApp(w http.ResponseWriter, r *http.Request) {
	app, err := h.Apps.GetApp(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get app", err)
		return
	}
	writeJSON(w, http.StatusOK, toAppDTO(app))
}

// UpdateApp replaces a catalog entry.
func (h *Handler) UpdateApp(w http.ResponseWriter, r *http.Request) {
	var req SaveAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	app, err := appFromRequest(chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	updated, err := h.Apps.UpdateApp(r.Context(), app)
	if err != nil {
		writeDomainError(w, "Failed to update app", err)
		return
	}
	writeJSON(w, http.StatusOK, toAppDTO(updated))
}

// DeleteApp removes a catalog entry.
func (h *Handler) DeleteApp(w http.ResponseWriter, r *http.Request) {
	if err := h.Apps.DeleteApp(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete app", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// appFromRequest validates and defaults a catalog entry. Essential apps
// are always free; distraction apps with no explicit cost take the
// default.
func appFromRequest(id string, req SaveAppRequest) (gate.App, error) {
	if req.Name == "" {
		return gate.App{}, errors.New("name is required")
	}
	category := gate.AppCategory(req.Category)
	if !category.Valid() {
		return gate.App{}, errors.New("unknown category")
	}

	var cost int64
	switch {
	case category == gate.CategoryEssential:
		cost = 0
	case req.PointCost != nil:
		if *req.PointCost < 0 {
			return gate.App{}, errors.New("pointCost must be non-negative")
		}
		cost = *req.PointCost
	case category == gate.CategoryDistraction:
		cost = gate.DefaultDistractionCost
	}

	return gate.App{
		ID:        id,
		Name:      req.Name,
		Package:   req.Package,
		Category:  category,
		PointCost: cost,
	}, nil
}

// =============================================================================
// SETTINGS ENDPOINTS
// =============================================================================

// GetSettings returns the current settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Settings.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateSettings replaces the settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var cfg settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if cfg.AppDrawerDelaySeconds < 0 || cfg.DistractionAppsDelaySeconds < 0 || cfg.PointBlockThreshold < 0 {
		writeError(w, http.StatusBadRequest, "Delays and threshold must be non-negative", nil)
		return
	}

	if err := h.Settings.Update(r.Context(), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// ResetSettings restores factory defaults.
func (h *Handler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.Settings.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings.Defaults())
}

// =============================================================================
// GATE SESSION ENDPOINTS
// =============================================================================

// OpenGateSession starts a new session; the countdown begins running.
func (h *Handler) OpenGateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Gate.Open(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open gate session", err)
		return
	}
	writeJSON(w, http.StatusCreated, toGateSessionDTO(s.ID, s.Snapshot()))
}

// GetGateSession returns the session's current state.
func (h *Handler) GetGateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.Gate.Get(id)
	if err != nil {
		writeDomainError(w, "Failed to get gate session", err)
		return
	}
	writeJSON(w, http.StatusOK, toGateSessionDTO(id, s.Snapshot()))
}

// SelectGateApp selects an app in an unlocked session.
func (h *Handler) SelectGateApp(w http.ResponseWriter, r *http.Request) {
	var req SelectAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := chi.URLParam(r, "id")
	snap, err := h.Gate.SelectApp(r.Context(), id, req.AppID)
	if err != nil {
		writeDomainError(w, "Failed to select app", err)
		return
	}
	writeJSON(w, http.StatusOK, toGateSessionDTO(id, snap))
}

// ConfirmGateApp confirms the pending paid open, debiting points.
func (h *Handler) ConfirmGateApp(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.Gate.Get(id)
	if err != nil {
		writeDomainError(w, "Failed to confirm", err)
		return
	}

	snap, err := s.Confirm(r.Context())
	if err != nil {
		var insufficient *ledger.InsufficientPointsError
		if errors.As(err, &insufficient) {
			// Session stays in CONFIRM_PENDING; surface the snapshot so
			// the client can offer cancel/retry.
			writeJSON(w, http.StatusPaymentRequired, struct {
				ErrorResponse
				Session GateSessionDTO `json:"session"`
			}{
				ErrorResponse: ErrorResponse{Error: "Insufficient points", Details: err.Error()},
				Session:       toGateSessionDTO(id, snap),
			})
			return
		}
		writeDomainError(w, "Failed to confirm", err)
		return
	}
	writeJSON(w, http.StatusOK, toGateSessionDTO(id, snap))
}

// CancelGateApp abandons the pending confirmation.
func (h *Handler) CancelGateApp(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.Gate.Get(id)
	if err != nil {
		writeDomainError(w, "Failed to cancel", err)
		return
	}
	snap, err := s.Cancel()
	if err != nil {
		writeDomainError(w, "Failed to cancel", err)
		return
	}
	writeJSON(w, http.StatusOK, toGateSessionDTO(id, snap))
}

// CloseGateSession ends the session. Idempotent.
func (h *Handler) CloseGateSession(w http.ResponseWriter, r *http.Request) {
	h.Gate.Close(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// ResetLedger wipes the transaction log. Dev/demo only.
func (h *Handler) ResetLedger(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.Store().ClearAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ledger cleared"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, tasks.ErrTaskNotFound),
		errors.Is(err, gate.ErrAppNotFound),
		errors.Is(err, gate.ErrSessionNotFound),
		ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrDuplicateIdempotencyKey):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, gate.ErrSessionClosed),
		errors.Is(err, gate.ErrNotUnlocked),
		errors.Is(err, gate.ErrNothingPending),
		ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC()
	var err error
	if fromStr != "" {
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
