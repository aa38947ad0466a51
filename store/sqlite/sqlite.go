/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements every persistence contract of the engine on top of a
  single SQLite file. The contracts overlap in method names (Get,
  Delete), so the Store exposes one typed facade per contract instead
  of implementing them all on one struct:

    store.Ledger()   ledger.Store       point transactions
    store.Tasks()    tasks.Store        task records
    store.Apps()     gate.AppStore      gated app catalog
    store.Settings() settings.Provider  user settings

KEY TABLES:
  transactions: Append-mostly ledger of all point movements. seq is the
                AUTOINCREMENT primary key, the tie-break for identical
                timestamps. idempotency_key is UNIQUE, so duplicate
                appends fail at the engine instead of racing a check.
  tasks:        Task records; links stored as a JSON column.
  apps:         Gated app catalog.
  settings:     Single-row JSON blob of the user settings.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of WAL mode:
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/focus.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := ledger.New(store.Ledger())

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Ledger contract definition
  - ledger/store/memory.go: In-memory counterpart for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/arise/focus-engine/gate"
	"github.com/arise/focus-engine/ledger"
	"github.com/arise/focus-engine/settings"
	"github.com/arise/focus-engine/tasks"
)

// timeFormat pads fractional seconds to nine digits so that stored
// timestamps sort lexicographically in chronological order. RFC3339Nano
// would drop trailing zeros and make a whole-second value string-sort
// after a fractional one in the same second.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store owns the database connection. All facades share its lock.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ledger returns the transaction persistence facade.
func (s *Store) Ledger() ledger.Store { return &ledgerStore{s} }

// Tasks returns the task persistence facade.
func (s *Store) Tasks() tasks.Store { return &taskStore{s} }

// Apps returns the app catalog facade.
func (s *Store) Apps() gate.AppStore { return &appStore{s} }

// Settings returns the settings facade.
func (s *Store) Settings() settings.Provider { return &settingsStore{s} }

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Point transactions (append-mostly ledger)
	CREATE TABLE IF NOT EXISTS transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		task_id TEXT,
		task_name TEXT,
		label TEXT,
		kind TEXT NOT NULL,
		amount INTEGER NOT NULL,
		idempotency_key TEXT UNIQUE,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_timestamp
		ON transactions(timestamp DESC, seq DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_kind
		ON transactions(kind);
	CREATE INDEX IF NOT EXISTS idx_transactions_task
		ON transactions(task_id) WHERE task_id IS NOT NULL;

	-- Tasks
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		points INTEGER NOT NULL,
		category TEXT NOT NULL,
		priority INTEGER DEFAULT 0,
		links_json TEXT,
		is_completed BOOLEAN DEFAULT FALSE,
		completed_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_category
		ON tasks(category);
	CREATE INDEX IF NOT EXISTS idx_tasks_order
		ON tasks(priority DESC, created_at DESC);

	-- Gated app catalog
	CREATE TABLE IF NOT EXISTS apps (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		package TEXT NOT NULL,
		category TEXT NOT NULL,
		point_cost INTEGER NOT NULL DEFAULT 0
	);

	-- User settings (single row)
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER FACADE (ledger.Store)
// =============================================================================

type ledgerStore struct{ s *Store }

var _ ledger.Store = (*ledgerStore)(nil)

// Append adds a transaction to the ledger and returns it with Seq (and
// Timestamp, when unset) filled in.
func (l *ledgerStore) Append(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	return l.appendTx(ctx, l.s.db, tx)
}

func (l *ledgerStore) appendTx(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, tx ledger.Transaction) (ledger.Transaction, error) {
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO transactions
		(id, task_id, task_name, label, kind, amount, idempotency_key, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := db.ExecContext(ctx, query,
		string(tx.ID),
		nullString(tx.TaskID),
		nullString(tx.TaskName),
		nullString(tx.Label),
		string(tx.Kind),
		tx.Amount,
		nullString(tx.IdempotencyKey),
		tx.Timestamp.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.Transaction{}, ledger.ErrDuplicateIdempotencyKey
		}
		return ledger.Transaction{}, fmt.Errorf("failed to append transaction: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to read seq: %w", err)
	}
	tx.Seq = seq
	return tx, nil
}

// AppendBatch adds multiple transactions atomically. Either all succeed
// or none do.
func (l *ledgerStore) AppendBatch(ctx context.Context, txs []ledger.Transaction) ([]ledger.Transaction, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	// Reject duplicate idempotency keys within the batch before touching
	// the database.
	keys := make(map[string]bool)
	for _, tx := range txs {
		if tx.IdempotencyKey != "" {
			if keys[tx.IdempotencyKey] {
				return nil, ledger.ErrDuplicateIdempotencyKey
			}
			keys[tx.IdempotencyKey] = true
		}
	}

	sqlTx, err := l.s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	out := make([]ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		stored, err := l.appendTx(ctx, sqlTx, tx)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return out, nil
}

const txColumns = `seq, id, task_id, task_name, label, kind, amount, idempotency_key, timestamp`

// Get returns the transaction with the given id.
func (l *ledgerStore) Get(ctx context.Context, id ledger.TransactionID) (ledger.Transaction, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	row := l.s.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, string(id))
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tx, err
}

// ListAll returns every transaction, newest first.
func (l *ledgerStore) ListAll(ctx context.Context) ([]ledger.Transaction, error) {
	return l.list(ctx,
		`SELECT `+txColumns+` FROM transactions ORDER BY timestamp DESC, seq DESC`)
}

// ListByKind returns transactions of one kind, newest first.
func (l *ledgerStore) ListByKind(ctx context.Context, kind ledger.Kind) ([]ledger.Transaction, error) {
	return l.list(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE kind = ? ORDER BY timestamp DESC, seq DESC`,
		string(kind))
}

// ListInRange returns transactions with from <= timestamp <= to, newest
// first.
func (l *ledgerStore) ListInRange(ctx context.Context, from, to time.Time) ([]ledger.Transaction, error) {
	return l.list(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE timestamp >= ? AND timestamp <= ?
		 ORDER BY timestamp DESC, seq DESC`,
		from.UTC().Format(timeFormat), to.UTC().Format(timeFormat))
}

func (l *ledgerStore) list(ctx context.Context, query string, args ...any) ([]ledger.Transaction, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	rows, err := l.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// Sum returns the total magnitude of one kind.
func (l *ledgerStore) Sum(ctx context.Context, kind ledger.Kind) (int64, error) {
	return l.scalar(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE kind = ?`, string(kind))
}

// SumInRange returns the total magnitude of one kind inside [from, to].
func (l *ledgerStore) SumInRange(ctx context.Context, kind ledger.Kind, from, to time.Time) (int64, error) {
	return l.scalar(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE kind = ? AND timestamp >= ? AND timestamp <= ?`,
		string(kind), from.UTC().Format(timeFormat), to.UTC().Format(timeFormat))
}

// Count returns the total number of transactions.
func (l *ledgerStore) Count(ctx context.Context) (int64, error) {
	return l.scalar(ctx, `SELECT COUNT(*) FROM transactions`)
}

// CountByKind returns the number of transactions of one kind.
func (l *ledgerStore) CountByKind(ctx context.Context, kind ledger.Kind) (int64, error) {
	return l.scalar(ctx, `SELECT COUNT(*) FROM transactions WHERE kind = ?`, string(kind))
}

func (l *ledgerStore) scalar(ctx context.Context, query string, args ...any) (int64, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	var n int64
	if err := l.s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to aggregate transactions: %w", err)
	}
	return n, nil
}

// RelabelByTask updates TaskName on every transaction linked to the task.
func (l *ledgerStore) RelabelByTask(ctx context.Context, taskID, taskName string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	_, err := l.s.db.ExecContext(ctx,
		`UPDATE transactions SET task_name = ? WHERE task_id = ?`, taskName, taskID)
	if err != nil {
		return fmt.Errorf("failed to relabel transactions: %w", err)
	}
	return nil
}

// Delete removes a transaction by id.
func (l *ledgerStore) Delete(ctx context.Context, id ledger.TransactionID) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	res, err := l.s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrTransactionNotFound
	}
	return nil
}

// ClearAll wipes the ledger.
func (l *ledgerStore) ClearAll(ctx context.Context) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if _, err := l.s.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	return nil
}

// Exists checks if an idempotency key has been used.
func (l *ledgerStore) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	if idempotencyKey == "" {
		return false, nil
	}
	n, err := l.scalar(ctx,
		`SELECT COUNT(*) FROM transactions WHERE idempotency_key = ?`, idempotencyKey)
	return n > 0, err
}

func scanTransaction(row interface{ Scan(dest ...any) error }) (ledger.Transaction, error) {
	var (
		tx             ledger.Transaction
		id             string
		taskID         sql.NullString
		taskName       sql.NullString
		label          sql.NullString
		kind           string
		idempotencyKey sql.NullString
		timestamp      string
	)

	err := row.Scan(
		&tx.Seq, &id, &taskID, &taskName, &label,
		&kind, &tx.Amount, &idempotencyKey, &timestamp,
	)
	if err != nil {
		return ledger.Transaction{}, err
	}

	tx.ID = ledger.TransactionID(id)
	tx.TaskID = taskID.String
	tx.TaskName = taskName.String
	tx.Label = label.String
	tx.Kind = ledger.Kind(kind)
	tx.IdempotencyKey = idempotencyKey.String
	tx.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("corrupt timestamp %q: %w", timestamp, err)
	}
	return tx, nil
}

// =============================================================================
// TASK FACADE (tasks.Store)
// =============================================================================

type taskStore struct{ s *Store }

var _ tasks.Store = (*taskStore)(nil)

const taskColumns = `id, title, description, points, category, priority, links_json, is_completed, completed_at, created_at`

// Create persists a new task.
func (t *taskStore) Create(ctx context.Context, task tasks.Task) (tasks.Task, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	linksJSON, err := json.Marshal(task.Links)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("failed to encode links: %w", err)
	}

	_, err = t.s.db.ExecContext(ctx, `
		INSERT INTO tasks
		(id, title, description, points, category, priority, links_json, is_completed, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, task.Points, string(task.Category),
		task.Priority, string(linksJSON), task.IsCompleted, nullTime(task.CompletedAt),
		task.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// Get returns a task by id.
func (t *taskStore) Get(ctx context.Context, id string) (tasks.Task, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	row := t.s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return tasks.Task{}, tasks.ErrTaskNotFound
	}
	return task, err
}

// Update replaces the stored task.
func (t *taskStore) Update(ctx context.Context, task tasks.Task) (tasks.Task, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	linksJSON, err := json.Marshal(task.Links)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("failed to encode links: %w", err)
	}

	res, err := t.s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, points = ?, category = ?,
		       priority = ?, links_json = ?, is_completed = ?, completed_at = ?
		WHERE id = ?`,
		task.Title, task.Description, task.Points, string(task.Category), task.Priority,
		string(linksJSON), task.IsCompleted, nullTime(task.CompletedAt), task.ID,
	)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return tasks.Task{}, err
	}
	if n == 0 {
		return tasks.Task{}, tasks.ErrTaskNotFound
	}
	return task, nil
}

// Delete removes a task. Ledger history stays untouched.
func (t *taskStore) Delete(ctx context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	res, err := t.s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return tasks.ErrTaskNotFound
	}
	return nil
}

// List returns tasks matching the filter, priority descending then
// newest first.
func (t *taskStore) List(ctx context.Context, f tasks.Filter) ([]tasks.Task, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	query := `SELECT ` + taskColumns + ` FROM tasks`
	var (
		where []string
		args  []any
	)
	if f.Category != nil {
		where = append(where, `category = ?`)
		args = append(args, string(*f.Category))
	}
	if f.HideCompleted {
		where = append(where, `is_completed = FALSE`)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY priority DESC, created_at DESC`

	rows, err := t.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var out []tasks.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func scanTask(row interface{ Scan(dest ...any) error }) (tasks.Task, error) {
	var (
		t           tasks.Task
		description sql.NullString
		category    string
		linksJSON   sql.NullString
		completedAt sql.NullString
		createdAt   string
	)

	err := row.Scan(
		&t.ID, &t.Title, &description, &t.Points, &category,
		&t.Priority, &linksJSON, &t.IsCompleted, &completedAt, &createdAt,
	)
	if err != nil {
		return tasks.Task{}, err
	}

	t.Description = description.String
	t.Category = tasks.Category(category)
	if linksJSON.Valid && linksJSON.String != "" && linksJSON.String != "null" {
		if err := json.Unmarshal([]byte(linksJSON.String), &t.Links); err != nil {
			return tasks.Task{}, fmt.Errorf("corrupt links for task %s: %w", t.ID, err)
		}
	}
	if completedAt.Valid {
		at, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return tasks.Task{}, fmt.Errorf("corrupt completed_at for task %s: %w", t.ID, err)
		}
		t.CompletedAt = &at
	}
	t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("corrupt created_at for task %s: %w", t.ID, err)
	}
	return t, nil
}

// =============================================================================
// APP CATALOG FACADE (gate.AppStore)
// =============================================================================

type appStore struct{ s *Store }

var _ gate.AppStore = (*appStore)(nil)

func (a *appStore) CreateApp(ctx context.Context, app gate.App) (gate.App, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	_, err := a.s.db.ExecContext(ctx, `
		INSERT INTO apps (id, name, package, category, point_cost)
		VALUES (?, ?, ?, ?, ?)`,
		app.ID, app.Name, app.Package, string(app.Category), app.PointCost,
	)
	if err != nil {
		return gate.App{}, fmt.Errorf("failed to create app: %w", err)
	}
	return app, nil
}

func (a *appStore) GetApp(ctx context.Context, id string) (gate.App, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	var (
		app      gate.App
		category string
	)
	err := a.s.db.QueryRowContext(ctx,
		`SELECT id, name, package, category, point_cost FROM apps WHERE id = ?`, id).
		Scan(&app.ID, &app.Name, &app.Package, &category, &app.PointCost)
	if errors.Is(err, sql.ErrNoRows) {
		return gate.App{}, gate.ErrAppNotFound
	}
	if err != nil {
		return gate.App{}, fmt.Errorf("failed to get app: %w", err)
	}
	app.Category = gate.AppCategory(category)
	return app, nil
}

func (a *appStore) UpdateApp(ctx context.Context, app gate.App) (gate.App, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	res, err := a.s.db.ExecContext(ctx, `
		UPDATE apps SET name = ?, package = ?, category = ?, point_cost = ?
		WHERE id = ?`,
		app.Name, app.Package, string(app.Category), app.PointCost, app.ID,
	)
	if err != nil {
		return gate.App{}, fmt.Errorf("failed to update app: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return gate.App{}, err
	}
	if n == 0 {
		return gate.App{}, gate.ErrAppNotFound
	}
	return app, nil
}

func (a *appStore) DeleteApp(ctx context.Context, id string) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	res, err := a.s.db.ExecContext(ctx, `DELETE FROM apps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete app: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return gate.ErrAppNotFound
	}
	return nil
}

// ListApps returns the full catalog, name ascending.
func (a *appStore) ListApps(ctx context.Context) ([]gate.App, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	rows, err := a.s.db.QueryContext(ctx,
		`SELECT id, name, package, category, point_cost FROM apps ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query apps: %w", err)
	}
	defer rows.Close()

	var out []gate.App
	for rows.Next() {
		var (
			app      gate.App
			category string
		)
		if err := rows.Scan(&app.ID, &app.Name, &app.Package, &category, &app.PointCost); err != nil {
			return nil, err
		}
		app.Category = gate.AppCategory(category)
		out = append(out, app)
	}
	return out, rows.Err()
}

// =============================================================================
// SETTINGS FACADE (settings.Provider)
// =============================================================================

type settingsStore struct{ s *Store }

var _ settings.Provider = (*settingsStore)(nil)

// Get returns the stored settings, falling back to defaults when
// nothing has been saved yet.
func (p *settingsStore) Get(ctx context.Context) (settings.Settings, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	var configJSON string
	err := p.s.db.QueryRowContext(ctx,
		`SELECT config_json FROM settings WHERE id = 1`).Scan(&configJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Defaults(), nil
	}
	if err != nil {
		return settings.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	var cfg settings.Settings
	if err := json.Unmarshal([]byte(configJSON), &cfg); err != nil {
		return settings.Settings{}, fmt.Errorf("corrupt settings: %w", err)
	}
	return cfg, nil
}

// Update persists the settings.
func (p *settingsStore) Update(ctx context.Context, cfg settings.Settings) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	_, err = p.s.db.ExecContext(ctx, `
		INSERT INTO settings (id, config_json) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET config_json = excluded.config_json`,
		string(configJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Reset restores factory defaults.
func (p *settingsStore) Reset(ctx context.Context) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, err := p.s.db.ExecContext(ctx, `DELETE FROM settings WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeFormat), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
