/*
manager.go - Gate session registry

PURPOSE:
  Owns the live sessions. Opens a session with the delay configured in
  settings, resolves app selections against the catalog, and tears
  sessions down. Sessions are in-memory only: a restart drops them all
  and the countdown starts over.
*/
package gate

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/arise/focus-engine/ledger"
	"github.com/arise/focus-engine/settings"
)

type Manager struct {
	ledger   *ledger.Ledger
	calc     *ledger.Calculator
	settings settings.Provider
	apps     AppStore

	mu       sync.RWMutex
	sessions map[string]*Session

	// driveTickers is off in tests, which call Tick directly.
	driveTickers bool
}

type ManagerOption func(*Manager)

// WithoutTicker disables the per-session ticker goroutine. Tests drive
// the countdown by calling Tick.
func WithoutTicker() ManagerOption {
	return func(m *Manager) { m.driveTickers = false }
}

func NewManager(l *ledger.Ledger, calc *ledger.Calculator, s settings.Provider, apps AppStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		ledger:       l,
		calc:         calc,
		settings:     s,
		apps:         apps,
		sessions:     make(map[string]*Session),
		driveTickers: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a new LOCKED session with the configured drawer delay.
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	cfg, err := m.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	delay := int(cfg.AppDrawerDelaySeconds)

	s := newSession(uuid.NewString(), delay, m.ledger, m.calc, m.settings)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if m.driveTickers && s.Snapshot().State == StateLocked {
		s.start()
	}
	log.Printf("[Gate] Session %s opened, %ds countdown", s.ID, delay)
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// SelectApp resolves the app from the catalog and selects it in the
// session.
func (m *Manager) SelectApp(ctx context.Context, sessionID, appID string) (StateChange, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return StateChange{}, err
	}
	app, err := m.apps.GetApp(ctx, appID)
	if err != nil {
		return StateChange{}, err
	}
	return s.Select(app)
}

// Close ends a session and forgets it. Closing an unknown id is a
// no-op: close must stay idempotent even after the session is gone.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll tears everything down at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
