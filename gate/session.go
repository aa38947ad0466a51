/*
session.go - Access gate state machine

PURPOSE:
  One Session per opening of the gated app surface. The machine:

    LOCKED(remaining) -> UNLOCKED -> FREE_OPEN
                                  -> CONFIRM_PENDING(app) -> DEBITED_OPEN
                                                          -> UNLOCKED (cancel)
    any state -> CLOSED

  The countdown decrements one second per tick and fires UNLOCKED
  exactly once at zero. Ticks come from an explicit Tick method; the
  manager drives it with a time.Ticker goroutine, tests call it
  directly. Sessions are never persisted: closing during LOCKED
  discards the partial countdown and a new session starts over from the
  full configured delay.

KEY RULES:
  - Zero-cost select goes straight to FREE_OPEN with no ledger touch.
  - Paid select goes to CONFIRM_PENDING regardless of balance; only an
    explicit confirm appends the SPENT transaction. Reselecting while a
    confirmation is pending replaces the pending app (last-write-wins).
  - The strict blocking policy is a settings rule evaluated at confirm
    time, not a property of the machine: when it rejects, the session
    stays in CONFIRM_PENDING so the user can cancel or pick again.
  - Close is idempotent, valid in every state, and releases the ticker
    and all subscriber channels.

SEE ALSO:
  - manager.go: Session lifecycle + ticker ownership
  - ledger/balance.go: Available points consulted by the strict policy
*/
package gate

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arise/focus-engine/ledger"
	"github.com/arise/focus-engine/settings"
)

// State names a position in the gate machine.
type State string

const (
	StateLocked         State = "locked"
	StateUnlocked       State = "unlocked"
	StateFreeOpen       State = "free_open"
	StateConfirmPending State = "confirm_pending"
	StateDebitedOpen    State = "debited_open"
	StateClosed         State = "closed"
)

var (
	ErrSessionClosed   = errors.New("gate session closed")
	ErrNotUnlocked     = errors.New("gate session not unlocked")
	ErrNothingPending  = errors.New("no app pending confirmation")
	ErrSessionNotFound = errors.New("gate session not found")
)

// StateChange is pushed to subscribers on every transition.
type StateChange struct {
	State     State `json:"state"`
	Remaining int   `json:"remaining"`
	App       *App  `json:"app,omitempty"`
}

// Session is a single run of the gate machine. All methods are safe
// for concurrent use.
type Session struct {
	ID string

	ledger   *ledger.Ledger
	calc     *ledger.Calculator
	settings settings.Provider

	mu          sync.Mutex
	state       State
	remaining   int
	pending     *App // CONFIRM_PENDING selection
	opened      *App // FREE_OPEN / DEBITED_OPEN app
	subscribers []chan StateChange

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
}

func newSession(id string, delaySeconds int, l *ledger.Ledger, calc *ledger.Calculator, s settings.Provider) *Session {
	state := StateLocked
	if delaySeconds <= 0 {
		delaySeconds = 0
		state = StateUnlocked
	}
	return &Session{
		ID:        id,
		ledger:    l,
		calc:      calc,
		settings:  s,
		state:     state,
		remaining: delaySeconds,
		stop:      make(chan struct{}),
	}
}

// Snapshot returns the current state without mutating it.
func (s *Session) Snapshot() StateChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() StateChange {
	app := s.pending
	if app == nil {
		app = s.opened
	}
	return StateChange{State: s.state, Remaining: s.remaining, App: app}
}

// Subscribe registers a channel that receives every subsequent state
// change. The channel is closed with the session.
func (s *Session) Subscribe() <-chan StateChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan StateChange, 8)
	if s.state == StateClosed {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// notifyLocked fans the current snapshot out to subscribers. Slow
// subscribers drop updates rather than block the machine.
func (s *Session) notifyLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

// =============================================================================
// COUNTDOWN
// =============================================================================

// Tick advances the countdown by one second. It is a no-op outside
// LOCKED, so the UNLOCKED transition fires exactly once.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLocked {
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.state = StateUnlocked
	}
	s.notifyLocked()
}

// start spins the ticker goroutine that calls Tick once per second
// until the session unlocks or closes.
func (s *Session) start() {
	s.ticker = time.NewTicker(1 * time.Second)
	s.wg.Add(1)
	go s.run()
}

func (s *Session) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.Tick()
			s.mu.Lock()
			done := s.state != StateLocked
			s.mu.Unlock()
			if done {
				s.ticker.Stop()
				return
			}
		case <-s.stop:
			return
		}
	}
}

// =============================================================================
// SELECTION, CONFIRM, CANCEL
// =============================================================================

// Select picks an app from the unlocked drawer. A free app opens
// immediately; a paid app moves to CONFIRM_PENDING. Only one
// confirmation can be pending: selecting again replaces it.
func (s *Session) Select(app App) (StateChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return StateChange{}, ErrSessionClosed
	case StateUnlocked, StateConfirmPending:
	default:
		return StateChange{}, ErrNotUnlocked
	}

	if app.Free() {
		s.pending = nil
		s.opened = &app
		s.state = StateFreeOpen
	} else {
		s.pending = &app
		s.state = StateConfirmPending
	}
	s.notifyLocked()
	return s.snapshotLocked(), nil
}

// Confirm debits the pending app's cost and opens it. Under the strict
// settings policy a confirm that would drop available points below the
// block threshold fails and the session stays in CONFIRM_PENDING.
func (s *Session) Confirm(ctx context.Context) (StateChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return StateChange{}, ErrSessionClosed
	}
	if s.state != StateConfirmPending || s.pending == nil {
		return StateChange{}, ErrNothingPending
	}
	app := *s.pending

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return StateChange{}, err
	}
	if cfg.BlockBelowThreshold {
		available, err := s.calc.AvailablePoints(ctx)
		if err != nil {
			return StateChange{}, err
		}
		// The threshold is fractional in settings; compare in decimal so
		// a value like 50.5 is not silently truncated to 50.
		remaining := decimal.NewFromInt(available - app.PointCost)
		threshold := decimal.NewFromFloat(cfg.PointBlockThreshold)
		if remaining.LessThan(threshold) {
			return s.snapshotLocked(), &ledger.InsufficientPointsError{
				Available: available,
				Requested: app.PointCost,
				Threshold: cfg.PointBlockThreshold,
			}
		}
	}

	key := "gate:" + s.ID + ":" + app.ID
	if _, err := s.ledger.Spend(ctx, app.Name, app.PointCost, key); err != nil {
		return StateChange{}, err
	}

	s.pending = nil
	s.opened = &app
	s.state = StateDebitedOpen
	s.notifyLocked()
	return s.snapshotLocked(), nil
}

// Cancel abandons a pending confirmation and returns to UNLOCKED with
// no side effect.
func (s *Session) Cancel() (StateChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return StateChange{}, ErrSessionClosed
	}
	if s.state != StateConfirmPending {
		return StateChange{}, ErrNothingPending
	}
	s.pending = nil
	s.state = StateUnlocked
	s.notifyLocked()
	return s.snapshotLocked(), nil
}

// Close ends the session in any state. Idempotent; stops the ticker
// and closes subscriber channels.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.pending = nil
	s.opened = nil
	subs := s.subscribers
	s.subscribers = nil
	s.mu.Unlock()

	close(s.stop)
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.wg.Wait()

	for _, ch := range subs {
		close(ch)
	}
	log.Printf("[Gate] Session %s closed", s.ID)
}
