/*
app.go - Gated app catalog

PURPOSE:
  The apps the gate can open. Each app carries a point cost: essential
  apps are free, distraction apps cost points to open. The catalog is
  persisted; gate sessions resolve selections against it.
*/
package gate

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// AppCategory classifies an app for gating purposes.
type AppCategory string

const (
	CategoryEssential   AppCategory = "essential"
	CategoryDistraction AppCategory = "distraction"
	CategoryNeutral     AppCategory = "neutral"
)

func (c AppCategory) Valid() bool {
	switch c {
	case CategoryEssential, CategoryDistraction, CategoryNeutral:
		return true
	}
	return false
}

// App is a launchable application behind the gate.
type App struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Package   string      `json:"package"`
	Category  AppCategory `json:"category"`
	PointCost int64       `json:"pointCost"`
}

// DefaultDistractionCost is the point cost a distraction app gets when
// the catalog entry does not set one. Essential apps always cost 0.
const DefaultDistractionCost int64 = 10

// Free reports whether opening the app costs nothing.
func (a App) Free() bool { return a.PointCost <= 0 }

var ErrAppNotFound = errors.New("app not found")

// AppStore is the catalog persistence contract.
type AppStore interface {
	CreateApp(ctx context.Context, a App) (App, error)
	GetApp(ctx context.Context, id string) (App, error)
	UpdateApp(ctx context.Context, a App) (App, error)
	DeleteApp(ctx context.Context, id string) error
	ListApps(ctx context.Context) ([]App, error)
}

// =============================================================================
// IN-MEMORY CATALOG (tests/dev)
// =============================================================================

type MemoryApps struct {
	mu   sync.RWMutex
	apps map[string]App
}

var _ AppStore = (*MemoryApps)(nil)

func NewMemoryApps() *MemoryApps {
	return &MemoryApps{apps: make(map[string]App)}
}

func (m *MemoryApps) CreateApp(_ context.Context, a App) (App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps[a.ID] = a
	return a, nil
}

func (m *MemoryApps) GetApp(_ context.Context, id string) (App, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.apps[id]
	if !ok {
		return App{}, ErrAppNotFound
	}
	return a, nil
}

func (m *MemoryApps) UpdateApp(_ context.Context, a App) (App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[a.ID]; !ok {
		return App{}, ErrAppNotFound
	}
	m.apps[a.ID] = a
	return a, nil
}

func (m *MemoryApps) DeleteApp(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[id]; !ok {
		return ErrAppNotFound
	}
	delete(m.apps, id)
	return nil
}

func (m *MemoryApps) ListApps(_ context.Context) ([]App, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]App, 0, len(m.apps))
	for _, a := range m.apps {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
