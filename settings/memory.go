package settings

import (
	"context"
	"sync"
)

// =============================================================================
// MEMORY PROVIDER - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	current Settings
}

func NewMemory() *Memory {
	return &Memory{current: Defaults()}
}

func (m *Memory) Get(_ context.Context) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, nil
}

func (m *Memory) Update(_ context.Context, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	return nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Defaults()
	return nil
}

var _ Provider = (*Memory)(nil)
