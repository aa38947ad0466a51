/*
memory.go - In-memory task store

PURPOSE:
  Map-backed Store used by tests and demo setups. Same contract as the
  sqlite store, no persistence.
*/
package tasks

import (
	"context"
	"sort"
	"sync"
)

type Memory struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{tasks: make(map[string]Task)}
}

func (m *Memory) Create(_ context.Context, t Task) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return t, nil
}

func (m *Memory) Get(_ context.Context, id string) (Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return t, nil
}

func (m *Memory) Update(_ context.Context, t Task) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return Task{}, ErrTaskNotFound
	}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *Memory) List(_ context.Context, f Filter) ([]Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if f.Category != nil && t.Category != *f.Category {
			continue
		}
		if f.HideCompleted && t.IsCompleted {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
