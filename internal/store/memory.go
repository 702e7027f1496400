package store

import (
	"context"
	"sort"
	"sync"

	"tally-cli/internal/model"
)

// Memory is a map-backed store for tests and throwaway sessions.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]model.Task
}

func NewMemory(seed ...model.Task) *Memory {
	m := &Memory{recs: make(map[string]model.Task, len(seed))}
	for _, rec := range seed {
		m.recs[rec.ID] = rec
	}
	return m
}

func (m *Memory) LoadAll(ctx context.Context) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Task, 0, len(m.recs))
	for _, rec := range m.recs {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Save(ctx context.Context, id string, rec model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec.ID = id
	m.mu.Lock()
	m.recs[id] = rec
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.recs, id)
	m.mu.Unlock()
	return nil
}

// Get returns the stored record for id.
func (m *Memory) Get(id string) (model.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[id]
	return rec, ok
}

func (m *Memory) Close() error { return nil }
