// Package storage persists ledger snapshots between process runs.
package storage

import (
	"context"
	"sync"

	"tracker/internal/core"
)

// Store loads and saves complete ledger snapshots, newest first.
type Store interface {
	Load(ctx context.Context) ([]core.Expense, error)
	Save(ctx context.Context, snapshot []core.Expense) error
	Close() error
}

// MemoryStore keeps the last saved snapshot in memory. It is the default
// backend and makes the ledger effectively non-persistent.
type MemoryStore struct {
	mu    sync.Mutex
	items []core.Expense
	saves int
}

func NewMemoryStore(seed ...core.Expense) *MemoryStore {
	return &MemoryStore{items: append([]core.Expense(nil), seed...)}
}

func (m *MemoryStore) Load(ctx context.Context) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Expense(nil), m.items...), nil
}

func (m *MemoryStore) Save(ctx context.Context, snapshot []core.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items[:0:0], snapshot...)
	m.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Close() error { return nil }
