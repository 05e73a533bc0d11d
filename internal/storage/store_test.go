package storage

import (
	"context"
	"path/filepath"
	"testing"

	"tracker/internal/core"
)

func sample() []core.Expense {
	return []core.Expense{
		{ID: 3, Description: "Uber", Amount: core.Money{Cents: 1500}, Category: "Transport", Date: core.NewDate(2025, 10, 20)},
		{ID: 1, Description: "Lunch", Amount: core.Money{Cents: 2550}, Category: "Food", Date: core.NewDate(2025, 10, 19)},
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "tracker.db")

	s, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("fresh Load = %v, %v", got, err)
	}

	if err := s.Save(ctx, sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen runs migrations again against an up-to-date schema.
	s, err = NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := sample()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Description != want[i].Description ||
			got[i].Amount != want[i].Amount || got[i].Category != want[i].Category || !got[i].Date.Equal(want[i].Date) {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSQLiteStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tracker.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	if err := s.Save(ctx, sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, sample()[1:]); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("got %+v", got)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(sample()...)

	got, _ := m.Load(ctx)
	got[0].Description = "mutated"
	again, _ := m.Load(ctx)
	if again[0].Description != "Uber" {
		t.Fatalf("Load must return a copy")
	}

	if err := m.Save(ctx, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, _ := m.Load(ctx); len(got) != 0 || m.Saves() != 1 {
		t.Fatalf("unexpected state %v saves=%d", got, m.Saves())
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := m.Save(cancelled, sample()); err == nil {
		t.Fatalf("expected context error")
	}
}
