// Package memory provides an in-process Exporter used when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tracker/internal/core"
	ports "tracker/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows []core.Expense
}

var _ ports.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Exporter) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if e.ID <= 0 {
		return "", fmt.Errorf("append expense: invalid id %d", e.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ID == e.ID {
			return fmt.Sprintf("mem:%d", e.ID), nil
		}
	}
	s.rows = append(s.rows, e)
	return fmt.Sprintf("mem:%d", e.ID), nil
}

func (s *Exporter) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns the exported rows in write order.
func (s *Exporter) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.rows...)
}
