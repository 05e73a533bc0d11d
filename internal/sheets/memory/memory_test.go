package memory

import (
	"context"
	"testing"

	"tracker/internal/core"
)

func TestExporterAppendAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	e := core.Expense{ID: 1, Description: "t", Amount: core.Money{Cents: 123}, Category: "Food", Date: core.NewDate(2025, 1, 1)}

	ref, err := s.Append(ctx, e)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	if _, err := s.Append(ctx, e); err != nil {
		t.Fatalf("re-append: %v", err)
	}
	if got := s.Rows(); len(got) != 1 {
		t.Fatalf("append must be idempotent, rows=%v", got)
	}

	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if got := s.Rows(); len(got) != 0 {
		t.Fatalf("rows after delete = %v", got)
	}
}

func TestExporterRejectsInvalidID(t *testing.T) {
	if _, err := New().Append(context.Background(), core.Expense{}); err == nil {
		t.Fatal("expected error for zero id")
	}
}
