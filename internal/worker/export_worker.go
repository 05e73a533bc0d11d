// Package worker mirrors ledger events into an external spreadsheet.
package worker

import (
	"context"
	"fmt"
	"sync"

	"tracker/internal/amqp"
	applog "tracker/internal/log"
	"tracker/internal/sheets"
	"tracker/internal/storage"
)

// Consumer delivers ledger events until its context is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// ExportWorker applies ledger events to a sheets.Exporter.
//
// Ledger ids are never reused, so an "added" event for an id that was already
// removed is a late redelivery and is dropped instead of reviving the row.
type ExportWorker struct {
	exporter sheets.Exporter
	logger   *applog.Logger

	mu      sync.Mutex
	removed map[int64]struct{}
}

func NewExportWorker(exporter sheets.Exporter, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ExportWorker{
		exporter: exporter,
		logger:   logger.WithComponent(applog.ComponentWorker),
		removed:  make(map[int64]struct{}),
	}
}

func (w *ExportWorker) wasRemoved(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.removed[id]
	return ok
}

func (w *ExportWorker) markRemoved(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removed[id] = struct{}{}
}

// HandleEvent exports one event. Returning an error makes the consumer requeue it.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	switch event.Type {
	case amqp.EventExpenseAdded:
		if w.wasRemoved(event.ID) {
			w.logger.DebugContext(ctx, "Dropping add for removed expense",
				applog.FieldExpenseID, event.ID,
				applog.FieldVersion, event.Version)
			return nil
		}
		if event.Expense == nil {
			return fmt.Errorf("%s event %d without expense", event.Type, event.ID)
		}
		ref, err := w.exporter.Append(ctx, *event.Expense)
		if err != nil {
			return fmt.Errorf("export expense %d: %w", event.ID, err)
		}
		w.logger.InfoContext(ctx, "Exported expense",
			applog.FieldExpenseID, event.ID,
			applog.FieldVersion, event.Version,
			"row_ref", ref)
	case amqp.EventExpenseRemoved:
		if err := w.exporter.Delete(ctx, event.ID); err != nil {
			return fmt.Errorf("delete exported expense %d: %w", event.ID, err)
		}
		w.markRemoved(event.ID)
		w.logger.InfoContext(ctx, "Removed exported expense",
			applog.FieldExpenseID, event.ID,
			applog.FieldVersion, event.Version)
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown ledger event", applog.FieldEventType, event.Type)
	}
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Export worker started")
	return consumer.Consume(ctx, w.HandleEvent)
}

// Backfill exports every expense in the stored snapshot. Appends are
// idempotent, so this recovers rows lost while the worker was down.
func (w *ExportWorker) Backfill(ctx context.Context, store storage.Store) error {
	items, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot for backfill: %w", err)
	}

	exported, failed := 0, 0
	// Oldest first so sheet rows follow insertion order.
	for i := len(items) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.exporter.Append(ctx, items[i]); err != nil {
			w.logger.ErrorContext(ctx, "Backfill export failed", applog.FieldExpenseID, items[i].ID, applog.FieldError, err)
			failed++
			continue
		}
		exported++
	}

	w.logger.InfoContext(ctx, "Backfill completed",
		applog.FieldCount, len(items),
		"exported", exported,
		"errors", failed)
	return nil
}
