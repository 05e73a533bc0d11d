// Package services coordinates the ledger with its collaborators: snapshot
// persistence, change events and the summary cache.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/text/language"

	"tracker/internal/amqp"
	"tracker/internal/analytics"
	"tracker/internal/cache"
	"tracker/internal/core"
	"tracker/internal/ledger"
	applog "tracker/internal/log"
	"tracker/internal/storage"
)

// Publisher sends ledger change events.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}

// AddInput carries the raw fields of a submitted expense.
type AddInput struct {
	Description string
	Amount      any
	Category    string
	Date        string
}

// Options configures a LedgerService. Nil collaborators are skipped.
type Options struct {
	Store            storage.Store
	Publisher        Publisher
	SummaryCacheSize int
	SummaryCacheTTL  time.Duration
	Language         language.Tag
	Clock            func() time.Time
	Logger           *applog.Logger

	// IDFloor is the smallest id the ledger may issue. Exported rows outlive
	// the process, so binaries seed it from the wall clock to keep ids
	// unique across restarts.
	IDFloor int64
}

type summaryKey struct {
	version uint64
	date    string
}

// LedgerService is the concurrency-safe entry point to one ledger. Mutations
// are serialised by a single mutex; reads work on snapshots.
type LedgerService struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	// publishMu is taken before mu is released, so events leave in version
	// order while readers and other writers are no longer blocked on mu.
	publishMu sync.Mutex

	store     storage.Store
	publisher Publisher
	summaries *cache.LRUCache[summaryKey, core.Summary]
	lang      language.Tag
	now       func() time.Time

	logger *applog.Logger
	events *applog.StructuredLogger
}

func NewLedgerService(categories core.Categories, opts Options) *LedgerService {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentLedger)

	size := opts.SummaryCacheSize
	if size < 1 {
		size = 32
	}
	ttl := opts.SummaryCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	lang := opts.Language
	if lang == language.Und {
		lang = language.English
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	l := ledger.New(categories)
	l.ReserveIDs(opts.IDFloor)

	return &LedgerService{
		ledger:    l,
		store:     opts.Store,
		publisher: opts.Publisher,
		summaries: cache.NewLRUCache[summaryKey, core.Summary](size, ttl),
		lang:      lang,
		now:       clock,
		logger:    logger,
		events:    applog.NewStructuredLogger(logger),
	}
}

// SummaryCache exposes the summary cache so callers can register it for cleanup.
func (s *LedgerService) SummaryCache() cache.Cleaner {
	return s.summaries
}

// SummaryCacheStats reports summary cache hits and misses.
func (s *LedgerService) SummaryCacheStats() cache.Stats {
	return s.summaries.Stats()
}

// Load restores the ledger from the store. Failures, including core.ErrIntegrity,
// are returned; the ledger stays empty in that case.
func (s *LedgerService) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	items, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.Restore(items); err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger restored",
		applog.FieldCount, len(items),
		applog.FieldVersion, s.ledger.Version())
	return nil
}

// Add records a new expense. Validation failures are returned as
// *core.ValidationError and leave the ledger unchanged.
func (s *LedgerService) Add(ctx context.Context, in AddInput) (core.Expense, error) {
	s.mu.Lock()
	e, err := s.ledger.Add(in.Description, in.Amount, in.Category, in.Date)
	if err != nil {
		s.mu.Unlock()
		return core.Expense{}, err
	}
	version := s.ledger.Version()
	s.persistLocked(ctx)
	s.publishMu.Lock()
	s.mu.Unlock()
	defer s.publishMu.Unlock()

	s.events.LogExpenseAdded(ctx, e.ID, e.Amount.Cents, e.Category, e.Date.String(), version)
	s.publish(ctx, amqp.NewExpenseAdded(e, version))
	return e, nil
}

// Remove deletes the expense with id. It reports whether a record was removed;
// unknown ids are a silent no-op.
func (s *LedgerService) Remove(ctx context.Context, id int64) bool {
	s.mu.Lock()
	removed := s.ledger.Remove(id)
	version := s.ledger.Version()
	if removed {
		s.persistLocked(ctx)
	}
	s.publishMu.Lock()
	s.mu.Unlock()
	defer s.publishMu.Unlock()

	s.events.LogExpenseRemoved(ctx, id, removed, version)
	if removed {
		s.publish(ctx, amqp.NewExpenseRemoved(id, version))
	}
	return removed
}

// Snapshot returns the ledger contents, newest inserted first.
func (s *LedgerService) Snapshot() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}

// Get returns the expense with id.
func (s *LedgerService) Get(id int64) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Get(id)
}

// Query filters and sorts a snapshot for display.
func (s *LedgerService) Query(filterCategory string, key analytics.SortKey) []core.Expense {
	return analytics.FilterAndSort(s.Snapshot(), filterCategory, key, analytics.WithLanguage(s.lang))
}

// Summary returns aggregates for today. Results are cached per ledger
// version and calendar day.
func (s *LedgerService) Summary(ctx context.Context) core.Summary {
	now := s.now()

	s.mu.Lock()
	version := s.ledger.Version()
	key := summaryKey{version: version, date: core.DateOf(now).String()}
	if sum, ok := s.summaries.Get(key); ok {
		s.mu.Unlock()
		return sum
	}
	snap := s.ledger.Snapshot()
	s.mu.Unlock()

	sum := analytics.Summarize(snap, s.ledger.Categories(), now)
	s.summaries.Set(key, sum)
	s.logger.DebugContext(ctx, "Summary computed", applog.FieldVersion, version, applog.FieldCount, sum.Count)
	return sum
}

// Categories returns the configured category set.
func (s *LedgerService) Categories() core.Categories {
	return s.ledger.Categories()
}

// Version returns the ledger mutation counter.
func (s *LedgerService) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Version()
}

// Ping reports whether the store is reachable, for readiness checks.
func (s *LedgerService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// persistLocked saves the current snapshot. Store failures are logged; the
// in-memory ledger remains authoritative.
func (s *LedgerService) persistLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.ledger.Snapshot()); err != nil {
		s.events.LogError(ctx, "Failed to persist ledger", err, applog.OpPersist, applog.ErrorTypeDatabase,
			applog.NewFields().WithVersion(s.ledger.Version()))
	}
}

func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			applog.FieldEventType, event.Type,
			applog.FieldExpenseID, event.ID,
			applog.FieldError, err)
	}
}

// Close releases the store and publisher.
func (s *LedgerService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
