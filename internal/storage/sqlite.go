package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"tracker/internal/core"
	applog "tracker/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists ledger snapshots in a single expenses table. Row
// position carries the ledger order so Load reproduces it exactly.
type SQLiteStore struct {
	db     *sql.DB
	logger *applog.Logger
}

func NewSQLiteStore(dbPath string, logger *applog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps transactions serialized on the single file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger.WithComponent(applog.ComponentStorage)}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database connection, used by readiness probes.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Load(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, category, date FROM expenses ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e    core.Expense
			date string
		)
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount.Cents, &e.Category, &date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", e.ID, err)
		}
		e.Date = d
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	s.logger.DebugContext(ctx, "Ledger loaded from SQLite", applog.FieldCount, len(out))
	return out, nil
}

// Save replaces the stored snapshot inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snapshot []core.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO expenses (id, description, amount_cents, category, date, position) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range snapshot {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Description, e.Amount.Cents, e.Category, e.Date.String(), i); err != nil {
			return fmt.Errorf("insert expense %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.DebugContext(ctx, "Ledger saved to SQLite", applog.FieldCount, len(snapshot))
	return nil
}
