package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ledgerview/internal/core"
	"ledgerview/internal/source"
)

const (
	occurredAtLayout = time.RFC3339Nano
	occurredOnLayout = "2006-01-02"
	runTimeLayout    = time.RFC3339
)

// SQLiteRepository persists validated transactions. Rows are keyed by
// transaction ID, so re-importing a source is idempotent.
type SQLiteRepository struct {
	db *sql.DB
}

var _ source.TransactionStore = (*SQLiteRepository)(nil)

// SyncRun records the outcome of one import.
type SyncRun struct {
	Source     string
	Read       int
	Upserted   int
	Rejected   int
	FinishedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const upsertTransaction = `
INSERT INTO transactions (id, occurred_at, occurred_on, amount, kind, category, merchant)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    occurred_at = excluded.occurred_at,
    occurred_on = excluded.occurred_on,
    amount      = excluded.amount,
    kind        = excluded.kind,
    category    = excluded.category,
    merchant    = excluded.merchant,
    updated_at  = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

// UpsertTransactions writes all transactions in one database transaction.
// Nothing is written if any transaction fails validation.
func (r *SQLiteRepository) UpsertTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %q: %w", t.ID, err)
		}
	}
	if len(txs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertTransaction)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		_, err := stmt.ExecContext(ctx,
			t.ID,
			t.Date.Format(occurredAtLayout),
			t.Date.Format(occurredOnLayout),
			t.Amount.String(),
			string(t.Kind),
			string(t.Category),
			t.Merchant,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert transaction %q: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.DebugContext(ctx, "Transactions upserted", "component", "storage", "count", len(txs))
	return len(txs), nil
}

// ReadTransactions returns every stored row ordered by calendar date, then ID.
func (r *SQLiteRepository) ReadTransactions(ctx context.Context) ([]core.RawTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, occurred_at, amount, kind, category, merchant
FROM transactions
ORDER BY occurred_on, id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.RawTransaction{}
	for rows.Next() {
		var raw core.RawTransaction
		if err := rows.Scan(&raw.ID, &raw.Date, &raw.Amount, &raw.Kind, &raw.Category, &raw.Merchant); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Count returns the number of stored transactions.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) RecordSyncRun(ctx context.Context, run SyncRun) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_runs (source, read_count, upserted, rejected, finished_at) VALUES (?, ?, ?, ?, ?)`,
		run.Source, run.Read, run.Upserted, run.Rejected, run.FinishedAt.UTC().Format(runTimeLayout))
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// LastSyncRun returns the most recent run, or ok=false when none was recorded.
func (r *SQLiteRepository) LastSyncRun(ctx context.Context) (SyncRun, bool, error) {
	var (
		run      SyncRun
		finished string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT source, read_count, upserted, rejected, finished_at FROM sync_runs ORDER BY id DESC LIMIT 1`).
		Scan(&run.Source, &run.Read, &run.Upserted, &run.Rejected, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncRun{}, false, nil
	}
	if err != nil {
		return SyncRun{}, false, fmt.Errorf("last sync run: %w", err)
	}
	run.FinishedAt, err = time.Parse(runTimeLayout, finished)
	if err != nil {
		return SyncRun{}, false, fmt.Errorf("parse finished_at %q: %w", finished, err)
	}
	return run, true, nil
}
