// Package store persists advice exchanges in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"shouldibuy/internal/advice"
	"shouldibuy/internal/logging"

	_ "modernc.org/sqlite"
)

// createdAtLayout is fixed width so created_at orders correctly as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryStore records every advice exchange. It implements
// advice.ExchangeRecorder.
type HistoryStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Stats summarises stored exchanges.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
	AvgMs     float64
}

// Open initializes the SQLite database at path. ":memory:" is accepted.
func Open(path string) (*HistoryStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases intact and serialises
	// writers.
	db.SetMaxOpenConns(1)

	s := &HistoryStore{db: db, dbPath: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		logging.StoreError("failed to ensure history schema: %v", err)
		return nil, fmt.Errorf("failed to ensure history schema: %w", err)
	}
	logging.Store("history store opened at %s", path)
	return s, nil
}

func (s *HistoryStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS advice_exchanges (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		model TEXT,
		monthly_income TEXT,
		item_name TEXT,
		item_price TEXT,
		prompt TEXT NOT NULL,
		response TEXT NOT NULL,
		duration_ms INTEGER,
		success BOOLEAN NOT NULL,
		error_kind TEXT,
		error_message TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exchanges_created ON advice_exchanges(created_at);
	CREATE INDEX IF NOT EXISTS idx_exchanges_success ON advice_exchanges(success);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	runMigrations(s.db, pendingMigrations)
	return nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *HistoryStore) Path() string { return s.dbPath }

// RecordExchange persists ex.
func (s *HistoryStore) RecordExchange(ctx context.Context, ex *advice.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := ex.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO advice_exchanges (
			id, provider, model, monthly_income, item_name, item_price,
			prompt, response, duration_ms, success, error_kind, error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.Provider, ex.Model, ex.MonthlyIncome, ex.ItemName, ex.ItemPrice,
		ex.Prompt, ex.Response, ex.DurationMs, ex.Success, ex.ErrorKind, ex.ErrorMessage,
		ts.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record exchange: %w", err)
	}
	logging.StoreDebug("recorded exchange %s (success=%v)", ex.ID, ex.Success)
	return nil
}

// Recent returns up to limit exchanges, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]advice.Exchange, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, model, monthly_income, item_name, item_price,
			prompt, response, duration_ms, success, error_kind, error_message, created_at
		FROM advice_exchanges
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	var out []advice.Exchange
	for rows.Next() {
		var (
			ex                                    advice.Exchange
			model, income, item, price, kind, msg sql.NullString
			duration                              sql.NullInt64
			created                               string
		)
		if err := rows.Scan(&ex.ID, &ex.Provider, &model, &income, &item, &price,
			&ex.Prompt, &ex.Response, &duration, &ex.Success, &kind, &msg, &created); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		ex.Model = model.String
		ex.MonthlyIncome = income.String
		ex.ItemName = item.String
		ex.ItemPrice = price.String
		ex.DurationMs = duration.Int64
		ex.ErrorKind = kind.String
		ex.ErrorMessage = msg.String
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			ex.Timestamp = ts
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// Stats counts stored exchanges.
func (s *HistoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		st  Stats
		avg sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
			AVG(duration_ms)
		FROM advice_exchanges`).Scan(&st.Total, &st.Succeeded, &avg)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query stats: %w", err)
	}
	st.Failed = st.Total - st.Succeeded
	st.AvgMs = avg.Float64
	return st, nil
}
