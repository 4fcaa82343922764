package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // pure Go driver, no cgo

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// maxZeroResults bounds the persisted zero-result queries.
const maxZeroResults = 100

// Batch is the set of increments written by one flush.
type Batch struct {
	Date        string // YYYY-MM-DD
	ModeCounts  map[string]int64
	Latencies   map[LatencyBucket]int64
	QueryCounts map[string]int64
	ZeroResults []ZeroResultQuery
}

// Store persists telemetry.
type Store interface {
	Save(b Batch) error
	Report(days, limit int) (*Report, error)
	Close() error
}

// Report summarizes persisted telemetry for `jump stats`.
type Report struct {
	Days                int                     `json:"days"`
	TotalQueries        int64                   `json:"total_queries"`
	ModeCounts          map[string]int64        `json:"mode_counts"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TopQueries          []QueryCount            `json:"top_queries"`
	ZeroResultQueries   []ZeroResultQuery       `json:"zero_result_queries"`
}

// SQLiteStore is a Store backed by a SQLite file. Writes from several
// processes are serialized with a lock file next to the database.
type SQLiteStore struct {
	db    *sql.DB
	lock  *flock.Flock
	retry jerrors.RetryConfig
}

// OpenSQLiteStore opens or creates the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, jerrors.New(jerrors.ErrCodeInvalidPath, "failed to create telemetry directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 2000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{
		db:    db,
		lock:  flock.New(path + ".lock"),
		retry: jerrors.DefaultRetryConfig(),
	}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS query_mode_stats (
		date TEXT NOT NULL,
		mode TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, mode)
	);

	CREATE TABLE IF NOT EXISTS query_latency_stats (
		date TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);

	CREATE TABLE IF NOT EXISTS query_counts (
		query TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0,
		last_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_query_counts_count ON query_counts(count DESC);

	CREATE TABLE IF NOT EXISTS zero_result_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create telemetry schema: %w", err)
	}
	return nil
}

// Save writes a batch in one transaction, retrying while the database is
// busy.
func (s *SQLiteStore) Save(b Batch) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	locked, err := s.lock.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil || !locked {
		return jerrors.New(jerrors.ErrCodeDatabaseBusy, "telemetry database is locked by another process", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	return jerrors.Retry(ctx, s.retry, func() error {
		return busy(s.save(ctx, b))
	})
}

func (s *SQLiteStore) save(ctx context.Context, b Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for mode, n := range b.ModeCounts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO query_mode_stats (date, mode, count) VALUES (?, ?, ?)
			ON CONFLICT(date, mode) DO UPDATE SET count = count + excluded.count
		`, b.Date, mode, n); err != nil {
			return fmt.Errorf("upsert mode count: %w", err)
		}
	}
	for bucket, n := range b.Latencies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO query_latency_stats (date, bucket, count) VALUES (?, ?, ?)
			ON CONFLICT(date, bucket) DO UPDATE SET count = count + excluded.count
		`, b.Date, string(bucket), n); err != nil {
			return fmt.Errorf("upsert latency count: %w", err)
		}
	}
	for q, n := range b.QueryCounts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO query_counts (query, count, last_seen) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(query) DO UPDATE SET count = count + excluded.count, last_seen = CURRENT_TIMESTAMP
		`, q, n); err != nil {
			return fmt.Errorf("upsert query count: %w", err)
		}
	}
	for _, z := range b.ZeroResults {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO zero_result_queries (query, timestamp) VALUES (?, ?)`,
			z.Query, z.Timestamp.UTC()); err != nil {
			return fmt.Errorf("insert zero-result query: %w", err)
		}
	}
	if len(b.ZeroResults) > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM zero_result_queries
			WHERE id NOT IN (SELECT id FROM zero_result_queries ORDER BY id DESC LIMIT ?)
		`, maxZeroResults); err != nil {
			return fmt.Errorf("trim zero-result queries: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// busy marks SQLite lock contention as retryable.
func busy(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return jerrors.New(jerrors.ErrCodeDatabaseBusy, "telemetry database is busy", err)
	}
	return err
}

// Report summarizes the last days of telemetry. limit caps the query lists.
func (s *SQLiteStore) Report(days, limit int) (*Report, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 10
	}
	to := time.Now()
	from := to.AddDate(0, 0, -(days - 1)).Format("2006-01-02")
	toDate := to.Format("2006-01-02")

	r := &Report{
		Days:                days,
		ModeCounts:          make(map[string]int64),
		LatencyDistribution: make(map[LatencyBucket]int64),
	}

	if err := s.scanCounts(`
		SELECT mode, SUM(count) FROM query_mode_stats
		WHERE date >= ? AND date <= ? GROUP BY mode
	`, func(k string, n int64) {
		r.ModeCounts[k] = n
		r.TotalQueries += n
	}, from, toDate); err != nil {
		return nil, err
	}

	if err := s.scanCounts(`
		SELECT bucket, SUM(count) FROM query_latency_stats
		WHERE date >= ? AND date <= ? GROUP BY bucket
	`, func(k string, n int64) {
		r.LatencyDistribution[LatencyBucket(k)] = n
	}, from, toDate); err != nil {
		return nil, err
	}

	if err := s.scanCounts(`
		SELECT query, count FROM query_counts ORDER BY count DESC, query ASC LIMIT ?
	`, func(k string, n int64) {
		r.TopQueries = append(r.TopQueries, QueryCount{Query: k, Count: n})
	}, limit); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT query, timestamp FROM zero_result_queries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query zero-result queries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var z ZeroResultQuery
		if err := rows.Scan(&z.Query, &z.Timestamp); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.ZeroResultQueries = append(r.ZeroResultQueries, z)
	}
	return r, rows.Err()
}

func (s *SQLiteStore) scanCounts(query string, fn func(string, int64), args ...any) error {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("query telemetry: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var n int64
		if err := rows.Scan(&k, &n); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		fn(k, n)
	}
	return rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
