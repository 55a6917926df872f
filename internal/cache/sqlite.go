package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/pmcosta/dealfinder/internal/cache/migrations"
)

// SQLiteStore is the default backend: a single-file store that survives
// restarts, so a second run can reuse prior responses instead of hitting
// the providers again.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	mu  sync.Mutex
	now func() time.Time
}

const DefaultTTL = 6 * time.Hour

func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}

	if err := runMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate cache db: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Get returns the cached value, treating expired rows as misses and
// deleting them on the way out.
func (s *SQLiteStore) Get(ctx context.Context, endpoint string, params map[string]string) ([]byte, bool, error) {
	key := Key(endpoint, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	var value []byte
	var expiresAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	expiry, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil || s.now().After(expiry) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key)
		return nil, false, nil
	}

	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, endpoint string, params map[string]string, value []byte) error {
	key := Key(endpoint, params)
	createdAt := s.now()
	expiresAt := createdAt.Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache (key, value, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		key, value, expiresAt.Format(time.RFC3339Nano), createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache WHERE expires_at < ?`, s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("cache sweep failed: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache`); err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache`).Scan(&stats.Total); err != nil {
		return Stats{}, err
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cache WHERE expires_at < ?`, s.now().Format(time.RFC3339Nano),
	).Scan(&stats.Expired)
	if err != nil {
		return Stats{}, err
	}
	stats.Valid = stats.Total - stats.Expired
	return stats, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
