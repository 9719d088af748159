// Package sqlite implements the repository contracts on SQLite. It backs local
// development (DB_DRIVER=sqlite) and the service and handler tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"REMINDME_BACK-END/internal/common"
	"REMINDME_BACK-END/internal/migrations"
	"REMINDME_BACK-END/internal/repository"
)

const timestampLayout = time.RFC3339Nano

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a repository.Store backed by a single SQLite connection. SQLite
// allows one writer at a time, so a single connection keeps transactions
// strictly serialized.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

var _ repository.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies migrations. path
// may be a file name or a "file:" URI such as "file:x?mode=memory&cache=shared".
func Open(ctx context.Context, path string, queryTimeout time.Duration) (*Store, error) {
	if path == "" {
		path = "remindme.db"
	}
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	s := &Store{db: db, queryTimeout: queryTimeout}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// dsn appends the driver options every connection needs. _txlock=immediate
// makes BEGIN take the write lock up front, which is what GetByIDForUpdate
// relies on.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, migrations.SQLite())
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Users() repository.UserRepository {
	return NewUserRepository(s.db, s.queryTimeout)
}

func (s *Store) Reminders() repository.ReminderRepository {
	return NewReminderRepository(s.db, s.queryTimeout)
}

// WithTx begins a transaction, runs fn with transactional repositories, and
// commits on success or rolls back on error/panic. Panics are rethrown.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, txRepos{tx: tx, timeout: s.queryTimeout})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type txRepos struct {
	tx      *sql.Tx
	timeout time.Duration
}

func (t txRepos) Users() repository.UserRepository {
	return NewUserRepository(t.tx, t.timeout)
}

func (t txRepos) Reminders() repository.ReminderRepository {
	return NewReminderRepository(t.tx, t.timeout)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %s", common.ErrConflict, sqliteErr.Error())
	}
	return fmt.Errorf("db error: %w", err)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}
