package shared

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"
)

const migrationLockTimeout = 10 * time.Second

// NewDatabase opens the SQLite export database at path with foreign keys enforced.
//
// The path can be ":memory:" for an in-memory database.
func NewDatabase(path string) (*sql.DB, error) {
	dsn := "file::memory:?_foreign_keys=on"
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
//
// In-memory databases are pinned to a single connection by [NewDatabase]; leave maxOpenConns at 1 for them.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}

// WithMigrationLock runs fn while holding an advisory lock beside the database file,
// so two processes never migrate the same file at once. In-memory databases are not locked.
func WithMigrationLock(ctx context.Context, path string, fn func() error) error {
	if path == ":memory:" {
		return fn()
	}

	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(ctx, migrationLockTimeout)
	defer cancel()

	ok, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !ok {
		return fmt.Errorf("%w: %s", ErrDatabaseLocked, path)
	}
	defer lock.Unlock()

	return fn()
}
