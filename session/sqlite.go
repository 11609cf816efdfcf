package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/puyokura/cmppfeed/logging"
	"github.com/puyokura/cmppfeed/session/migrations"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the identity in a local SQLite file so it survives
// client restarts.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// OpenSQLite opens (creating if needed) the database at dsn and migrates it.
func OpenSQLite(ctx context.Context, dsn string, logger *logging.SlogLogger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// One connection keeps ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLiteStore(db, logger), nil
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB, logger logging.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

// RunMigrations applies the embedded schema. goose output goes to logger.
func RunMigrations(ctx context.Context, db *sql.DB, logger *logging.SlogLogger) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(logger)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate session db: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context) string {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, Key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return orDefault("")
	}
	if err != nil {
		s.logger.Warn(ctx, "read identity failed, using default", "error", err)
		return orDefault("")
	}
	return orDefault(string(value))
}

func (s *SQLiteStore) Write(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, Key, []byte(name))
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", Key, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, Key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", Key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
