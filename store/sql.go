package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jacobmichels/portal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var _ Store = SQLStore{}

// SQLStore keeps every key as one row of the kv table.
// The same queries serve sqlite and postgres.
type SQLStore struct {
	db *sql.DB
}

// creates a new store backed by sqlite
// returns an error if the connection cannot be established or if a ping fails
func newSQLiteStore(ctx context.Context, cfg config.SQLite) (SQLStore, error) {
	if isSQLiteFilePath(cfg.ConnectionString) {
		if err := os.MkdirAll(filepath.Dir(cfg.ConnectionString), 0o755); err != nil {
			return SQLStore{}, fmt.Errorf("failed to create directory for %s: %w", cfg.ConnectionString, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.ConnectionString)
	if err != nil {
		return SQLStore{}, fmt.Errorf("failed to open connection to sqlite: %w", err)
	}
	// sqlite allows a single writer, let database/sql queue for it
	db.SetMaxOpenConns(1)

	return openSQLStore(ctx, db, "sqlite")
}

// plain paths only; URIs and in-memory databases are passed through untouched
func isSQLiteFilePath(conn string) bool {
	return conn != "" && !strings.HasPrefix(conn, "file:") && !strings.HasPrefix(conn, ":memory:")
}

func newPostgresStore(ctx context.Context, cfg config.Postgres) (SQLStore, error) {
	if cfg.URL == "" {
		return SQLStore{}, errors.New("postgres url is required")
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return SQLStore{}, fmt.Errorf("failed to open connection to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return openSQLStore(ctx, db, "postgres")
}

func openSQLStore(ctx context.Context, db *sql.DB, dialect string) (SQLStore, error) {
	// check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return SQLStore{}, fmt.Errorf("failed to ping db: %w", err)
	}

	if err := runMigrations(db, dialect); err != nil {
		db.Close()
		return SQLStore{}, err
	}

	return SQLStore{db}, nil
}

func (s SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key=$1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return value, true, nil
}

func (s SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO kv (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value=excluded.value", key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key=$1", key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s SQLStore) Close() error {
	return s.db.Close()
}
