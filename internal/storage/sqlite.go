package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"notif_organizer/migrations"
)

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(context.Background(), db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// StringSet returns the members stored under key, or an empty slice if the key is unset.
func (s *SQLite) StringSet(ctx context.Context, key string) ([]string, error) {
	members := []string{}
	if err := s.db.SelectContext(ctx, &members,
		`SELECT member FROM kv_sets WHERE key = ? ORDER BY member`, key,
	); err != nil {
		return nil, fmt.Errorf("select set %q: %w", key, err)
	}
	if members == nil {
		members = []string{}
	}
	return members, nil
}

// PutStringSet replaces the set stored under key. Duplicate members collapse.
func (s *SQLite) PutStringSet(ctx context.Context, key string, members []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM kv_sets WHERE key = ?`, key); err != nil {
		return fmt.Errorf("clear set %q: %w", key, err)
	}
	for _, m := range members {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO kv_sets (key, member) VALUES (?, ?)`, key, m,
		); err != nil {
			return fmt.Errorf("insert set member: %w", err)
		}
	}
	return tx.Commit()
}

// Bool returns the flag stored under key, or false if the key is unset.
func (s *SQLite) Bool(ctx context.Context, key string) (bool, error) {
	var v int
	err := s.db.GetContext(ctx, &v, `SELECT value FROM kv_flags WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select flag %q: %w", key, err)
	}
	return v == 1, nil
}

// PutBool stores a flag under key.
func (s *SQLite) PutBool(ctx context.Context, key string, value bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_flags (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, boolToInt(value),
	)
	if err != nil {
		return fmt.Errorf("upsert flag %q: %w", key, err)
	}
	return nil
}

// MarkSeen records that an item from source has been delivered.
func (s *SQLite) MarkSeen(ctx context.Context, source, guid string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_items (source, guid) VALUES (?, ?)`,
		source, guid,
	)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// IsSeen checks whether an item from source has already been delivered.
func (s *SQLite) IsSeen(ctx context.Context, source, guid string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM seen_items WHERE source = ? AND guid = ?`,
		source, guid,
	)
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return count > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
