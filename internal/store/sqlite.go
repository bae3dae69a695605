package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

const schemaKV = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const (
	selectValueSQL = `SELECT value FROM kv WHERE key = ?`
	upsertValueSQL = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// OpenSQLite opens or creates a SQLite file and ensures the kv table exists.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaKV); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply kv schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// SQLiteBackend keeps the list as a JSON array under one key of the kv table.
type SQLiteBackend struct {
	db  *sql.DB
	key string
	now func() time.Time
}

// NewSQLiteBackend creates a backend over an already-initialized database.
func NewSQLiteBackend(db *sql.DB, key string) *SQLiteBackend {
	return &SQLiteBackend{db: db, key: key, now: time.Now}
}

// Load reads the saved list. A missing key is an empty list.
func (b *SQLiteBackend) Load(ctx context.Context) ([]string, error) {
	var raw string
	err := b.db.QueryRowContext(ctx, selectValueSQL, b.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %q: %w", b.key, err)
	}

	var labels []string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return nil, fmt.Errorf("decode %q: %w", b.key, err)
	}
	return labels, nil
}

// Save overwrites the stored list.
func (b *SQLiteBackend) Save(ctx context.Context, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	raw, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("encode %q: %w", b.key, err)
	}
	if _, err := b.db.ExecContext(ctx, upsertValueSQL, b.key, string(raw), b.now().UTC()); err != nil {
		return fmt.Errorf("upsert %q: %w", b.key, err)
	}
	return nil
}
