package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"nestcanvas/internal/model"
)

const settingsKey = "settings"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS concepts (
		id TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		last_edited_time TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// SQLiteConfig selects the database file.
type SQLiteConfig struct {
	Path     string
	InMemory bool
}

var _ Backend = (*SQLiteBackend)(nil)

// SQLiteBackend stores each concept as a JSON row.
type SQLiteBackend struct {
	conn *sql.DB
}

// OpenSQLite opens or creates the database and applies the schema.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteBackend, error) {
	dsn := ":memory:"
	if !cfg.InMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		dsn = cfg.Path
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and an in-memory
	// database only exists inside its connection.
	conn.SetMaxOpenConns(1)

	if !cfg.InMemory {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &SQLiteBackend{conn: conn}, nil
}

func (s *SQLiteBackend) Load(ctx context.Context) (model.Settings, []model.Concept, bool, error) {
	var settings model.Settings
	initialized := false

	var raw string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingsKey).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return settings, nil, false, fmt.Errorf("read settings: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			return settings, nil, false, fmt.Errorf("decode settings: %w", err)
		}
		initialized = true
	}

	rows, err := s.conn.QueryContext(ctx, `SELECT id, body FROM concepts ORDER BY id`)
	if err != nil {
		return settings, nil, false, fmt.Errorf("read concepts: %w", err)
	}
	defer rows.Close()

	var concepts []model.Concept
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return settings, nil, false, fmt.Errorf("scan concept: %w", err)
		}
		var c model.Concept
		if err := json.Unmarshal([]byte(body), &c); err != nil {
			return settings, nil, false, fmt.Errorf("decode concept %s: %w", id, err)
		}
		concepts = append(concepts, c)
	}
	if err := rows.Err(); err != nil {
		return settings, nil, false, fmt.Errorf("read concepts: %w", err)
	}
	return settings, concepts, initialized || len(concepts) > 0, nil
}

func (s *SQLiteBackend) Commit(ctx context.Context, b Batch) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, c := range b.Concepts {
		body, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode concept %s: %w", c.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO concepts (id, body, last_edited_time) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET body = excluded.body, last_edited_time = excluded.last_edited_time
		`, string(c.ID), string(body), c.LastEditedTime.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("write concept %s: %w", c.ID, err)
		}
	}

	if b.Settings != nil {
		raw, err := json.Marshal(b.Settings)
		if err != nil {
			return fmt.Errorf("encode settings: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, settingsKey, string(raw))
		if err != nil {
			return fmt.Errorf("write settings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Close() error {
	return s.conn.Close()
}
