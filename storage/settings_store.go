package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"asin-lister/models"
)

// SettingsStore keeps the business settings snapshot in a local SQLite file.
type SettingsStore struct {
	db *sqlx.DB
}

type settingsRow struct {
	ID        int    `db:"id"`
	Body      string `db:"body"`
	UpdatedAt string `db:"updated_at"`
}

// OpenSettingsStore opens (creating if needed) the SQLite database at path.
// Use ":memory:" for an ephemeral store.
func OpenSettingsStore(path string) (*SettingsStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("settings: create data dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("settings: ping: %w", err)
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS settings(
  id INTEGER PRIMARY KEY CHECK (id = 1),
  body TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("settings: ensure schema: %w", err)
	}

	return &SettingsStore{db: db}, nil
}

// Load returns the stored snapshot, or ErrNotFound when none was saved yet.
func (s *SettingsStore) Load(ctx context.Context) (models.Settings, error) {
	var row settingsRow
	err := s.db.GetContext(ctx, &row, `SELECT id, body, updated_at FROM settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{}, ErrNotFound
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("settings: load: %w", err)
	}

	var st models.Settings
	if err := json.Unmarshal([]byte(row.Body), &st); err != nil {
		return models.Settings{}, fmt.Errorf("settings: decode: %w", err)
	}
	return st, nil
}

// LoadOrDefault returns the stored snapshot or models.DefaultSettings.
func (s *SettingsStore) LoadOrDefault(ctx context.Context) (models.Settings, error) {
	st, err := s.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return models.DefaultSettings(), nil
	}
	return st, err
}

// Save validates and stores the snapshot, replacing the previous one.
func (s *SettingsStore) Save(ctx context.Context, st models.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}

	_, err = s.db.NamedExecContext(ctx, `
INSERT INTO settings(id, body, updated_at) VALUES (:id, :body, :updated_at)
ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		settingsRow{ID: 1, Body: string(body), UpdatedAt: time.Now().UTC().Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}

func (s *SettingsStore) Close() error {
	return s.db.Close()
}
