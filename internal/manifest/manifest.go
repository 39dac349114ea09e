// Package manifest keeps a sqlite ledger of synthesized audio artifacts.
// The ledger is informational: cache hits are decided by the filesystem.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/worldly/internal/audio"
)

// FileName is the ledger's name inside the audio directory.
const FileName = "manifest.db"

// Entry is one ledger row.
type Entry struct {
	Key       string
	Text      string
	File      string
	Provider  string
	Voice     string
	Size      int
	CreatedAt time.Time
}

// Manifest is an open ledger.
type Manifest struct {
	db *sql.DB
}

// Open opens or creates the ledger at path.
func Open(path string) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	db.SetMaxOpenConns(1)

	m := &Manifest{db: db}
	if err := m.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Manifest) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			file TEXT PRIMARY KEY,
			key TEXT NOT NULL,
			text TEXT NOT NULL,
			provider TEXT NOT NULL,
			voice TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_artifacts_created ON artifacts (created_at)`,
	}

	for _, query := range queries {
		if _, err := m.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create manifest schema: %w", err)
		}
	}
	return nil
}

// Record stores a synthesized artifact, replacing an older row for the same file.
func (m *Manifest) Record(ctx context.Context, a audio.Artifact) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO artifacts (file, key, text, provider, voice, size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.File, a.Key, a.Text, a.Provider, a.Voice, a.Size, a.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record artifact %s: %w", a.File, err)
	}
	return nil
}

// List returns all rows, oldest first.
func (m *Manifest) List(ctx context.Context) ([]Entry, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT key, text, file, provider, voice, size, created_at
		 FROM artifacts ORDER BY created_at, file`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.Key, &e.Text, &e.File, &e.Provider, &e.Voice, &e.Size, &created); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q for %s: %w", created, e.File, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (m *Manifest) Close() error {
	return m.db.Close()
}
