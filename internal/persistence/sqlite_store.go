// Package persistence keeps the small amount of durable bookkeeping the
// addon needs: artifact version counters and a log of produced artifacts.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifact_versions (
	key     TEXT PRIMARY KEY,
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS artifacts (
	name       TEXT PRIMARY KEY,
	content_id TEXT NOT NULL,
	main_lang  TEXT NOT NULL,
	trans_lang TEXT NOT NULL,
	url        TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// NextVersion bumps and returns the artifact version counter for key, so a
// re-merge never overwrites a file a client may still be fetching.
func (s *SQLiteStore) NextVersion(ctx context.Context, key string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM artifact_versions WHERE key = ?`, key).Scan(&version)
	switch err {
	case nil:
		version++
		_, err = tx.ExecContext(ctx,
			`UPDATE artifact_versions SET version = ? WHERE key = ?`, version, key)
	case sql.ErrNoRows:
		version = 1
		_, err = tx.ExecContext(ctx,
			`INSERT INTO artifact_versions (key, version) VALUES (?, ?)`, key, version)
	}
	if err != nil {
		return 0, fmt.Errorf("bump version for %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return version, nil
}

// ArtifactRecord describes one published artifact.
type ArtifactRecord struct {
	Name      string
	ContentID string
	MainLang  string
	TransLang string
	URL       string
	SizeBytes int
	CreatedAt time.Time
}

// RecordArtifact stores (or refreshes) the record of a published artifact.
func (s *SQLiteStore) RecordArtifact(ctx context.Context, rec ArtifactRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO artifacts (name, content_id, main_lang, trans_lang, url, size_bytes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET url = excluded.url, size_bytes = excluded.size_bytes, created_at = excluded.created_at`,
		rec.Name, rec.ContentID, rec.MainLang, rec.TransLang, rec.URL, rec.SizeBytes, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("record artifact %s: %w", rec.Name, err)
	}
	return nil
}

// RecentArtifacts lists the latest published artifacts, newest first.
func (s *SQLiteStore) RecentArtifacts(ctx context.Context, limit int) ([]ArtifactRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, content_id, main_lang, trans_lang, url, size_bytes, created_at
FROM artifacts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArtifactRecord
	for rows.Next() {
		var rec ArtifactRecord
		if err := rows.Scan(&rec.Name, &rec.ContentID, &rec.MainLang, &rec.TransLang,
			&rec.URL, &rec.SizeBytes, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
