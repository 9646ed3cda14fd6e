// Package storage provides SQLite-backed persistence for the engine's
// durable state: the scalar counters behind the rate limiter and cost
// ledger, and the classification history kept for prompt-version accuracy
// analysis.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/penfold-notes/penfold/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the KVStore interface and the classification
// history log using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath must not be empty")
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Get retrieves a scalar value by key.
func (s *SQLiteStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_counters WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores a scalar value by key, replacing any previous value.
func (s *SQLiteStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_counters (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

// ClassificationRecord is one row of the classification history log.
type ClassificationRecord struct {
	CreatedAt     time.Time
	Snippet       string
	Type          model.NoteType
	Method        model.ClassificationMethod
	PromptVersion string
	ID            int64
	Confidence    float64
}

// snippetLimit bounds how much note text the history row retains.
const snippetLimit = 120

// RecordClassification appends a classification result to the history log.
func (s *SQLiteStorage) RecordClassification(ctx context.Context, text string, result model.ClassificationResult) error {
	snippet := text
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO classification_history (snippet, note_type, confidence, method, prompt_version)
		VALUES (?, ?, ?, ?, ?)`,
		snippet, string(result.Type), result.Confidence, string(result.Method), result.PromptVersion)
	if err != nil {
		return fmt.Errorf("failed to record classification: %w", err)
	}
	return nil
}

// ListClassifications returns the most recent history rows, newest first.
func (s *SQLiteStorage) ListClassifications(ctx context.Context, limit int) ([]ClassificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, snippet, note_type, confidence, method, prompt_version, created_at
		FROM classification_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query classification history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []ClassificationRecord
	for rows.Next() {
		var rec ClassificationRecord
		var noteType, method string
		if err := rows.Scan(&rec.ID, &rec.Snippet, &noteType, &rec.Confidence, &method, &rec.PromptVersion, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan classification row: %w", err)
		}
		rec.Type = model.NoteType(noteType)
		rec.Method = model.ClassificationMethod(method)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading classification rows: %w", err)
	}
	return records, nil
}
