package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// sqlitePreferenceRepo stores auto-translate flags in SQLite
type sqlitePreferenceRepo struct {
	db *sql.DB
	mu sync.Mutex
}

// NewPreferenceRepo creates a preference store. An empty dbPath keeps flags in
// memory only, matching the lifetime of the process.
func NewPreferenceRepo(dbPath string) (repo.PreferenceRepo, error) {
	if dbPath == "" {
		return NewMemoryPreferenceRepo(), nil
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			user_id TEXT PRIMARY KEY,
			auto_translate INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &sqlitePreferenceRepo{db: db}, nil
}

// AutoTranslate reports the user's flag, false when unset
func (r *sqlitePreferenceRepo) AutoTranslate(ctx context.Context, userID string) (bool, error) {
	var on bool
	err := r.db.QueryRowContext(ctx, `
		SELECT auto_translate FROM preferences WHERE user_id = ?
	`, userID).Scan(&on)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query preference: %w", err)
	}
	return on, nil
}

// ToggleAutoTranslate flips the flag and returns the new value
func (r *sqlitePreferenceRepo) ToggleAutoTranslate(ctx context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, auto_translate, updated_at)
		VALUES (?, 1, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			auto_translate = 1 - auto_translate,
			updated_at = excluded.updated_at
	`, userID, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to toggle preference: %w", err)
	}
	return r.AutoTranslate(ctx, userID)
}

// Close closes the database
func (r *sqlitePreferenceRepo) Close() error {
	return r.db.Close()
}

// memoryPreferenceRepo keeps flags in a map
type memoryPreferenceRepo struct {
	mu   sync.Mutex
	auto map[string]bool
}

// NewMemoryPreferenceRepo creates a process-local preference store
func NewMemoryPreferenceRepo() repo.PreferenceRepo {
	return &memoryPreferenceRepo{auto: make(map[string]bool)}
}

func (r *memoryPreferenceRepo) AutoTranslate(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.auto[userID], nil
}

func (r *memoryPreferenceRepo) ToggleAutoTranslate(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auto[userID] = !r.auto[userID]
	return r.auto[userID], nil
}

func (r *memoryPreferenceRepo) Close() error { return nil }
