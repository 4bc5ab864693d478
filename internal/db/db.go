package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/threads/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// FileName is the database file name inside the base directory.
const FileName = "threads.db"

// Init initializes the SQLite database at baseDir/threads.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.threads.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Chmod again since MkdirAll leaves an existing directory alone (best-effort)
	_ = os.Chmod(baseDir, 0700)

	// Default export target lives next to the database
	exportsDir := filepath.Join(baseDir, config.ExportsDirName)
	if err := os.MkdirAll(exportsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}
	_ = os.Chmod(exportsDir, 0700)

	// Pragmas in the connection string apply to every pooled connection
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Make sure the journal_mode pragma took effect
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Migrations create the threads table, and the file on first open
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Tighten file permissions now that the file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: threads table plus list, status and purge indexes
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS threads (
		  id          TEXT PRIMARY KEY,
		  kind        TEXT NOT NULL,
		  title       TEXT NOT NULL,
		  body        TEXT NOT NULL DEFAULT '',
		  status      TEXT NOT NULL,
		  labels_json TEXT,
		  author      TEXT,
		  created_at  INTEGER NOT NULL,
		  updated_at  INTEGER NOT NULL,
		  closed_at   INTEGER,
		  deleted_at  INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_threads_kind_updated
		ON threads(kind, updated_at DESC)
		WHERE deleted_at IS NULL;

		CREATE INDEX IF NOT EXISTS idx_threads_status
		ON threads(status)
		WHERE deleted_at IS NULL;

		CREATE INDEX IF NOT EXISTS idx_threads_deleted
		ON threads(deleted_at)
		WHERE deleted_at IS NOT NULL;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
