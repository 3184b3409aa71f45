package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/suhba/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/suhba.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.suhba.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Fixture files are read from here by default
	importsDir := filepath.Join(baseDir, "imports")
	if err := os.MkdirAll(importsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create imports directory: %w", err)
	}
	_ = os.Chmod(importsDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "suhba.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify WAL mode is active
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
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

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS profiles (
		  id               TEXT PRIMARY KEY,
		  username         TEXT NOT NULL UNIQUE,
		  display_name     TEXT NOT NULL DEFAULT '',
		  avatar_url       TEXT,
		  bio              TEXT,
		  interests_json   TEXT,
		  location         TEXT,
		  last_active_at   INTEGER,
		  beneficial_count INTEGER NOT NULL DEFAULT 0,
		  traits_json      TEXT,
		  mentor_eligible  INTEGER NOT NULL DEFAULT 0,
		  created_at       INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_profiles_last_active
		ON profiles(last_active_at DESC)
		WHERE last_active_at IS NOT NULL;

		CREATE TABLE IF NOT EXISTS circles (
		  id   TEXT PRIMARY KEY,
		  name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS circle_members (
		  user_id   TEXT NOT NULL,
		  circle_id TEXT NOT NULL,
		  joined_at INTEGER NOT NULL,
		  PRIMARY KEY (user_id, circle_id)
		);

		CREATE INDEX IF NOT EXISTS idx_circle_members_circle
		ON circle_members(circle_id);

		CREATE TABLE IF NOT EXISTS connections (
		  id                  TEXT PRIMARY KEY,
		  requester_id        TEXT NOT NULL,
		  recipient_id        TEXT NOT NULL,
		  pair_low            TEXT NOT NULL,
		  pair_high           TEXT NOT NULL,
		  status              TEXT NOT NULL
		                      CHECK (status IN ('pending', 'accepted', 'declined', 'blocked')),
		  strength            INTEGER NOT NULL DEFAULT 0
		                      CHECK (strength BETWEEN 0 AND 100),
		  message             TEXT,
		  created_at          INTEGER NOT NULL,
		  updated_at          INTEGER NOT NULL,
		  last_interaction_at INTEGER,
		  CHECK (requester_id <> recipient_id)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_live_pair
		ON connections(pair_low, pair_high)
		WHERE status IN ('pending', 'accepted', 'blocked');

		CREATE INDEX IF NOT EXISTS idx_connections_requester
		ON connections(requester_id, status);

		CREATE INDEX IF NOT EXISTS idx_connections_recipient
		ON connections(recipient_id, status);

		CREATE TABLE IF NOT EXISTS interactions (
		  id            TEXT PRIMARY KEY,
		  connection_id TEXT NOT NULL,
		  type          TEXT NOT NULL,
		  created_at    INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_interactions_connection
		ON interactions(connection_id, created_at);

		CREATE TABLE IF NOT EXISTS posts (
		  id               TEXT PRIMARY KEY,
		  author_id        TEXT NOT NULL,
		  content          TEXT NOT NULL,
		  created_at       INTEGER NOT NULL,
		  beneficial_count INTEGER NOT NULL DEFAULT 0,
		  comment_count    INTEGER NOT NULL DEFAULT 0,
		  pinned           INTEGER NOT NULL DEFAULT 0,
		  circle_id        TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_posts_created
		ON posts(created_at DESC);

		CREATE TABLE IF NOT EXISTS beneficial_marks (
		  post_id    TEXT NOT NULL,
		  user_id    TEXT NOT NULL,
		  created_at INTEGER NOT NULL,
		  PRIMARY KEY (post_id, user_id)
		);

		CREATE INDEX IF NOT EXISTS idx_beneficial_marks_user
		ON beneficial_marks(user_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS comments (
		  id         TEXT PRIMARY KEY,
		  post_id    TEXT NOT NULL,
		  user_id    TEXT NOT NULL,
		  content    TEXT NOT NULL,
		  created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_comments_post
		ON comments(post_id, user_id);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

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
