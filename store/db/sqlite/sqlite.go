package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/deskwise/deskwise/internal/profile"
	"github.com/deskwise/deskwise/store"
)

// ============================================================================
// SQLITE SUPPORT (Development/Testing - Limited)
// ============================================================================
// SQLite covers conversation persistence for local development without a
// PostgreSQL instance. Vector search is NOT supported (no pgvector
// equivalent); document retrieval requires PostgreSQL.
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	dsn := profile.DSN
	if dsn == "" {
		dbFile := filepath.Join(profile.Data, fmt.Sprintf("deskwise_%s.db", profile.Mode))
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", dbFile)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", dsn)
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{
		db:      db,
		profile: profile,
	}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

var migrationStmts = []string{
	`CREATE TABLE IF NOT EXISTS conversation (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		thread_id TEXT NOT NULL UNIQUE,
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_message (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uid TEXT NOT NULL UNIQUE,
		conversation_id INTEGER NOT NULL REFERENCES conversation(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		tool_calls TEXT NOT NULL DEFAULT '',
		tool_call_id TEXT NOT NULL DEFAULT '',
		tool_name TEXT NOT NULL DEFAULT '',
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_message_conversation_id ON conversation_message (conversation_id)`,
}

// Migrate applies the schema. All statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrationStmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to run migration statement: %s", stmt)
		}
	}
	return nil
}
