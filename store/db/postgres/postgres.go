package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/deskwise/deskwise/internal/profile"
	"github.com/deskwise/deskwise/store"
)

// ============================================================================
// POSTGRESQL SUPPORT (Production - Full Support)
// ============================================================================
// PostgreSQL is the PRIMARY database for production use.
//
// All features are fully supported:
// - Conversation persistence with atomic turn appends
// - Vector search over document chunks (pgvector extension)
// - Concurrent writes
//
// When adding new features, PostgreSQL is the reference implementation.
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// Connection pool sized for a single-user assistant.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

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

// Embedding dimension of the OpenAI text-embedding-3-small model.
const embeddingDim = 1536

var migrationStmts = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS conversation (
		id SERIAL PRIMARY KEY,
		thread_id TEXT NOT NULL UNIQUE,
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_message (
		id SERIAL PRIMARY KEY,
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
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunk (
		id SERIAL PRIMARY KEY,
		doc_type TEXT NOT NULL,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%d),
		created_ts BIGINT NOT NULL
	)`, embeddingDim),
	`CREATE INDEX IF NOT EXISTS idx_document_chunk_source ON document_chunk (source)`,
	`CREATE INDEX IF NOT EXISTS idx_document_chunk_doc_type ON document_chunk (doc_type)`,
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
