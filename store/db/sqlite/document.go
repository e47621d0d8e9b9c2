package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/deskwise/deskwise/store"
)

// ============================================================================
// SQLITE DOCUMENT FEATURES (Not Supported)
// ============================================================================
// SQLite does NOT support vector search (no pgvector equivalent).
// For document retrieval, use PostgreSQL.
// ============================================================================

// CreateDocumentChunks is NOT supported for SQLite.
// Vector storage requires PostgreSQL with pgvector extension.
func (d *DB) CreateDocumentChunks(ctx context.Context, source string, chunks []*store.DocumentChunk) error {
	return errors.New("document chunk storage requires PostgreSQL with pgvector extension")
}

// ListDocumentSources is NOT supported for SQLite.
func (d *DB) ListDocumentSources(ctx context.Context) ([]string, error) {
	return nil, errors.New("document chunk storage requires PostgreSQL with pgvector extension")
}

// SearchDocuments is NOT supported for SQLite.
// Vector similarity search requires PostgreSQL with pgvector extension.
func (d *DB) SearchDocuments(ctx context.Context, opts *store.SearchDocumentsOptions) ([]*store.DocumentChunkWithScore, error) {
	return nil, errors.New("vector search requires PostgreSQL with pgvector extension")
}
