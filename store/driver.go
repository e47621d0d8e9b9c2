package store

import (
	"context"
	"database/sql"
)

// Driver is the low-level interface for database access.
// It contains all methods that a store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	Migrate(ctx context.Context) error

	// Conversation persistence.
	ListConversationMessages(ctx context.Context, find *FindMessages) ([]*Message, error)
	AppendConversationMessages(ctx context.Context, threadID string, messages []*Message) error

	// Document chunks.
	CreateDocumentChunks(ctx context.Context, source string, chunks []*DocumentChunk) error
	ListDocumentSources(ctx context.Context) ([]string, error)
	SearchDocuments(ctx context.Context, opts *SearchDocumentsOptions) ([]*DocumentChunkWithScore, error)
}
