package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/deskwise/deskwise/internal/profile"
	"github.com/deskwise/deskwise/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	cacheConfig cache.Config

	// Caches
	messageCache *cache.Cache // cache for conversation message lists, keyed by thread id
	sourceCache  *cache.Cache // cache for the ingested document source list
}

const sourceCacheKey = "document_sources"

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
		OnEviction:      nil,
	}

	return &Store{
		driver:       driver,
		profile:      profile,
		cacheConfig:  cacheConfig,
		messageCache: cache.New(cacheConfig),
		sourceCache:  cache.New(cacheConfig),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	s.messageCache.Close()
	s.sourceCache.Close()
	return s.driver.Close()
}

// ListConversationMessages returns the full ordered message history for a thread.
// An unknown thread yields an empty slice, not an error.
func (s *Store) ListConversationMessages(ctx context.Context, find *FindMessages) ([]*Message, error) {
	if v, ok := s.messageCache.Get(ctx, find.ThreadID); ok {
		if messages, ok := v.([]*Message); ok {
			return messages, nil
		}
	}

	messages, err := s.driver.ListConversationMessages(ctx, find)
	if err != nil {
		return nil, err
	}
	s.messageCache.Set(ctx, find.ThreadID, messages)
	return messages, nil
}

// AppendConversationMessages persists a batch of messages for a thread in a
// single transaction, creating the conversation row on first use. Either the
// whole batch lands or none of it does.
func (s *Store) AppendConversationMessages(ctx context.Context, threadID string, messages []*Message) error {
	for _, message := range messages {
		if message.UID == "" {
			message.UID = shortuuid.New()
		}
	}
	if err := s.driver.AppendConversationMessages(ctx, threadID, messages); err != nil {
		return err
	}
	s.messageCache.Delete(ctx, threadID)
	return nil
}

// CreateDocumentChunks replaces all chunks for a source in one transaction.
func (s *Store) CreateDocumentChunks(ctx context.Context, source string, chunks []*DocumentChunk) error {
	if err := s.driver.CreateDocumentChunks(ctx, source, chunks); err != nil {
		return err
	}
	s.sourceCache.Delete(ctx, sourceCacheKey)
	return nil
}

// ListDocumentSources returns the distinct sources that have been ingested.
func (s *Store) ListDocumentSources(ctx context.Context) ([]string, error) {
	if v, ok := s.sourceCache.Get(ctx, sourceCacheKey); ok {
		if sources, ok := v.([]string); ok {
			return sources, nil
		}
	}

	sources, err := s.driver.ListDocumentSources(ctx)
	if err != nil {
		return nil, err
	}
	s.sourceCache.Set(ctx, sourceCacheKey, sources)
	return sources, nil
}

// SearchDocuments performs vector similarity search over document chunks.
func (s *Store) SearchDocuments(ctx context.Context, opts *SearchDocumentsOptions) ([]*DocumentChunkWithScore, error) {
	return s.driver.SearchDocuments(ctx, opts)
}
