package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/deskwise/deskwise/plugin/ai"
	"github.com/deskwise/deskwise/store"
)

// Document categories recognized under the docs directory. Files in other
// directories are ingested with an empty category and only reachable through
// unfiltered search.
var knownCategories = map[string]bool{
	"invoices": true,
	"reviews":  true,
	"policies": true,
	"threads":  true,
}

var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".csv": true,
}

// Runner walks the docs directory, chunks and embeds new or changed files,
// and upserts the chunks into the store. It runs in the background on a
// fixed interval.
type Runner struct {
	store            *store.Store
	embeddingService ai.EmbeddingService
	docsDir          string
	interval         time.Duration

	// ingested maps source name to content modification time, so unchanged
	// files are skipped between passes.
	ingested map[string]time.Time
}

// NewRunner creates a document ingest runner over dataDir/docs.
func NewRunner(st *store.Store, embeddingService ai.EmbeddingService, dataDir string) *Runner {
	return &Runner{
		store:            st,
		embeddingService: embeddingService,
		docsDir:          filepath.Join(dataDir, "docs"),
		interval:         2 * time.Minute,
		ingested:         make(map[string]time.Time),
	}
}

// Run starts the background task. It processes once on startup, then on
// every tick until the context is canceled.
func (r *Runner) Run(ctx context.Context) {
	r.processOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.processOnce(ctx)
		case <-ctx.Done():
			slog.Info("ingest runner stopped")
			return
		}
	}
}

// RunOnce processes the docs directory once (for manual trigger).
func (r *Runner) RunOnce(ctx context.Context) {
	r.processOnce(ctx)
}

func (r *Runner) processOnce(ctx context.Context) {
	count, err := r.walkDocs(ctx)
	if err != nil {
		slog.Error("ingest pass failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("ingest pass finished", "files_ingested", count)
	}
}

func (r *Runner) walkDocs(ctx context.Context) (int, error) {
	if _, err := os.Stat(r.docsDir); os.IsNotExist(err) {
		return 0, nil
	}

	ingested := 0
	err := filepath.Walk(r.docsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() || !textExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		source, err := filepath.Rel(r.docsDir, path)
		if err != nil {
			return err
		}
		source = filepath.ToSlash(source)

		if last, ok := r.ingested[source]; ok && !info.ModTime().After(last) {
			return nil
		}

		if err := r.ingestFile(ctx, path, source); err != nil {
			slog.Error("failed to ingest file", "source", source, "error", err)
			return nil // keep walking
		}
		r.ingested[source] = info.ModTime()
		ingested++
		return nil
	})
	return ingested, err
}

func (r *Runner) ingestFile(ctx context.Context, path, source string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read file")
	}

	content := strings.TrimSpace(string(raw))
	if content == "" {
		return nil
	}

	docType := categoryOf(source)
	chunks := []*store.DocumentChunk{}
	for _, text := range ChunkDocument(content) {
		embedding, err := r.embeddingService.Embed(ctx, text)
		if err != nil {
			return errors.Wrap(err, "failed to embed chunk")
		}
		chunks = append(chunks, &store.DocumentChunk{
			DocType:   docType,
			Source:    source,
			Content:   text,
			Embedding: embedding,
		})
	}

	if err := r.store.CreateDocumentChunks(ctx, source, chunks); err != nil {
		return errors.Wrap(err, "failed to store chunks")
	}

	slog.Debug("file ingested", "source", source, "doc_type", docType, "chunks", len(chunks))
	return nil
}

// categoryOf derives the document category from the source's top directory.
func categoryOf(source string) string {
	parts := strings.SplitN(source, "/", 2)
	if len(parts) == 2 && knownCategories[parts[0]] {
		return parts[0]
	}
	return ""
}
