package postgres

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/deskwise/deskwise/store"
)

// CreateDocumentChunks replaces all chunks for a source. Delete and insert run
// in one transaction so a re-ingest never leaves a source half indexed.
func (d *DB) CreateDocumentChunks(ctx context.Context, source string, chunks []*store.DocumentChunk) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunk WHERE source = `+placeholder(1), source); err != nil {
		return errors.Wrap(err, "failed to delete old document chunks")
	}

	now := time.Now().Unix()
	stmt := `
		INSERT INTO document_chunk (doc_type, source, content, embedding, created_ts)
		VALUES (` + placeholders(5) + `)
	`
	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, stmt,
			chunk.DocType,
			source,
			chunk.Content,
			pgvector.NewVector(chunk.Embedding),
			now,
		); err != nil {
			return errors.Wrap(err, "failed to insert document chunk")
		}
	}

	return tx.Commit()
}

// ListDocumentSources returns the distinct ingested sources.
func (d *DB) ListDocumentSources(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT source FROM document_chunk ORDER BY source`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list document sources")
	}
	defer rows.Close()

	sources := []string{}
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, errors.Wrap(err, "failed to scan document source")
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sources, nil
}

// SearchDocuments performs vector similarity search using pgvector.
//
// The <=> operator computes cosine distance (1 - cosine_similarity), so we
// order by distance ASC to get the most similar chunks first. When DocType is
// set the category filter is applied over a widened candidate pool, otherwise
// a strict equality filter could starve the result set before ranking.
func (d *DB) SearchDocuments(ctx context.Context, opts *store.SearchDocumentsOptions) ([]*store.DocumentChunkWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	vector := pgvector.NewVector(opts.Vector)

	var query string
	var args []any
	if opts.DocType != "" {
		fetchLimit := opts.FetchLimit
		if fetchLimit <= 0 {
			fetchLimit = 300
		}
		query = `
			WITH candidates AS (
				SELECT id, doc_type, source, content, created_ts,
					1 - (embedding <=> ` + placeholder(1) + `) AS score
				FROM document_chunk
				ORDER BY embedding <=> ` + placeholder(2) + `
				LIMIT ` + placeholder(3) + `
			)
			SELECT id, doc_type, source, content, created_ts, score
			FROM candidates
			WHERE doc_type = ` + placeholder(4) + `
			ORDER BY score DESC
			LIMIT ` + placeholder(5)
		args = []any{vector, vector, fetchLimit, opts.DocType, limit}
	} else {
		query = `
			SELECT id, doc_type, source, content, created_ts,
				1 - (embedding <=> ` + placeholder(1) + `) AS score
			FROM document_chunk
			ORDER BY embedding <=> ` + placeholder(2) + `
			LIMIT ` + placeholder(3)
		args = []any{vector, vector, limit}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search documents")
	}
	defer rows.Close()

	results := []*store.DocumentChunkWithScore{}
	for rows.Next() {
		var result store.DocumentChunkWithScore
		var chunk store.DocumentChunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocType,
			&chunk.Source,
			&chunk.Content,
			&chunk.CreatedTs,
			&result.Score,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan search result")
		}
		result.Chunk = &chunk
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
