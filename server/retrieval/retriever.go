package retrieval

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/deskwise/deskwise/plugin/ai"
	"github.com/deskwise/deskwise/plugin/ai/agent"
	"github.com/deskwise/deskwise/store"
)

const (
	// defaultLimit is the number of chunks returned per search.
	defaultLimit = 10
	// defaultFetchLimit is the candidate pool size when a doc_type filter is
	// active. It must be large enough to find chunks of the target type among
	// all candidates.
	defaultFetchLimit = 300

	maxQueryLength = 1000
)

// Retriever answers document questions by embedding the query and running
// similarity search over ingested chunks, optionally narrowed to the document
// category the query implies.
type Retriever struct {
	store            *store.Store
	embeddingService ai.EmbeddingService
	logger           *slog.Logger
}

// Result is one retrieved chunk with its provenance.
type Result struct {
	Content string  `json:"content"`
	DocType string  `json:"doc_type"`
	Source  string  `json:"source"`
	Score   float32 `json:"score"`
}

func NewRetriever(st *store.Store, embeddingService ai.EmbeddingService, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		store:            st,
		embeddingService: embeddingService,
		logger:           logger,
	}
}

// Search embeds the query and returns the most similar chunks. When the query
// implies a document category, the category is applied as a filter over a
// widened candidate pool so the target type is not crowded out before
// filtering.
func (r *Retriever) Search(ctx context.Context, query string) ([]*Result, error) {
	if query == "" {
		return nil, errors.New("query is empty")
	}
	if len(query) > maxQueryLength {
		return nil, errors.Errorf("query too long: %d characters (max %d)", len(query), maxQueryLength)
	}

	vector, err := r.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}

	opts := &store.SearchDocumentsOptions{
		Vector: vector,
		Limit:  defaultLimit,
	}
	if docType := DetectDocType(query); docType != "" {
		opts.DocType = docType
		opts.FetchLimit = defaultFetchLimit
		r.logger.Debug("document search with category filter", "doc_type", docType)
	} else {
		r.logger.Debug("document search without category filter")
	}

	hits, err := r.store.SearchDocuments(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search documents")
	}

	results := make([]*Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, &Result{
			Content: hit.Chunk.Content,
			DocType: hit.Chunk.DocType,
			Source:  hit.Chunk.Source,
			Score:   hit.Score,
		})
	}
	return results, nil
}

// Tool adapts the retriever to the agent tool interface.
type Tool struct {
	retriever *Retriever
}

var _ agent.Tool = (*Tool)(nil)

func NewTool(retriever *Retriever) *Tool {
	return &Tool{retriever: retriever}
}

func (*Tool) Name() string {
	return agent.ToolNameDocumentSearch
}

func (*Tool) Description() string {
	return "MANDATORY tool for all document-based questions. " +
		"Always call this tool when the user asks about invoices, receipts, bills or expenditures; " +
		"customer reviews, feedback, ratings or testimonials; company policies, SOPs or guidelines; " +
		"email threads or support tickets; or anything else that could be answered from indexed documents. " +
		"Do not answer document-related questions without calling this tool first."
}

func (*Tool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The user's question, used for semantic search over indexed documents.",
			},
		},
		"required": []string{"query"},
	}
}

type toolArgs struct {
	Query string `json:"query"`
}

type toolResult struct {
	Query    string    `json:"query"`
	Context  []string  `json:"context"`
	Metadata []*Result `json:"metadata"`
}

// Run executes a document search from LLM-provided arguments and returns the
// result as a JSON payload for the model to read.
func (t *Tool) Run(ctx context.Context, argsJSON string) (string, error) {
	var args toolArgs
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", errors.Wrap(err, "failed to parse document_search arguments")
	}

	results, err := t.retriever.Search(ctx, args.Query)
	if err != nil {
		return "", err
	}

	payload := toolResult{
		Query:    args.Query,
		Context:  make([]string, 0, len(results)),
		Metadata: results,
	}
	for _, result := range results {
		payload.Context = append(payload.Context, result.Content)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal document_search result")
	}
	return string(out), nil
}
