package store

// DocumentChunk is one embedded chunk of an ingested document.
type DocumentChunk struct {
	ID        int32
	DocType   string // category label used as an equality filter during retrieval
	Source    string // originating file identifier
	Content   string
	Embedding []float32
	CreatedTs int64
}

// DocumentChunkWithScore is a similarity search hit.
type DocumentChunkWithScore struct {
	Chunk *DocumentChunk
	Score float32 // cosine similarity, higher is more similar
}

// SearchDocumentsOptions are the options for document similarity search.
type SearchDocumentsOptions struct {
	Vector []float32 // query vector
	Limit  int       // number of results to return, default 10

	// DocType, when set, is applied as an equality filter over a widened
	// candidate pool of FetchLimit raw hits, since filtering happens after
	// coarse ranking.
	DocType    string
	FetchLimit int // candidate pool size when DocType is set, default 300
}
