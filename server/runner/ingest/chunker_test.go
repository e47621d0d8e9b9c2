package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkDocumentShort(t *testing.T) {
	chunks := ChunkDocument("a short document")
	require.Equal(t, []string{"a short document"}, chunks)
}

func TestChunkDocumentParagraphs(t *testing.T) {
	para := strings.Repeat("word ", 60) // ~300 chars
	content := para + "\n\n" + para + "\n\n" + para

	chunks := ChunkDocument(content)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), ChunkSize+ChunkOverlap+2)
	}
}

func TestChunkDocumentLongParagraph(t *testing.T) {
	sentence := "This is a sentence that keeps going for a while. "
	content := strings.Repeat(sentence, 40) // ~2000 chars, no paragraph breaks

	chunks := ChunkDocument(content)
	require.Greater(t, len(chunks), 2)

	// Nothing gets lost at the front.
	require.True(t, strings.HasPrefix(chunks[0], "This is a sentence"))
}

func TestCategoryOf(t *testing.T) {
	require.Equal(t, "invoices", categoryOf("invoices/acme_2026.md"))
	require.Equal(t, "policies", categoryOf("policies/travel.txt"))
	require.Equal(t, "", categoryOf("misc/notes.md"))
	require.Equal(t, "", categoryOf("toplevel.md"))
}
