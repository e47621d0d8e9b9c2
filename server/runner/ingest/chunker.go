package ingest

import (
	"strings"
	"unicode"
)

const (
	// ChunkSize is the maximum character count per chunk.
	ChunkSize = 500
	// ChunkOverlap is the character count carried over between chunks.
	ChunkOverlap = 50
)

// ChunkDocument splits a document into chunks for embedding, preferring to
// cut at paragraph breaks when one falls near the size limit. Consecutive
// chunks share a small overlap so content near a boundary stays searchable.
func ChunkDocument(content string) []string {
	if len(content) <= ChunkSize {
		return []string{content}
	}

	paragraphs := splitParagraphs(content)

	var chunks []string
	var current strings.Builder

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current.Len()+len(para) > ChunkSize && current.Len() > 0 {
			chunks = append(chunks, current.String())

			current.Reset()
			if overlap := overlapText(chunks, ChunkOverlap); overlap != "" {
				current.WriteString(overlap)
				current.WriteString("\n\n")
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)

		// A paragraph longer than the chunk size is force-split.
		for current.Len() > ChunkSize {
			text := current.String()
			breakPoint := findBreakPoint(text[:ChunkSize])
			chunks = append(chunks, text[:breakPoint])

			remaining := text[breakPoint:]
			current.Reset()
			current.WriteString(remaining)
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func splitParagraphs(content string) []string {
	lines := strings.FieldsFunc(content, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	var result []string
	var current strings.Builder

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(line)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

// overlapText returns the tail of the previous chunk, trimmed to start at a
// word boundary.
func overlapText(chunks []string, overlapSize int) string {
	if len(chunks) == 0 {
		return ""
	}

	last := chunks[len(chunks)-1]
	if len(last) <= overlapSize {
		return last
	}

	overlap := last[len(last)-overlapSize:]
	if idx := strings.IndexAny(overlap, " \t"); idx > 0 {
		return overlap[idx+1:]
	}
	return overlap
}

// findBreakPoint finds a sentence or word boundary to split at, falling back
// to a hard split.
func findBreakPoint(text string) int {
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '.' || text[i] == '!' || text[i] == '?' {
			if i == len(text)-1 || unicode.IsSpace(rune(text[i+1])) {
				return i + 1
			}
		}
	}

	for i := len(text) - 1; i >= len(text)/2; i-- {
		if unicode.IsSpace(rune(text[i])) {
			return i
		}
	}

	return len(text)
}
