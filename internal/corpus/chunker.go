package corpus

import (
	"fmt"
	"strings"

	"github.com/askdocs/askdocs/pkg/types"
)

const (
	// DefaultMaxChunkSize is the target maximum chunk length in characters.
	DefaultMaxChunkSize = 1200

	// DefaultChunkOverlap is the number of trailing characters carried into
	// the next chunk so a statement split across a boundary stays searchable
	// from both sides.
	DefaultChunkOverlap = 200

	// TokensPerChar is the heuristic for estimating tokens (chars/4).
	TokensPerChar = 4
)

// Chunker splits prose documents into retrieval-sized pieces along
// paragraph boundaries.
type Chunker struct {
	maxSize int
	overlap int
}

// NewChunker creates a Chunker. Non-positive arguments fall back to the
// package defaults; an overlap at or above maxSize is clamped to half of
// it so chunking always advances.
func NewChunker(maxSize, overlap int) *Chunker {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= maxSize {
		overlap = maxSize / 2
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}
}

// Chunk splits doc into documents no longer than the configured maximum.
// Documents that already fit are returned unchanged as a single element.
// Split pieces get IDs of the form "<id>#<n>" and inherit the parent's
// metadata.
func (c *Chunker) Chunk(doc types.Document) []types.Document {
	text := strings.TrimSpace(doc.Text)
	if len(text) <= c.maxSize {
		doc.Text = text
		return []types.Document{doc}
	}

	pieces := c.split(text)
	out := make([]types.Document, 0, len(pieces))
	for i, piece := range pieces {
		out = append(out, types.Document{
			ID:       fmt.Sprintf("%s#%d", doc.ID, i),
			Text:     piece,
			Metadata: doc.Metadata,
		})
	}
	return out
}

// split packs paragraphs into chunks up to maxSize, carrying the overlap
// tail forward. A paragraph that cannot fit even in an empty chunk is
// hard-split at word boundaries.
func (c *Chunker) split(text string) []string {
	paragraphs := splitParagraphs(text)

	var chunks []string
	var b strings.Builder

	// flush emits the pending chunk and re-seeds the builder with its
	// overlap tail.
	flush := func() {
		if b.Len() == 0 {
			return
		}
		chunk := strings.TrimSpace(b.String())
		b.Reset()
		if chunk == "" {
			return
		}
		chunks = append(chunks, chunk)
		if c.overlap > 0 && len(chunk) > c.overlap {
			b.WriteString(chunk[len(chunk)-c.overlap:])
		}
	}

	// room is how many paragraph characters still fit, leaving space for
	// the separator when the chunk is non-empty. It never reports less
	// than one: with a tiny maxSize the overlap tail plus separator can
	// exceed the budget, and the loop below must still advance.
	room := func() int {
		r := c.maxSize - b.Len()
		if b.Len() > 0 {
			r -= 2
		}
		if r < 1 {
			r = 1
		}
		return r
	}
	appendPara := func(s string) {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s)
	}

	for _, para := range paragraphs {
		if b.Len() > 0 && len(para) > room() {
			flush()
		}
		for len(para) > room() {
			cut := wordBoundary(para, room())
			appendPara(para[:cut])
			para = strings.TrimSpace(para[cut:])
			flush()
		}
		if para != "" {
			appendPara(para)
		}
	}
	flush()

	return chunks
}

// splitParagraphs breaks text on blank lines, dropping empty runs.
func splitParagraphs(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// wordBoundary returns a cut position at or before limit, preferring the
// last space so words survive hard splits. The cut is always at least
// one byte so callers make progress on any limit.
func wordBoundary(s string, limit int) int {
	if limit >= len(s) {
		return len(s)
	}
	if limit < 1 {
		return 1
	}
	if idx := strings.LastIndexByte(s[:limit], ' '); idx > 0 {
		return idx
	}
	return limit
}

// EstimateTokenCount estimates the number of tokens in a string.
func EstimateTokenCount(text string) int {
	return len(text) / TokensPerChar
}
