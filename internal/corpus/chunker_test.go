package corpus

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/pkg/types"
)

func TestChunkShortDocumentUnchanged(t *testing.T) {
	c := NewChunker(1200, 200)
	doc := types.Document{
		ID:       "short",
		Text:     "A brief note.",
		Metadata: types.Metadata{Category: "notes"},
	}

	out := c.Chunk(doc)
	require.Len(t, out, 1)
	assert.Equal(t, "short", out[0].ID)
	assert.Equal(t, "A brief note.", out[0].Text)
}

func TestChunkSplitsOnParagraphs(t *testing.T) {
	paraA := strings.Repeat("alpha ", 20)
	paraB := strings.Repeat("bravo ", 20)
	paraC := strings.Repeat("charlie ", 20)
	text := strings.TrimSpace(paraA) + "\n\n" + strings.TrimSpace(paraB) + "\n\n" + strings.TrimSpace(paraC)

	c := NewChunker(200, 0)
	out := c.Chunk(types.Document{
		ID:       "doc",
		Text:     text,
		Metadata: types.Metadata{Category: "test", Difficulty: "beginner"},
	})

	require.Greater(t, len(out), 1)
	for i, chunk := range out {
		assert.Equal(t, fmt.Sprintf("doc#%d", i), chunk.ID)
		assert.LessOrEqual(t, len(chunk.Text), 200)
		assert.Equal(t, "test", chunk.Metadata.Category, "metadata must carry over")
		assert.Equal(t, "beginner", chunk.Metadata.Difficulty)
	}
}

func TestChunkOverlapCarriesTail(t *testing.T) {
	paraA := strings.TrimSpace(strings.Repeat("first ", 30))
	paraB := strings.TrimSpace(strings.Repeat("second ", 30))

	c := NewChunker(200, 50)
	out := c.Chunk(types.Document{ID: "doc", Text: paraA + "\n\n" + paraB})

	require.Greater(t, len(out), 1)
	tail := out[0].Text[len(out[0].Text)-50:]
	assert.True(t, strings.HasPrefix(out[1].Text, tail),
		"second chunk should start with the first chunk's tail")
}

func TestChunkHardSplitsOversizedParagraph(t *testing.T) {
	// One paragraph, no blank lines, far past the limit.
	text := strings.TrimSpace(strings.Repeat("x yyyy zzzz ", 100))

	c := NewChunker(120, 0)
	out := c.Chunk(types.Document{ID: "big", Text: text})

	require.Greater(t, len(out), 1)
	for _, chunk := range out {
		assert.LessOrEqual(t, len(chunk.Text), 120)
		assert.NotEmpty(t, chunk.Text)
	}
}

func TestChunkTinyMaxSizeMakesProgress(t *testing.T) {
	// maxSize 2 with overlap 1 passes the constructor clamp but leaves
	// no room once the overlap tail and separator are accounted for;
	// chunking must still terminate instead of panicking.
	c := NewChunker(2, 1)
	out := c.Chunk(types.Document{ID: "tiny", Text: strings.Repeat("a", 50)})

	require.NotEmpty(t, out)
	for _, chunk := range out {
		assert.NotEmpty(t, strings.TrimSpace(chunk.Text))
	}
}

func TestNewChunkerClampsOverlap(t *testing.T) {
	c := NewChunker(100, 500)
	assert.Equal(t, 50, c.overlap)

	c = NewChunker(0, -1)
	assert.Equal(t, DefaultMaxChunkSize, c.maxSize)
	assert.Equal(t, DefaultChunkOverlap, c.overlap)
}

func TestEstimateTokenCount(t *testing.T) {
	assert.Equal(t, 3, EstimateTokenCount("twelve chars"))
	assert.Equal(t, 0, EstimateTokenCount(""))
}
