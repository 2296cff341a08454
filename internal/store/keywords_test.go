package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "short tokens dropped",
			text: "the cat sat on a mat near the big dog",
			want: []string{"near"},
		},
		{
			name: "stop words dropped",
			text: "this is about markdown and this covers tables",
			want: []string{"markdown", "covers", "tables"},
		},
		{
			name: "punctuation stripped",
			text: "headers, *emphasis*, and `code-blocks` everywhere!",
			want: []string{"headers", "emphasis", "code", "blocks", "everywhere"},
		},
		{
			name: "case folded",
			text: "Markdown MARKDOWN markdown",
			want: []string{"markdown"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractKeywordsFrequencyOrder(t *testing.T) {
	text := "tables tables tables headers headers emphasis"
	got := ExtractKeywords(text)
	assert.Equal(t, []string{"tables", "headers", "emphasis"}, got)
}

func TestExtractKeywordsStableTieBreak(t *testing.T) {
	// Equal frequencies keep first-seen order.
	text := "alpha bravo charlie delta"
	got := ExtractKeywords(text)
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta"}, got)
}

func TestExtractKeywordsCapped(t *testing.T) {
	words := []string{
		"ocean", "mountain", "forest", "desert", "river",
		"valley", "glacier", "canyon", "island", "plateau",
		"tundra", "savanna", "lagoon",
	}
	got := ExtractKeywords(strings.Join(words, " "))
	assert.Len(t, got, maxKeywords)
	assert.Equal(t, words[:maxKeywords], got)
}
