package types

import "strings"

// Metadata holds the optional descriptive fields a document may carry.
// Fields are plain strings; absence is represented by the empty string.
type Metadata struct {
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Published  string `json:"published,omitempty"`
	Source     string `json:"source,omitempty"`
}

// Document is a unit of retrievable text. Documents are immutable once
// ingested; the store replaces rather than mutates them.
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Validate checks if the document is suitable for ingestion
func (d *Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrEmptyDocumentID
	}
	if strings.TrimSpace(d.Text) == "" {
		return ErrEmptyDocumentText
	}
	return nil
}

// DocumentVector is a Document paired with its embedding. One exists per
// stored document; the embedding is written once at ingestion and never
// mutated afterwards.
type DocumentVector struct {
	Document
	Embedding []float32 `json:"-"`
}
