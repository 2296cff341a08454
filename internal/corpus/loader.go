package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/askdocs/askdocs/internal/logger"
	"github.com/askdocs/askdocs/pkg/types"
)

// Loader reads documents from a corpus directory and, optionally, a
// sqlite database, chunking anything too large to embed whole.
type Loader struct {
	chunker *Chunker
}

// NewLoader creates a Loader that chunks with the given limits.
func NewLoader(maxChunkSize, overlap int) *Loader {
	return &Loader{chunker: NewChunker(maxChunkSize, overlap)}
}

// LoadDir walks dir and loads every .json and .md file it finds. JSON
// files hold either a single document or an array of documents; Markdown
// files become one document each, with optional front matter supplying
// the metadata. Unreadable or malformed files are logged and skipped so
// one bad file never blocks the rest of the corpus.
func (l *Loader) LoadDir(dir string) ([]types.Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", dir)
	}

	var docs []types.Document
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		var loaded []types.Document
		var loadErr error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			loaded, loadErr = l.loadJSON(path)
		case ".md", ".markdown":
			loaded, loadErr = l.loadMarkdown(dir, path)
		default:
			return nil
		}
		if loadErr != nil {
			logger.Warn("skipping corpus file", "path", path, "error", loadErr)
			return nil
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking corpus directory: %w", err)
	}

	logger.Info("corpus directory loaded",
		"dir", dir,
		"documents", len(docs),
		"tokens_estimated", estimateCorpusTokens(docs))
	return docs, nil
}

// estimateCorpusTokens sums the token estimates of every document, for
// load-time accounting of embedding cost.
func estimateCorpusTokens(docs []types.Document) int {
	var n int
	for _, d := range docs {
		n += EstimateTokenCount(d.Text)
	}
	return n
}

// LoadSQLite reads documents from the documents table of a sqlite
// database. The expected schema mirrors the JSON document shape: id,
// text, category, difficulty, published, source.
func (l *Loader) LoadSQLite(ctx context.Context, path string) ([]types.Document, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT id, text, category, difficulty, published, source FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var doc types.Document
		var category, difficulty, published, source sql.NullString
		if err := rows.Scan(&doc.ID, &doc.Text, &category, &difficulty, &published, &source); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		doc.Metadata = types.Metadata{
			Category:   category.String,
			Difficulty: difficulty.String,
			Published:  published.String,
			Source:     source.String,
		}
		docs = append(docs, l.chunker.Chunk(doc)...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading document rows: %w", err)
	}

	logger.Info("corpus database loaded",
		"path", path,
		"documents", len(docs),
		"tokens_estimated", estimateCorpusTokens(docs))
	return docs, nil
}

// loadJSON decodes one JSON corpus file. A leading '[' means an array of
// documents, anything else a single document object.
func (l *Loader) loadJSON(path string) ([]types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	var raw []types.Document
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	} else {
		var doc types.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		raw = []types.Document{doc}
	}

	var docs []types.Document
	for _, doc := range raw {
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("document %q: %w", doc.ID, err)
		}
		docs = append(docs, l.chunker.Chunk(doc)...)
	}
	return docs, nil
}

// loadMarkdown turns one markdown file into documents. The document ID is
// the file's path relative to the corpus root without its extension, so
// "guides/setup.md" becomes "guides/setup". Front matter between ---
// lines supplies metadata.
func (l *Loader) loadMarkdown(root, path string) ([]types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	id := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

	meta, body := parseFrontMatter(string(data))
	doc := types.Document{ID: id, Text: body, Metadata: meta}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return l.chunker.Chunk(doc), nil
}

// parseFrontMatter strips an optional leading front matter block and maps
// its known keys onto Metadata. Unknown keys are ignored.
func parseFrontMatter(content string) (types.Metadata, string) {
	var meta types.Metadata

	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---\n") {
		return meta, strings.TrimSpace(content)
	}

	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return meta, strings.TrimSpace(content)
	}

	for _, line := range strings.Split(rest[:end], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(strings.ToLower(key)) {
		case "category":
			meta.Category = value
		case "difficulty":
			meta.Difficulty = value
		case "published":
			meta.Published = value
		case "source":
			meta.Source = value
		}
	}

	body := rest[end+len("\n---"):]
	return meta, strings.TrimSpace(body)
}
