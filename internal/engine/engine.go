package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/askdocs/askdocs/internal/embedder"
	"github.com/askdocs/askdocs/internal/store"
	"github.com/askdocs/askdocs/pkg/types"
)

// SearchType selects which candidate sources a query consults.
type SearchType string

const (
	SearchHybrid   SearchType = "hybrid"
	SearchSemantic SearchType = "semantic"
	SearchKeyword  SearchType = "keyword"
)

// DefaultMaxResults is the result budget when a request does not set one.
const DefaultMaxResults = 5

// DateRange bounds the publication date filter, inclusive on both ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Filters narrows the candidate set before reranking. A zero value (or
// empty category list) imposes no constraint.
type Filters struct {
	Categories []string
	Difficulty string
	DateRange  *DateRange
}

// QueryRequest contains parameters for a retrieval query.
type QueryRequest struct {
	Query      string
	Context    string // optional conversational context
	Filters    *Filters
	SearchType SearchType // default: hybrid
	MaxResults int        // default: DefaultMaxResults

	// Result caching is opt-in; cached entries bypass every stage
	// including reranking, so repeated dashboards get identical answers.
	UseCache bool
	CacheTTL time.Duration
}

// queryCacheEntry is a cached candidate list with its expiry.
type queryCacheEntry struct {
	results   []types.ScoredCandidate
	expiresAt time.Time
}

// Engine orchestrates hybrid retrieval: candidate gathering, filtering,
// deduplication, reranking, and diverse selection. All per-query state
// is local to the call; the only shared mutable resource it touches is
// the embedding cache, whose writes are idempotent.
type Engine struct {
	store *store.Store
	embed *embedder.Service
	cache *lru.Cache[[32]byte, *queryCacheEntry]
}

// New creates a retrieval engine over an initialized (or initializing)
// store.
func New(st *store.Store, embed *embedder.Service, cacheSize int) *Engine {
	if cacheSize <= 0 {
		cacheSize = 1000
	}
	cache, err := lru.New[[32]byte, *queryCacheEntry](cacheSize)
	if err != nil {
		// Unreachable with the clamp above.
		cache, _ = lru.New[[32]byte, *queryCacheEntry](1000)
	}
	return &Engine{store: st, embed: embed, cache: cache}
}

// Query answers a retrieval request. It blocks on the store's readiness
// gate first: a query against a store whose initialization failed gets
// a types.ErrNotInitialized error rather than an empty result, so
// callers can tell "no results" from "engine unusable". Embedding
// provider failures inside the query degrade to fallback vectors and
// never abort the call.
func (e *Engine) Query(ctx context.Context, req QueryRequest) ([]types.ScoredCandidate, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	if err := e.store.AwaitReady(ctx); err != nil {
		return nil, err
	}

	if req.UseCache {
		if cached, ok := e.checkCache(req); ok {
			return cached, nil
		}
	}

	// One view per query: every stage below reads the same corpus
	// state even while documents are added or removed concurrently.
	view, err := e.store.View()
	if err != nil {
		return nil, err
	}

	queryVec := e.embed.EmbedWithFallback(ctx, req.Query)

	candidates, err := gather(view, req.SearchType, req.Query, queryVec)
	if err != nil {
		return nil, err
	}

	candidates = applyFilters(view, candidates, req.Filters)
	candidates = dedupe(candidates)

	var contextVec []float32
	if req.Context != "" {
		// Computed once per query, not per candidate.
		contextVec = e.embed.EmbedWithFallback(ctx, req.Context)
	}

	ranked, err := rerank(queryVec, contextVec, candidates)
	if err != nil {
		return nil, err
	}

	results, err := selectDiverse(ranked, req.MaxResults)
	if err != nil {
		return nil, err
	}

	if req.UseCache && len(results) > 0 {
		e.storeInCache(req, results)
	}
	return results, nil
}

// gather collects candidates from the sources the search type names.
// Hybrid appends semantic hits first, then keyword hits; the duplicate
// ids this produces are resolved later by dedupe, which keeps first
// occurrences, so semantic hits win ties.
func gather(view *store.View, searchType SearchType, query string, queryVec []float32) ([]types.DocumentVector, error) {
	var candidates []types.DocumentVector

	if searchType == SearchHybrid || searchType == SearchSemantic {
		semantic, err := view.SemanticSearch(queryVec)
		if err != nil {
			return nil, fmt.Errorf("semantic search: %w", err)
		}
		candidates = append(candidates, semantic...)
	}

	if searchType == SearchHybrid || searchType == SearchKeyword {
		keyword, err := view.KeywordSearch(query)
		if err != nil {
			return nil, fmt.Errorf("keyword search: %w", err)
		}
		candidates = append(candidates, keyword...)
	}

	return candidates, nil
}

// applyFilters keeps candidates that satisfy every supplied filter.
func applyFilters(view *store.View, candidates []types.DocumentVector, filters *Filters) []types.DocumentVector {
	if filters == nil {
		return candidates
	}

	var allowed map[string]struct{}
	if len(filters.Categories) > 0 {
		allowed = view.IDsForCategories(filters.Categories)
	}

	out := candidates[:0]
	for _, c := range candidates {
		if allowed != nil {
			if _, ok := allowed[c.ID]; !ok {
				continue
			}
		}
		if filters.Difficulty != "" && c.Metadata.Difficulty != "" &&
			c.Metadata.Difficulty != filters.Difficulty {
			continue
		}
		if filters.DateRange != nil {
			// Unparsable or absent publish dates are exempt from the
			// range check, not excluded by it.
			if published, ok := parsePublished(c.Metadata.Published); ok {
				if published.Before(filters.DateRange.Start) || published.After(filters.DateRange.End) {
					continue
				}
			}
		}
		out = append(out, c)
	}
	return out
}

// dedupe drops repeated document ids, keeping the first occurrence.
func dedupe(candidates []types.DocumentVector) []types.DocumentVector {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Stats reports the store's observable shape.
func (e *Engine) Stats() types.Stats {
	return e.store.Stats()
}

// validateRequest applies defaults and rejects malformed requests.
func validateRequest(req *QueryRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return types.ErrEmptyQuery
	}

	if req.SearchType == "" {
		req.SearchType = SearchHybrid
	}
	switch req.SearchType {
	case SearchHybrid, SearchSemantic, SearchKeyword:
	default:
		return fmt.Errorf("%w: %s", types.ErrInvalidSearchType, req.SearchType)
	}

	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}
	if req.CacheTTL <= 0 {
		req.CacheTTL = 5 * time.Minute
	}
	return nil
}

// checkCache returns a copied cached result when present and fresh.
func (e *Engine) checkCache(req QueryRequest) ([]types.ScoredCandidate, bool) {
	hash := computeQueryHash(req)
	entry, ok := e.cache.Get(hash)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		e.cache.Remove(hash)
		return nil, false
	}

	results := make([]types.ScoredCandidate, len(entry.results))
	copy(results, entry.results)
	return results, true
}

// storeInCache saves a copy of the results under the request hash.
func (e *Engine) storeInCache(req QueryRequest, results []types.ScoredCandidate) {
	stored := make([]types.ScoredCandidate, len(results))
	copy(stored, results)
	e.cache.Add(computeQueryHash(req), &queryCacheEntry{
		results:   stored,
		expiresAt: time.Now().Add(req.CacheTTL),
	})
}

// InvalidateCache drops every cached query result. Called after
// document mutations so stale candidate lists do not outlive the corpus
// they were computed from.
func (e *Engine) InvalidateCache() {
	e.cache.Purge()
}

// computeQueryHash builds a deterministic digest of the request fields
// that influence its result.
func computeQueryHash(req QueryRequest) [32]byte {
	var b strings.Builder
	b.WriteString(req.Query)
	b.WriteString("|")
	b.WriteString(req.Context)
	b.WriteString("|")
	b.WriteString(string(req.SearchType))
	b.WriteString("|")
	b.WriteString(fmt.Sprintf("%d", req.MaxResults))

	if req.Filters != nil {
		b.WriteString("|filters:")
		b.WriteString(strings.Join(req.Filters.Categories, ","))
		b.WriteString("|")
		b.WriteString(req.Filters.Difficulty)
		if req.Filters.DateRange != nil {
			b.WriteString("|")
			b.WriteString(req.Filters.DateRange.Start.Format(time.RFC3339))
			b.WriteString("..")
			b.WriteString(req.Filters.DateRange.End.Format(time.RFC3339))
		}
	}

	return sha256.Sum256([]byte(b.String()))
}
