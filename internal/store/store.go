package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/askdocs/askdocs/internal/embedder"
	"github.com/askdocs/askdocs/internal/logger"
	"github.com/askdocs/askdocs/pkg/types"
)

// semanticTopK is how many documents a semantic search returns before
// reranking.
const semanticTopK = 10

// State describes where the store is in its lifecycle.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// snapshot is an immutable view of the corpus and its indices. Queries
// load one pointer and work against it for their whole lifetime, so a
// concurrent mutation is observed either fully or not at all.
type snapshot struct {
	vectors  []types.DocumentVector
	keyword  map[string]map[string]struct{}
	category map[string]map[string]struct{}
}

// Store holds the document vectors and the keyword and category
// inverted indices. It is populated exactly once by Initialize; point
// mutations afterwards swap in a rebuilt snapshot atomically.
type Store struct {
	embed   *embedder.Service
	workers int

	mu      sync.Mutex // serializes initialization and mutations
	state   atomic.Int32
	ready   chan struct{} // closed once initialization completes, either way
	initErr error         // set before ready is closed when state is Failed

	snap atomic.Pointer[snapshot]
}

// New creates an empty store. workers bounds the concurrent embedding
// calls during initialization.
func New(embed *embedder.Service, workers int) *Store {
	if workers <= 0 {
		workers = 4
	}
	return &Store{
		embed:   embed,
		workers: workers,
		ready:   make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	return State(s.state.Load())
}

// AwaitReady blocks until initialization has completed. It returns nil
// once the store is Ready, the initialization error once it is Failed,
// and ctx.Err() if the context ends first. Initialization is never
// retried; a Failed store fails every waiter the same way.
func (s *Store) AwaitReady(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
	}

	if s.State() == StateFailed {
		return fmt.Errorf("%w: %v", types.ErrNotInitialized, s.initErr)
	}
	return nil
}

// FailInit moves an uninitialized store straight to Failed and releases
// the readiness gate with err. Callers use it when the corpus cannot be
// produced at all, so waiters observe the load error instead of an
// empty ready store. Once initialization has started or completed it
// does nothing.
func (s *Store) FailInit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateUninitialized {
		return
	}
	s.initErr = err
	s.state.Store(int32(StateFailed))
	close(s.ready)
}

// Initialize embeds the supplied documents and builds both indices.
// A document that fails validation or embedding is logged and skipped;
// only context cancellation aborts the whole load and marks the store
// Failed.
func (s *Store) Initialize(ctx context.Context, docs []types.Document) error {
	s.mu.Lock()
	if s.State() != StateUninitialized {
		s.mu.Unlock()
		return types.ErrAlreadyInitialized
	}
	s.state.Store(int32(StateInitializing))
	s.mu.Unlock()

	vectors, err := s.embedAll(ctx, docs)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.initErr = err
		s.state.Store(int32(StateFailed))
		close(s.ready)
		return fmt.Errorf("initialize store: %w", err)
	}

	snap := buildSnapshot(vectors)
	s.snap.Store(snap)
	s.state.Store(int32(StateReady))
	close(s.ready)

	logger.Info("vector store initialized",
		"documents", len(snap.vectors),
		"keywords", len(snap.keyword),
		"categories", len(snap.category),
		"skipped", len(docs)-len(snap.vectors))
	return nil
}

// embedAll embeds documents concurrently with a bounded worker pool,
// preserving input order and dropping documents that cannot be embedded.
func (s *Store) embedAll(ctx context.Context, docs []types.Document) ([]types.DocumentVector, error) {
	results := make([]*types.DocumentVector, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range docs {
		g.Go(func() error {
			doc := docs[i]
			if err := doc.Validate(); err != nil {
				logger.Warn("skipping invalid document", "id", doc.ID, "error", err)
				return nil
			}

			vec, err := s.embed.Embed(gctx, doc.Text)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("skipping document, embedding failed", "id", doc.ID, "error", err)
				return nil
			}
			if len(vec) != s.embed.Dimension() {
				logger.Warn("skipping document, unexpected embedding dimension",
					"id", doc.ID, "got", len(vec), "want", s.embed.Dimension())
				return nil
			}

			results[i] = &types.DocumentVector{Document: doc, Embedding: vec}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	vectors := make([]types.DocumentVector, 0, len(docs))
	for _, r := range results {
		if r != nil {
			vectors = append(vectors, *r)
		}
	}
	return vectors, nil
}

// buildSnapshot derives both inverted indices from the vector list.
// Every id the indices reference exists in vectors by construction.
func buildSnapshot(vectors []types.DocumentVector) *snapshot {
	snap := &snapshot{
		vectors:  vectors,
		keyword:  make(map[string]map[string]struct{}),
		category: make(map[string]map[string]struct{}),
	}

	for i := range vectors {
		dv := &vectors[i]
		for _, kw := range ExtractKeywords(dv.Text) {
			ids, ok := snap.keyword[kw]
			if !ok {
				ids = make(map[string]struct{})
				snap.keyword[kw] = ids
			}
			ids[dv.ID] = struct{}{}
		}

		if cat := dv.Metadata.Category; cat != "" {
			ids, ok := snap.category[cat]
			if !ok {
				ids = make(map[string]struct{})
				snap.category[cat] = ids
			}
			ids[dv.ID] = struct{}{}
		}
	}
	return snap
}

// View is a read handle over one snapshot. A query that performs
// several reads (semantic, keyword, category lookup) does them all
// through one View so a concurrent Add or Remove cannot be observed
// halfway through the query.
type View struct {
	snap *snapshot
}

// View returns a handle over the current snapshot, or
// types.ErrNotInitialized when no snapshot has been built yet.
func (s *Store) View() (*View, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, types.ErrNotInitialized
	}
	return &View{snap: snap}, nil
}

// SemanticSearch ranks every stored vector by cosine similarity to the
// query embedding and returns the top matches. Similarity values are
// recomputed downstream during reranking, so they are not retained here.
func (v *View) SemanticSearch(queryVec []float32) ([]types.DocumentVector, error) {
	snap := v.snap

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(snap.vectors))
	for i := range snap.vectors {
		sim, err := CosineSimilarity(queryVec, snap.vectors[i].Embedding)
		if err != nil {
			return nil, err
		}
		scores[i] = scored{idx: i, score: sim}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	limit := semanticTopK
	if limit > len(scores) {
		limit = len(scores)
	}
	out := make([]types.DocumentVector, limit)
	for i := 0; i < limit; i++ {
		out[i] = snap.vectors[scores[i].idx]
	}
	return out, nil
}

// KeywordSearch extracts keywords from the query with the same rule
// used at indexing time, unions the id sets of every hit, and returns
// the matching documents in store order. Ranking happens only later,
// during reranking.
func (v *View) KeywordSearch(query string) ([]types.DocumentVector, error) {
	snap := v.snap

	hits := make(map[string]struct{})
	for _, kw := range ExtractKeywords(query) {
		for id := range snap.keyword[kw] {
			hits[id] = struct{}{}
		}
	}

	out := make([]types.DocumentVector, 0, len(hits))
	for i := range snap.vectors {
		if _, ok := hits[snap.vectors[i].ID]; ok {
			out = append(out, snap.vectors[i])
		}
	}
	return out, nil
}

// IDsForCategories returns the union of document ids indexed under the
// given category labels.
func (v *View) IDsForCategories(categories []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, cat := range categories {
		for id := range v.snap.category[cat] {
			out[id] = struct{}{}
		}
	}
	return out
}

// AddDocument embeds and appends a single document, swapping in a
// rebuilt snapshot so in-flight queries keep their consistent view.
func (s *Store) AddDocument(ctx context.Context, doc types.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateReady {
		return types.ErrNotInitialized
	}
	snap := s.snap.Load()

	for i := range snap.vectors {
		if snap.vectors[i].ID == doc.ID {
			return fmt.Errorf("%w: %s", types.ErrDuplicateDocument, doc.ID)
		}
	}

	vec, err := s.embed.Embed(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", doc.ID, err)
	}
	if len(vec) != s.embed.Dimension() {
		return fmt.Errorf("%w: got %d, want %d", types.ErrDimensionMismatch, len(vec), s.embed.Dimension())
	}

	vectors := make([]types.DocumentVector, len(snap.vectors), len(snap.vectors)+1)
	copy(vectors, snap.vectors)
	vectors = append(vectors, types.DocumentVector{Document: doc, Embedding: vec})

	s.snap.Store(buildSnapshot(vectors))
	logger.Debug("document added", "id", doc.ID)
	return nil
}

// RemoveDocument drops a document and its index entries via snapshot
// swap.
func (s *Store) RemoveDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateReady {
		return types.ErrNotInitialized
	}
	snap := s.snap.Load()

	vectors := make([]types.DocumentVector, 0, len(snap.vectors))
	found := false
	for i := range snap.vectors {
		if snap.vectors[i].ID == id {
			found = true
			continue
		}
		vectors = append(vectors, snap.vectors[i])
	}
	if !found {
		return fmt.Errorf("%w: %s", types.ErrDocumentNotFound, id)
	}

	s.snap.Store(buildSnapshot(vectors))
	logger.Debug("document removed", "id", id)
	return nil
}

// Stats reports the observable shape of the store for the stats
// endpoint.
func (s *Store) Stats() types.Stats {
	snap := s.snap.Load()
	if snap == nil {
		return types.Stats{Categories: []string{}}
	}

	categories := make([]string, 0, len(snap.category))
	for cat := range snap.category {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	return types.Stats{
		DocumentCount: len(snap.vectors),
		KeywordCount:  len(snap.keyword),
		CategoryCount: len(snap.category),
		Categories:    categories,
	}
}
