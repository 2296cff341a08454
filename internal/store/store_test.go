package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/internal/embedder"
	"github.com/askdocs/askdocs/pkg/types"
)

// stubProvider returns canned vectors per text so similarity ordering is
// controlled by the test. Unknown texts embed to a fixed default.
type stubProvider struct {
	dim     int
	vectors map[string][]float32
	failFor map[string]bool
}

func (p *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if p.failFor[text] {
		return nil, errors.New("stub failure")
	}
	if vec, ok := p.vectors[text]; ok {
		return vec, nil
	}
	vec := make([]float32, p.dim)
	vec[0] = 1
	return vec, nil
}

func (p *stubProvider) Dimension() int { return p.dim }
func (p *stubProvider) Name() string   { return "stub" }
func (p *stubProvider) Close() error   { return nil }

func testDocs() []types.Document {
	return []types.Document{
		{
			ID:   "md-basics",
			Text: "Markdown basics: markdown headers start with hash characters",
			Metadata: types.Metadata{
				Category:  "markdown-basics",
				Published: "2024-06-01",
			},
		},
		{
			ID:   "md-tables",
			Text: "Building tables with pipes and dashes in markdown documents",
			Metadata: types.Metadata{
				Category:   "markdown-advanced",
				Difficulty: "intermediate",
				Published:  "2024-01-15",
			},
		},
		{
			ID:   "git-intro",
			Text: "Version control with commits branches and merges explained",
			Metadata: types.Metadata{
				Category: "git",
			},
		},
	}
}

func newTestStore(t *testing.T, provider embedder.Provider) *Store {
	t.Helper()
	svc := embedder.NewService(provider, embedder.NewCache(100, time.Minute))
	return New(svc, 2)
}

func testView(t *testing.T, s *Store) *View {
	t.Helper()
	v, err := s.View()
	require.NoError(t, err)
	return v
}

func TestInitializeAndStats(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx, testDocs()))
	require.NoError(t, s.AwaitReady(ctx))
	assert.Equal(t, StateReady, s.State())

	stats := s.Stats()
	assert.Equal(t, 3, stats.DocumentCount)
	assert.Equal(t, 3, stats.CategoryCount)
	assert.Equal(t, []string{"git", "markdown-advanced", "markdown-basics"}, stats.Categories)
	assert.Greater(t, stats.KeywordCount, 0)
}

func TestInitializeTwice(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx, testDocs()))
	assert.ErrorIs(t, s.Initialize(ctx, testDocs()), types.ErrAlreadyInitialized)
}

func TestInitializeSkipsFailingDocuments(t *testing.T) {
	provider := &stubProvider{
		dim:     4,
		failFor: map[string]bool{"Version control with commits branches and merges explained": true},
	}
	s := newTestStore(t, provider)
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx, testDocs()))
	assert.Equal(t, 2, s.Stats().DocumentCount)

	// Index sets must not reference the skipped document.
	results, err := testView(t, s).KeywordSearch("version control branches")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInitializeCancelledContextFails(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Initialize(ctx, testDocs())
	require.Error(t, err)
	assert.Equal(t, StateFailed, s.State())

	// Every waiter observes the same distinguishable failure.
	err = s.AwaitReady(context.Background())
	assert.ErrorIs(t, err, types.ErrNotInitialized)
}

func TestAwaitReadyBlocksUntilInitialized(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.AwaitReady(ctx), context.DeadlineExceeded)
}

func TestKeywordSearchFindsVerbatimTerm(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})
	require.NoError(t, s.Initialize(context.Background(), testDocs()))

	results, err := testView(t, s).KeywordSearch("markdown")
	require.NoError(t, err)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	assert.Contains(t, ids, "md-basics")
	assert.Contains(t, ids, "md-tables")
	assert.NotContains(t, ids, "git-intro")
}

func TestKeywordSearchStoreOrder(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})
	require.NoError(t, s.Initialize(context.Background(), testDocs()))

	results, err := testView(t, s).KeywordSearch("markdown tables headers")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "md-basics", results[0].ID)
	assert.Equal(t, "md-tables", results[1].ID)
}

func TestSemanticSearchOrdering(t *testing.T) {
	docs := testDocs()
	provider := &stubProvider{
		dim: 4,
		vectors: map[string][]float32{
			docs[0].Text: {1, 0, 0, 0},
			docs[1].Text: {0.9, 0.1, 0, 0},
			docs[2].Text: {0, 0, 1, 0},
		},
	}
	s := newTestStore(t, provider)
	require.NoError(t, s.Initialize(context.Background(), docs))

	results, err := testView(t, s).SemanticSearch([]float32{1, 0, 0, 0})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "md-basics", results[0].ID)
	assert.Equal(t, "md-tables", results[1].ID)
	assert.Equal(t, "git-intro", results[2].ID)
}

func TestSemanticSearchDimensionMismatch(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})
	require.NoError(t, s.Initialize(context.Background(), testDocs()))

	_, err := testView(t, s).SemanticSearch([]float32{1, 0})
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestAddAndRemoveDocument(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx, testDocs()))

	doc := types.Document{
		ID:       "md-links",
		Text:     "Creating hyperlinks with brackets and parentheses in markdown",
		Metadata: types.Metadata{Category: "markdown-basics"},
	}
	require.NoError(t, s.AddDocument(ctx, doc))
	assert.Equal(t, 4, s.Stats().DocumentCount)

	// Duplicate ids are rejected; replacement goes through remove+add.
	assert.ErrorIs(t, s.AddDocument(ctx, doc), types.ErrDuplicateDocument)

	require.NoError(t, s.RemoveDocument("md-links"))
	assert.Equal(t, 3, s.Stats().DocumentCount)
	assert.ErrorIs(t, s.RemoveDocument("md-links"), types.ErrDocumentNotFound)

	// Index entries for the removed document are gone.
	results, err := testView(t, s).KeywordSearch("hyperlinks brackets parentheses")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIDsForCategories(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})
	require.NoError(t, s.Initialize(context.Background(), testDocs()))

	ids := testView(t, s).IDsForCategories([]string{"markdown-basics", "git"})
	assert.Len(t, ids, 2)
	_, ok := ids["md-basics"]
	assert.True(t, ok)
	_, ok = ids["git-intro"]
	assert.True(t, ok)
}

func TestFailInitReleasesWaitersWithError(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})

	s.FailInit(errors.New("corpus directory missing"))
	assert.Equal(t, StateFailed, s.State())

	// Waiters get the load error, not an empty ready store.
	err := s.AwaitReady(context.Background())
	require.ErrorIs(t, err, types.ErrNotInitialized)
	assert.Contains(t, err.Error(), "corpus directory missing")

	_, err = s.View()
	assert.ErrorIs(t, err, types.ErrNotInitialized)

	// A failed store never initializes later.
	assert.ErrorIs(t, s.Initialize(context.Background(), testDocs()), types.ErrAlreadyInitialized)
}

func TestFailInitAfterInitializeIsNoOp(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})
	require.NoError(t, s.Initialize(context.Background(), testDocs()))

	s.FailInit(errors.New("late failure"))

	assert.Equal(t, StateReady, s.State())
	assert.NoError(t, s.AwaitReady(context.Background()))
}

func TestViewIsStableAcrossMutations(t *testing.T) {
	s := newTestStore(t, &stubProvider{dim: 4})
	require.NoError(t, s.Initialize(context.Background(), testDocs()))

	before := testView(t, s)
	require.NoError(t, s.RemoveDocument("md-basics"))

	// The earlier view still answers from the snapshot it was taken
	// against; only a freshly taken view sees the removal.
	results, err := before.KeywordSearch("markdown")
	require.NoError(t, err)
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	assert.Contains(t, ids, "md-basics")

	after, err := testView(t, s).KeywordSearch("markdown")
	require.NoError(t, err)
	for _, r := range after {
		assert.NotEqual(t, "md-basics", r.ID)
	}
}
