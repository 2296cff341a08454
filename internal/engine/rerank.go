package engine

import (
	"math"
	"sort"
	"time"

	"github.com/askdocs/askdocs/internal/store"
	"github.com/askdocs/askdocs/pkg/types"
)

// Scoring constants. The final score weights are fixed parameters of
// the design, not tunables.
const (
	relevanceWeight = 0.5
	diversityWeight = 0.2
	freshnessWeight = 0.1
	contextWeight   = 0.2

	// neutralFreshness is assigned when a document carries no parsable
	// publication date.
	neutralFreshness = 0.5

	// freshnessDecayDays sets the exponential decay scale: a year-old
	// document scores 1/e.
	freshnessDecayDays = 365.0

	// diversityCutoff is the similarity above which selectDiverse
	// rejects a candidate against an already accepted one.
	diversityCutoff = 0.8

	// contextType thresholds
	exactMatchThreshold = 0.8
	semanticThreshold   = 0.6
	relatedThreshold    = 0.5
)

// publishedLayouts are the date formats accepted in metadata.published.
var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// rerank computes the composite score for every deduplicated candidate
// and returns them sorted descending by final score, ties keeping the
// incoming candidate order. contextVec may be nil when the request
// carried no context.
func rerank(queryVec, contextVec []float32, candidates []types.DocumentVector) ([]types.ScoredCandidate, error) {
	now := time.Now()
	ranked := make([]types.ScoredCandidate, len(candidates))

	for i := range candidates {
		c := &candidates[i]

		relevance, err := store.CosineSimilarity(queryVec, c.Embedding)
		if err != nil {
			return nil, err
		}

		diversity, err := diversityScore(i, candidates)
		if err != nil {
			return nil, err
		}

		freshness := freshnessScore(c.Metadata.Published, now)

		contextScore := 0.0
		if contextVec != nil {
			if contextScore, err = store.CosineSimilarity(contextVec, c.Embedding); err != nil {
				return nil, err
			}
		}

		ranked[i] = types.ScoredCandidate{
			ID:             c.ID,
			Text:           c.Text,
			Metadata:       c.Metadata,
			Embedding:      c.Embedding,
			RelevanceScore: relevance,
			DiversityScore: diversity,
			FreshnessScore: freshness,
			ContextType:    classifyContext(relevance, contextScore),
			FinalScore: relevanceWeight*relevance +
				diversityWeight*diversity +
				freshnessWeight*freshness +
				contextWeight*contextScore,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
	return ranked, nil
}

// diversityScore is 1 minus the mean similarity of candidate i against
// every other member of the candidate set (not the whole corpus). A
// singleton set scores 1.
func diversityScore(i int, candidates []types.DocumentVector) (float64, error) {
	if len(candidates) <= 1 {
		return 1, nil
	}

	var total float64
	for j := range candidates {
		if j == i {
			continue
		}
		sim, err := store.CosineSimilarity(candidates[i].Embedding, candidates[j].Embedding)
		if err != nil {
			return 0, err
		}
		total += sim
	}
	return 1 - total/float64(len(candidates)-1), nil
}

// freshnessScore rewards recency with exponential decay over a one-year
// scale. It never clamps below 0; documents without a parsable
// publication date get a neutral constant.
func freshnessScore(published string, now time.Time) float64 {
	ts, ok := parsePublished(published)
	if !ok {
		return neutralFreshness
	}
	days := now.Sub(ts).Hours() / 24
	return math.Exp(-days / freshnessDecayDays)
}

// classifyContext labels how a candidate relates to the query. Purely
// descriptive; the label never feeds back into the score.
func classifyContext(relevance, contextScore float64) types.ContextType {
	switch {
	case relevance > exactMatchThreshold:
		return types.ContextExactMatch
	case relevance > semanticThreshold:
		return types.ContextSemantic
	case contextScore > relatedThreshold:
		return types.ContextRelated
	default:
		return types.ContextConceptual
	}
}

// selectDiverse walks the ranked list in order and greedily accepts
// candidates whose similarity to every already accepted embedding stays
// at or below the cutoff, stopping at maxResults. The walk is
// order-dependent on purpose: it follows the relevance-led ordering
// rather than searching for a globally optimal diverse subset.
func selectDiverse(ranked []types.ScoredCandidate, maxResults int) ([]types.ScoredCandidate, error) {
	selected := make([]types.ScoredCandidate, 0, maxResults)

	for i := range ranked {
		if len(selected) >= maxResults {
			break
		}

		diverse := true
		for j := range selected {
			sim, err := store.CosineSimilarity(ranked[i].Embedding, selected[j].Embedding)
			if err != nil {
				return nil, err
			}
			if sim > diversityCutoff {
				diverse = false
				break
			}
		}
		if diverse {
			selected = append(selected, ranked[i])
		}
	}
	return selected, nil
}

// parsePublished attempts the known date layouts in order.
func parsePublished(published string) (time.Time, bool) {
	if published == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if ts, err := time.Parse(layout, published); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
