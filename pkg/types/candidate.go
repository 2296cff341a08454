package types

// ContextType categorizes how a candidate relates to the query. It is
// purely descriptive and never feeds back into scoring.
type ContextType string

const (
	ContextExactMatch ContextType = "exact-match"
	ContextSemantic   ContextType = "semantic-similarity"
	ContextRelated    ContextType = "related"
	ContextConceptual ContextType = "conceptual"
)

// ScoredCandidate is a document under consideration for a single query.
// Instances are created per query and discarded once the query completes;
// they are never persisted.
type ScoredCandidate struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`

	Embedding []float32 `json:"-"`

	RelevanceScore float64     `json:"relevanceScore"`
	DiversityScore float64     `json:"diversityScore"`
	FreshnessScore float64     `json:"freshnessScore"`
	ContextType    ContextType `json:"contextType"`
	FinalScore     float64     `json:"finalScore"`
}

// Stats reports the observable shape of an initialized store.
type Stats struct {
	DocumentCount int      `json:"documentCount"`
	KeywordCount  int      `json:"keywordCount"`
	CategoryCount int      `json:"categoryCount"`
	Categories    []string `json:"categories"`
}
