// Package engine implements hybrid retrieval over the in-memory vector
// store: candidate gathering, filtering, deduplication, multi-factor
// reranking, and diverse selection.
//
// # Query Pipeline
//
// Every query runs the same ordered stages:
//
//  1. Readiness gate — the call suspends until the store finished
//     initializing; a failed initialization fails the call with
//     types.ErrNotInitialized.
//  2. Gather — semantic search (top 10 by cosine similarity), keyword
//     search (inverted-index union, store order), or both appended in
//     that order for hybrid mode.
//  3. Filter — category, difficulty, and inclusive publication date
//     range; documents without a parsable date pass the range filter.
//  4. Deduplicate — first occurrence per document id wins, which gives
//     semantic hits priority in hybrid mode.
//  5. Rerank — composite score per candidate:
//
//     final = 0.5*relevance + 0.2*diversity + 0.1*freshness + 0.2*context
//
//     where relevance and context are cosine similarities against the
//     query and context embeddings, diversity is 1 minus the mean
//     similarity to the other candidates, and freshness decays
//     exponentially over a one-year scale.
//  6. Select — a greedy walk of the ranked list that rejects any
//     candidate more than 0.8 similar to one already accepted.
//
// # Failure Behavior
//
// Embedding provider failures inside a query are masked with
// pseudo-random fallback vectors; the query completes with degraded
// relevance instead of failing. Only a not-initialized store or a
// programming error (such as a vector dimension mismatch) propagates to
// the caller.
//
// # Caching
//
// Results can be cached per request hash with a TTL. Caching is opt-in
// via QueryRequest.UseCache and purged on document mutations.
package engine
