// Package types provides shared type definitions for the askdocs backend.
//
// This package defines the domain types used across the retrieval engine
// and its collaborators: documents, stored vectors, scored candidates,
// and the sentinel errors the engine surfaces.
//
// # Core Types
//
// Document is the unit of retrievable text supplied by a corpus loader:
//
//	doc := types.Document{
//	    ID:   "markdown-headers",
//	    Text: "Headers in markdown start with one or more # characters...",
//	    Metadata: types.Metadata{
//	        Category:  "markdown-basics",
//	        Published: "2024-03-01",
//	    },
//	}
//
// DocumentVector pairs a document with its embedding and is owned
// exclusively by the vector store. ScoredCandidate is the transient
// per-query result type carrying the component scores computed during
// reranking:
//
//	relevance  cosine similarity to the query embedding
//	diversity  1 - mean similarity to the other candidates
//	freshness  exponential decay over days since publication
//	final      0.5*relevance + 0.2*diversity + 0.1*freshness + 0.2*context
//
// # Errors
//
// Callers distinguish an unusable engine from an empty result set via
// sentinel errors:
//
//	if errors.Is(err, types.ErrNotInitialized) {
//	    // engine not ready (or initialization failed); retry is pointless
//	}
package types
