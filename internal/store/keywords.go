package store

import (
	"regexp"
	"sort"
	"strings"
)

// maxKeywords caps how many keywords a document (or query) contributes
// to the inverted index.
const maxKeywords = 10

var nonWordPattern = regexp.MustCompile(`[^a-z0-9_]+`)

// stopWords holds common words excluded from the keyword index. Tokens
// of length <= 3 are dropped before this set is consulted, so only
// longer words appear here.
var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "they": {},
	"have": {}, "been": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "there": {}, "their": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "them": {}, "than": {}, "then": {},
	"were": {}, "your": {}, "about": {}, "into": {}, "only": {},
	"also": {}, "more": {}, "some": {}, "such": {}, "very": {},
	"just": {}, "like": {}, "each": {}, "other": {}, "these": {},
	"those": {}, "because": {}, "does": {}, "doing": {}, "being": {},
}

// ExtractKeywords returns up to maxKeywords keywords from text: the
// text is lowercased, non-word runs collapse to single spaces, tokens
// of length <= 3 and stop words are discarded, and the survivors are
// ranked by descending frequency with ties broken by first appearance.
func ExtractKeywords(text string) []string {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(text), " ")

	counts := make(map[string]int)
	order := make([]string, 0, 32)
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) <= 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, seen := counts[tok]; !seen {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}
