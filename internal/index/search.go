package index

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/go-phpls/phpls/internal/symbols"
)

// SearchResult pairs a descriptor with its fuzzy match score (higher is a
// better match).
type SearchResult struct {
	Descriptor symbols.Descriptor
	Score      float64
}

// Search ranks every indexed type/function/constant descriptor against
// query using Levenshtein-distance similarity on ShortName, falling back
// to a substring match against the FQN for multi-segment queries (e.g.
// "App\User" should still find `App\User` before an unrelated class
// merely named User). Per spec.md §4.5 this is "the union of
// type/function/constant FQNs" -- members are excluded, matching
// distance-based ranking bennypowers-cem uses for its own diagnostics
// suggestions.
func (idx *Index) Search(query string, limit int) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	lowerQuery := strings.ToLower(query)

	var results []SearchResult
	collect := func(_ string, d symbols.Descriptor) {
		score := matchScore(lowerQuery, d)
		if score <= 0 {
			return
		}
		results = append(results, SearchResult{Descriptor: d, Score: score})
	}
	idx.byType.forEach(collect)
	idx.byFunction.forEach(collect)
	idx.byConstant.forEach(collect)

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Descriptor.FQN < results[j].Descriptor.FQN
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func matchScore(lowerQuery string, d symbols.Descriptor) float64 {
	short := strings.ToLower(d.ShortName)
	fqn := strings.ToLower(d.FQN)

	if short == lowerQuery {
		return 100
	}
	if strings.HasPrefix(short, lowerQuery) {
		return 90
	}
	if strings.Contains(fqn, lowerQuery) {
		return 70
	}

	longest := len(short)
	if len(lowerQuery) > longest {
		longest = len(lowerQuery)
	}
	if longest == 0 {
		return 0
	}
	distance := levenshtein.Distance(lowerQuery, short, nil)
	similarity := 1 - float64(distance)/float64(longest)
	if similarity < 0.4 {
		return 0
	}
	return similarity * 60
}
