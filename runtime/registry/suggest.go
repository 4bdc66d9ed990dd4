package registry

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxEditDistance bounds typo suggestions that are not fuzzy subsequence
// matches (e.g. "cpuu" for "cpu").
const maxEditDistance = 2

// Suggest returns the registered name closest to name, or "" when nothing is
// close. Subsequence matches rank first (a missing letter), then small edit
// distances (a swapped or extra letter).
func (r *Registry) Suggest(name string) string {
	return findClosestMatch(name, r.Names())
}

// findClosestMatch finds the closest string match using fuzzy matching
func findClosestMatch(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target
	}

	best, bestDistance := "", maxEditDistance+1
	for _, candidate := range candidates {
		d := fuzzy.LevenshteinDistance(target, candidate)
		if d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	return best
}
