package match

import (
	"cmp"
	"slices"
)

// MinSimilarity is the lowest score Suggest reports.
const MinSimilarity = 0.6

// Suggest returns up to limit candidates similar to name, best first.
// Ties keep candidate order. An exact normalized match always ranks first.
func Suggest(name string, candidates []string, limit int) []string {
	type scored struct {
		name  string
		score float64
	}

	var hits []scored

	for _, c := range candidates {
		if s := Similarity(name, c); s >= MinSimilarity {
			hits = append(hits, scored{c, s})
		}
	}

	slices.SortStableFunc(hits, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}

	return out
}
