package grammar

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest returns up to limit candidates close to name: fuzzy matches first,
// then anything within a small edit distance.
func Suggest(name string, candidates []string, limit int) []string {
	if name == "" || limit <= 0 {
		return nil
	}

	ranks := fuzzy.RankFindFold(name, candidates)
	sort.Sort(ranks)
	var out []string
	seen := make(map[string]bool)
	for _, r := range ranks {
		if len(out) == limit {
			return out
		}
		out = append(out, r.Target)
		seen[r.Target] = true
	}

	type scored struct {
		name string
		dist int
	}
	var near []scored
	maxDist := len(name)/3 + 1
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		if d := fuzzy.LevenshteinDistance(name, c); d <= maxDist {
			near = append(near, scored{c, d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].dist < near[j].dist })
	for _, c := range near {
		if len(out) == limit {
			break
		}
		out = append(out, c.name)
	}
	return out
}
