package services

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	types "github.com/mealwise/mealwise-backend/internal/domain"
)

// NormalizeDishName lowercases and collapses interior whitespace so that
// "  Grilled  chicken " and "Grilled Chicken" compare equal.
func NormalizeDishName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// DishIndex resolves free-text dish names against a catalog slice.
type DishIndex struct {
	byName map[string]*types.Dish
	names  []string
}

func NewDishIndex(dishes []*types.Dish) *DishIndex {
	ix := &DishIndex{byName: make(map[string]*types.Dish, len(dishes))}
	for _, d := range dishes {
		key := NormalizeDishName(d.Name)
		if key == "" {
			continue
		}
		if _, ok := ix.byName[key]; !ok {
			ix.byName[key] = d
			ix.names = append(ix.names, key)
		}
	}
	sort.Strings(ix.names)
	return ix
}

// ResolveExact returns the dish whose normalized name equals the input, or nil.
func (ix *DishIndex) ResolveExact(name string) *types.Dish {
	return ix.byName[NormalizeDishName(name)]
}

// ResolveFuzzy finds the nearest catalog name within the edit-distance
// threshold, breaking ties by shared-token count. Returns nil when nothing is
// close enough; callers must report such items, never invent matches.
func (ix *DishIndex) ResolveFuzzy(name string) *types.Dish {
	key := NormalizeDishName(name)
	if key == "" {
		return nil
	}
	if d, ok := ix.byName[key]; ok {
		return d
	}

	limit := fuzzyThreshold(len(key))
	bestDist := limit + 1
	bestOverlap := -1
	var best *types.Dish
	for _, candidate := range ix.names {
		dist := levenshtein.ComputeDistance(key, candidate)
		if dist > limit {
			continue
		}
		overlap := tokenOverlap(key, candidate)
		if dist < bestDist || (dist == bestDist && overlap > bestOverlap) {
			bestDist = dist
			bestOverlap = overlap
			best = ix.byName[candidate]
		}
	}
	return best
}

// Nearest lists up to n closest catalog names for suggestion messages.
func (ix *DishIndex) Nearest(name string, n int) []string {
	key := NormalizeDishName(name)
	if key == "" || n <= 0 {
		return nil
	}
	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	for _, candidate := range ix.names {
		d := levenshtein.ComputeDistance(key, candidate)
		if d <= len(candidate) { // everything qualifies, ranking is what matters
			candidates = append(candidates, scored{candidate, d})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})
	var out []string
	for _, c := range candidates {
		if len(out) == n {
			break
		}
		out = append(out, ix.byName[c.name].Name)
	}
	return out
}

// fuzzyThreshold scales the allowed edit distance with name length: short
// names tolerate 2 edits, longer ones a quarter of their length.
func fuzzyThreshold(n int) int {
	if n <= 12 {
		return 2
	}
	return (n + 3) / 4
}

func tokenOverlap(a, b string) int {
	at := strings.Fields(a)
	bt := map[string]bool{}
	for _, t := range strings.Fields(b) {
		bt[t] = true
	}
	count := 0
	for _, t := range at {
		if bt[t] {
			count++
		}
	}
	return count
}
