// Package search provides the matching primitives behind §4.9's substring
// Search filter and the goto/project-selector overlays' typo-tolerant
// lookup.
package search

import "strings"

// Substring reports whether query is a case-insensitive substring of s,
// the exact rule §4.9 stage 7 uses against title and id.
func Substring(query, s string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(query))
}

// Fuzzy reports whether every rune of query appears in s in order,
// case-insensitive. Used by the project selector and goto-label entry
// where users type abbreviated fragments rather than full substrings.
func Fuzzy(query, s string) bool {
	q := []rune(strings.ToLower(query))
	t := []rune(strings.ToLower(s))
	qi := 0
	for ti := 0; qi < len(q) && ti < len(t); ti++ {
		if q[qi] == t[ti] {
			qi++
		}
	}
	return qi == len(q)
}

// Distance computes the case-insensitive Levenshtein edit distance
// between a and b, used to rank near-miss matches (e.g. a mistyped
// project name) above unrelated ones.
func Distance(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Rank sorts candidates by fuzzy-match quality against query: substring
// matches first, then fuzzy matches ordered by edit distance. Candidates
// matching neither are dropped.
func Rank(query string, candidates []string) []string {
	type scored struct {
		s    string
		dist int
		sub  bool
	}
	var out []scored
	for _, c := range candidates {
		switch {
		case Substring(query, c):
			out = append(out, scored{c, 0, true})
		case Fuzzy(query, c):
			out = append(out, scored{c, Distance(query, c), false})
		}
	}
	result := make([]string, 0, len(out))
	// stable bucket: substring matches first (already dist 0, sub true),
	// then fuzzy matches by ascending distance.
	for _, s := range out {
		if s.sub {
			result = append(result, s.s)
		}
	}
	for pass := 0; pass < len(out); pass++ {
		best := -1
		for i, s := range out {
			if s.sub {
				continue
			}
			if best == -1 || s.dist < out[best].dist {
				best = i
			}
		}
		if best == -1 {
			break
		}
		result = append(result, out[best].s)
		out[best].sub = true // mark consumed
	}
	return result
}
