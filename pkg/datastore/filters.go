// Package datastore defines the data model, filter grammar and store
// contracts of the federated observation data layer. Filters are immutable
// value objects built through per-kind builders; an implicit AND applies
// between all predicates of a filter, and filters of the same kind can be
// intersected to compute their logical conjunction.
package datastore

import (
	"slices"
	"strings"
)

// normInt64s returns a sorted copy of ids with duplicates removed.
func normInt64s(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// normStrings returns a sorted copy of ss with duplicates removed.
func normStrings(ss []string) []string {
	if len(ss) == 0 {
		return nil
	}
	out := slices.Clone(ss)
	slices.Sort(out)
	return slices.Compact(out)
}

// normBigIDs returns a sorted copy of ids with duplicates removed.
func normBigIDs(ids []BigID) []BigID {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.SortFunc(out, BigID.Cmp)
	return slices.CompactFunc(out, BigID.Equal)
}

// intersectInt64s computes the intersection of two normalized ID sets.
// An empty set means "unconstrained" and acts as identity; two constrained
// sets with no common element yield ErrEmptyIntersection.
func intersectInt64s(a, b []int64) ([]int64, error) {
	if len(a) == 0 {
		return slices.Clone(b), nil
	}
	if len(b) == 0 {
		return slices.Clone(a), nil
	}
	var out []int64
	for _, id := range a {
		if _, ok := slices.BinarySearch(b, id); ok {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyIntersection
	}
	return out, nil
}

func intersectStrings(a, b []string) ([]string, error) {
	if len(a) == 0 {
		return slices.Clone(b), nil
	}
	if len(b) == 0 {
		return slices.Clone(a), nil
	}
	var out []string
	for _, s := range a {
		if _, ok := slices.BinarySearch(b, s); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyIntersection
	}
	return out, nil
}

// uidCoveredBy reports whether every UID matched by x is also matched by y.
// x and y are UID predicates, either concrete UIDs or trailing-"*" patterns.
func uidCoveredBy(x, y string) bool {
	if py, ok := strings.CutSuffix(y, "*"); ok {
		px, _ := strings.CutSuffix(x, "*")
		return strings.HasPrefix(px, py)
	}
	return x == y
}

// intersectUIDs computes the conjunction of two UID predicate sets, honoring
// trailing-"*" namespace patterns. A predicate survives when the other side
// covers it, so a concrete UID inside the other side's namespace is kept and
// of two nested patterns the narrower one is kept. An empty set acts as
// identity; no surviving predicate yields ErrEmptyIntersection.
func intersectUIDs(a, b []string) ([]string, error) {
	if len(a) == 0 {
		return slices.Clone(b), nil
	}
	if len(b) == 0 {
		return slices.Clone(a), nil
	}
	var out []string
	for _, x := range a {
		for _, y := range b {
			if uidCoveredBy(x, y) {
				out = append(out, x)
				break
			}
		}
	}
	for _, y := range b {
		for _, x := range a {
			if uidCoveredBy(y, x) {
				out = append(out, y)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyIntersection
	}
	return normStrings(out), nil
}

func intersectBigIDs(a, b []BigID) ([]BigID, error) {
	if len(a) == 0 {
		return slices.Clone(b), nil
	}
	if len(b) == 0 {
		return slices.Clone(a), nil
	}
	var out []BigID
	for _, id := range a {
		if _, ok := slices.BinarySearchFunc(b, id, BigID.Cmp); ok {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyIntersection
	}
	return out, nil
}

func intersectTimeRange(a, b *TimeRange) (*TimeRange, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	out, ok := a.Intersect(*b)
	if !ok {
		return nil, ErrEmptyIntersection
	}
	return &out, nil
}

func intersectBbox(a, b *Bbox) (*Bbox, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	out, ok := a.Intersect(*b)
	if !ok {
		return nil, ErrEmptyIntersection
	}
	return &out, nil
}

// mergeLimit keeps the tighter of two result limits (0 = unlimited).
func mergeLimit(a, b int64) int64 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

// mergeKeywords concatenates free-text terms; all terms must match.
func mergeKeywords(a, b []string) []string {
	if len(a) == 0 {
		return slices.Clone(b)
	}
	if len(b) == 0 {
		return slices.Clone(a)
	}
	return normStrings(append(slices.Clone(a), b...))
}

// MatchesUID reports whether a registered UID pattern matches the given UID.
// Patterns ending in "*" match every UID starting with the prefix before
// the star; any other pattern matches exactly.
func MatchesUID(pattern, uid string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(uid, prefix)
	}
	return pattern == uid
}

// matchKeywords reports whether all terms appear in at least one of the
// candidate texts (case-insensitive).
func matchKeywords(terms []string, texts ...string) bool {
	for _, term := range terms {
		found := false
		for _, txt := range texts {
			if strings.Contains(strings.ToLower(txt), strings.ToLower(term)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
