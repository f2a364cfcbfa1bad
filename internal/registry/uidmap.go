package registry

import (
	"slices"
	"strings"
)

// uidMap maps procedure unique IDs to database numbers. Patterns ending in
// "*" claim the whole namespace under the prefix. The map is immutable:
// mutation methods return a new map, so a snapshot can be published
// atomically and read without locking.
type uidMap struct {
	exact map[string]int
	// wildcards holds namespace claims sorted by prefix; the longest
	// matching prefix wins on lookup.
	wildcards []wildcardEntry
}

type wildcardEntry struct {
	prefix string
	dbNum  int
}

func newUIDMap() *uidMap {
	return &uidMap{exact: map[string]int{}}
}

// get returns the database number claiming uid, matching exact entries
// first, then the longest wildcard prefix.
func (m *uidMap) get(uid string) (int, bool) {
	if num, ok := m.exact[uid]; ok {
		return num, true
	}
	best := -1
	bestLen := -1
	for _, w := range m.wildcards {
		if strings.HasPrefix(uid, w.prefix) && len(w.prefix) > bestLen {
			best = w.dbNum
			bestLen = len(w.prefix)
		}
	}
	if bestLen < 0 {
		return 0, false
	}
	return best, true
}

// lookup returns the database number for the pattern as registered, without
// prefix matching.
func (m *uidMap) lookup(pattern string) (int, bool) {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		for _, w := range m.wildcards {
			if w.prefix == prefix {
				return w.dbNum, true
			}
		}
		return 0, false
	}
	num, ok := m.exact[pattern]
	return num, ok
}

// claimant returns the database holding a claim identical to, covering, or
// covered by the pattern.
func (m *uidMap) claimant(pattern string) (int, bool) {
	if num, ok := m.lookup(pattern); ok {
		return num, true
	}
	prefix, wild := strings.CutSuffix(pattern, "*")
	if wild {
		for uid, num := range m.exact {
			if strings.HasPrefix(uid, prefix) {
				return num, true
			}
		}
	}
	for _, w := range m.wildcards {
		if strings.HasPrefix(prefix, w.prefix) || (wild && strings.HasPrefix(w.prefix, prefix)) {
			return w.dbNum, true
		}
	}
	return 0, false
}

// put returns a copy of the map with the pattern claimed by dbNum. ok is
// false when the pattern repeats an existing claim or overlaps a claim held
// by another database (the original map is returned). Every UID has exactly
// one owner; claims may still nest within the same database, where the
// longest prefix wins on lookup.
func (m *uidMap) put(pattern string, dbNum int) (*uidMap, bool) {
	if _, exists := m.lookup(pattern); exists {
		return m, false
	}
	if owner, claimed := m.claimant(pattern); claimed && owner != dbNum {
		return m, false
	}
	out := m.clone()
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		out.wildcards = append(out.wildcards, wildcardEntry{prefix: prefix, dbNum: dbNum})
		slices.SortFunc(out.wildcards, func(a, b wildcardEntry) int {
			return strings.Compare(a.prefix, b.prefix)
		})
	} else {
		out.exact[pattern] = dbNum
	}
	return out, true
}

// delete returns a copy of the map without the pattern.
func (m *uidMap) delete(pattern string) *uidMap {
	out := m.clone()
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		out.wildcards = slices.DeleteFunc(out.wildcards, func(w wildcardEntry) bool {
			return w.prefix == prefix
		})
	} else {
		delete(out.exact, pattern)
	}
	return out
}

// deleteDatabase returns a copy of the map without any claim held by dbNum.
func (m *uidMap) deleteDatabase(dbNum int) *uidMap {
	out := m.clone()
	for uid, num := range out.exact {
		if num == dbNum {
			delete(out.exact, uid)
		}
	}
	out.wildcards = slices.DeleteFunc(out.wildcards, func(w wildcardEntry) bool {
		return w.dbNum == dbNum
	})
	return out
}

func (m *uidMap) clone() *uidMap {
	out := &uidMap{
		exact:     make(map[string]int, len(m.exact)),
		wildcards: slices.Clone(m.wildcards),
	}
	for k, v := range m.exact {
		out.exact[k] = v
	}
	return out
}
