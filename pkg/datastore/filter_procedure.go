package datastore

import "slices"

// ProcedureFilter selects procedures. All predicates are ANDed; a nil
// filter or an absent predicate is unconstrained.
type ProcedureFilter struct {
	internalIDs []int64
	uniqueIDs   []string
	validTime   *TimeRange
	keywords    []string
	limit       int64
	parent      *ProcedureFilter
	dataStreams *DataStreamFilter
}

// InternalIDs returns the internal ID constraint, or nil.
func (f *ProcedureFilter) InternalIDs() []int64 {
	if f == nil {
		return nil
	}
	return slices.Clone(f.internalIDs)
}

// UniqueIDs returns the unique ID constraint, or nil. Entries may carry a
// trailing "*" wildcard.
func (f *ProcedureFilter) UniqueIDs() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.uniqueIDs)
}

// ValidTime returns the validity time constraint, or nil.
func (f *ProcedureFilter) ValidTime() *TimeRange {
	if f == nil || f.validTime == nil {
		return nil
	}
	r := *f.validTime
	return &r
}

// Keywords returns the free-text constraint, or nil.
func (f *ProcedureFilter) Keywords() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.keywords)
}

// Limit returns the maximum number of results, 0 meaning unlimited.
func (f *ProcedureFilter) Limit() int64 {
	if f == nil {
		return 0
	}
	return f.limit
}

// Parent returns the nested filter on parent procedure groups, or nil.
func (f *ProcedureFilter) Parent() *ProcedureFilter {
	if f == nil {
		return nil
	}
	return f.parent
}

// DataStreams returns the nested filter on the procedure's data streams,
// or nil.
func (f *ProcedureFilter) DataStreams() *DataStreamFilter {
	if f == nil {
		return nil
	}
	return f.dataStreams
}

// Intersect computes the logical AND of two procedure filters. A nil filter
// acts as identity. ErrEmptyIntersection is returned when the filters
// cannot match any common procedure.
func (f *ProcedureFilter) Intersect(other *ProcedureFilter) (*ProcedureFilter, error) {
	if f == nil {
		return other, nil
	}
	if other == nil {
		return f, nil
	}
	out := &ProcedureFilter{}
	var err error
	if out.internalIDs, err = intersectInt64s(f.internalIDs, other.internalIDs); err != nil {
		return nil, err
	}
	if out.uniqueIDs, err = intersectUIDs(f.uniqueIDs, other.uniqueIDs); err != nil {
		return nil, err
	}
	if out.validTime, err = intersectTimeRange(f.validTime, other.validTime); err != nil {
		return nil, err
	}
	if out.parent, err = f.parent.Intersect(other.parent); err != nil {
		return nil, err
	}
	if out.dataStreams, err = f.dataStreams.Intersect(other.dataStreams); err != nil {
		return nil, err
	}
	out.keywords = mergeKeywords(f.keywords, other.keywords)
	out.limit = mergeLimit(f.limit, other.limit)
	return out, nil
}

// Matches evaluates the filter's scalar predicates against a procedure
// entry. Nested parent and data-stream predicates require store context and
// are resolved by the store implementations.
func (f *ProcedureFilter) Matches(key FeatureKey, p Procedure) bool {
	if f == nil {
		return true
	}
	if len(f.internalIDs) > 0 {
		if _, ok := slices.BinarySearch(f.internalIDs, key.InternalID); !ok {
			return false
		}
	}
	if len(f.uniqueIDs) > 0 {
		found := false
		for _, pattern := range f.uniqueIDs {
			if MatchesUID(pattern, p.UniqueID) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.validTime != nil {
		if _, ok := f.validTime.Intersect(p.ValidTime); !ok {
			return false
		}
	}
	return matchKeywords(f.keywords, p.Name, p.Description, p.UniqueID)
}

// ProcedureFilterBuilder accumulates predicates for a ProcedureFilter.
// Build normalizes ID sets and freezes the filter; the builder must not be
// reused afterwards.
type ProcedureFilterBuilder struct {
	f ProcedureFilter
}

// NewProcedureFilter returns an empty builder.
func NewProcedureFilter() *ProcedureFilterBuilder {
	return &ProcedureFilterBuilder{}
}

// ProcedureFilterFrom returns a builder pre-populated from base.
func ProcedureFilterFrom(base *ProcedureFilter) *ProcedureFilterBuilder {
	b := &ProcedureFilterBuilder{}
	if base != nil {
		b.f = *base
	}
	return b
}

// WithInternalIDs keeps only procedures with the given internal IDs.
func (b *ProcedureFilterBuilder) WithInternalIDs(ids ...int64) *ProcedureFilterBuilder {
	b.f.internalIDs = ids
	return b
}

// WithUniqueIDs keeps only procedures whose UID matches one of the given
// IDs; a trailing "*" matches a whole namespace.
func (b *ProcedureFilterBuilder) WithUniqueIDs(uids ...string) *ProcedureFilterBuilder {
	b.f.uniqueIDs = uids
	return b
}

// WithValidTime keeps only procedure versions valid during the range.
func (b *ProcedureFilterBuilder) WithValidTime(r TimeRange) *ProcedureFilterBuilder {
	b.f.validTime = &r
	return b
}

// WithKeywords keeps only procedures whose text fields contain every term.
func (b *ProcedureFilterBuilder) WithKeywords(terms ...string) *ProcedureFilterBuilder {
	b.f.keywords = terms
	return b
}

// WithLimit caps the number of results.
func (b *ProcedureFilterBuilder) WithLimit(n int64) *ProcedureFilterBuilder {
	b.f.limit = n
	return b
}

// WithParents keeps only procedures whose parent group matches the filter.
func (b *ProcedureFilterBuilder) WithParents(filter *ProcedureFilter) *ProcedureFilterBuilder {
	b.f.parent = filter
	return b
}

// WithNoParent keeps only top-level procedures.
func (b *ProcedureFilterBuilder) WithNoParent() *ProcedureFilterBuilder {
	b.f.parent = NewProcedureFilter().WithInternalIDs(0).Build()
	return b
}

// WithDataStreams keeps only procedures with data streams matching the
// filter.
func (b *ProcedureFilterBuilder) WithDataStreams(filter *DataStreamFilter) *ProcedureFilterBuilder {
	b.f.dataStreams = filter
	return b
}

// Build freezes and returns the filter.
func (b *ProcedureFilterBuilder) Build() *ProcedureFilter {
	f := b.f
	f.internalIDs = normInt64s(f.internalIDs)
	f.uniqueIDs = normStrings(f.uniqueIDs)
	f.keywords = normStrings(f.keywords)
	return &f
}
