package datastore

import "slices"

// ObsFilter selects observations. All predicates are ANDed; a nil filter or
// an absent predicate is unconstrained.
type ObsFilter struct {
	internalIDs    []BigID
	phenomenonTime *TimeRange
	resultTime     *TimeRange
	limit          int64
	dataStreams    *DataStreamFilter
	fois           *FoiFilter
}

// InternalIDs returns the internal ID constraint, or nil.
func (f *ObsFilter) InternalIDs() []BigID {
	if f == nil {
		return nil
	}
	return slices.Clone(f.internalIDs)
}

// PhenomenonTime returns the phenomenon time constraint, or nil.
func (f *ObsFilter) PhenomenonTime() *TimeRange {
	if f == nil || f.phenomenonTime == nil {
		return nil
	}
	r := *f.phenomenonTime
	return &r
}

// ResultTime returns the result time constraint, or nil.
func (f *ObsFilter) ResultTime() *TimeRange {
	if f == nil || f.resultTime == nil {
		return nil
	}
	r := *f.resultTime
	return &r
}

// Limit returns the maximum number of results, 0 meaning unlimited.
func (f *ObsFilter) Limit() int64 {
	if f == nil {
		return 0
	}
	return f.limit
}

// DataStreams returns the nested filter on the parent data stream, or nil.
func (f *ObsFilter) DataStreams() *DataStreamFilter {
	if f == nil {
		return nil
	}
	return f.dataStreams
}

// Fois returns the nested filter on the feature of interest, or nil.
func (f *ObsFilter) Fois() *FoiFilter {
	if f == nil {
		return nil
	}
	return f.fois
}

// Intersect computes the logical AND of two observation filters.
func (f *ObsFilter) Intersect(other *ObsFilter) (*ObsFilter, error) {
	if f == nil {
		return other, nil
	}
	if other == nil {
		return f, nil
	}
	out := &ObsFilter{}
	var err error
	if out.internalIDs, err = intersectBigIDs(f.internalIDs, other.internalIDs); err != nil {
		return nil, err
	}
	if out.phenomenonTime, err = intersectTimeRange(f.phenomenonTime, other.phenomenonTime); err != nil {
		return nil, err
	}
	if out.resultTime, err = intersectTimeRange(f.resultTime, other.resultTime); err != nil {
		return nil, err
	}
	if out.dataStreams, err = f.dataStreams.Intersect(other.dataStreams); err != nil {
		return nil, err
	}
	if out.fois, err = f.fois.Intersect(other.fois); err != nil {
		return nil, err
	}
	out.limit = mergeLimit(f.limit, other.limit)
	return out, nil
}

// Matches evaluates the filter's scalar predicates against an observation
// entry. Nested data-stream and FOI predicates are resolved by the store
// implementations.
func (f *ObsFilter) Matches(key BigID, obs ObsData) bool {
	if f == nil {
		return true
	}
	if len(f.internalIDs) > 0 {
		if _, ok := slices.BinarySearchFunc(f.internalIDs, key, BigID.Cmp); !ok {
			return false
		}
	}
	if f.phenomenonTime != nil && !f.phenomenonTime.Contains(obs.PhenomenonTime) {
		return false
	}
	if f.resultTime != nil && !f.resultTime.Contains(obs.ResultTime) {
		return false
	}
	return true
}

// ObsFilterBuilder accumulates predicates for an ObsFilter.
type ObsFilterBuilder struct {
	f ObsFilter
}

// NewObsFilter returns an empty builder.
func NewObsFilter() *ObsFilterBuilder {
	return &ObsFilterBuilder{}
}

// ObsFilterFrom returns a builder pre-populated from base.
func ObsFilterFrom(base *ObsFilter) *ObsFilterBuilder {
	b := &ObsFilterBuilder{}
	if base != nil {
		b.f = *base
	}
	return b
}

// WithInternalIDs keeps only observations with the given internal IDs.
func (b *ObsFilterBuilder) WithInternalIDs(ids ...BigID) *ObsFilterBuilder {
	b.f.internalIDs = ids
	return b
}

// WithPhenomenonTime keeps only observations sampled during the range.
func (b *ObsFilterBuilder) WithPhenomenonTime(r TimeRange) *ObsFilterBuilder {
	b.f.phenomenonTime = &r
	return b
}

// WithResultTime keeps only observations whose result was produced during
// the range.
func (b *ObsFilterBuilder) WithResultTime(r TimeRange) *ObsFilterBuilder {
	b.f.resultTime = &r
	return b
}

// WithLimit caps the number of results.
func (b *ObsFilterBuilder) WithLimit(n int64) *ObsFilterBuilder {
	b.f.limit = n
	return b
}

// WithDataStreams keeps only observations in matching data streams.
func (b *ObsFilterBuilder) WithDataStreams(filter *DataStreamFilter) *ObsFilterBuilder {
	b.f.dataStreams = filter
	return b
}

// WithDataStreamIDs keeps only observations in the data streams with the
// given internal IDs.
func (b *ObsFilterBuilder) WithDataStreamIDs(ids ...int64) *ObsFilterBuilder {
	b.f.dataStreams = NewDataStreamFilter().WithInternalIDs(ids...).Build()
	return b
}

// WithProcedureUIDs keeps only observations produced by the procedures with
// the given unique IDs.
func (b *ObsFilterBuilder) WithProcedureUIDs(uids ...string) *ObsFilterBuilder {
	b.f.dataStreams = NewDataStreamFilter().WithProcedureUIDs(uids...).Build()
	return b
}

// WithFois keeps only observations of matching features of interest.
func (b *ObsFilterBuilder) WithFois(filter *FoiFilter) *ObsFilterBuilder {
	b.f.fois = filter
	return b
}

// Build freezes and returns the filter.
func (b *ObsFilterBuilder) Build() *ObsFilter {
	f := b.f
	f.internalIDs = normBigIDs(f.internalIDs)
	return &f
}
