package datastore

import "slices"

// DataStreamFilter selects data streams. All predicates are ANDed; a nil
// filter or an absent predicate is unconstrained.
type DataStreamFilter struct {
	internalIDs  []int64
	outputNames  []string
	validTime    *TimeRange
	keywords     []string
	limit        int64
	procedures   *ProcedureFilter
	observations *ObsFilter
}

// InternalIDs returns the internal ID constraint, or nil.
func (f *DataStreamFilter) InternalIDs() []int64 {
	if f == nil {
		return nil
	}
	return slices.Clone(f.internalIDs)
}

// OutputNames returns the output name constraint, or nil.
func (f *DataStreamFilter) OutputNames() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.outputNames)
}

// ValidTime returns the validity time constraint, or nil.
func (f *DataStreamFilter) ValidTime() *TimeRange {
	if f == nil || f.validTime == nil {
		return nil
	}
	r := *f.validTime
	return &r
}

// Keywords returns the free-text constraint, or nil.
func (f *DataStreamFilter) Keywords() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.keywords)
}

// Limit returns the maximum number of results, 0 meaning unlimited.
func (f *DataStreamFilter) Limit() int64 {
	if f == nil {
		return 0
	}
	return f.limit
}

// Procedures returns the nested filter on the parent procedure, or nil.
func (f *DataStreamFilter) Procedures() *ProcedureFilter {
	if f == nil {
		return nil
	}
	return f.procedures
}

// Observations returns the nested filter on the stream's observations,
// or nil.
func (f *DataStreamFilter) Observations() *ObsFilter {
	if f == nil {
		return nil
	}
	return f.observations
}

// Intersect computes the logical AND of two data stream filters.
func (f *DataStreamFilter) Intersect(other *DataStreamFilter) (*DataStreamFilter, error) {
	if f == nil {
		return other, nil
	}
	if other == nil {
		return f, nil
	}
	out := &DataStreamFilter{}
	var err error
	if out.internalIDs, err = intersectInt64s(f.internalIDs, other.internalIDs); err != nil {
		return nil, err
	}
	if out.outputNames, err = intersectStrings(f.outputNames, other.outputNames); err != nil {
		return nil, err
	}
	if out.validTime, err = intersectTimeRange(f.validTime, other.validTime); err != nil {
		return nil, err
	}
	if out.procedures, err = f.procedures.Intersect(other.procedures); err != nil {
		return nil, err
	}
	if out.observations, err = f.observations.Intersect(other.observations); err != nil {
		return nil, err
	}
	out.keywords = mergeKeywords(f.keywords, other.keywords)
	out.limit = mergeLimit(f.limit, other.limit)
	return out, nil
}

// Matches evaluates the filter's scalar predicates against a data stream
// entry. Nested procedure and observation predicates are resolved by the
// store implementations.
func (f *DataStreamFilter) Matches(key DataStreamKey, ds DataStreamInfo) bool {
	if f == nil {
		return true
	}
	if len(f.internalIDs) > 0 {
		if _, ok := slices.BinarySearch(f.internalIDs, int64(key)); !ok {
			return false
		}
	}
	if len(f.outputNames) > 0 {
		if _, ok := slices.BinarySearch(f.outputNames, ds.OutputName); !ok {
			return false
		}
	}
	if f.validTime != nil {
		if _, ok := f.validTime.Intersect(ds.ValidTime); !ok {
			return false
		}
	}
	return matchKeywords(f.keywords, ds.OutputName, ds.RecordSchema)
}

// DataStreamFilterBuilder accumulates predicates for a DataStreamFilter.
type DataStreamFilterBuilder struct {
	f DataStreamFilter
}

// NewDataStreamFilter returns an empty builder.
func NewDataStreamFilter() *DataStreamFilterBuilder {
	return &DataStreamFilterBuilder{}
}

// DataStreamFilterFrom returns a builder pre-populated from base.
func DataStreamFilterFrom(base *DataStreamFilter) *DataStreamFilterBuilder {
	b := &DataStreamFilterBuilder{}
	if base != nil {
		b.f = *base
	}
	return b
}

// WithInternalIDs keeps only data streams with the given internal IDs.
func (b *DataStreamFilterBuilder) WithInternalIDs(ids ...int64) *DataStreamFilterBuilder {
	b.f.internalIDs = ids
	return b
}

// WithOutputNames keeps only data streams attached to the named outputs.
func (b *DataStreamFilterBuilder) WithOutputNames(names ...string) *DataStreamFilterBuilder {
	b.f.outputNames = names
	return b
}

// WithValidTime keeps only data streams valid during the range.
func (b *DataStreamFilterBuilder) WithValidTime(r TimeRange) *DataStreamFilterBuilder {
	b.f.validTime = &r
	return b
}

// WithKeywords keeps only data streams whose text fields contain every term.
func (b *DataStreamFilterBuilder) WithKeywords(terms ...string) *DataStreamFilterBuilder {
	b.f.keywords = terms
	return b
}

// WithLimit caps the number of results.
func (b *DataStreamFilterBuilder) WithLimit(n int64) *DataStreamFilterBuilder {
	b.f.limit = n
	return b
}

// WithProcedures keeps only data streams produced by matching procedures.
func (b *DataStreamFilterBuilder) WithProcedures(filter *ProcedureFilter) *DataStreamFilterBuilder {
	b.f.procedures = filter
	return b
}

// WithProcedureIDs keeps only data streams produced by the procedures with
// the given internal IDs.
func (b *DataStreamFilterBuilder) WithProcedureIDs(ids ...int64) *DataStreamFilterBuilder {
	b.f.procedures = NewProcedureFilter().WithInternalIDs(ids...).Build()
	return b
}

// WithProcedureUIDs keeps only data streams produced by the procedures with
// the given unique IDs.
func (b *DataStreamFilterBuilder) WithProcedureUIDs(uids ...string) *DataStreamFilterBuilder {
	b.f.procedures = NewProcedureFilter().WithUniqueIDs(uids...).Build()
	return b
}

// WithObservations keeps only data streams carrying matching observations.
func (b *DataStreamFilterBuilder) WithObservations(filter *ObsFilter) *DataStreamFilterBuilder {
	b.f.observations = filter
	return b
}

// Build freezes and returns the filter.
func (b *DataStreamFilterBuilder) Build() *DataStreamFilter {
	f := b.f
	f.internalIDs = normInt64s(f.internalIDs)
	f.outputNames = normStrings(f.outputNames)
	f.keywords = normStrings(f.keywords)
	return &f
}
