package datastore

import "slices"

// FoiFilter selects features of interest. All predicates are ANDed; a nil
// filter or an absent predicate is unconstrained.
type FoiFilter struct {
	internalIDs  []int64
	uniqueIDs    []string
	validTime    *TimeRange
	location     *Bbox
	keywords     []string
	limit        int64
	observations *ObsFilter
}

// InternalIDs returns the internal ID constraint, or nil.
func (f *FoiFilter) InternalIDs() []int64 {
	if f == nil {
		return nil
	}
	return slices.Clone(f.internalIDs)
}

// UniqueIDs returns the unique ID constraint, or nil.
func (f *FoiFilter) UniqueIDs() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.uniqueIDs)
}

// ValidTime returns the validity time constraint, or nil.
func (f *FoiFilter) ValidTime() *TimeRange {
	if f == nil || f.validTime == nil {
		return nil
	}
	r := *f.validTime
	return &r
}

// Location returns the spatial constraint, or nil.
func (f *FoiFilter) Location() *Bbox {
	if f == nil || f.location == nil {
		return nil
	}
	b := *f.location
	return &b
}

// Keywords returns the free-text constraint, or nil.
func (f *FoiFilter) Keywords() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.keywords)
}

// Limit returns the maximum number of results, 0 meaning unlimited.
func (f *FoiFilter) Limit() int64 {
	if f == nil {
		return 0
	}
	return f.limit
}

// Observations returns the nested filter on observations of the feature,
// or nil.
func (f *FoiFilter) Observations() *ObsFilter {
	if f == nil {
		return nil
	}
	return f.observations
}

// Intersect computes the logical AND of two FOI filters.
func (f *FoiFilter) Intersect(other *FoiFilter) (*FoiFilter, error) {
	if f == nil {
		return other, nil
	}
	if other == nil {
		return f, nil
	}
	out := &FoiFilter{}
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
	if out.location, err = intersectBbox(f.location, other.location); err != nil {
		return nil, err
	}
	if out.observations, err = f.observations.Intersect(other.observations); err != nil {
		return nil, err
	}
	out.keywords = mergeKeywords(f.keywords, other.keywords)
	out.limit = mergeLimit(f.limit, other.limit)
	return out, nil
}

// Matches evaluates the filter's scalar predicates against a feature entry.
// The nested observation predicate is resolved by the store
// implementations.
func (f *FoiFilter) Matches(key FeatureKey, foi FeatureOfInterest) bool {
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
			if MatchesUID(pattern, foi.UniqueID) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.validTime != nil {
		if _, ok := f.validTime.Intersect(foi.ValidTime); !ok {
			return false
		}
	}
	if f.location != nil && !f.location.Intersects(foi.Geometry) {
		return false
	}
	return matchKeywords(f.keywords, foi.Name, foi.Description, foi.UniqueID)
}

// FoiFilterBuilder accumulates predicates for a FoiFilter.
type FoiFilterBuilder struct {
	f FoiFilter
}

// NewFoiFilter returns an empty builder.
func NewFoiFilter() *FoiFilterBuilder {
	return &FoiFilterBuilder{}
}

// FoiFilterFrom returns a builder pre-populated from base.
func FoiFilterFrom(base *FoiFilter) *FoiFilterBuilder {
	b := &FoiFilterBuilder{}
	if base != nil {
		b.f = *base
	}
	return b
}

// WithInternalIDs keeps only features with the given internal IDs.
func (b *FoiFilterBuilder) WithInternalIDs(ids ...int64) *FoiFilterBuilder {
	b.f.internalIDs = ids
	return b
}

// WithUniqueIDs keeps only features whose UID matches one of the given IDs;
// a trailing "*" matches a whole namespace.
func (b *FoiFilterBuilder) WithUniqueIDs(uids ...string) *FoiFilterBuilder {
	b.f.uniqueIDs = uids
	return b
}

// WithValidTime keeps only feature versions valid during the range.
func (b *FoiFilterBuilder) WithValidTime(r TimeRange) *FoiFilterBuilder {
	b.f.validTime = &r
	return b
}

// WithLocation keeps only features intersecting the bounding box.
func (b *FoiFilterBuilder) WithLocation(box Bbox) *FoiFilterBuilder {
	b.f.location = &box
	return b
}

// WithKeywords keeps only features whose text fields contain every term.
func (b *FoiFilterBuilder) WithKeywords(terms ...string) *FoiFilterBuilder {
	b.f.keywords = terms
	return b
}

// WithLimit caps the number of results.
func (b *FoiFilterBuilder) WithLimit(n int64) *FoiFilterBuilder {
	b.f.limit = n
	return b
}

// WithObservations keeps only features observed by matching observations.
func (b *FoiFilterBuilder) WithObservations(filter *ObsFilter) *FoiFilterBuilder {
	b.f.observations = filter
	return b
}

// Build freezes and returns the filter.
func (b *FoiFilterBuilder) Build() *FoiFilter {
	f := b.f
	f.internalIDs = normInt64s(f.internalIDs)
	f.uniqueIDs = normStrings(f.uniqueIDs)
	f.keywords = normStrings(f.keywords)
	return &f
}
