package datastore

import "time"

// TimeRange is a closed time interval predicate. The zero value means
// "unconstrained". A range with equal Begin and End matches a single
// instant.
type TimeRange struct {
	Begin time.Time
	End   time.Time
}

// NewTimeRange builds a range from begin to end.
func NewTimeRange(begin, end time.Time) TimeRange {
	return TimeRange{Begin: begin, End: end}
}

// IsZero reports whether the range is unconstrained.
func (r TimeRange) IsZero() bool {
	return r.Begin.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls within the range. An unconstrained range
// contains every instant.
func (r TimeRange) Contains(t time.Time) bool {
	if r.IsZero() {
		return true
	}
	if !r.Begin.IsZero() && t.Before(r.Begin) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Intersect returns the interval common to both ranges. ok is false when the
// ranges are disjoint. An unconstrained range acts as identity.
func (r TimeRange) Intersect(other TimeRange) (TimeRange, bool) {
	if r.IsZero() {
		return other, true
	}
	if other.IsZero() {
		return r, true
	}
	out := r
	if other.Begin.After(out.Begin) {
		out.Begin = other.Begin
	}
	if out.End.IsZero() || (!other.End.IsZero() && other.End.Before(out.End)) {
		out.End = other.End
	}
	if !out.End.IsZero() && out.Begin.After(out.End) {
		return TimeRange{}, false
	}
	return out, true
}
