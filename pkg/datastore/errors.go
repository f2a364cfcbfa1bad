package datastore

import "errors"

// ErrNotFound is returned by Get when no entry exists for the key, including
// when a public ID decodes to a database that is not registered.
var ErrNotFound = errors.New("entry not found")

// ErrReadOnly is returned by mutating operations on read-only stores
// (filtered views, empty stores, read-only databases). It is distinct from
// generic store failures so callers can report "not writable" rather than a
// generic error.
var ErrReadOnly = errors.New("store is read-only")

// ErrEmptyIntersection signals that two filters of the same kind have no
// possible common match (e.g. disjoint ID sets or disjoint time ranges).
// It is a control-flow signal, not a fault: callers composing filters must
// convert it into an empty result set.
var ErrEmptyIntersection = errors.New("empty filter intersection")
