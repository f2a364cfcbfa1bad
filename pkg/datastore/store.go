package datastore

import (
	"context"
	"iter"
)

// Field names a value field for projection in SelectEntries. Stores that do
// not support projection may ignore the hint; stores that do must still
// populate the key and enough of the value to evaluate ordering.
type Field string

// Common projection fields.
const (
	FieldValidTime  Field = "validTime"
	FieldResult     Field = "result"
	FieldParams     Field = "params"
	FieldGeometry   Field = "geometry"
	FieldDescriptor Field = "descriptor"
)

// Entry is one key/value pair produced by a store query.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Seq is a lazy sequence of store entries. The sequence is restartable:
// ranging over it again issues a fresh query. It is not safe for concurrent
// iteration of the same yielded sequence. A non-nil error terminates the
// sequence; implementations yield at most one error, last.
type Seq[K, V any] = iter.Seq2[Entry[K, V], error]

// Store is the minimal contract every entity store satisfies, whether it is
// a concrete local store, a federated store or a filtered view.
//
// Implementations must document whether SelectEntries iterates a
// point-in-time snapshot or a live view of the store.
type Store[K, V, F any] interface {
	// Name identifies the store for diagnostics.
	Name() string

	// Get returns the value for key, or ErrNotFound.
	Get(key K) (V, error)

	// SelectEntries streams entries matching the filter in a stable,
	// implementation-defined order (typically key order). The fields
	// argument is a projection hint.
	SelectEntries(ctx context.Context, filter F, fields ...Field) Seq[K, V]

	// Count returns the number of entries matching the filter. It is
	// semantically equivalent to counting SelectEntries but may be
	// optimized.
	Count(ctx context.Context, filter F) (int64, error)

	// Add stores a new value and returns its generated key. Read-only
	// stores return ErrReadOnly.
	Add(ctx context.Context, value V) (K, error)

	// Remove deletes all entries matching the filter and returns how many
	// were removed. Read-only stores return ErrReadOnly.
	Remove(ctx context.Context, filter F) (int64, error)
}

// ProcedureStore manages procedure descriptions.
type ProcedureStore interface {
	Store[FeatureKey, Procedure, *ProcedureFilter]

	// CurrentVersionKey returns the key of the latest version of the
	// procedure with the given UID, or ErrNotFound.
	CurrentVersionKey(uid string) (FeatureKey, error)

	// RemoveByUID removes every version of the procedure with the given
	// UID, returning the key of the latest removed version or ErrNotFound.
	RemoveByUID(ctx context.Context, uid string) (FeatureKey, error)

	// LinkTo connects the store to the data stream store used to resolve
	// nested data stream predicates. Idempotent; may be called after
	// construction in any order.
	LinkTo(DataStreamStore)
}

// DataStreamStore manages data stream descriptions. Removing a data stream
// also removes all observations attached to it.
type DataStreamStore interface {
	Store[DataStreamKey, DataStreamInfo, *DataStreamFilter]

	// LatestVersionKey returns the key of the latest data stream attached
	// to the given procedure UID and output name, or ErrNotFound.
	LatestVersionKey(procUID, outputName string) (DataStreamKey, error)

	// LinkTo connects the store to the procedure store used to resolve
	// nested procedure predicates. Idempotent.
	LinkTo(ProcedureStore)
}

// ObsStore manages observations along with their data streams.
type ObsStore interface {
	Store[BigID, ObsData, *ObsFilter]

	// DataStreams returns the associated data stream store.
	DataStreams() DataStreamStore

	// LinkTo connects the store to the FOI store used to resolve nested
	// feature predicates. Idempotent.
	LinkTo(FoiStore)
}

// CommandStreamStore manages command stream descriptions. Removing a
// command stream also removes all commands attached to it.
type CommandStreamStore interface {
	Store[CommandStreamKey, CommandStreamInfo, *CommandStreamFilter]

	// LatestVersionKey returns the key of the latest command stream
	// attached to the given procedure UID and taskable parameter name, or
	// ErrNotFound.
	LatestVersionKey(procUID, commandName string) (CommandStreamKey, error)

	// LinkTo connects the store to the procedure store used to resolve
	// nested procedure predicates. Idempotent.
	LinkTo(ProcedureStore)
}

// CommandStore manages commands along with their streams and status
// reports.
type CommandStore interface {
	Store[BigID, CommandData, *CommandFilter]

	// CommandStreams returns the associated command stream store.
	CommandStreams() CommandStreamStore

	// Status returns the associated command status store.
	Status() CommandStatusStore
}

// CommandStatusStore manages command status reports.
type CommandStatusStore interface {
	Store[BigID, CommandStatus, *CommandStatusFilter]
}

// FoiStore manages features of interest.
type FoiStore interface {
	Store[FeatureKey, FeatureOfInterest, *FoiFilter]

	// CurrentVersionKey returns the key of the latest version of the
	// feature with the given UID, or ErrNotFound.
	CurrentVersionKey(uid string) (FeatureKey, error)

	// LinkTo connects the store to the observation store used to resolve
	// nested observation predicates. Idempotent.
	LinkTo(ObsStore)
}

// ObsDatabase bundles the stores of one observation database. Both local
// databases and the federated database satisfy it.
type ObsDatabase interface {
	Procedures() ProcedureStore
	Fois() FoiStore
	Observations() ObsStore
	Commands() CommandStore
}

// LocalDatabase is an observation database that can be registered with the
// database registry under a database number. The number must be in
// [0, MaxDatabases) and stable for the process lifetime; 0 is reserved for
// the default state database.
type LocalDatabase interface {
	ObsDatabase

	DatabaseNum() int
	ReadOnly() bool
}
