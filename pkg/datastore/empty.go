package datastore

import "context"

// emptyStore is a read-only store with no content. Databases that do not
// support a capability expose an empty store for it instead of returning
// nil.
type emptyStore[K, V, F any] struct {
	name string
}

func (s emptyStore[K, V, F]) Name() string { return s.name }

func (s emptyStore[K, V, F]) Get(K) (V, error) {
	var zero V
	return zero, ErrNotFound
}

func (s emptyStore[K, V, F]) SelectEntries(context.Context, F, ...Field) Seq[K, V] {
	return func(func(Entry[K, V], error) bool) {}
}

func (s emptyStore[K, V, F]) Count(context.Context, F) (int64, error) {
	return 0, nil
}

func (s emptyStore[K, V, F]) Add(context.Context, V) (K, error) {
	var zero K
	return zero, ErrReadOnly
}

func (s emptyStore[K, V, F]) Remove(context.Context, F) (int64, error) {
	return 0, ErrReadOnly
}

type emptyProcedureStore struct {
	emptyStore[FeatureKey, Procedure, *ProcedureFilter]
}

func (emptyProcedureStore) CurrentVersionKey(string) (FeatureKey, error) {
	return FeatureKey{}, ErrNotFound
}

func (emptyProcedureStore) RemoveByUID(context.Context, string) (FeatureKey, error) {
	return FeatureKey{}, ErrReadOnly
}

func (emptyProcedureStore) LinkTo(DataStreamStore) {}

// NewEmptyProcedureStore returns a read-only, always-empty procedure store.
func NewEmptyProcedureStore() ProcedureStore {
	return emptyProcedureStore{emptyStore[FeatureKey, Procedure, *ProcedureFilter]{name: "empty-procedures"}}
}

type emptyDataStreamStore struct {
	emptyStore[DataStreamKey, DataStreamInfo, *DataStreamFilter]
}

func (emptyDataStreamStore) LatestVersionKey(string, string) (DataStreamKey, error) {
	return 0, ErrNotFound
}

func (emptyDataStreamStore) LinkTo(ProcedureStore) {}

// NewEmptyDataStreamStore returns a read-only, always-empty data stream
// store.
func NewEmptyDataStreamStore() DataStreamStore {
	return emptyDataStreamStore{emptyStore[DataStreamKey, DataStreamInfo, *DataStreamFilter]{name: "empty-datastreams"}}
}

type emptyObsStore struct {
	emptyStore[BigID, ObsData, *ObsFilter]
	dataStreams DataStreamStore
}

func (s emptyObsStore) DataStreams() DataStreamStore { return s.dataStreams }
func (emptyObsStore) LinkTo(FoiStore)                {}

// NewEmptyObsStore returns a read-only, always-empty observation store.
func NewEmptyObsStore() ObsStore {
	return emptyObsStore{
		emptyStore: emptyStore[BigID, ObsData, *ObsFilter]{name: "empty-observations"},
		dataStreams: NewEmptyDataStreamStore(),
	}
}

type emptyCommandStreamStore struct {
	emptyStore[CommandStreamKey, CommandStreamInfo, *CommandStreamFilter]
}

func (emptyCommandStreamStore) LatestVersionKey(string, string) (CommandStreamKey, error) {
	return 0, ErrNotFound
}

func (emptyCommandStreamStore) LinkTo(ProcedureStore) {}

// NewEmptyCommandStreamStore returns a read-only, always-empty command
// stream store.
func NewEmptyCommandStreamStore() CommandStreamStore {
	return emptyCommandStreamStore{emptyStore[CommandStreamKey, CommandStreamInfo, *CommandStreamFilter]{name: "empty-commandstreams"}}
}

type emptyCommandStatusStore struct {
	emptyStore[BigID, CommandStatus, *CommandStatusFilter]
}

// NewEmptyCommandStatusStore returns a read-only, always-empty command
// status store.
func NewEmptyCommandStatusStore() CommandStatusStore {
	return emptyCommandStatusStore{emptyStore[BigID, CommandStatus, *CommandStatusFilter]{name: "empty-commandstatus"}}
}

type emptyCommandStore struct {
	emptyStore[BigID, CommandData, *CommandFilter]
	streams CommandStreamStore
	status  CommandStatusStore
}

func (s emptyCommandStore) CommandStreams() CommandStreamStore { return s.streams }
func (s emptyCommandStore) Status() CommandStatusStore         { return s.status }

// NewEmptyCommandStore returns a read-only, always-empty command store.
func NewEmptyCommandStore() CommandStore {
	return emptyCommandStore{
		emptyStore: emptyStore[BigID, CommandData, *CommandFilter]{name: "empty-commands"},
		streams:    NewEmptyCommandStreamStore(),
		status:     NewEmptyCommandStatusStore(),
	}
}

type emptyFoiStore struct {
	emptyStore[FeatureKey, FeatureOfInterest, *FoiFilter]
}

func (emptyFoiStore) CurrentVersionKey(string) (FeatureKey, error) {
	return FeatureKey{}, ErrNotFound
}

func (emptyFoiStore) LinkTo(ObsStore) {}

// NewEmptyFoiStore returns a read-only, always-empty FOI store.
func NewEmptyFoiStore() FoiStore {
	return emptyFoiStore{emptyStore[FeatureKey, FeatureOfInterest, *FoiFilter]{name: "empty-fois"}}
}

// Compile-time contract assertions.
var (
	_ ProcedureStore     = (*emptyProcedureStore)(nil)
	_ DataStreamStore    = (*emptyDataStreamStore)(nil)
	_ ObsStore           = emptyObsStore{}
	_ CommandStreamStore = (*emptyCommandStreamStore)(nil)
	_ CommandStatusStore = (*emptyCommandStatusStore)(nil)
	_ CommandStore       = emptyCommandStore{}
	_ FoiStore           = emptyFoiStore{}
)
