package view

import (
	"context"

	"obshub/pkg/datastore"
)

// CommandStreamView is a read-only filtered projection of a command stream
// store.
type CommandStreamView struct {
	delegate datastore.CommandStreamStore
	filter   *datastore.CommandStreamFilter
}

// NewCommandStreamView wraps delegate with a fixed filter.
func NewCommandStreamView(delegate datastore.CommandStreamStore, filter *datastore.CommandStreamFilter) *CommandStreamView {
	return &CommandStreamView{delegate: delegate, filter: filter}
}

func (v *CommandStreamView) Name() string { return v.delegate.Name() }

func (v *CommandStreamView) Get(key datastore.CommandStreamKey) (datastore.CommandStreamInfo, error) {
	return v.delegate.Get(key)
}

func (v *CommandStreamView) SelectEntries(ctx context.Context, f *datastore.CommandStreamFilter, fields ...datastore.Field) datastore.Seq[datastore.CommandStreamKey, datastore.CommandStreamInfo] {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return emptySeq[datastore.CommandStreamKey, datastore.CommandStreamInfo]()
	}
	return v.delegate.SelectEntries(ctx, merged, fields...)
}

func (v *CommandStreamView) Count(ctx context.Context, f *datastore.CommandStreamFilter) (int64, error) {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return 0, nil
	}
	return v.delegate.Count(ctx, merged)
}

func (v *CommandStreamView) Add(context.Context, datastore.CommandStreamInfo) (datastore.CommandStreamKey, error) {
	return 0, datastore.ErrReadOnly
}

func (v *CommandStreamView) Remove(context.Context, *datastore.CommandStreamFilter) (int64, error) {
	return 0, datastore.ErrReadOnly
}

func (v *CommandStreamView) LatestVersionKey(procUID, commandName string) (datastore.CommandStreamKey, error) {
	return v.delegate.LatestVersionKey(procUID, commandName)
}

func (v *CommandStreamView) LinkTo(datastore.ProcedureStore) {}

// CommandView is a read-only filtered projection of a command store. Its
// stream and status sub-stores are wrapped too, restricted by the view
// filter's nested predicates.
type CommandView struct {
	delegate datastore.CommandStore
	filter   *datastore.CommandFilter
	streams  *CommandStreamView
	status   *CommandStatusView
}

// NewCommandView wraps delegate with a fixed filter.
func NewCommandView(delegate datastore.CommandStore, filter *datastore.CommandFilter) *CommandView {
	return &CommandView{
		delegate: delegate,
		filter:   filter,
		streams:  NewCommandStreamView(delegate.CommandStreams(), filter.CommandStreams()),
		status:   NewCommandStatusView(delegate.Status(), filter.Status()),
	}
}

func (v *CommandView) Name() string { return v.delegate.Name() }

func (v *CommandView) Get(key datastore.BigID) (datastore.CommandData, error) {
	return v.delegate.Get(key)
}

func (v *CommandView) SelectEntries(ctx context.Context, f *datastore.CommandFilter, fields ...datastore.Field) datastore.Seq[datastore.BigID, datastore.CommandData] {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return emptySeq[datastore.BigID, datastore.CommandData]()
	}
	return v.delegate.SelectEntries(ctx, merged, fields...)
}

func (v *CommandView) Count(ctx context.Context, f *datastore.CommandFilter) (int64, error) {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return 0, nil
	}
	return v.delegate.Count(ctx, merged)
}

func (v *CommandView) Add(context.Context, datastore.CommandData) (datastore.BigID, error) {
	return datastore.BigID{}, datastore.ErrReadOnly
}

func (v *CommandView) Remove(context.Context, *datastore.CommandFilter) (int64, error) {
	return 0, datastore.ErrReadOnly
}

func (v *CommandView) CommandStreams() datastore.CommandStreamStore { return v.streams }
func (v *CommandView) Status() datastore.CommandStatusStore         { return v.status }

// CommandStatusView is a read-only filtered projection of a command status
// store.
type CommandStatusView struct {
	delegate datastore.CommandStatusStore
	filter   *datastore.CommandStatusFilter
}

// NewCommandStatusView wraps delegate with a fixed filter.
func NewCommandStatusView(delegate datastore.CommandStatusStore, filter *datastore.CommandStatusFilter) *CommandStatusView {
	return &CommandStatusView{delegate: delegate, filter: filter}
}

func (v *CommandStatusView) Name() string { return v.delegate.Name() }

func (v *CommandStatusView) Get(key datastore.BigID) (datastore.CommandStatus, error) {
	return v.delegate.Get(key)
}

func (v *CommandStatusView) SelectEntries(ctx context.Context, f *datastore.CommandStatusFilter, fields ...datastore.Field) datastore.Seq[datastore.BigID, datastore.CommandStatus] {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return emptySeq[datastore.BigID, datastore.CommandStatus]()
	}
	return v.delegate.SelectEntries(ctx, merged, fields...)
}

func (v *CommandStatusView) Count(ctx context.Context, f *datastore.CommandStatusFilter) (int64, error) {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return 0, nil
	}
	return v.delegate.Count(ctx, merged)
}

func (v *CommandStatusView) Add(context.Context, datastore.CommandStatus) (datastore.BigID, error) {
	return datastore.BigID{}, datastore.ErrReadOnly
}

func (v *CommandStatusView) Remove(context.Context, *datastore.CommandStatusFilter) (int64, error) {
	return 0, datastore.ErrReadOnly
}

var (
	_ datastore.CommandStreamStore = (*CommandStreamView)(nil)
	_ datastore.CommandStore       = (*CommandView)(nil)
	_ datastore.CommandStatusStore = (*CommandStatusView)(nil)
)
