// Package view provides read-only filtered projections over stores. A view
// wraps a delegate store with a fixed filter: every query filter is
// intersected with the view's filter before delegation, and an empty
// intersection returns an empty result without touching the delegate. Get
// is deliberately not filtered: a direct key lookup bypasses the view's
// filter. All mutating operations return datastore.ErrReadOnly.
package view

import (
	"context"

	"obshub/pkg/datastore"
)

func emptySeq[K, V any]() datastore.Seq[K, V] {
	return func(func(datastore.Entry[K, V], error) bool) {}
}

// ProcedureView is a read-only filtered projection of a procedure store.
type ProcedureView struct {
	delegate datastore.ProcedureStore
	filter   *datastore.ProcedureFilter
}

// NewProcedureView wraps delegate with a fixed filter.
func NewProcedureView(delegate datastore.ProcedureStore, filter *datastore.ProcedureFilter) *ProcedureView {
	return &ProcedureView{delegate: delegate, filter: filter}
}

func (v *ProcedureView) Name() string { return v.delegate.Name() }

// Get bypasses the view filter.
func (v *ProcedureView) Get(key datastore.FeatureKey) (datastore.Procedure, error) {
	return v.delegate.Get(key)
}

func (v *ProcedureView) SelectEntries(ctx context.Context, f *datastore.ProcedureFilter, fields ...datastore.Field) datastore.Seq[datastore.FeatureKey, datastore.Procedure] {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return emptySeq[datastore.FeatureKey, datastore.Procedure]()
	}
	return v.delegate.SelectEntries(ctx, merged, fields...)
}

func (v *ProcedureView) Count(ctx context.Context, f *datastore.ProcedureFilter) (int64, error) {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return 0, nil
	}
	return v.delegate.Count(ctx, merged)
}

func (v *ProcedureView) Add(context.Context, datastore.Procedure) (datastore.FeatureKey, error) {
	return datastore.FeatureKey{}, datastore.ErrReadOnly
}

func (v *ProcedureView) Remove(context.Context, *datastore.ProcedureFilter) (int64, error) {
	return 0, datastore.ErrReadOnly
}

// CurrentVersionKey bypasses the view filter, like Get.
func (v *ProcedureView) CurrentVersionKey(uid string) (datastore.FeatureKey, error) {
	return v.delegate.CurrentVersionKey(uid)
}

func (v *ProcedureView) RemoveByUID(context.Context, string) (datastore.FeatureKey, error) {
	return datastore.FeatureKey{}, datastore.ErrReadOnly
}

func (v *ProcedureView) LinkTo(datastore.DataStreamStore) {}

// DataStreamView is a read-only filtered projection of a data stream store.
type DataStreamView struct {
	delegate datastore.DataStreamStore
	filter   *datastore.DataStreamFilter
}

// NewDataStreamView wraps delegate with a fixed filter.
func NewDataStreamView(delegate datastore.DataStreamStore, filter *datastore.DataStreamFilter) *DataStreamView {
	return &DataStreamView{delegate: delegate, filter: filter}
}

func (v *DataStreamView) Name() string { return v.delegate.Name() }

func (v *DataStreamView) Get(key datastore.DataStreamKey) (datastore.DataStreamInfo, error) {
	return v.delegate.Get(key)
}

func (v *DataStreamView) SelectEntries(ctx context.Context, f *datastore.DataStreamFilter, fields ...datastore.Field) datastore.Seq[datastore.DataStreamKey, datastore.DataStreamInfo] {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return emptySeq[datastore.DataStreamKey, datastore.DataStreamInfo]()
	}
	return v.delegate.SelectEntries(ctx, merged, fields...)
}

func (v *DataStreamView) Count(ctx context.Context, f *datastore.DataStreamFilter) (int64, error) {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return 0, nil
	}
	return v.delegate.Count(ctx, merged)
}

func (v *DataStreamView) Add(context.Context, datastore.DataStreamInfo) (datastore.DataStreamKey, error) {
	return 0, datastore.ErrReadOnly
}

func (v *DataStreamView) Remove(context.Context, *datastore.DataStreamFilter) (int64, error) {
	return 0, datastore.ErrReadOnly
}

func (v *DataStreamView) LatestVersionKey(procUID, outputName string) (datastore.DataStreamKey, error) {
	return v.delegate.LatestVersionKey(procUID, outputName)
}

func (v *DataStreamView) LinkTo(datastore.ProcedureStore) {}

// ObsView is a read-only filtered projection of an observation store. Its
// data stream sub-store is wrapped too, restricted by the view filter's
// nested data stream predicate.
type ObsView struct {
	delegate    datastore.ObsStore
	filter      *datastore.ObsFilter
	dataStreams *DataStreamView
}

// NewObsView wraps delegate with a fixed filter.
func NewObsView(delegate datastore.ObsStore, filter *datastore.ObsFilter) *ObsView {
	return &ObsView{
		delegate:    delegate,
		filter:      filter,
		dataStreams: NewDataStreamView(delegate.DataStreams(), filter.DataStreams()),
	}
}

func (v *ObsView) Name() string { return v.delegate.Name() }

func (v *ObsView) Get(key datastore.BigID) (datastore.ObsData, error) {
	return v.delegate.Get(key)
}

func (v *ObsView) SelectEntries(ctx context.Context, f *datastore.ObsFilter, fields ...datastore.Field) datastore.Seq[datastore.BigID, datastore.ObsData] {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return emptySeq[datastore.BigID, datastore.ObsData]()
	}
	return v.delegate.SelectEntries(ctx, merged, fields...)
}

func (v *ObsView) Count(ctx context.Context, f *datastore.ObsFilter) (int64, error) {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return 0, nil
	}
	return v.delegate.Count(ctx, merged)
}

func (v *ObsView) Add(context.Context, datastore.ObsData) (datastore.BigID, error) {
	return datastore.BigID{}, datastore.ErrReadOnly
}

func (v *ObsView) Remove(context.Context, *datastore.ObsFilter) (int64, error) {
	return 0, datastore.ErrReadOnly
}

func (v *ObsView) DataStreams() datastore.DataStreamStore { return v.dataStreams }

func (v *ObsView) LinkTo(datastore.FoiStore) {}

// FoiView is a read-only filtered projection of an FOI store.
type FoiView struct {
	delegate datastore.FoiStore
	filter   *datastore.FoiFilter
}

// NewFoiView wraps delegate with a fixed filter.
func NewFoiView(delegate datastore.FoiStore, filter *datastore.FoiFilter) *FoiView {
	return &FoiView{delegate: delegate, filter: filter}
}

func (v *FoiView) Name() string { return v.delegate.Name() }

func (v *FoiView) Get(key datastore.FeatureKey) (datastore.FeatureOfInterest, error) {
	return v.delegate.Get(key)
}

func (v *FoiView) SelectEntries(ctx context.Context, f *datastore.FoiFilter, fields ...datastore.Field) datastore.Seq[datastore.FeatureKey, datastore.FeatureOfInterest] {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return emptySeq[datastore.FeatureKey, datastore.FeatureOfInterest]()
	}
	return v.delegate.SelectEntries(ctx, merged, fields...)
}

func (v *FoiView) Count(ctx context.Context, f *datastore.FoiFilter) (int64, error) {
	merged, err := v.filter.Intersect(f)
	if err != nil {
		return 0, nil
	}
	return v.delegate.Count(ctx, merged)
}

func (v *FoiView) Add(context.Context, datastore.FeatureOfInterest) (datastore.FeatureKey, error) {
	return datastore.FeatureKey{}, datastore.ErrReadOnly
}

func (v *FoiView) Remove(context.Context, *datastore.FoiFilter) (int64, error) {
	return 0, datastore.ErrReadOnly
}

func (v *FoiView) CurrentVersionKey(uid string) (datastore.FeatureKey, error) {
	return v.delegate.CurrentVersionKey(uid)
}

func (v *FoiView) LinkTo(datastore.ObsStore) {}

var (
	_ datastore.ProcedureStore  = (*ProcedureView)(nil)
	_ datastore.DataStreamStore = (*DataStreamView)(nil)
	_ datastore.ObsStore        = (*ObsView)(nil)
	_ datastore.FoiStore        = (*FoiView)(nil)
)
