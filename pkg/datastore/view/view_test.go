package view

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"obshub/pkg/datastore"
)

// countingProcStore records delegate calls and the filters they carry.
type countingProcStore struct {
	datastore.ProcedureStore
	selects    int
	counts     int
	gets       int
	lastFilter *datastore.ProcedureFilter
}

func newCountingProcStore() *countingProcStore {
	return &countingProcStore{ProcedureStore: datastore.NewEmptyProcedureStore()}
}

func (s *countingProcStore) Get(key datastore.FeatureKey) (datastore.Procedure, error) {
	s.gets++
	return datastore.Procedure{UniqueID: "urn:test:any"}, nil
}

func (s *countingProcStore) SelectEntries(ctx context.Context, f *datastore.ProcedureFilter, fields ...datastore.Field) datastore.Seq[datastore.FeatureKey, datastore.Procedure] {
	s.selects++
	s.lastFilter = f
	return s.ProcedureStore.SelectEntries(ctx, f, fields...)
}

func (s *countingProcStore) Count(ctx context.Context, f *datastore.ProcedureFilter) (int64, error) {
	s.counts++
	s.lastFilter = f
	return 0, nil
}

func TestViewShortCircuitsOnEmptyIntersection(t *testing.T) {
	delegate := newCountingProcStore()
	v := NewProcedureView(delegate, datastore.NewProcedureFilter().WithInternalIDs(1, 2).Build())
	ctx := context.Background()

	disjoint := datastore.NewProcedureFilter().WithInternalIDs(3).Build()
	var n int
	for _, err := range v.SelectEntries(ctx, disjoint) {
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 0 {
		t.Errorf("empty intersection yielded %d entries", n)
	}
	if cnt, err := v.Count(ctx, disjoint); err != nil || cnt != 0 {
		t.Errorf("count = %d, %v; want 0", cnt, err)
	}
	if delegate.selects != 0 || delegate.counts != 0 {
		t.Errorf("delegate was invoked (%d selects, %d counts) despite empty intersection",
			delegate.selects, delegate.counts)
	}
}

func TestViewPassesMergedFilter(t *testing.T) {
	delegate := newCountingProcStore()
	v := NewProcedureView(delegate, datastore.NewProcedureFilter().WithInternalIDs(1, 2).Build())

	for range v.SelectEntries(context.Background(), datastore.NewProcedureFilter().WithInternalIDs(2, 3).Build()) {
	}
	if delegate.selects != 1 {
		t.Fatalf("delegate selects = %d, want 1", delegate.selects)
	}
	if want := []int64{2}; !reflect.DeepEqual(delegate.lastFilter.InternalIDs(), want) {
		t.Errorf("merged filter ids = %v, want %v", delegate.lastFilter.InternalIDs(), want)
	}
}

func TestViewQueryWithoutFilterUsesViewFilter(t *testing.T) {
	delegate := newCountingProcStore()
	fixed := datastore.NewProcedureFilter().WithUniqueIDs("urn:test:*").Build()
	v := NewProcedureView(delegate, fixed)

	for range v.SelectEntries(context.Background(), nil) {
	}
	if delegate.lastFilter != fixed {
		t.Error("nil query filter must delegate the view's own filter")
	}
}

func TestViewGetBypassesFilter(t *testing.T) {
	delegate := newCountingProcStore()
	v := NewProcedureView(delegate, datastore.NewProcedureFilter().WithUniqueIDs("urn:other:*").Build())

	p, err := v.Get(datastore.FeatureKey{InternalID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if p.UniqueID != "urn:test:any" {
		t.Errorf("got %q", p.UniqueID)
	}
	if delegate.gets != 1 {
		t.Errorf("delegate gets = %d, want 1", delegate.gets)
	}
}

func TestViewMutationsAreReadOnly(t *testing.T) {
	v := NewProcedureView(newCountingProcStore(), nil)
	ctx := context.Background()
	if _, err := v.Add(ctx, datastore.Procedure{}); !errors.Is(err, datastore.ErrReadOnly) {
		t.Errorf("Add: want ErrReadOnly, got %v", err)
	}
	if _, err := v.Remove(ctx, nil); !errors.Is(err, datastore.ErrReadOnly) {
		t.Errorf("Remove: want ErrReadOnly, got %v", err)
	}
	if _, err := v.RemoveByUID(ctx, "urn:x"); !errors.Is(err, datastore.ErrReadOnly) {
		t.Errorf("RemoveByUID: want ErrReadOnly, got %v", err)
	}

	obsView := NewObsView(datastore.NewEmptyObsStore(), nil)
	if _, err := obsView.Add(ctx, datastore.ObsData{}); !errors.Is(err, datastore.ErrReadOnly) {
		t.Errorf("obs Add: want ErrReadOnly, got %v", err)
	}
}

func TestObsViewWrapsDataStreamStore(t *testing.T) {
	viewFilter := datastore.NewObsFilter().WithDataStreamIDs(1, 2).Build()
	v := NewObsView(datastore.NewEmptyObsStore(), viewFilter)

	dsView, ok := v.DataStreams().(*DataStreamView)
	if !ok {
		t.Fatalf("DataStreams() = %T, want *DataStreamView", v.DataStreams())
	}
	// disjoint stream IDs short-circuit at the nested view too
	disjoint := datastore.NewDataStreamFilter().WithInternalIDs(9).Build()
	var n int
	for range dsView.SelectEntries(context.Background(), disjoint) {
		n++
	}
	if n != 0 {
		t.Errorf("nested view yielded %d entries", n)
	}
}

func TestDatabaseViewDerivesStoreFilters(t *testing.T) {
	delegate := newCountingProcStore()
	db := fakeDB{procs: delegate}
	obsFilter := datastore.NewObsFilter().WithProcedureUIDs("urn:test:*").Build()
	dv := NewDatabaseView(db, obsFilter)

	for range dv.Procedures().SelectEntries(context.Background(), nil) {
	}
	if delegate.selects != 1 {
		t.Fatalf("delegate selects = %d, want 1", delegate.selects)
	}
	if got := delegate.lastFilter.UniqueIDs(); len(got) != 1 || got[0] != "urn:test:*" {
		t.Errorf("derived procedure filter uids = %v", got)
	}
	if _, err := dv.Observations().Add(context.Background(), datastore.ObsData{}); !errors.Is(err, datastore.ErrReadOnly) {
		t.Errorf("database view must be read-only, got %v", err)
	}
}

type fakeDB struct {
	procs datastore.ProcedureStore
}

func (db fakeDB) Procedures() datastore.ProcedureStore {
	if db.procs != nil {
		return db.procs
	}
	return datastore.NewEmptyProcedureStore()
}
func (fakeDB) Fois() datastore.FoiStore         { return datastore.NewEmptyFoiStore() }
func (fakeDB) Observations() datastore.ObsStore { return datastore.NewEmptyObsStore() }
func (fakeDB) Commands() datastore.CommandStore { return datastore.NewEmptyCommandStore() }
