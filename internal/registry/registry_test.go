package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"obshub/pkg/datastore"
)

type fakeProcStore struct {
	datastore.ProcedureStore
	removedUIDs []string
	removeKey   datastore.FeatureKey
	removeErr   error
}

func (s *fakeProcStore) RemoveByUID(_ context.Context, uid string) (datastore.FeatureKey, error) {
	if s.removeErr != nil {
		return datastore.FeatureKey{}, s.removeErr
	}
	s.removedUIDs = append(s.removedUIDs, uid)
	return s.removeKey, nil
}

type fakeDataStreamStore struct {
	datastore.DataStreamStore
	removeFilters []*datastore.DataStreamFilter
}

func (s *fakeDataStreamStore) Remove(_ context.Context, f *datastore.DataStreamFilter) (int64, error) {
	s.removeFilters = append(s.removeFilters, f)
	return 1, nil
}

type fakeObsStore struct {
	datastore.ObsStore
	dataStreams *fakeDataStreamStore
}

func (s *fakeObsStore) DataStreams() datastore.DataStreamStore { return s.dataStreams }

type fakeDB struct {
	num      int
	readOnly bool
	procs    *fakeProcStore
	obs      *fakeObsStore
}

func newFakeDB(num int) *fakeDB {
	return &fakeDB{
		num: num,
		procs: &fakeProcStore{
			ProcedureStore: datastore.NewEmptyProcedureStore(),
			removeErr:      datastore.ErrNotFound,
		},
		obs: &fakeObsStore{
			ObsStore:    datastore.NewEmptyObsStore(),
			dataStreams: &fakeDataStreamStore{DataStreamStore: datastore.NewEmptyDataStreamStore()},
		},
	}
}

func (db *fakeDB) Procedures() datastore.ProcedureStore { return db.procs }
func (db *fakeDB) Fois() datastore.FoiStore             { return datastore.NewEmptyFoiStore() }
func (db *fakeDB) Observations() datastore.ObsStore     { return db.obs }
func (db *fakeDB) Commands() datastore.CommandStore     { return datastore.NewEmptyCommandStore() }
func (db *fakeDB) DatabaseNum() int                     { return db.num }
func (db *fakeDB) ReadOnly() bool                       { return db.readOnly }

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	if err := r.Register(newFakeDB(0)); err != nil {
		t.Fatalf("register default db: %v", err)
	}
	if err := r.Register(newFakeDB(1), WithHandledUIDs("urn:test:sensor1")); err != nil {
		t.Fatalf("register db 1: %v", err)
	}

	if got := r.Resolve("urn:test:sensor1"); got != 1 {
		t.Errorf("Resolve = %d, want 1", got)
	}
	if got := r.Resolve("urn:test:unclaimed"); got != DefaultDatabaseNum {
		t.Errorf("Resolve unclaimed = %d, want default %d", got, DefaultDatabaseNum)
	}
	if !r.HasDatabase("urn:test:sensor1") {
		t.Error("HasDatabase must report explicit claims")
	}
	if r.HasDatabase("urn:test:unclaimed") {
		t.Error("HasDatabase must not report the fallback")
	}
	if db, ok := r.DatabaseForUID("urn:test:sensor1"); !ok || db.DatabaseNum() != 1 {
		t.Error("DatabaseForUID must return the claiming database")
	}
	if db, ok := r.DatabaseForUID("urn:test:unclaimed"); !ok || db.DatabaseNum() != 0 {
		t.Error("DatabaseForUID must fall back to the default database")
	}
}

func TestRegisterWildcardNamespace(t *testing.T) {
	r := New()
	if err := r.Register(newFakeDB(3), WithHandledUIDs("urn:fleet:*")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := r.Resolve("urn:fleet:truck42"); got != 3 {
		t.Errorf("Resolve under namespace = %d, want 3", got)
	}
	if got := r.Resolve("urn:other:truck42"); got != DefaultDatabaseNum {
		t.Errorf("Resolve outside namespace = %d, want default", got)
	}
}

func TestRegisterRejectsDuplicateNumber(t *testing.T) {
	r := New()
	if err := r.Register(newFakeDB(2)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(newFakeDB(2)); err == nil {
		t.Fatal("duplicate database number must be rejected")
	}
}

func TestRegisterRejectsOutOfRangeNumber(t *testing.T) {
	r := New()
	if err := r.Register(newFakeDB(datastore.MaxDatabases)); err == nil {
		t.Fatal("database number >= MaxDatabases must be rejected")
	}
	if err := r.Register(newFakeDB(-1)); err == nil {
		t.Fatal("negative database number must be rejected")
	}
}

func TestRegisterRollsBackOnClaimConflict(t *testing.T) {
	r := New()
	if err := r.Register(newFakeDB(1), WithHandledUIDs("urn:test:shared")); err != nil {
		t.Fatalf("register db 1: %v", err)
	}
	err := r.Register(newFakeDB(2), WithHandledUIDs("urn:test:mine", "urn:test:shared"))
	if err == nil {
		t.Fatal("conflicting claim must fail the registration")
	}
	if !strings.Contains(err.Error(), "already handled") {
		t.Errorf("error = %q, want ownership conflict", err)
	}
	// Nothing from the failed registration may remain visible.
	if _, ok := r.Database(2); ok {
		t.Error("failed registration left the database registered")
	}
	if r.HasDatabase("urn:test:mine") {
		t.Error("failed registration left a partial UID claim")
	}
	if got := r.Resolve("urn:test:shared"); got != 1 {
		t.Errorf("original owner lost its claim, Resolve = %d", got)
	}
}

func TestRegisterRejectsClaimInsideForeignNamespace(t *testing.T) {
	r := New()
	if err := r.Register(newFakeDB(1), WithHandledUIDs("urn:ns:*")); err != nil {
		t.Fatalf("register db 1: %v", err)
	}

	err := r.Register(newFakeDB(2), WithHandledUIDs("urn:ns:s1"))
	if err == nil {
		t.Fatal("exact claim inside db 1's namespace must be rejected")
	}
	if !strings.Contains(err.Error(), "database 1") {
		t.Errorf("error = %q, want it to name the namespace owner", err)
	}
	if _, ok := r.Database(2); ok {
		t.Error("failed registration left the database registered")
	}
	if got := r.Resolve("urn:ns:s1"); got != 1 {
		t.Errorf("Resolve = %d, want namespace owner 1", got)
	}

	// The symmetric overlap, a wildcard over a foreign exact claim, also fails.
	if err := r.Register(newFakeDB(3), WithHandledUIDs("urn:iso:s9")); err != nil {
		t.Fatalf("register db 3: %v", err)
	}
	if err := r.RegisterMapping("urn:iso:*", 4); err == nil {
		t.Error("wildcard over db 3's exact claim must be rejected")
	}
	if got := r.Resolve("urn:iso:s9"); got != 3 {
		t.Errorf("Resolve = %d, want exact owner 3", got)
	}
}

func TestRegisterRejectsReadOnlyCollector(t *testing.T) {
	r := New()
	db := newFakeDB(1)
	db.readOnly = true
	if err := r.Register(db, WithHandledUIDs("urn:test:sensor1")); err == nil {
		t.Fatal("read-only database must not claim procedure UIDs")
	}
	if err := r.Register(db); err != nil {
		t.Fatalf("read-only database without claims must register: %v", err)
	}
}

func TestRegisterMappingEvictsDefaultRecords(t *testing.T) {
	r := New()
	defaultDB := newFakeDB(0)
	defaultDB.procs.removeErr = nil
	defaultDB.procs.removeKey = datastore.FeatureKey{InternalID: 42}
	if err := r.Register(defaultDB); err != nil {
		t.Fatalf("register default db: %v", err)
	}
	if err := r.Register(newFakeDB(1)); err != nil {
		t.Fatalf("register db 1: %v", err)
	}

	if err := r.RegisterMapping("urn:test:sensor1", 1); err != nil {
		t.Fatalf("RegisterMapping: %v", err)
	}
	if got := defaultDB.procs.removedUIDs; len(got) != 1 || got[0] != "urn:test:sensor1" {
		t.Fatalf("default db procedure eviction = %v", got)
	}
	filters := defaultDB.obs.dataStreams.removeFilters
	if len(filters) != 1 {
		t.Fatalf("expected one data stream removal, got %d", len(filters))
	}
	procIDs := filters[0].Procedures().InternalIDs()
	if len(procIDs) != 1 || procIDs[0] != 42 {
		t.Errorf("data stream removal targeted procedures %v, want [42]", procIDs)
	}
}

func TestRegisterMappingConflict(t *testing.T) {
	r := New()
	if err := r.RegisterMapping("urn:test:sensor1", 1); err != nil {
		t.Fatalf("first mapping: %v", err)
	}
	err := r.RegisterMapping("urn:test:sensor1", 2)
	if err == nil {
		t.Fatal("second mapping must fail")
	}
	if !strings.Contains(err.Error(), "already handled") {
		t.Errorf("error = %q, want ownership conflict", err)
	}
	if err := r.RegisterMapping("urn:test:sensor1", 0); err == nil {
		t.Error("mapping to the default database must be rejected")
	}
}

func TestUnregisterDropsClaims(t *testing.T) {
	r := New()
	db := newFakeDB(1)
	if err := r.Register(db, WithHandledUIDs("urn:test:sensor1", "urn:fleet:*")); err != nil {
		t.Fatalf("register: %v", err)
	}
	r.Unregister(db)
	if _, ok := r.Database(1); ok {
		t.Error("database still registered")
	}
	if r.HasDatabase("urn:test:sensor1") || r.HasDatabase("urn:fleet:truck1") {
		t.Error("claims must be dropped with the database")
	}
}

func TestUnregisterMapping(t *testing.T) {
	r := New()
	if err := r.RegisterMapping("urn:test:sensor1", 1); err != nil {
		t.Fatalf("RegisterMapping: %v", err)
	}
	r.UnregisterMapping("urn:test:sensor1")
	if r.HasDatabase("urn:test:sensor1") {
		t.Error("mapping survived UnregisterMapping")
	}
	if err := r.RegisterMapping("urn:test:sensor1", 2); err != nil {
		t.Errorf("uid must be claimable again: %v", err)
	}
}

func TestDatabasesOrdering(t *testing.T) {
	r := New()
	for _, num := range []int{5, 1, 3} {
		if err := r.Register(newFakeDB(num)); err != nil {
			t.Fatalf("register %d: %v", num, err)
		}
	}
	dbs := r.Databases()
	if len(dbs) != 3 {
		t.Fatalf("got %d databases", len(dbs))
	}
	for i, want := range []int{1, 3, 5} {
		if dbs[i].DatabaseNum() != want {
			t.Errorf("dbs[%d] = %d, want %d", i, dbs[i].DatabaseNum(), want)
		}
	}
}

func TestDispatchPartitionsByDatabase(t *testing.T) {
	r := New()
	for _, num := range []int{1, 2} {
		if err := r.Register(newFakeDB(num)); err != nil {
			t.Fatalf("register %d: %v", num, err)
		}
	}
	// 310 belongs to unregistered database 3 and must be silently dropped.
	out := r.Dispatch([]int64{105, 210, 310, 106})
	if len(out) != 2 {
		t.Fatalf("got %d partitions, want 2", len(out))
	}
	if got := out[1].LocalIDs; len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Errorf("db 1 local IDs = %v, want [5 6]", got)
	}
	if got := out[2].LocalIDs; len(got) != 1 || got[0] != 10 {
		t.Errorf("db 2 local IDs = %v, want [10]", got)
	}

	big := r.DispatchBig([]datastore.BigID{
		datastore.NewBigID(105),
		datastore.NewBigID(310),
		{}, // invalid IDs are skipped
	})
	if len(big) != 1 {
		t.Fatalf("got %d big partitions, want 1", len(big))
	}
	if got := big[1].LocalBigIDs; len(got) != 1 || !got[0].Equal(datastore.NewBigID(5)) {
		t.Errorf("db 1 local big IDs = %v", got)
	}
}

func TestConcurrentReadsDuringMutation(t *testing.T) {
	r := New()
	if err := r.Register(newFakeDB(0)); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				r.Resolve("urn:test:sensor1")
				r.Dispatch([]int64{105, 210})
				r.Databases()
			}
		}()
	}
	for i := 1; i < 20; i++ {
		db := newFakeDB(i)
		uid := fmt.Sprintf("urn:test:db%d:*", i)
		if err := r.Register(db, WithHandledUIDs(uid)); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		r.Unregister(db)
	}
	close(stop)
	wg.Wait()
}
