package federated

import (
	"context"
	"errors"
	"testing"
	"time"

	"obshub/internal/infra/persistence/memory"
	"obshub/internal/registry"
	"obshub/pkg/datastore"
)

type fixture struct {
	reg *registry.Registry
	fed *Database
	db0 *memory.Database
	db1 *memory.Database
	db2 *memory.Database
}

// newFixture registers a default database, database 1 owning
// urn:test:sensor1 and database 2 owning the urn:fleet namespace.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reg: registry.New(),
		db0: memory.New(0),
		db1: memory.New(1),
		db2: memory.New(2),
	}
	if err := f.reg.Register(f.db0); err != nil {
		t.Fatal(err)
	}
	if err := f.reg.Register(f.db1, registry.WithHandledUIDs("urn:test:sensor1")); err != nil {
		t.Fatal(err)
	}
	if err := f.reg.Register(f.db2, registry.WithHandledUIDs("urn:fleet:*")); err != nil {
		t.Fatal(err)
	}
	f.fed = NewDatabase(f.reg)
	return f
}

// seedSensor adds a procedure, data stream, FOI and one observation directly
// to a local database and returns the local keys.
func seedSensor(t *testing.T, db *memory.Database, uid string) (procKey datastore.FeatureKey, dsKey datastore.DataStreamKey, foiKey datastore.FeatureKey, obsKey datastore.BigID) {
	t.Helper()
	ctx := context.Background()
	var err error
	procKey, err = db.Procedures().Add(ctx, datastore.Procedure{UniqueID: uid, Name: "Sensor"})
	if err != nil {
		t.Fatal(err)
	}
	dsKey, err = db.Observations().DataStreams().Add(ctx, datastore.DataStreamInfo{
		ProcedureID: procKey.InternalID, OutputName: "out",
	})
	if err != nil {
		t.Fatal(err)
	}
	foiKey, err = db.Fois().Add(ctx, datastore.FeatureOfInterest{UniqueID: uid + ":foi"})
	if err != nil {
		t.Fatal(err)
	}
	obsKey, err = db.Observations().Add(ctx, datastore.ObsData{
		DataStreamID:   int64(dsKey),
		FoiID:          foiKey.InternalID,
		PhenomenonTime: time.Unix(100, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	return procKey, dsKey, foiKey, obsKey
}

func TestGetReencodesKeysAndReferences(t *testing.T) {
	f := newFixture(t)
	procKey, dsKey, foiKey, obsKey := seedSensor(t, f.db1, "urn:test:sensor1")

	publicProc := datastore.FeatureKey{
		InternalID: datastore.EncodePublicID(1, procKey.InternalID),
		ValidStart: procKey.ValidStart,
	}
	p, err := f.fed.Procedures().Get(publicProc)
	if err != nil || p.UniqueID != "urn:test:sensor1" {
		t.Fatalf("federated get procedure = %+v, %v", p, err)
	}

	o, err := f.fed.Observations().Get(datastore.EncodeBigID(1, obsKey))
	if err != nil {
		t.Fatalf("federated get obs: %v", err)
	}
	if want := datastore.EncodePublicID(1, int64(dsKey)); o.DataStreamID != want {
		t.Errorf("obs data stream ref = %d, want public %d", o.DataStreamID, want)
	}
	if want := datastore.EncodePublicID(1, foiKey.InternalID); o.FoiID != want {
		t.Errorf("obs foi ref = %d, want public %d", o.FoiID, want)
	}
}

func TestGetUnregisteredDatabaseIsNotFound(t *testing.T) {
	f := newFixture(t)
	// database 7 is not registered
	key := datastore.FeatureKey{InternalID: datastore.EncodePublicID(7, 1)}
	if _, err := f.fed.Procedures().Get(key); !errors.Is(err, datastore.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := f.fed.Observations().Get(datastore.EncodeBigID(7, datastore.NewBigID(1))); !errors.Is(err, datastore.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSelectMergesAndReencodes(t *testing.T) {
	f := newFixture(t)
	seedSensor(t, f.db1, "urn:test:sensor1")
	seedSensor(t, f.db2, "urn:fleet:truck1")
	ctx := context.Background()

	var keys []int64
	for e, err := range f.fed.Procedures().SelectEntries(ctx, nil) {
		if err != nil {
			t.Fatal(err)
		}
		keys = append(keys, e.Key.InternalID)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d procedures, want 2", len(keys))
	}
	for _, key := range keys {
		num, _ := datastore.DecodePublicID(key)
		if num != 1 && num != 2 {
			t.Errorf("key %d decodes to database %d, caller observed a local ID", key, num)
		}
	}
}

func TestSelectByPublicIDsDispatchesOnlyImplicatedDatabases(t *testing.T) {
	f := newFixture(t)
	_, _, _, obs1 := seedSensor(t, f.db1, "urn:test:sensor1")
	seedSensor(t, f.db2, "urn:fleet:truck1")
	ctx := context.Background()

	// constrain on an ID in db1 plus one in unregistered db 9
	filter := datastore.NewObsFilter().WithInternalIDs(
		datastore.EncodeBigID(1, obs1),
		datastore.EncodeBigID(9, datastore.NewBigID(1)),
	).Build()
	var got []datastore.BigID
	for e, err := range f.fed.Observations().SelectEntries(ctx, filter) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, e.Key)
	}
	if len(got) != 1 {
		t.Fatalf("got %d observations, want 1", len(got))
	}
	if !got[0].Equal(datastore.EncodeBigID(1, obs1)) {
		t.Errorf("key = %s, want public ID of db1 observation", got[0])
	}
}

func TestSelectByUIDResolvesOwningDatabase(t *testing.T) {
	f := newFixture(t)
	seedSensor(t, f.db1, "urn:test:sensor1")
	seedSensor(t, f.db2, "urn:fleet:truck1")
	ctx := context.Background()

	filter := datastore.NewObsFilter().WithProcedureUIDs("urn:test:sensor1").Build()
	var n int
	for _, err := range f.fed.Observations().SelectEntries(ctx, filter) {
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 1 {
		t.Fatalf("got %d observations, want only db1's", n)
	}
}

func TestCountSumsAcrossDatabases(t *testing.T) {
	f := newFixture(t)
	seedSensor(t, f.db1, "urn:test:sensor1")
	seedSensor(t, f.db2, "urn:fleet:truck1")
	ctx := context.Background()

	if n, err := f.fed.Observations().Count(ctx, nil); err != nil || n != 2 {
		t.Fatalf("count = %d, %v; want 2", n, err)
	}
	limited := datastore.NewObsFilter().WithLimit(1).Build()
	if n, err := f.fed.Observations().Count(ctx, limited); err != nil || n != 1 {
		t.Fatalf("limited count = %d, %v; want 1", n, err)
	}
}

func TestAddRoutesByUID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.fed.Procedures().Add(ctx, datastore.Procedure{UniqueID: "urn:fleet:truck9"})
	if err != nil {
		t.Fatalf("federated add: %v", err)
	}
	num, local := datastore.DecodePublicID(key.InternalID)
	if num != 2 {
		t.Fatalf("procedure landed in database %d, want 2", num)
	}
	if _, err := f.db2.Procedures().Get(datastore.FeatureKey{InternalID: local, ValidStart: key.ValidStart}); err != nil {
		t.Errorf("procedure not found in owning database: %v", err)
	}

	// unclaimed UIDs land in the default state database
	key, err = f.fed.Procedures().Add(ctx, datastore.Procedure{UniqueID: "urn:unclaimed:x"})
	if err != nil {
		t.Fatalf("federated add unclaimed: %v", err)
	}
	if num, _ := datastore.DecodePublicID(key.InternalID); num != 0 {
		t.Errorf("unclaimed procedure landed in database %d, want 0", num)
	}
}

func TestAddObservationRoutesViaDataStream(t *testing.T) {
	f := newFixture(t)
	_, dsKey, foiKey, _ := seedSensor(t, f.db1, "urn:test:sensor1")
	ctx := context.Background()

	key, err := f.fed.Observations().Add(ctx, datastore.ObsData{
		DataStreamID:   datastore.EncodePublicID(1, int64(dsKey)),
		FoiID:          datastore.EncodePublicID(1, foiKey.InternalID),
		PhenomenonTime: time.Unix(300, 0),
	})
	if err != nil {
		t.Fatalf("federated add obs: %v", err)
	}
	if num, _ := datastore.DecodeBigID(key); num != 1 {
		t.Errorf("observation landed in database %d, want 1", num)
	}

	// a FOI reference from another database is rejected
	_, err = f.fed.Observations().Add(ctx, datastore.ObsData{
		DataStreamID: datastore.EncodePublicID(1, int64(dsKey)),
		FoiID:        datastore.EncodePublicID(2, 1),
	})
	if err == nil {
		t.Error("cross-database FOI reference must be rejected")
	}
}

func TestAddToReadOnlyDatabase(t *testing.T) {
	reg := registry.New()
	ro := memory.New(1, memory.WithReadOnly())
	if err := reg.Register(ro); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterMapping("urn:test:sensor1", 1); err != nil {
		t.Fatal(err)
	}
	fed := NewDatabase(reg)
	_, err := fed.Procedures().Add(context.Background(), datastore.Procedure{UniqueID: "urn:test:sensor1"})
	if !errors.Is(err, datastore.ErrReadOnly) {
		t.Fatalf("want ErrReadOnly, got %v", err)
	}
}

func TestRemoveByUIDRoutesAndReencodes(t *testing.T) {
	f := newFixture(t)
	procKey, _, _, _ := seedSensor(t, f.db1, "urn:test:sensor1")
	ctx := context.Background()

	key, err := f.fed.Procedures().RemoveByUID(ctx, "urn:test:sensor1")
	if err != nil {
		t.Fatalf("RemoveByUID: %v", err)
	}
	if want := datastore.EncodePublicID(1, procKey.InternalID); key.InternalID != want {
		t.Errorf("removed key = %d, want public %d", key.InternalID, want)
	}
	if n, _ := f.db1.Observations().Count(ctx, nil); n != 0 {
		t.Errorf("%d observations survived the routed removal", n)
	}
}

type failingObsStore struct {
	datastore.ObsStore
}

func (failingObsStore) SelectEntries(context.Context, *datastore.ObsFilter, ...datastore.Field) datastore.Seq[datastore.BigID, datastore.ObsData] {
	return func(yield func(datastore.Entry[datastore.BigID, datastore.ObsData], error) bool) {
		yield(datastore.Entry[datastore.BigID, datastore.ObsData]{}, errors.New("shard down"))
	}
}

type failingDB struct {
	datastore.LocalDatabase
}

func (db failingDB) Observations() datastore.ObsStore {
	return failingObsStore{ObsStore: db.LocalDatabase.Observations()}
}

func TestShardErrorFailsWholeCall(t *testing.T) {
	reg := registry.New()
	healthy := memory.New(1)
	if err := reg.Register(healthy); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(failingDB{LocalDatabase: memory.New(2)}); err != nil {
		t.Fatal(err)
	}
	seedSensor(t, healthy, "urn:test:sensor1")
	fed := NewDatabase(reg)

	var sawErr bool
	for _, err := range fed.Observations().SelectEntries(context.Background(), nil) {
		if err != nil {
			sawErr = true
			break
		}
	}
	if !sawErr {
		t.Fatal("failing shard must fail the federated call")
	}
}

func TestLocalizationSkipsUnimplicatedDatabase(t *testing.T) {
	f := newFixture(t)
	_, dsKey, _, _ := seedSensor(t, f.db1, "urn:test:sensor1")
	seedSensor(t, f.db2, "urn:fleet:truck1")
	ctx := context.Background()

	// nested data stream IDs constrain to db1 only; db2 must contribute
	// nothing even though it holds observations
	filter := datastore.NewObsFilter().
		WithDataStreamIDs(datastore.EncodePublicID(1, int64(dsKey))).
		Build()
	var n int
	for e, err := range f.fed.Observations().SelectEntries(ctx, filter) {
		if err != nil {
			t.Fatal(err)
		}
		if num, _ := datastore.DecodeBigID(e.Key); num != 1 {
			t.Errorf("entry from database %d leaked through", num)
		}
		n++
	}
	if n != 1 {
		t.Fatalf("got %d observations, want 1", n)
	}
}
