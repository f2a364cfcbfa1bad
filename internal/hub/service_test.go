package hub

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"obshub/internal/infra/persistence/memory"
	"obshub/pkg/datastore"
)

type captureLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (l *captureLogger) Info(msg string, kv ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *captureLogger) Warn(msg string, kv ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

type captureMetrics struct {
	mu      sync.Mutex
	results map[string][]bool
}

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = make(map[string][]bool)
	}
	c.results[op] = append(c.results[op], success)
}

func (c *captureMetrics) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, got := range c.results[op] {
		if got == success {
			return true
		}
	}
	return false
}

func TestServiceRoutesAcrossFederation(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService()
	if err != nil {
		t.Fatal(err)
	}

	db1 := memory.New(1)
	if err := svc.RegisterDatabase(ctx, db1, "urn:test:sensor1"); err != nil {
		t.Fatal(err)
	}

	// claimed UID lands in database 1; the public ID carries the database
	// number in its low digits
	key, err := svc.AddProcedure(ctx, datastore.Procedure{UniqueID: "urn:test:sensor1", Name: "Thermometer"})
	if err != nil {
		t.Fatal(err)
	}
	if got := svc.Registry().Resolve("urn:test:sensor1"); got != 1 {
		t.Errorf("Resolve = %d, want 1", got)
	}
	num, localID := datastore.DecodePublicID(key.InternalID)
	if num != 1 {
		t.Fatalf("decode %d: local %d db %d", key.InternalID, localID, num)
	}
	if want := datastore.EncodePublicID(1, localID); key.InternalID != want {
		t.Errorf("public ID = %d, want %d", key.InternalID, want)
	}

	// unclaimed UID falls back to the default database (number 0)
	defKey, err := svc.AddProcedure(ctx, datastore.Procedure{UniqueID: "urn:other:sensor"})
	if err != nil {
		t.Fatal(err)
	}
	if num, _ := datastore.DecodePublicID(defKey.InternalID); num != 0 {
		t.Errorf("default write landed in db %d", num)
	}

	// the federated view resolves the public key back to database 1
	p, err := svc.Federated().Procedures().Get(key)
	if err != nil || p.UniqueID != "urn:test:sensor1" {
		t.Fatalf("federated get = %+v, %v", p, err)
	}

	dsKey, err := svc.AddDataStream(ctx, datastore.DataStreamInfo{ProcedureID: key.InternalID, OutputName: "temp"})
	if err != nil {
		t.Fatal(err)
	}
	obsKey, err := svc.AddObservation(ctx, datastore.ObsData{
		DataStreamID:   int64(dsKey),
		PhenomenonTime: time.Unix(100, 0),
		Result:         map[string]any{"temp": 20.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if num, _ := datastore.DecodeBigID(obsKey); num != 1 {
		t.Errorf("observation landed in db %d", num)
	}

	entries, err := svc.SelectObservations(ctx, datastore.NewObsFilter().WithProcedureUIDs("urn:test:sensor1").Build())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].Key.Equal(obsKey) {
		t.Fatalf("select = %+v", entries)
	}
	if n, err := svc.CountObservations(ctx, nil); err != nil || n != 1 {
		t.Errorf("count = %d, %v", n, err)
	}

	if _, err := svc.RemoveProcedure(ctx, "urn:test:sensor1"); err != nil {
		t.Fatal(err)
	}
	if n, _ := svc.CountObservations(ctx, nil); n != 0 {
		t.Errorf("count after remove = %d", n)
	}
}

func TestServiceObservability(t *testing.T) {
	ctx := context.Background()
	log := &captureLogger{}
	metrics := &captureMetrics{}
	var trace bytes.Buffer
	tracer := NewJSONTracer(&trace)

	svc, err := NewService(
		WithLogger(log),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
	)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AddProcedure(ctx, datastore.Procedure{UniqueID: "urn:test:a"}); err != nil {
		t.Fatal(err)
	}
	if !metrics.has("procedure.add", true) {
		t.Error("missing success observation for procedure.add")
	}

	// an observation on a missing stream fails and is recorded as an error
	if _, err := svc.AddObservation(ctx, datastore.ObsData{DataStreamID: datastore.EncodePublicID(0, 9)}); err == nil {
		t.Fatal("want error for missing data stream")
	}
	if !metrics.has("observation.add", false) {
		t.Error("missing error observation for observation.add")
	}
	if len(log.warns) == 0 {
		t.Error("failed operation was not logged")
	}

	entries := tracer.Entries()
	if len(entries) < 2 {
		t.Fatalf("trace entries = %d", len(entries))
	}
	var sawError bool
	for _, e := range entries {
		if e.Status == "error" && e.Operation == "observation.add" {
			sawError = true
		}
	}
	if !sawError {
		t.Error("missing error span for observation.add")
	}
	if trace.Len() == 0 {
		t.Error("tracer wrote no output")
	}
}

func TestUnregisterDatabaseInstrumented(t *testing.T) {
	ctx := context.Background()
	metrics := &captureMetrics{}
	svc, err := NewService(WithMetricsRecorder(metrics))
	if err != nil {
		t.Fatal(err)
	}
	db := memory.New(1)
	if err := svc.RegisterDatabase(ctx, db, "urn:test:*"); err != nil {
		t.Fatal(err)
	}

	svc.UnregisterDatabase(ctx, db)
	if !metrics.has("database.unregister", true) {
		t.Errorf("metrics = %+v, want database.unregister success", metrics.results)
	}
	if got := svc.Registry().Resolve("urn:test:sensor1"); got != 0 {
		t.Errorf("Resolve after unregister = %d, want default 0", got)
	}
}

func TestRegisterDatabaseConflictLogged(t *testing.T) {
	ctx := context.Background()
	metrics := &captureMetrics{}
	svc, err := NewService(WithMetricsRecorder(metrics))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.RegisterDatabase(ctx, memory.New(1), "urn:test:s"); err != nil {
		t.Fatal(err)
	}
	if err := svc.RegisterDatabase(ctx, memory.New(2), "urn:test:s"); err == nil {
		t.Fatal("want claim conflict")
	}
	if !metrics.has("database.register", false) {
		t.Error("conflict not recorded")
	}
}

func TestExpvarMetricsRecorderExports(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "observation.select", true, 25*time.Millisecond)
	rec.Observe(context.Background(), "observation.select", false, 5*time.Millisecond)

	snap := rec.Snapshot()
	if snap.Results["observation.select"]["success"] != 1 || snap.Results["observation.select"]["error"] != 1 {
		t.Errorf("results = %+v", snap.Results)
	}
	if snap.DurationsMS["observation.select"] < 25 {
		t.Errorf("durations = %+v", snap.DurationsMS)
	}
}

func TestOpenLocalDatabaseDrivers(t *testing.T) {
	t.Setenv("OBSHUB_STORAGE_DRIVER", "memory")
	db, err := OpenLocalDatabase(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := db.(*memory.Database); !ok {
		t.Errorf("driver memory returned %T", db)
	}

	t.Setenv("OBSHUB_STORAGE_DRIVER", "sqlite")
	t.Setenv("OBSHUB_SQLITE_PATH", filepath.Join(t.TempDir(), "obs.db"))
	sdb, err := OpenLocalDatabase(2)
	if err != nil {
		t.Fatal(err)
	}
	if sdb.DatabaseNum() != 2 {
		t.Errorf("DatabaseNum() = %d", sdb.DatabaseNum())
	}

	t.Setenv("OBSHUB_STORAGE_DRIVER", "bolt")
	if _, err := OpenLocalDatabase(0); err == nil {
		t.Error("want unknown driver error")
	}
}

func TestRegisterReadOnlyCollectorRejected(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService()
	if err != nil {
		t.Fatal(err)
	}
	err = svc.RegisterDatabase(ctx, memory.New(1, memory.WithReadOnly()), "urn:test:s")
	if err == nil {
		t.Fatal("want error registering read-only collector database")
	}
}
