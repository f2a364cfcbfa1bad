package archive

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"obshub/internal/infra/persistence/memory"
	"obshub/pkg/datastore"
)

func testStoreConformance(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	info, err := store.Put(ctx, "exports/a.json", strings.NewReader(`{"a":1}`), PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"records": "1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "exports/a.json" || info.Size != 7 {
		t.Errorf("put info = %+v", info)
	}
	if _, err := store.Put(ctx, "exports/a.json", strings.NewReader("x"), PutOptions{}); err == nil {
		t.Error("put on existing key must fail")
	}
	if _, err := store.Put(ctx, "exports/b.json", strings.NewReader("{}"), PutOptions{}); err != nil {
		t.Fatalf("put b: %v", err)
	}

	got, rc, err := store.Get(ctx, "exports/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || string(body) != `{"a":1}` {
		t.Errorf("get body = %q, %v", body, err)
	}
	if got.Size != 7 {
		t.Errorf("get info = %+v", got)
	}

	if _, err := store.Head(ctx, "exports/a.json"); err != nil {
		t.Errorf("head: %v", err)
	}
	if _, err := store.Head(ctx, "exports/missing"); err == nil {
		t.Error("head on missing key must fail")
	}

	infos, err := store.List(ctx, "exports/")
	if err != nil || len(infos) != 2 {
		t.Fatalf("list = %d entries, %v", len(infos), err)
	}
	if infos[0].Key != "exports/a.json" || infos[1].Key != "exports/b.json" {
		t.Errorf("list order = %s, %s", infos[0].Key, infos[1].Key)
	}

	u, err := store.PresignURL(ctx, "exports/a.json", SignedURLOptions{Expiry: time.Minute})
	if err != nil || u == "" {
		t.Errorf("presign = %q, %v", u, err)
	}
	if _, err := store.PresignURL(ctx, "exports/a.json", SignedURLOptions{Method: "PUT"}); err == nil {
		t.Error("presign PUT must be unsupported")
	}

	existed, err := store.Delete(ctx, "exports/b.json")
	if err != nil || !existed {
		t.Errorf("delete = %v, %v", existed, err)
	}
	if _, _, err := store.Get(ctx, "exports/b.json"); err == nil {
		t.Error("get after delete must fail")
	}
}

func TestMemoryStore(t *testing.T) {
	testStoreConformance(t, NewMemory())
}

func TestFilesystemStore(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStoreConformance(t, store)
}

func TestS3StoreWithMockTransport(t *testing.T) {
	testStoreConformance(t, NewS3MockForTests())
}

func TestFilesystemKeySanitization(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "../escape", "/abs", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Errorf("key %q accepted", key)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	t.Setenv("OBSHUB_BLOB_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil || store.Driver() != DriverMemory {
		t.Errorf("memory: %v, %v", store, err)
	}

	t.Setenv("OBSHUB_BLOB_DRIVER", "fs")
	t.Setenv("OBSHUB_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil || store.Driver() != DriverFilesystem {
		t.Errorf("fs: %v, %v", store, err)
	}

	t.Setenv("OBSHUB_BLOB_DRIVER", "s3")
	t.Setenv("OBSHUB_BLOB_S3_BUCKET", "")
	if _, err := Open(ctx); err == nil {
		t.Error("s3 without bucket must fail")
	}

	t.Setenv("OBSHUB_BLOB_DRIVER", "gcs")
	if _, err := Open(ctx); err == nil {
		t.Error("unknown driver must fail")
	}
}

func seedObsDatabase(t *testing.T) *memory.Database {
	t.Helper()
	ctx := context.Background()
	db := memory.New(1)
	procKey, err := db.Procedures().Add(ctx, datastore.Procedure{UniqueID: "urn:test:sensor1"})
	if err != nil {
		t.Fatal(err)
	}
	dsKey, err := db.Observations().DataStreams().Add(ctx, datastore.DataStreamInfo{
		ProcedureID: procKey.InternalID,
		OutputName:  "temp",
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := range 3 {
		if _, err := db.Observations().Add(ctx, datastore.ObsData{
			DataStreamID:   int64(dsKey),
			PhenomenonTime: time.Unix(int64(100+i), 0),
			Result:         map[string]any{"temp": 20.0 + float64(i)},
		}); err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func TestArchiverExportObservations(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	arch := NewArchiver(store, seedObsDatabase(t))

	info, err := arch.ExportObservations(ctx, "daily", nil)
	if err != nil {
		t.Fatal(err)
	}
	if info.Key != "observations/daily.json" {
		t.Errorf("key = %s", info.Key)
	}
	if info.Metadata["records"] != "3" {
		t.Errorf("metadata = %v", info.Metadata)
	}

	_, rc, err := store.Get(ctx, "observations/daily.json")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = rc.Close() }()
	var artifact ObsArtifact
	if err := json.NewDecoder(rc).Decode(&artifact); err != nil {
		t.Fatal(err)
	}
	if artifact.Count != 3 || len(artifact.Observations) != 3 {
		t.Fatalf("artifact = %+v", artifact)
	}
	if artifact.Observations[0].Observation.Result["temp"] != 20.0 {
		t.Errorf("first observation = %+v", artifact.Observations[0])
	}

	// exporting under the same name again fails: artifacts are immutable
	if _, err := arch.ExportObservations(ctx, "daily", nil); err == nil {
		t.Error("duplicate artifact name accepted")
	}
}

func TestArchiverExportProceduresAndList(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	arch := NewArchiver(store, seedObsDatabase(t))

	if _, err := arch.ExportProcedures(ctx, "inventory", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := arch.ExportObservations(ctx, "daily", nil); err != nil {
		t.Fatal(err)
	}

	infos, err := arch.Artifacts(ctx, "procedures/")
	if err != nil || len(infos) != 1 {
		t.Fatalf("artifacts = %d, %v", len(infos), err)
	}
	all, err := arch.Artifacts(ctx, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("all artifacts = %d, %v", len(all), err)
	}
}
