package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"obshub/internal/archive"
	"obshub/internal/hub"
	"obshub/pkg/datastore"
)

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestArchiveHandler(t *testing.T) {
	ctx := context.Background()
	svc, err := hub.NewService()
	if err != nil {
		t.Fatal(err)
	}
	procKey, err := svc.AddProcedure(ctx, datastore.Procedure{UniqueID: "urn:test:s1"})
	if err != nil {
		t.Fatal(err)
	}
	dsKey, err := svc.AddDataStream(ctx, datastore.DataStreamInfo{ProcedureID: procKey.InternalID, OutputName: "v"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddObservation(ctx, datastore.ObsData{
		DataStreamID:   int64(dsKey),
		PhenomenonTime: time.Unix(1, 0),
	}); err != nil {
		t.Fatal(err)
	}

	store := archive.NewMemory()
	handler := archiveHandler(archive.NewArchiver(store, svc.Federated()), stdLogger{})

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/archive/observations", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodPost, "/archive/observations?name=nightly", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST status = %d: %s", rr.Code, rr.Body.String())
	}
	if _, err := store.Head(ctx, "observations/nightly.json"); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}
