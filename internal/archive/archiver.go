package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"time"

	"obshub/pkg/datastore"
)

// Archiver exports query results from an observation database into blob
// storage as JSON artifacts. Pointing it at a federated database archives
// across the whole federation with public IDs.
type Archiver struct {
	store Store
	db    datastore.ObsDatabase
}

// NewArchiver returns an archiver writing artifacts from db into store.
func NewArchiver(store Store, db datastore.ObsDatabase) *Archiver {
	return &Archiver{store: store, db: db}
}

// ObsArtifact is the payload layout of an observation export.
type ObsArtifact struct {
	GeneratedAt  time.Time          `json:"generatedAt"`
	Count        int                `json:"count"`
	Observations []ObsArtifactEntry `json:"observations"`
}

// ObsArtifactEntry pairs an observation with its public key.
type ObsArtifactEntry struct {
	Key         datastore.BigID   `json:"key"`
	Observation datastore.ObsData `json:"observation"`
}

// ExportObservations writes all observations matching f under
// observations/<name>.json and returns the stored blob info.
func (a *Archiver) ExportObservations(ctx context.Context, name string, f *datastore.ObsFilter) (Info, error) {
	artifact := ObsArtifact{GeneratedAt: time.Now().UTC()}
	for e, err := range a.db.Observations().SelectEntries(ctx, f) {
		if err != nil {
			return Info{}, fmt.Errorf("select observations: %w", err)
		}
		artifact.Observations = append(artifact.Observations, ObsArtifactEntry{
			Key:         e.Key,
			Observation: e.Value,
		})
	}
	artifact.Count = len(artifact.Observations)
	return a.put(ctx, path.Join("observations", name+".json"), artifact, artifact.Count)
}

// ProcArtifact is the payload layout of a procedure export.
type ProcArtifact struct {
	GeneratedAt time.Time           `json:"generatedAt"`
	Count       int                 `json:"count"`
	Procedures  []ProcArtifactEntry `json:"procedures"`
}

// ProcArtifactEntry pairs a procedure description with its public key.
type ProcArtifactEntry struct {
	Key       datastore.FeatureKey `json:"key"`
	Procedure datastore.Procedure  `json:"procedure"`
}

// ExportProcedures writes all procedure descriptions matching f under
// procedures/<name>.json and returns the stored blob info.
func (a *Archiver) ExportProcedures(ctx context.Context, name string, f *datastore.ProcedureFilter) (Info, error) {
	artifact := ProcArtifact{GeneratedAt: time.Now().UTC()}
	for e, err := range a.db.Procedures().SelectEntries(ctx, f) {
		if err != nil {
			return Info{}, fmt.Errorf("select procedures: %w", err)
		}
		artifact.Procedures = append(artifact.Procedures, ProcArtifactEntry{
			Key:       e.Key,
			Procedure: e.Value,
		})
	}
	artifact.Count = len(artifact.Procedures)
	return a.put(ctx, path.Join("procedures", name+".json"), artifact, artifact.Count)
}

// Artifacts lists stored artifacts under prefix ("" for all).
func (a *Archiver) Artifacts(ctx context.Context, prefix string) ([]Info, error) {
	return a.store.List(ctx, prefix)
}

func (a *Archiver) put(ctx context.Context, key string, payload any, records int) (Info, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Info{}, err
	}
	return a.store.Put(ctx, key, bytes.NewReader(data), PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"records": strconv.Itoa(records)},
	})
}
