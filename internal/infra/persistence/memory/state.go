package memory

import (
	"time"

	"obshub/pkg/datastore"
)

// State is a point-in-time export of the database contents, serializable
// with encoding/json. Durable backends persist it after every commit and
// load it back on startup.
type State struct {
	DatabaseNum int `json:"databaseNum"`

	NextProcedureID  int64 `json:"nextProcedureId"`
	NextFoiID        int64 `json:"nextFoiId"`
	NextDataStreamID int64 `json:"nextDataStreamId"`
	NextCmdStreamID  int64 `json:"nextCommandStreamId"`
	NextObsID        int64 `json:"nextObsId"`
	NextCmdID        int64 `json:"nextCommandId"`
	NextStatusID     int64 `json:"nextStatusId"`

	Procedures     []FeatureRecord[datastore.Procedure]         `json:"procedures,omitempty"`
	Fois           []FeatureRecord[datastore.FeatureOfInterest] `json:"fois,omitempty"`
	DataStreams    []DataStreamRecord                           `json:"dataStreams,omitempty"`
	CommandStreams []CommandStreamRecord                        `json:"commandStreams,omitempty"`
	Observations   []ObsRecord                                  `json:"observations,omitempty"`
	Commands       []CommandRecord                              `json:"commands,omitempty"`
	StatusReports  []StatusRecord                               `json:"statusReports,omitempty"`
}

// FeatureRecord is one version of a feature resource.
type FeatureRecord[V any] struct {
	InternalID int64     `json:"internalId"`
	UniqueID   string    `json:"uniqueId"`
	ValidStart time.Time `json:"validStart"`
	Value      V         `json:"value"`
}

type DataStreamRecord struct {
	Key   datastore.DataStreamKey  `json:"key"`
	Value datastore.DataStreamInfo `json:"value"`
}

type CommandStreamRecord struct {
	Key   datastore.CommandStreamKey  `json:"key"`
	Value datastore.CommandStreamInfo `json:"value"`
}

type ObsRecord struct {
	Key   datastore.BigID   `json:"key"`
	Value datastore.ObsData `json:"value"`
}

type CommandRecord struct {
	Key   datastore.BigID       `json:"key"`
	Value datastore.CommandData `json:"value"`
}

type StatusRecord struct {
	Key   datastore.BigID         `json:"key"`
	Value datastore.CommandStatus `json:"value"`
}

// Export returns a consistent snapshot of the database contents.
func (db *Database) Export() State {
	db.mu.RLock()
	defer db.mu.RUnlock()

	st := State{
		DatabaseNum:      db.num,
		NextProcedureID:  db.procs.nextID,
		NextFoiID:        db.fois.nextID,
		NextDataStreamID: db.nextDataStreamID,
		NextCmdStreamID:  db.nextCmdStreamID,
		NextObsID:        db.nextObsID,
		NextCmdID:        db.nextCmdID,
		NextStatusID:     db.nextStatusID,
	}
	st.Procedures = exportFeatures(&db.procs)
	st.Fois = exportFeatures(&db.fois)
	for key, ds := range db.dataStreams {
		st.DataStreams = append(st.DataStreams, DataStreamRecord{Key: key, Value: ds})
	}
	for key, cs := range db.cmdStreams {
		st.CommandStreams = append(st.CommandStreams, CommandStreamRecord{Key: key, Value: cs})
	}
	for _, rec := range db.obs {
		st.Observations = append(st.Observations, ObsRecord{Key: rec.key, Value: rec.value.Clone()})
	}
	for _, rec := range db.commands {
		st.Commands = append(st.Commands, CommandRecord{Key: rec.key, Value: rec.value.Clone()})
	}
	for _, rec := range db.status {
		st.StatusReports = append(st.StatusReports, StatusRecord{Key: rec.key, Value: rec.value})
	}
	return st
}

func exportFeatures[V any](t *featureTable[V]) []FeatureRecord[V] {
	uidByID := make(map[int64]string, len(t.idByUID))
	for uid, id := range t.idByUID {
		uidByID[id] = uid
	}
	var out []FeatureRecord[V]
	for id, versions := range t.byID {
		for _, ver := range versions {
			out = append(out, FeatureRecord[V]{
				InternalID: id,
				UniqueID:   uidByID[id],
				ValidStart: ver.validStart,
				Value:      ver.value,
			})
		}
	}
	return out
}

// Import replaces the database contents with a previously exported state.
// It bypasses the read-only flag so durable backends can restore into a
// database that is read-only for clients.
func (db *Database) Import(st State) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.procs = importFeatures(st.Procedures, st.NextProcedureID)
	db.fois = importFeatures(st.Fois, st.NextFoiID)
	db.nextDataStreamID = st.NextDataStreamID
	db.nextCmdStreamID = st.NextCmdStreamID
	db.nextObsID = st.NextObsID
	db.nextCmdID = st.NextCmdID
	db.nextStatusID = st.NextStatusID

	db.dataStreams = make(map[datastore.DataStreamKey]datastore.DataStreamInfo, len(st.DataStreams))
	for _, rec := range st.DataStreams {
		db.dataStreams[rec.Key] = rec.Value
	}
	db.cmdStreams = make(map[datastore.CommandStreamKey]datastore.CommandStreamInfo, len(st.CommandStreams))
	for _, rec := range st.CommandStreams {
		db.cmdStreams[rec.Key] = rec.Value
	}
	db.obs = make(map[string]obsRecord, len(st.Observations))
	for _, rec := range st.Observations {
		db.obs[rec.Key.String()] = obsRecord{key: rec.Key, value: rec.Value}
	}
	db.commands = make(map[string]cmdRecord, len(st.Commands))
	for _, rec := range st.Commands {
		db.commands[rec.Key.String()] = cmdRecord{key: rec.Key, value: rec.Value}
	}
	db.status = make(map[string]statusRecord, len(st.StatusReports))
	for _, rec := range st.StatusReports {
		db.status[rec.Key.String()] = statusRecord{key: rec.Key, value: rec.Value}
	}
}

func importFeatures[V any](records []FeatureRecord[V], nextID int64) featureTable[V] {
	t := newFeatureTable[V]()
	for _, rec := range records {
		t.idByUID[rec.UniqueID] = rec.InternalID
		versions := t.byID[rec.InternalID]
		versions = append(versions, featureVersion[V]{validStart: rec.ValidStart, value: rec.Value})
		for i := len(versions) - 1; i > 0 && versions[i].validStart.Before(versions[i-1].validStart); i-- {
			versions[i], versions[i-1] = versions[i-1], versions[i]
		}
		t.byID[rec.InternalID] = versions
	}
	t.nextID = nextID
	return t
}
