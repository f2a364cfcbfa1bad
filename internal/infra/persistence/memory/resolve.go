package memory

import (
	"slices"

	"obshub/pkg/datastore"
)

// Nested filter predicates are resolved by walking the joined tables. All
// functions in this file are called with the database lock held.

func (db *Database) procMatchesLocked(key datastore.FeatureKey, p datastore.Procedure, f *datastore.ProcedureFilter) bool {
	if f == nil {
		return true
	}
	if !f.Matches(key, p) {
		return false
	}
	if pf := f.Parent(); pf != nil {
		if p.ParentID == 0 {
			// only an explicit internal ID 0 predicate selects top-level
			// procedures
			if !slices.Contains(pf.InternalIDs(), int64(0)) {
				return false
			}
		} else if !db.anyProcVersionMatchesLocked(p.ParentID, pf) {
			return false
		}
	}
	if dsf := f.DataStreams(); dsf != nil {
		found := false
		for dsKey, ds := range db.dataStreams {
			if ds.ProcedureID == key.InternalID && db.dataStreamMatchesLocked(dsKey, ds, dsf) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (db *Database) anyProcVersionMatchesLocked(id int64, f *datastore.ProcedureFilter) bool {
	for _, ver := range db.procs.byID[id] {
		key := datastore.FeatureKey{InternalID: id, ValidStart: ver.validStart}
		if db.procMatchesLocked(key, ver.value, f) {
			return true
		}
	}
	return false
}

func (db *Database) dataStreamMatchesLocked(key datastore.DataStreamKey, ds datastore.DataStreamInfo, f *datastore.DataStreamFilter) bool {
	if f == nil {
		return true
	}
	if !f.Matches(key, ds) {
		return false
	}
	if pf := f.Procedures(); pf != nil && !db.anyProcVersionMatchesLocked(ds.ProcedureID, pf) {
		return false
	}
	if of := f.Observations(); of != nil {
		found := false
		for _, rec := range db.obs {
			if rec.value.DataStreamID == int64(key) && db.obsMatchesLocked(rec.key, rec.value, of) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (db *Database) obsMatchesLocked(key datastore.BigID, o datastore.ObsData, f *datastore.ObsFilter) bool {
	if f == nil {
		return true
	}
	if !f.Matches(key, o) {
		return false
	}
	if dsf := f.DataStreams(); dsf != nil {
		ds, ok := db.dataStreams[datastore.DataStreamKey(o.DataStreamID)]
		if !ok || !db.dataStreamMatchesLocked(datastore.DataStreamKey(o.DataStreamID), ds, dsf) {
			return false
		}
	}
	if ff := f.Fois(); ff != nil {
		// observations without a feature of interest never match an FOI
		// predicate
		if o.FoiID == 0 || !db.anyFoiVersionMatchesLocked(o.FoiID, ff) {
			return false
		}
	}
	return true
}

func (db *Database) foiMatchesLocked(key datastore.FeatureKey, foi datastore.FeatureOfInterest, f *datastore.FoiFilter) bool {
	if f == nil {
		return true
	}
	if !f.Matches(key, foi) {
		return false
	}
	if of := f.Observations(); of != nil {
		found := false
		for _, rec := range db.obs {
			if rec.value.FoiID == key.InternalID && db.obsMatchesLocked(rec.key, rec.value, of) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (db *Database) anyFoiVersionMatchesLocked(id int64, f *datastore.FoiFilter) bool {
	for _, ver := range db.fois.byID[id] {
		key := datastore.FeatureKey{InternalID: id, ValidStart: ver.validStart}
		if db.foiMatchesLocked(key, ver.value, f) {
			return true
		}
	}
	return false
}

func (db *Database) cmdStreamMatchesLocked(key datastore.CommandStreamKey, cs datastore.CommandStreamInfo, f *datastore.CommandStreamFilter) bool {
	if f == nil {
		return true
	}
	if !f.Matches(key, cs) {
		return false
	}
	if pf := f.Procedures(); pf != nil && !db.anyProcVersionMatchesLocked(cs.ProcedureID, pf) {
		return false
	}
	return true
}

func (db *Database) cmdMatchesLocked(key datastore.BigID, cmd datastore.CommandData, f *datastore.CommandFilter) bool {
	if f == nil {
		return true
	}
	if !f.Matches(key, cmd) {
		return false
	}
	if csf := f.CommandStreams(); csf != nil {
		cs, ok := db.cmdStreams[datastore.CommandStreamKey(cmd.CommandStreamID)]
		if !ok || !db.cmdStreamMatchesLocked(datastore.CommandStreamKey(cmd.CommandStreamID), cs, csf) {
			return false
		}
	}
	if sf := f.Status(); sf != nil {
		found := false
		for _, rec := range db.status {
			if rec.value.CommandID.Equal(key) && db.statusMatchesLocked(rec.key, rec.value, sf) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (db *Database) statusMatchesLocked(key datastore.BigID, st datastore.CommandStatus, f *datastore.CommandStatusFilter) bool {
	if f == nil {
		return true
	}
	if !f.Matches(key, st) {
		return false
	}
	if cf := f.Commands(); cf != nil {
		rec, ok := db.commands[st.CommandID.String()]
		if !ok || !db.cmdMatchesLocked(rec.key, rec.value, cf) {
			return false
		}
	}
	return true
}
