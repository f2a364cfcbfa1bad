package memory

// Removal cascades. Deleting a procedure drops its data streams and command
// streams; deleting a stream drops the observations or commands attached to
// it; deleting a command drops its status reports. Callers hold the write
// lock.

func (db *Database) removeProcedureDependentsLocked(procID int64) {
	for dsKey, ds := range db.dataStreams {
		if ds.ProcedureID == procID {
			delete(db.dataStreams, dsKey)
			db.removeObsOfStreamLocked(int64(dsKey))
		}
	}
	for csKey, cs := range db.cmdStreams {
		if cs.ProcedureID == procID {
			delete(db.cmdStreams, csKey)
			db.removeCommandsOfStreamLocked(int64(csKey))
		}
	}
}

func (db *Database) removeObsOfStreamLocked(dataStreamID int64) {
	for key, rec := range db.obs {
		if rec.value.DataStreamID == dataStreamID {
			delete(db.obs, key)
		}
	}
}

func (db *Database) removeCommandsOfStreamLocked(cmdStreamID int64) {
	for key, rec := range db.commands {
		if rec.value.CommandStreamID == cmdStreamID {
			delete(db.commands, key)
			db.removeStatusOfCommandLocked(key)
		}
	}
}

func (db *Database) removeStatusOfCommandLocked(commandKey string) {
	for key, rec := range db.status {
		if rec.value.CommandID.String() == commandKey {
			delete(db.status, key)
		}
	}
}
