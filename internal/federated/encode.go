package federated

import "obshub/pkg/datastore"

// Re-encoding of local keys and value-internal references into the public
// ID space. Callers must never observe local IDs; every entry leaving the
// federated layer passes through one of these.

func publicFeatureKey(dbNum int, key datastore.FeatureKey) datastore.FeatureKey {
	key.InternalID = datastore.EncodePublicID(dbNum, key.InternalID)
	return key
}

func publicProcedure(dbNum int, p datastore.Procedure) datastore.Procedure {
	if p.ParentID != 0 {
		p.ParentID = datastore.EncodePublicID(dbNum, p.ParentID)
	}
	return p
}

func publicDataStream(dbNum int, ds datastore.DataStreamInfo) datastore.DataStreamInfo {
	ds.ProcedureID = datastore.EncodePublicID(dbNum, ds.ProcedureID)
	return ds
}

func publicObs(dbNum int, o datastore.ObsData) datastore.ObsData {
	o.DataStreamID = datastore.EncodePublicID(dbNum, o.DataStreamID)
	if o.FoiID != 0 {
		o.FoiID = datastore.EncodePublicID(dbNum, o.FoiID)
	}
	return o
}

func publicCommandStream(dbNum int, cs datastore.CommandStreamInfo) datastore.CommandStreamInfo {
	cs.ProcedureID = datastore.EncodePublicID(dbNum, cs.ProcedureID)
	return cs
}

func publicCommand(dbNum int, cmd datastore.CommandData) datastore.CommandData {
	cmd.CommandStreamID = datastore.EncodePublicID(dbNum, cmd.CommandStreamID)
	return cmd
}

func publicStatus(dbNum int, st datastore.CommandStatus) datastore.CommandStatus {
	st.CommandID = datastore.EncodeBigID(dbNum, st.CommandID)
	return st
}
