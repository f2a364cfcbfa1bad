package federated

import (
	"context"
	"fmt"

	"obshub/pkg/datastore"
)

type commandStreamStore struct {
	d *Database
}

func (s *commandStreamStore) Name() string { return "federated-commandstreams" }

func (s *commandStreamStore) Get(key datastore.CommandStreamKey) (datastore.CommandStreamInfo, error) {
	num, local := datastore.DecodePublicID(int64(key))
	db, ok := s.d.reg.Database(num)
	if !ok {
		return datastore.CommandStreamInfo{}, datastore.ErrNotFound
	}
	cs, err := db.Commands().CommandStreams().Get(datastore.CommandStreamKey(local))
	if err != nil {
		return datastore.CommandStreamInfo{}, err
	}
	return publicCommandStream(num, cs), nil
}

func (s *commandStreamStore) shards(f *datastore.CommandStreamFilter) []shard[datastore.CommandStreamKey, datastore.CommandStreamInfo, *datastore.CommandStreamFilter] {
	var targets []target
	if ids := f.InternalIDs(); len(ids) > 0 {
		targets = targetsForDispatch(s.d.reg.Dispatch(ids))
	} else if t, ok := s.d.targetsForUIDs(f.Procedures().UniqueIDs()); ok {
		targets = t
	} else {
		targets = s.d.allTargets()
	}
	var out []shard[datastore.CommandStreamKey, datastore.CommandStreamInfo, *datastore.CommandStreamFilter]
	for _, t := range targets {
		lf, ok := localizeCommandStreamFilter(f, t.num)
		if !ok {
			continue
		}
		out = append(out, shard[datastore.CommandStreamKey, datastore.CommandStreamInfo, *datastore.CommandStreamFilter]{
			store: t.db.Commands().CommandStreams(), filter: lf, num: t.num,
		})
	}
	return out
}

func (s *commandStreamStore) SelectEntries(ctx context.Context, f *datastore.CommandStreamFilter, _ ...datastore.Field) datastore.Seq[datastore.CommandStreamKey, datastore.CommandStreamInfo] {
	return fanOut(ctx, s.shards(f), f.Limit(),
		func(num int, e datastore.Entry[datastore.CommandStreamKey, datastore.CommandStreamInfo]) datastore.Entry[datastore.CommandStreamKey, datastore.CommandStreamInfo] {
			e.Key = datastore.CommandStreamKey(datastore.EncodePublicID(num, int64(e.Key)))
			e.Value = publicCommandStream(num, e.Value)
			return e
		})
}

func (s *commandStreamStore) Count(ctx context.Context, f *datastore.CommandStreamFilter) (int64, error) {
	return fanOutCount(ctx, s.shards(f), f.Limit())
}

func (s *commandStreamStore) Add(ctx context.Context, cs datastore.CommandStreamInfo) (datastore.CommandStreamKey, error) {
	num, local := datastore.DecodePublicID(cs.ProcedureID)
	db, ok := s.d.reg.Database(num)
	if !ok {
		return 0, fmt.Errorf("procedure %d: owning database %d is not registered", cs.ProcedureID, num)
	}
	cs.ProcedureID = local
	key, err := db.Commands().CommandStreams().Add(ctx, cs)
	if err != nil {
		return 0, err
	}
	return datastore.CommandStreamKey(datastore.EncodePublicID(num, int64(key))), nil
}

func (s *commandStreamStore) Remove(ctx context.Context, f *datastore.CommandStreamFilter) (int64, error) {
	return fanOutRemove(ctx, s.shards(f))
}

func (s *commandStreamStore) LatestVersionKey(procUID, commandName string) (datastore.CommandStreamKey, error) {
	db, ok := s.d.reg.DatabaseForUID(procUID)
	if !ok {
		return 0, datastore.ErrNotFound
	}
	key, err := db.Commands().CommandStreams().LatestVersionKey(procUID, commandName)
	if err != nil {
		return 0, err
	}
	return datastore.CommandStreamKey(datastore.EncodePublicID(db.DatabaseNum(), int64(key))), nil
}

// LinkTo is a no-op: routing already spans the registered databases.
func (s *commandStreamStore) LinkTo(datastore.ProcedureStore) {}

type commandStore struct {
	d *Database
}

func (s *commandStore) Name() string { return "federated-commands" }

func (s *commandStore) Get(key datastore.BigID) (datastore.CommandData, error) {
	if !key.IsValid() {
		return datastore.CommandData{}, datastore.ErrNotFound
	}
	num, local := datastore.DecodeBigID(key)
	db, ok := s.d.reg.Database(num)
	if !ok {
		return datastore.CommandData{}, datastore.ErrNotFound
	}
	cmd, err := db.Commands().Get(local)
	if err != nil {
		return datastore.CommandData{}, err
	}
	return publicCommand(num, cmd), nil
}

func (s *commandStore) shards(f *datastore.CommandFilter) []shard[datastore.BigID, datastore.CommandData, *datastore.CommandFilter] {
	var targets []target
	if ids := f.InternalIDs(); len(ids) > 0 {
		targets = targetsForDispatch(s.d.reg.DispatchBig(ids))
	} else if t, ok := s.d.targetsForUIDs(f.CommandStreams().Procedures().UniqueIDs()); ok {
		targets = t
	} else {
		targets = s.d.allTargets()
	}
	var out []shard[datastore.BigID, datastore.CommandData, *datastore.CommandFilter]
	for _, t := range targets {
		lf, ok := localizeCommandFilter(f, t.num)
		if !ok {
			continue
		}
		out = append(out, shard[datastore.BigID, datastore.CommandData, *datastore.CommandFilter]{
			store: t.db.Commands(), filter: lf, num: t.num,
		})
	}
	return out
}

func (s *commandStore) SelectEntries(ctx context.Context, f *datastore.CommandFilter, _ ...datastore.Field) datastore.Seq[datastore.BigID, datastore.CommandData] {
	return fanOut(ctx, s.shards(f), f.Limit(),
		func(num int, e datastore.Entry[datastore.BigID, datastore.CommandData]) datastore.Entry[datastore.BigID, datastore.CommandData] {
			e.Key = datastore.EncodeBigID(num, e.Key)
			e.Value = publicCommand(num, e.Value)
			return e
		})
}

func (s *commandStore) Count(ctx context.Context, f *datastore.CommandFilter) (int64, error) {
	return fanOutCount(ctx, s.shards(f), f.Limit())
}

func (s *commandStore) Add(ctx context.Context, cmd datastore.CommandData) (datastore.BigID, error) {
	num, local := datastore.DecodePublicID(cmd.CommandStreamID)
	db, ok := s.d.reg.Database(num)
	if !ok {
		return datastore.BigID{}, fmt.Errorf("command stream %d: owning database %d is not registered", cmd.CommandStreamID, num)
	}
	cmd.CommandStreamID = local
	key, err := db.Commands().Add(ctx, cmd)
	if err != nil {
		return datastore.BigID{}, err
	}
	return datastore.EncodeBigID(num, key), nil
}

func (s *commandStore) Remove(ctx context.Context, f *datastore.CommandFilter) (int64, error) {
	return fanOutRemove(ctx, s.shards(f))
}

func (s *commandStore) CommandStreams() datastore.CommandStreamStore { return s.d.cs }
func (s *commandStore) Status() datastore.CommandStatusStore         { return s.d.status }

type commandStatusStore struct {
	d *Database
}

func (s *commandStatusStore) Name() string { return "federated-commandstatus" }

func (s *commandStatusStore) Get(key datastore.BigID) (datastore.CommandStatus, error) {
	if !key.IsValid() {
		return datastore.CommandStatus{}, datastore.ErrNotFound
	}
	num, local := datastore.DecodeBigID(key)
	db, ok := s.d.reg.Database(num)
	if !ok {
		return datastore.CommandStatus{}, datastore.ErrNotFound
	}
	st, err := db.Commands().Status().Get(local)
	if err != nil {
		return datastore.CommandStatus{}, err
	}
	return publicStatus(num, st), nil
}

func (s *commandStatusStore) shards(f *datastore.CommandStatusFilter) []shard[datastore.BigID, datastore.CommandStatus, *datastore.CommandStatusFilter] {
	var targets []target
	if ids := f.InternalIDs(); len(ids) > 0 {
		targets = targetsForDispatch(s.d.reg.DispatchBig(ids))
	} else if cmdIDs := f.Commands().InternalIDs(); len(cmdIDs) > 0 {
		targets = targetsForDispatch(s.d.reg.DispatchBig(cmdIDs))
	} else {
		targets = s.d.allTargets()
	}
	var out []shard[datastore.BigID, datastore.CommandStatus, *datastore.CommandStatusFilter]
	for _, t := range targets {
		lf, ok := localizeCommandStatusFilter(f, t.num)
		if !ok {
			continue
		}
		out = append(out, shard[datastore.BigID, datastore.CommandStatus, *datastore.CommandStatusFilter]{
			store: t.db.Commands().Status(), filter: lf, num: t.num,
		})
	}
	return out
}

func (s *commandStatusStore) SelectEntries(ctx context.Context, f *datastore.CommandStatusFilter, _ ...datastore.Field) datastore.Seq[datastore.BigID, datastore.CommandStatus] {
	return fanOut(ctx, s.shards(f), f.Limit(),
		func(num int, e datastore.Entry[datastore.BigID, datastore.CommandStatus]) datastore.Entry[datastore.BigID, datastore.CommandStatus] {
			e.Key = datastore.EncodeBigID(num, e.Key)
			e.Value = publicStatus(num, e.Value)
			return e
		})
}

func (s *commandStatusStore) Count(ctx context.Context, f *datastore.CommandStatusFilter) (int64, error) {
	return fanOutCount(ctx, s.shards(f), f.Limit())
}

func (s *commandStatusStore) Add(ctx context.Context, st datastore.CommandStatus) (datastore.BigID, error) {
	if !st.CommandID.IsValid() {
		return datastore.BigID{}, fmt.Errorf("status report has no command ID")
	}
	num, local := datastore.DecodeBigID(st.CommandID)
	db, ok := s.d.reg.Database(num)
	if !ok {
		return datastore.BigID{}, fmt.Errorf("command %s: owning database %d is not registered", st.CommandID, num)
	}
	st.CommandID = local
	key, err := db.Commands().Status().Add(ctx, st)
	if err != nil {
		return datastore.BigID{}, err
	}
	return datastore.EncodeBigID(num, key), nil
}

func (s *commandStatusStore) Remove(ctx context.Context, f *datastore.CommandStatusFilter) (int64, error) {
	return fanOutRemove(ctx, s.shards(f))
}

var (
	_ datastore.CommandStreamStore = (*commandStreamStore)(nil)
	_ datastore.CommandStore       = (*commandStore)(nil)
	_ datastore.CommandStatusStore = (*commandStatusStore)(nil)
)
