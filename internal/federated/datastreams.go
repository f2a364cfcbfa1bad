package federated

import (
	"context"
	"fmt"

	"obshub/pkg/datastore"
)

type dataStreamStore struct {
	d *Database
}

func (s *dataStreamStore) Name() string { return "federated-datastreams" }

func (s *dataStreamStore) Get(key datastore.DataStreamKey) (datastore.DataStreamInfo, error) {
	num, local := datastore.DecodePublicID(int64(key))
	db, ok := s.d.reg.Database(num)
	if !ok {
		return datastore.DataStreamInfo{}, datastore.ErrNotFound
	}
	ds, err := db.Observations().DataStreams().Get(datastore.DataStreamKey(local))
	if err != nil {
		return datastore.DataStreamInfo{}, err
	}
	return publicDataStream(num, ds), nil
}

func (s *dataStreamStore) shards(f *datastore.DataStreamFilter) []shard[datastore.DataStreamKey, datastore.DataStreamInfo, *datastore.DataStreamFilter] {
	var targets []target
	if ids := f.InternalIDs(); len(ids) > 0 {
		targets = targetsForDispatch(s.d.reg.Dispatch(ids))
	} else if t, ok := s.d.targetsForUIDs(f.Procedures().UniqueIDs()); ok {
		targets = t
	} else {
		targets = s.d.allTargets()
	}
	var out []shard[datastore.DataStreamKey, datastore.DataStreamInfo, *datastore.DataStreamFilter]
	for _, t := range targets {
		lf, ok := localizeDataStreamFilter(f, t.num)
		if !ok {
			continue
		}
		out = append(out, shard[datastore.DataStreamKey, datastore.DataStreamInfo, *datastore.DataStreamFilter]{
			store: t.db.Observations().DataStreams(), filter: lf, num: t.num,
		})
	}
	return out
}

func (s *dataStreamStore) SelectEntries(ctx context.Context, f *datastore.DataStreamFilter, _ ...datastore.Field) datastore.Seq[datastore.DataStreamKey, datastore.DataStreamInfo] {
	return fanOut(ctx, s.shards(f), f.Limit(),
		func(num int, e datastore.Entry[datastore.DataStreamKey, datastore.DataStreamInfo]) datastore.Entry[datastore.DataStreamKey, datastore.DataStreamInfo] {
			e.Key = datastore.DataStreamKey(datastore.EncodePublicID(num, int64(e.Key)))
			e.Value = publicDataStream(num, e.Value)
			return e
		})
}

func (s *dataStreamStore) Count(ctx context.Context, f *datastore.DataStreamFilter) (int64, error) {
	return fanOutCount(ctx, s.shards(f), f.Limit())
}

func (s *dataStreamStore) Add(ctx context.Context, ds datastore.DataStreamInfo) (datastore.DataStreamKey, error) {
	num, local := datastore.DecodePublicID(ds.ProcedureID)
	db, ok := s.d.reg.Database(num)
	if !ok {
		return 0, fmt.Errorf("procedure %d: owning database %d is not registered", ds.ProcedureID, num)
	}
	ds.ProcedureID = local
	key, err := db.Observations().DataStreams().Add(ctx, ds)
	if err != nil {
		return 0, err
	}
	return datastore.DataStreamKey(datastore.EncodePublicID(num, int64(key))), nil
}

func (s *dataStreamStore) Remove(ctx context.Context, f *datastore.DataStreamFilter) (int64, error) {
	return fanOutRemove(ctx, s.shards(f))
}

func (s *dataStreamStore) LatestVersionKey(procUID, outputName string) (datastore.DataStreamKey, error) {
	db, ok := s.d.reg.DatabaseForUID(procUID)
	if !ok {
		return 0, datastore.ErrNotFound
	}
	key, err := db.Observations().DataStreams().LatestVersionKey(procUID, outputName)
	if err != nil {
		return 0, err
	}
	return datastore.DataStreamKey(datastore.EncodePublicID(db.DatabaseNum(), int64(key))), nil
}

// LinkTo is a no-op: routing already spans the registered databases.
func (s *dataStreamStore) LinkTo(datastore.ProcedureStore) {}

var _ datastore.DataStreamStore = (*dataStreamStore)(nil)
