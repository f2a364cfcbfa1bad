package federated

import (
	"context"
	"fmt"

	"obshub/pkg/datastore"
)

type obsStore struct {
	d *Database
}

func (s *obsStore) Name() string { return "federated-observations" }

func (s *obsStore) Get(key datastore.BigID) (datastore.ObsData, error) {
	if !key.IsValid() {
		return datastore.ObsData{}, datastore.ErrNotFound
	}
	num, local := datastore.DecodeBigID(key)
	db, ok := s.d.reg.Database(num)
	if !ok {
		return datastore.ObsData{}, datastore.ErrNotFound
	}
	o, err := db.Observations().Get(local)
	if err != nil {
		return datastore.ObsData{}, err
	}
	return publicObs(num, o), nil
}

func (s *obsStore) shards(f *datastore.ObsFilter) []shard[datastore.BigID, datastore.ObsData, *datastore.ObsFilter] {
	var targets []target
	if ids := f.InternalIDs(); len(ids) > 0 {
		targets = targetsForDispatch(s.d.reg.DispatchBig(ids))
	} else if t, ok := s.d.targetsForUIDs(f.DataStreams().Procedures().UniqueIDs()); ok {
		targets = t
	} else {
		targets = s.d.allTargets()
	}
	var out []shard[datastore.BigID, datastore.ObsData, *datastore.ObsFilter]
	for _, t := range targets {
		lf, ok := localizeObsFilter(f, t.num)
		if !ok {
			continue
		}
		out = append(out, shard[datastore.BigID, datastore.ObsData, *datastore.ObsFilter]{
			store: t.db.Observations(), filter: lf, num: t.num,
		})
	}
	return out
}

func (s *obsStore) SelectEntries(ctx context.Context, f *datastore.ObsFilter, _ ...datastore.Field) datastore.Seq[datastore.BigID, datastore.ObsData] {
	return fanOut(ctx, s.shards(f), f.Limit(),
		func(num int, e datastore.Entry[datastore.BigID, datastore.ObsData]) datastore.Entry[datastore.BigID, datastore.ObsData] {
			e.Key = datastore.EncodeBigID(num, e.Key)
			e.Value = publicObs(num, e.Value)
			return e
		})
}

func (s *obsStore) Count(ctx context.Context, f *datastore.ObsFilter) (int64, error) {
	return fanOutCount(ctx, s.shards(f), f.Limit())
}

func (s *obsStore) Add(ctx context.Context, o datastore.ObsData) (datastore.BigID, error) {
	num, local := datastore.DecodePublicID(o.DataStreamID)
	db, ok := s.d.reg.Database(num)
	if !ok {
		return datastore.BigID{}, fmt.Errorf("data stream %d: owning database %d is not registered", o.DataStreamID, num)
	}
	o.DataStreamID = local
	if o.FoiID != 0 {
		fnum, flocal := datastore.DecodePublicID(o.FoiID)
		if fnum != num {
			return datastore.BigID{}, fmt.Errorf("feature of interest %d belongs to database %d, not %d", o.FoiID, fnum, num)
		}
		o.FoiID = flocal
	}
	key, err := db.Observations().Add(ctx, o)
	if err != nil {
		return datastore.BigID{}, err
	}
	return datastore.EncodeBigID(num, key), nil
}

func (s *obsStore) Remove(ctx context.Context, f *datastore.ObsFilter) (int64, error) {
	return fanOutRemove(ctx, s.shards(f))
}

func (s *obsStore) DataStreams() datastore.DataStreamStore { return s.d.ds }

// LinkTo is a no-op: routing already spans the registered databases.
func (s *obsStore) LinkTo(datastore.FoiStore) {}

var _ datastore.ObsStore = (*obsStore)(nil)
