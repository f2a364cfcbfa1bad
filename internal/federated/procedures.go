package federated

import (
	"context"
	"fmt"

	"obshub/pkg/datastore"
)

type procedureStore struct {
	d *Database
}

func (s *procedureStore) Name() string { return "federated-procedures" }

func (s *procedureStore) Get(key datastore.FeatureKey) (datastore.Procedure, error) {
	num, local := datastore.DecodePublicID(key.InternalID)
	db, ok := s.d.reg.Database(num)
	if !ok {
		return datastore.Procedure{}, datastore.ErrNotFound
	}
	p, err := db.Procedures().Get(datastore.FeatureKey{InternalID: local, ValidStart: key.ValidStart})
	if err != nil {
		return datastore.Procedure{}, err
	}
	return publicProcedure(num, p), nil
}

func (s *procedureStore) shards(f *datastore.ProcedureFilter) []shard[datastore.FeatureKey, datastore.Procedure, *datastore.ProcedureFilter] {
	var targets []target
	if ids := f.InternalIDs(); len(ids) > 0 {
		targets = targetsForDispatch(s.d.reg.Dispatch(ids))
	} else if t, ok := s.d.targetsForUIDs(f.UniqueIDs()); ok {
		targets = t
	} else {
		targets = s.d.allTargets()
	}
	var out []shard[datastore.FeatureKey, datastore.Procedure, *datastore.ProcedureFilter]
	for _, t := range targets {
		lf, ok := localizeProcedureFilter(f, t.num)
		if !ok {
			continue
		}
		out = append(out, shard[datastore.FeatureKey, datastore.Procedure, *datastore.ProcedureFilter]{
			store: t.db.Procedures(), filter: lf, num: t.num,
		})
	}
	return out
}

func (s *procedureStore) SelectEntries(ctx context.Context, f *datastore.ProcedureFilter, _ ...datastore.Field) datastore.Seq[datastore.FeatureKey, datastore.Procedure] {
	return fanOut(ctx, s.shards(f), f.Limit(),
		func(num int, e datastore.Entry[datastore.FeatureKey, datastore.Procedure]) datastore.Entry[datastore.FeatureKey, datastore.Procedure] {
			e.Key = publicFeatureKey(num, e.Key)
			e.Value = publicProcedure(num, e.Value)
			return e
		})
}

func (s *procedureStore) Count(ctx context.Context, f *datastore.ProcedureFilter) (int64, error) {
	return fanOutCount(ctx, s.shards(f), f.Limit())
}

func (s *procedureStore) Add(ctx context.Context, p datastore.Procedure) (datastore.FeatureKey, error) {
	db, ok := s.d.reg.DatabaseForUID(p.UniqueID)
	if !ok {
		return datastore.FeatureKey{}, fmt.Errorf("no database available for procedure %s", p.UniqueID)
	}
	num := db.DatabaseNum()
	if p.ParentID != 0 {
		pnum, plocal := datastore.DecodePublicID(p.ParentID)
		if pnum != num {
			return datastore.FeatureKey{}, fmt.Errorf("parent procedure %d belongs to database %d, not %d", p.ParentID, pnum, num)
		}
		p.ParentID = plocal
	}
	key, err := db.Procedures().Add(ctx, p)
	if err != nil {
		return datastore.FeatureKey{}, err
	}
	return publicFeatureKey(num, key), nil
}

func (s *procedureStore) Remove(ctx context.Context, f *datastore.ProcedureFilter) (int64, error) {
	return fanOutRemove(ctx, s.shards(f))
}

func (s *procedureStore) CurrentVersionKey(uid string) (datastore.FeatureKey, error) {
	db, ok := s.d.reg.DatabaseForUID(uid)
	if !ok {
		return datastore.FeatureKey{}, datastore.ErrNotFound
	}
	key, err := db.Procedures().CurrentVersionKey(uid)
	if err != nil {
		return datastore.FeatureKey{}, err
	}
	return publicFeatureKey(db.DatabaseNum(), key), nil
}

func (s *procedureStore) RemoveByUID(ctx context.Context, uid string) (datastore.FeatureKey, error) {
	db, ok := s.d.reg.DatabaseForUID(uid)
	if !ok {
		return datastore.FeatureKey{}, datastore.ErrNotFound
	}
	key, err := db.Procedures().RemoveByUID(ctx, uid)
	if err != nil {
		return datastore.FeatureKey{}, err
	}
	return publicFeatureKey(db.DatabaseNum(), key), nil
}

// LinkTo is a no-op: routing already spans the registered databases.
func (s *procedureStore) LinkTo(datastore.DataStreamStore) {}

var _ datastore.ProcedureStore = (*procedureStore)(nil)
