package federated

import (
	"context"
	"fmt"

	"obshub/pkg/datastore"
)

type foiStore struct {
	d *Database
}

func (s *foiStore) Name() string { return "federated-fois" }

func (s *foiStore) Get(key datastore.FeatureKey) (datastore.FeatureOfInterest, error) {
	num, local := datastore.DecodePublicID(key.InternalID)
	db, ok := s.d.reg.Database(num)
	if !ok {
		return datastore.FeatureOfInterest{}, datastore.ErrNotFound
	}
	foi, err := db.Fois().Get(datastore.FeatureKey{InternalID: local, ValidStart: key.ValidStart})
	if err != nil {
		return datastore.FeatureOfInterest{}, err
	}
	return foi, nil
}

func (s *foiStore) shards(f *datastore.FoiFilter) []shard[datastore.FeatureKey, datastore.FeatureOfInterest, *datastore.FoiFilter] {
	var targets []target
	if ids := f.InternalIDs(); len(ids) > 0 {
		targets = targetsForDispatch(s.d.reg.Dispatch(ids))
	} else {
		// feature UIDs are not registry claims, so UID predicates cannot
		// narrow the fan-out
		targets = s.d.allTargets()
	}
	var out []shard[datastore.FeatureKey, datastore.FeatureOfInterest, *datastore.FoiFilter]
	for _, t := range targets {
		lf, ok := localizeFoiFilter(f, t.num)
		if !ok {
			continue
		}
		out = append(out, shard[datastore.FeatureKey, datastore.FeatureOfInterest, *datastore.FoiFilter]{
			store: t.db.Fois(), filter: lf, num: t.num,
		})
	}
	return out
}

func (s *foiStore) SelectEntries(ctx context.Context, f *datastore.FoiFilter, _ ...datastore.Field) datastore.Seq[datastore.FeatureKey, datastore.FeatureOfInterest] {
	return fanOut(ctx, s.shards(f), f.Limit(),
		func(num int, e datastore.Entry[datastore.FeatureKey, datastore.FeatureOfInterest]) datastore.Entry[datastore.FeatureKey, datastore.FeatureOfInterest] {
			e.Key = publicFeatureKey(num, e.Key)
			return e
		})
}

func (s *foiStore) Count(ctx context.Context, f *datastore.FoiFilter) (int64, error) {
	return fanOutCount(ctx, s.shards(f), f.Limit())
}

// Add routes the feature through the registry's UID claims, so a database
// claiming a namespace also receives the features under it. Unclaimed
// features land in the default state database.
func (s *foiStore) Add(ctx context.Context, foi datastore.FeatureOfInterest) (datastore.FeatureKey, error) {
	db, ok := s.d.reg.DatabaseForUID(foi.UniqueID)
	if !ok {
		return datastore.FeatureKey{}, fmt.Errorf("no database available for feature %s", foi.UniqueID)
	}
	key, err := db.Fois().Add(ctx, foi)
	if err != nil {
		return datastore.FeatureKey{}, err
	}
	return publicFeatureKey(db.DatabaseNum(), key), nil
}

func (s *foiStore) Remove(ctx context.Context, f *datastore.FoiFilter) (int64, error) {
	return fanOutRemove(ctx, s.shards(f))
}

func (s *foiStore) CurrentVersionKey(uid string) (datastore.FeatureKey, error) {
	// search the owning database first, then the rest: features are routed
	// by UID claim on insert but may predate a claim
	if db, ok := s.d.reg.DatabaseForUID(uid); ok {
		if key, err := db.Fois().CurrentVersionKey(uid); err == nil {
			return publicFeatureKey(db.DatabaseNum(), key), nil
		}
	}
	for _, t := range s.d.allTargets() {
		if key, err := t.db.Fois().CurrentVersionKey(uid); err == nil {
			return publicFeatureKey(t.num, key), nil
		}
	}
	return datastore.FeatureKey{}, datastore.ErrNotFound
}

// LinkTo is a no-op: routing already spans the registered databases.
func (s *foiStore) LinkTo(datastore.ObsStore) {}

var _ datastore.FoiStore = (*foiStore)(nil)
