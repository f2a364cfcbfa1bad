package memory

import (
	"context"
	"errors"
	"slices"

	"obshub/pkg/datastore"
)

type foiStore struct {
	db *Database
}

func (s *foiStore) Name() string { return "fois" }

func (s *foiStore) Get(key datastore.FeatureKey) (datastore.FeatureOfInterest, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	foi, ok := s.db.fois.get(key)
	if !ok {
		return datastore.FeatureOfInterest{}, datastore.ErrNotFound
	}
	return foi, nil
}

func (s *foiStore) collect(f *datastore.FoiFilter) []datastore.Entry[datastore.FeatureKey, datastore.FeatureOfInterest] {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	ids := make([]int64, 0, len(s.db.fois.byID))
	for id := range s.db.fois.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []datastore.Entry[datastore.FeatureKey, datastore.FeatureOfInterest]
	limit := f.Limit()
	for _, id := range ids {
		for _, ver := range s.db.fois.byID[id] {
			key := datastore.FeatureKey{InternalID: id, ValidStart: ver.validStart}
			if !s.db.foiMatchesLocked(key, ver.value, f) {
				continue
			}
			out = append(out, datastore.Entry[datastore.FeatureKey, datastore.FeatureOfInterest]{Key: key, Value: ver.value})
			if limit > 0 && int64(len(out)) >= limit {
				return out
			}
		}
	}
	return out
}

func (s *foiStore) SelectEntries(ctx context.Context, f *datastore.FoiFilter, _ ...datastore.Field) datastore.Seq[datastore.FeatureKey, datastore.FeatureOfInterest] {
	return func(yield func(datastore.Entry[datastore.FeatureKey, datastore.FeatureOfInterest], error) bool) {
		for _, e := range s.collect(f) {
			if err := ctx.Err(); err != nil {
				yield(datastore.Entry[datastore.FeatureKey, datastore.FeatureOfInterest]{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *foiStore) Count(_ context.Context, f *datastore.FoiFilter) (int64, error) {
	return int64(len(s.collect(f))), nil
}

func (s *foiStore) Add(_ context.Context, foi datastore.FeatureOfInterest) (datastore.FeatureKey, error) {
	if s.db.readOnly {
		return datastore.FeatureKey{}, datastore.ErrReadOnly
	}
	if foi.UniqueID == "" {
		return datastore.FeatureKey{}, errors.New("feature unique ID cannot be empty")
	}
	s.db.mu.Lock()
	key := s.db.fois.add(foi.UniqueID, foi.ValidTime.Begin, foi)
	s.db.mu.Unlock()
	s.db.commit()
	return key, nil
}

func (s *foiStore) Remove(_ context.Context, f *datastore.FoiFilter) (int64, error) {
	if s.db.readOnly {
		return 0, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	var removed int64
	for id, versions := range s.db.fois.byID {
		kept := make([]featureVersion[datastore.FeatureOfInterest], 0, len(versions))
		for _, ver := range versions {
			key := datastore.FeatureKey{InternalID: id, ValidStart: ver.validStart}
			if s.db.foiMatchesLocked(key, ver.value, f) {
				removed++
			} else {
				kept = append(kept, ver)
			}
		}
		if len(kept) == 0 {
			s.db.fois.removeID(id)
		} else {
			s.db.fois.byID[id] = kept
		}
	}
	s.db.mu.Unlock()
	if removed > 0 {
		s.db.commit()
	}
	return removed, nil
}

func (s *foiStore) CurrentVersionKey(uid string) (datastore.FeatureKey, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	key, ok := s.db.fois.currentKey(uid)
	if !ok {
		return datastore.FeatureKey{}, datastore.ErrNotFound
	}
	return key, nil
}

// LinkTo is a no-op: the stores of one database share its tables.
func (s *foiStore) LinkTo(datastore.ObsStore) {}

var _ datastore.FoiStore = (*foiStore)(nil)
