package memory

import (
	"context"
	"fmt"
	"slices"

	"obshub/pkg/datastore"
)

type obsStore struct {
	db *Database
}

func (s *obsStore) Name() string { return "observations" }

func (s *obsStore) Get(key datastore.BigID) (datastore.ObsData, error) {
	if !key.IsValid() {
		return datastore.ObsData{}, datastore.ErrNotFound
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	rec, ok := s.db.obs[key.String()]
	if !ok {
		return datastore.ObsData{}, datastore.ErrNotFound
	}
	return rec.value.Clone(), nil
}

func (s *obsStore) collect(f *datastore.ObsFilter) []datastore.Entry[datastore.BigID, datastore.ObsData] {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	recs := make([]obsRecord, 0, len(s.db.obs))
	for _, rec := range s.db.obs {
		recs = append(recs, rec)
	}
	slices.SortFunc(recs, func(a, b obsRecord) int { return a.key.Cmp(b.key) })

	var out []datastore.Entry[datastore.BigID, datastore.ObsData]
	limit := f.Limit()
	for _, rec := range recs {
		if !s.db.obsMatchesLocked(rec.key, rec.value, f) {
			continue
		}
		out = append(out, datastore.Entry[datastore.BigID, datastore.ObsData]{Key: rec.key, Value: rec.value.Clone()})
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out
}

func (s *obsStore) SelectEntries(ctx context.Context, f *datastore.ObsFilter, _ ...datastore.Field) datastore.Seq[datastore.BigID, datastore.ObsData] {
	return func(yield func(datastore.Entry[datastore.BigID, datastore.ObsData], error) bool) {
		for _, e := range s.collect(f) {
			if err := ctx.Err(); err != nil {
				yield(datastore.Entry[datastore.BigID, datastore.ObsData]{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *obsStore) Count(_ context.Context, f *datastore.ObsFilter) (int64, error) {
	return int64(len(s.collect(f))), nil
}

func (s *obsStore) Add(_ context.Context, o datastore.ObsData) (datastore.BigID, error) {
	if s.db.readOnly {
		return datastore.BigID{}, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	if _, ok := s.db.dataStreams[datastore.DataStreamKey(o.DataStreamID)]; !ok {
		s.db.mu.Unlock()
		return datastore.BigID{}, fmt.Errorf("data stream %d: %w", o.DataStreamID, datastore.ErrNotFound)
	}
	if o.FoiID != 0 {
		if _, ok := s.db.fois.byID[o.FoiID]; !ok {
			s.db.mu.Unlock()
			return datastore.BigID{}, fmt.Errorf("feature of interest %d: %w", o.FoiID, datastore.ErrNotFound)
		}
	}
	s.db.nextObsID++
	key := datastore.NewBigID(s.db.nextObsID)
	s.db.obs[key.String()] = obsRecord{key: key, value: o.Clone()}
	s.db.mu.Unlock()
	s.db.commit()
	return key, nil
}

func (s *obsStore) Remove(_ context.Context, f *datastore.ObsFilter) (int64, error) {
	if s.db.readOnly {
		return 0, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	var removed int64
	for key, rec := range s.db.obs {
		if s.db.obsMatchesLocked(rec.key, rec.value, f) {
			delete(s.db.obs, key)
			removed++
		}
	}
	s.db.mu.Unlock()
	if removed > 0 {
		s.db.commit()
	}
	return removed, nil
}

func (s *obsStore) DataStreams() datastore.DataStreamStore { return s.db.dsStore }

// LinkTo is a no-op: the stores of one database share its tables.
func (s *obsStore) LinkTo(datastore.FoiStore) {}

var _ datastore.ObsStore = (*obsStore)(nil)
