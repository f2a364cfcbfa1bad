package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"obshub/pkg/datastore"
)

type procedureStore struct {
	db *Database
}

func (s *procedureStore) Name() string { return "procedures" }

func (s *procedureStore) Get(key datastore.FeatureKey) (datastore.Procedure, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	p, ok := s.db.procs.get(key)
	if !ok {
		return datastore.Procedure{}, datastore.ErrNotFound
	}
	return p, nil
}

func (s *procedureStore) collect(f *datastore.ProcedureFilter) []datastore.Entry[datastore.FeatureKey, datastore.Procedure] {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	ids := make([]int64, 0, len(s.db.procs.byID))
	for id := range s.db.procs.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []datastore.Entry[datastore.FeatureKey, datastore.Procedure]
	limit := f.Limit()
	for _, id := range ids {
		for _, ver := range s.db.procs.byID[id] {
			key := datastore.FeatureKey{InternalID: id, ValidStart: ver.validStart}
			if !s.db.procMatchesLocked(key, ver.value, f) {
				continue
			}
			out = append(out, datastore.Entry[datastore.FeatureKey, datastore.Procedure]{Key: key, Value: ver.value})
			if limit > 0 && int64(len(out)) >= limit {
				return out
			}
		}
	}
	return out
}

func (s *procedureStore) SelectEntries(ctx context.Context, f *datastore.ProcedureFilter, _ ...datastore.Field) datastore.Seq[datastore.FeatureKey, datastore.Procedure] {
	return func(yield func(datastore.Entry[datastore.FeatureKey, datastore.Procedure], error) bool) {
		for _, e := range s.collect(f) {
			if err := ctx.Err(); err != nil {
				yield(datastore.Entry[datastore.FeatureKey, datastore.Procedure]{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *procedureStore) Count(_ context.Context, f *datastore.ProcedureFilter) (int64, error) {
	return int64(len(s.collect(f))), nil
}

func (s *procedureStore) Add(_ context.Context, p datastore.Procedure) (datastore.FeatureKey, error) {
	if s.db.readOnly {
		return datastore.FeatureKey{}, datastore.ErrReadOnly
	}
	if p.UniqueID == "" {
		return datastore.FeatureKey{}, errors.New("procedure unique ID cannot be empty")
	}
	s.db.mu.Lock()
	if p.ParentID != 0 {
		if _, ok := s.db.procs.byID[p.ParentID]; !ok {
			s.db.mu.Unlock()
			return datastore.FeatureKey{}, fmt.Errorf("parent procedure %d: %w", p.ParentID, datastore.ErrNotFound)
		}
	}
	key := s.db.procs.add(p.UniqueID, p.ValidTime.Begin, p)
	s.db.mu.Unlock()
	s.db.commit()
	return key, nil
}

func (s *procedureStore) Remove(_ context.Context, f *datastore.ProcedureFilter) (int64, error) {
	if s.db.readOnly {
		return 0, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	var removed int64
	for id, versions := range s.db.procs.byID {
		kept := make([]featureVersion[datastore.Procedure], 0, len(versions))
		for _, ver := range versions {
			key := datastore.FeatureKey{InternalID: id, ValidStart: ver.validStart}
			if s.db.procMatchesLocked(key, ver.value, f) {
				removed++
			} else {
				kept = append(kept, ver)
			}
		}
		if len(kept) == 0 {
			s.db.procs.removeID(id)
			s.db.removeProcedureDependentsLocked(id)
		} else {
			s.db.procs.byID[id] = kept
		}
	}
	s.db.mu.Unlock()
	if removed > 0 {
		s.db.commit()
	}
	return removed, nil
}

func (s *procedureStore) CurrentVersionKey(uid string) (datastore.FeatureKey, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	key, ok := s.db.procs.currentKey(uid)
	if !ok {
		return datastore.FeatureKey{}, datastore.ErrNotFound
	}
	return key, nil
}

func (s *procedureStore) RemoveByUID(_ context.Context, uid string) (datastore.FeatureKey, error) {
	if s.db.readOnly {
		return datastore.FeatureKey{}, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	key, ok := s.db.procs.removeUID(uid)
	if !ok {
		s.db.mu.Unlock()
		return datastore.FeatureKey{}, datastore.ErrNotFound
	}
	s.db.removeProcedureDependentsLocked(key.InternalID)
	s.db.mu.Unlock()
	s.db.commit()
	return key, nil
}

// LinkTo is a no-op: the stores of one database share its tables.
func (s *procedureStore) LinkTo(datastore.DataStreamStore) {}

var _ datastore.ProcedureStore = (*procedureStore)(nil)
