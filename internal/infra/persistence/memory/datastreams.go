package memory

import (
	"context"
	"fmt"
	"slices"

	"obshub/pkg/datastore"
)

type dataStreamStore struct {
	db *Database
}

func (s *dataStreamStore) Name() string { return "datastreams" }

func (s *dataStreamStore) Get(key datastore.DataStreamKey) (datastore.DataStreamInfo, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	ds, ok := s.db.dataStreams[key]
	if !ok {
		return datastore.DataStreamInfo{}, datastore.ErrNotFound
	}
	return ds, nil
}

func (s *dataStreamStore) collect(f *datastore.DataStreamFilter) []datastore.Entry[datastore.DataStreamKey, datastore.DataStreamInfo] {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	keys := make([]datastore.DataStreamKey, 0, len(s.db.dataStreams))
	for key := range s.db.dataStreams {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var out []datastore.Entry[datastore.DataStreamKey, datastore.DataStreamInfo]
	limit := f.Limit()
	for _, key := range keys {
		ds := s.db.dataStreams[key]
		if !s.db.dataStreamMatchesLocked(key, ds, f) {
			continue
		}
		out = append(out, datastore.Entry[datastore.DataStreamKey, datastore.DataStreamInfo]{Key: key, Value: ds})
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out
}

func (s *dataStreamStore) SelectEntries(ctx context.Context, f *datastore.DataStreamFilter, _ ...datastore.Field) datastore.Seq[datastore.DataStreamKey, datastore.DataStreamInfo] {
	return func(yield func(datastore.Entry[datastore.DataStreamKey, datastore.DataStreamInfo], error) bool) {
		for _, e := range s.collect(f) {
			if err := ctx.Err(); err != nil {
				yield(datastore.Entry[datastore.DataStreamKey, datastore.DataStreamInfo]{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *dataStreamStore) Count(_ context.Context, f *datastore.DataStreamFilter) (int64, error) {
	return int64(len(s.collect(f))), nil
}

func (s *dataStreamStore) Add(_ context.Context, ds datastore.DataStreamInfo) (datastore.DataStreamKey, error) {
	if s.db.readOnly {
		return 0, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	if _, ok := s.db.procs.byID[ds.ProcedureID]; !ok {
		s.db.mu.Unlock()
		return 0, fmt.Errorf("procedure %d: %w", ds.ProcedureID, datastore.ErrNotFound)
	}
	s.db.nextDataStreamID++
	key := datastore.DataStreamKey(s.db.nextDataStreamID)
	s.db.dataStreams[key] = ds
	s.db.mu.Unlock()
	s.db.commit()
	return key, nil
}

func (s *dataStreamStore) Remove(_ context.Context, f *datastore.DataStreamFilter) (int64, error) {
	if s.db.readOnly {
		return 0, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	var removed int64
	for key, ds := range s.db.dataStreams {
		if s.db.dataStreamMatchesLocked(key, ds, f) {
			delete(s.db.dataStreams, key)
			s.db.removeObsOfStreamLocked(int64(key))
			removed++
		}
	}
	s.db.mu.Unlock()
	if removed > 0 {
		s.db.commit()
	}
	return removed, nil
}

func (s *dataStreamStore) LatestVersionKey(procUID, outputName string) (datastore.DataStreamKey, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	procID, ok := s.db.procs.idByUID[procUID]
	if !ok {
		return 0, datastore.ErrNotFound
	}
	var (
		best      datastore.DataStreamKey
		found     bool
		bestStart = datastore.TimeRange{}
	)
	for key, ds := range s.db.dataStreams {
		if ds.ProcedureID != procID || ds.OutputName != outputName {
			continue
		}
		if !found || ds.ValidTime.Begin.After(bestStart.Begin) {
			best, found, bestStart = key, true, ds.ValidTime
		}
	}
	if !found {
		return 0, datastore.ErrNotFound
	}
	return best, nil
}

// LinkTo is a no-op: the stores of one database share its tables.
func (s *dataStreamStore) LinkTo(datastore.ProcedureStore) {}

var _ datastore.DataStreamStore = (*dataStreamStore)(nil)
