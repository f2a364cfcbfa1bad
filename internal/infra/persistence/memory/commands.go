package memory

import (
	"context"
	"fmt"
	"slices"

	"obshub/pkg/datastore"
)

type commandStreamStore struct {
	db *Database
}

func (s *commandStreamStore) Name() string { return "commandstreams" }

func (s *commandStreamStore) Get(key datastore.CommandStreamKey) (datastore.CommandStreamInfo, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	cs, ok := s.db.cmdStreams[key]
	if !ok {
		return datastore.CommandStreamInfo{}, datastore.ErrNotFound
	}
	return cs, nil
}

func (s *commandStreamStore) collect(f *datastore.CommandStreamFilter) []datastore.Entry[datastore.CommandStreamKey, datastore.CommandStreamInfo] {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	keys := make([]datastore.CommandStreamKey, 0, len(s.db.cmdStreams))
	for key := range s.db.cmdStreams {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var out []datastore.Entry[datastore.CommandStreamKey, datastore.CommandStreamInfo]
	limit := f.Limit()
	for _, key := range keys {
		cs := s.db.cmdStreams[key]
		if !s.db.cmdStreamMatchesLocked(key, cs, f) {
			continue
		}
		out = append(out, datastore.Entry[datastore.CommandStreamKey, datastore.CommandStreamInfo]{Key: key, Value: cs})
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out
}

func (s *commandStreamStore) SelectEntries(ctx context.Context, f *datastore.CommandStreamFilter, _ ...datastore.Field) datastore.Seq[datastore.CommandStreamKey, datastore.CommandStreamInfo] {
	return func(yield func(datastore.Entry[datastore.CommandStreamKey, datastore.CommandStreamInfo], error) bool) {
		for _, e := range s.collect(f) {
			if err := ctx.Err(); err != nil {
				yield(datastore.Entry[datastore.CommandStreamKey, datastore.CommandStreamInfo]{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *commandStreamStore) Count(_ context.Context, f *datastore.CommandStreamFilter) (int64, error) {
	return int64(len(s.collect(f))), nil
}

func (s *commandStreamStore) Add(_ context.Context, cs datastore.CommandStreamInfo) (datastore.CommandStreamKey, error) {
	if s.db.readOnly {
		return 0, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	if _, ok := s.db.procs.byID[cs.ProcedureID]; !ok {
		s.db.mu.Unlock()
		return 0, fmt.Errorf("procedure %d: %w", cs.ProcedureID, datastore.ErrNotFound)
	}
	s.db.nextCmdStreamID++
	key := datastore.CommandStreamKey(s.db.nextCmdStreamID)
	s.db.cmdStreams[key] = cs
	s.db.mu.Unlock()
	s.db.commit()
	return key, nil
}

func (s *commandStreamStore) Remove(_ context.Context, f *datastore.CommandStreamFilter) (int64, error) {
	if s.db.readOnly {
		return 0, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	var removed int64
	for key, cs := range s.db.cmdStreams {
		if s.db.cmdStreamMatchesLocked(key, cs, f) {
			delete(s.db.cmdStreams, key)
			s.db.removeCommandsOfStreamLocked(int64(key))
			removed++
		}
	}
	s.db.mu.Unlock()
	if removed > 0 {
		s.db.commit()
	}
	return removed, nil
}

func (s *commandStreamStore) LatestVersionKey(procUID, commandName string) (datastore.CommandStreamKey, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	procID, ok := s.db.procs.idByUID[procUID]
	if !ok {
		return 0, datastore.ErrNotFound
	}
	var (
		best      datastore.CommandStreamKey
		found     bool
		bestStart datastore.TimeRange
	)
	for key, cs := range s.db.cmdStreams {
		if cs.ProcedureID != procID || cs.CommandName != commandName {
			continue
		}
		if !found || cs.ValidTime.Begin.After(bestStart.Begin) {
			best, found, bestStart = key, true, cs.ValidTime
		}
	}
	if !found {
		return 0, datastore.ErrNotFound
	}
	return best, nil
}

// LinkTo is a no-op: the stores of one database share its tables.
func (s *commandStreamStore) LinkTo(datastore.ProcedureStore) {}

type commandStore struct {
	db *Database
}

func (s *commandStore) Name() string { return "commands" }

func (s *commandStore) Get(key datastore.BigID) (datastore.CommandData, error) {
	if !key.IsValid() {
		return datastore.CommandData{}, datastore.ErrNotFound
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	rec, ok := s.db.commands[key.String()]
	if !ok {
		return datastore.CommandData{}, datastore.ErrNotFound
	}
	return rec.value.Clone(), nil
}

func (s *commandStore) collect(f *datastore.CommandFilter) []datastore.Entry[datastore.BigID, datastore.CommandData] {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	recs := make([]cmdRecord, 0, len(s.db.commands))
	for _, rec := range s.db.commands {
		recs = append(recs, rec)
	}
	slices.SortFunc(recs, func(a, b cmdRecord) int { return a.key.Cmp(b.key) })

	var out []datastore.Entry[datastore.BigID, datastore.CommandData]
	limit := f.Limit()
	for _, rec := range recs {
		if !s.db.cmdMatchesLocked(rec.key, rec.value, f) {
			continue
		}
		out = append(out, datastore.Entry[datastore.BigID, datastore.CommandData]{Key: rec.key, Value: rec.value.Clone()})
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out
}

func (s *commandStore) SelectEntries(ctx context.Context, f *datastore.CommandFilter, _ ...datastore.Field) datastore.Seq[datastore.BigID, datastore.CommandData] {
	return func(yield func(datastore.Entry[datastore.BigID, datastore.CommandData], error) bool) {
		for _, e := range s.collect(f) {
			if err := ctx.Err(); err != nil {
				yield(datastore.Entry[datastore.BigID, datastore.CommandData]{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *commandStore) Count(_ context.Context, f *datastore.CommandFilter) (int64, error) {
	return int64(len(s.collect(f))), nil
}

func (s *commandStore) Add(_ context.Context, cmd datastore.CommandData) (datastore.BigID, error) {
	if s.db.readOnly {
		return datastore.BigID{}, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	if _, ok := s.db.cmdStreams[datastore.CommandStreamKey(cmd.CommandStreamID)]; !ok {
		s.db.mu.Unlock()
		return datastore.BigID{}, fmt.Errorf("command stream %d: %w", cmd.CommandStreamID, datastore.ErrNotFound)
	}
	s.db.nextCmdID++
	key := datastore.NewBigID(s.db.nextCmdID)
	s.db.commands[key.String()] = cmdRecord{key: key, value: cmd.Clone()}
	s.db.mu.Unlock()
	s.db.commit()
	return key, nil
}

func (s *commandStore) Remove(_ context.Context, f *datastore.CommandFilter) (int64, error) {
	if s.db.readOnly {
		return 0, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	var removed int64
	for key, rec := range s.db.commands {
		if s.db.cmdMatchesLocked(rec.key, rec.value, f) {
			delete(s.db.commands, key)
			s.db.removeStatusOfCommandLocked(key)
			removed++
		}
	}
	s.db.mu.Unlock()
	if removed > 0 {
		s.db.commit()
	}
	return removed, nil
}

func (s *commandStore) CommandStreams() datastore.CommandStreamStore { return s.db.csStore }
func (s *commandStore) Status() datastore.CommandStatusStore         { return s.db.statusStore }

type commandStatusStore struct {
	db *Database
}

func (s *commandStatusStore) Name() string { return "commandstatus" }

func (s *commandStatusStore) Get(key datastore.BigID) (datastore.CommandStatus, error) {
	if !key.IsValid() {
		return datastore.CommandStatus{}, datastore.ErrNotFound
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	rec, ok := s.db.status[key.String()]
	if !ok {
		return datastore.CommandStatus{}, datastore.ErrNotFound
	}
	return rec.value, nil
}

func (s *commandStatusStore) collect(f *datastore.CommandStatusFilter) []datastore.Entry[datastore.BigID, datastore.CommandStatus] {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	recs := make([]statusRecord, 0, len(s.db.status))
	for _, rec := range s.db.status {
		recs = append(recs, rec)
	}
	slices.SortFunc(recs, func(a, b statusRecord) int { return a.key.Cmp(b.key) })

	var out []datastore.Entry[datastore.BigID, datastore.CommandStatus]
	limit := f.Limit()
	for _, rec := range recs {
		if !s.db.statusMatchesLocked(rec.key, rec.value, f) {
			continue
		}
		out = append(out, datastore.Entry[datastore.BigID, datastore.CommandStatus]{Key: rec.key, Value: rec.value})
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out
}

func (s *commandStatusStore) SelectEntries(ctx context.Context, f *datastore.CommandStatusFilter, _ ...datastore.Field) datastore.Seq[datastore.BigID, datastore.CommandStatus] {
	return func(yield func(datastore.Entry[datastore.BigID, datastore.CommandStatus], error) bool) {
		for _, e := range s.collect(f) {
			if err := ctx.Err(); err != nil {
				yield(datastore.Entry[datastore.BigID, datastore.CommandStatus]{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *commandStatusStore) Count(_ context.Context, f *datastore.CommandStatusFilter) (int64, error) {
	return int64(len(s.collect(f))), nil
}

func (s *commandStatusStore) Add(_ context.Context, st datastore.CommandStatus) (datastore.BigID, error) {
	if s.db.readOnly {
		return datastore.BigID{}, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	if _, ok := s.db.commands[st.CommandID.String()]; !ok {
		s.db.mu.Unlock()
		return datastore.BigID{}, fmt.Errorf("command %s: %w", st.CommandID, datastore.ErrNotFound)
	}
	s.db.nextStatusID++
	key := datastore.NewBigID(s.db.nextStatusID)
	s.db.status[key.String()] = statusRecord{key: key, value: st}
	s.db.mu.Unlock()
	s.db.commit()
	return key, nil
}

func (s *commandStatusStore) Remove(_ context.Context, f *datastore.CommandStatusFilter) (int64, error) {
	if s.db.readOnly {
		return 0, datastore.ErrReadOnly
	}
	s.db.mu.Lock()
	var removed int64
	for key, rec := range s.db.status {
		if s.db.statusMatchesLocked(rec.key, rec.value, f) {
			delete(s.db.status, key)
			removed++
		}
	}
	s.db.mu.Unlock()
	if removed > 0 {
		s.db.commit()
	}
	return removed, nil
}

var (
	_ datastore.CommandStreamStore = (*commandStreamStore)(nil)
	_ datastore.CommandStore       = (*commandStore)(nil)
	_ datastore.CommandStatusStore = (*commandStatusStore)(nil)
)
