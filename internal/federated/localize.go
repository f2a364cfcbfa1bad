package federated

import (
	"obshub/pkg/datastore"
)

// Filter localization translates public IDs inside a filter into one
// database's local ID space. The boolean result is false when an ID
// constraint exists but none of its IDs belong to the database, meaning the
// database cannot contribute any match and must be skipped.

// localizeInt64IDs keeps the IDs owned by dbNum, translated to local space.
// ID 0 is the "no parent" sentinel and passes through unchanged.
func localizeInt64IDs(ids []int64, dbNum int) ([]int64, bool) {
	if len(ids) == 0 {
		return nil, true
	}
	var out []int64
	for _, id := range ids {
		if id == 0 {
			out = append(out, 0)
			continue
		}
		num, local := datastore.DecodePublicID(id)
		if num == dbNum {
			out = append(out, local)
		}
	}
	return out, len(out) > 0
}

func localizeBigIDs(ids []datastore.BigID, dbNum int) ([]datastore.BigID, bool) {
	if len(ids) == 0 {
		return nil, true
	}
	var out []datastore.BigID
	for _, id := range ids {
		if !id.IsValid() {
			continue
		}
		num, local := datastore.DecodeBigID(id)
		if num == dbNum {
			out = append(out, local)
		}
	}
	return out, len(out) > 0
}

func localizeProcedureFilter(f *datastore.ProcedureFilter, dbNum int) (*datastore.ProcedureFilter, bool) {
	if f == nil {
		return nil, true
	}
	b := datastore.ProcedureFilterFrom(f)
	if ids := f.InternalIDs(); len(ids) > 0 {
		local, ok := localizeInt64IDs(ids, dbNum)
		if !ok {
			return nil, false
		}
		b.WithInternalIDs(local...)
	}
	if pf := f.Parent(); pf != nil {
		lp, ok := localizeProcedureFilter(pf, dbNum)
		if !ok {
			return nil, false
		}
		b.WithParents(lp)
	}
	if dsf := f.DataStreams(); dsf != nil {
		ld, ok := localizeDataStreamFilter(dsf, dbNum)
		if !ok {
			return nil, false
		}
		b.WithDataStreams(ld)
	}
	return b.Build(), true
}

func localizeDataStreamFilter(f *datastore.DataStreamFilter, dbNum int) (*datastore.DataStreamFilter, bool) {
	if f == nil {
		return nil, true
	}
	b := datastore.DataStreamFilterFrom(f)
	if ids := f.InternalIDs(); len(ids) > 0 {
		local, ok := localizeInt64IDs(ids, dbNum)
		if !ok {
			return nil, false
		}
		b.WithInternalIDs(local...)
	}
	if pf := f.Procedures(); pf != nil {
		lp, ok := localizeProcedureFilter(pf, dbNum)
		if !ok {
			return nil, false
		}
		b.WithProcedures(lp)
	}
	if of := f.Observations(); of != nil {
		lo, ok := localizeObsFilter(of, dbNum)
		if !ok {
			return nil, false
		}
		b.WithObservations(lo)
	}
	return b.Build(), true
}

func localizeObsFilter(f *datastore.ObsFilter, dbNum int) (*datastore.ObsFilter, bool) {
	if f == nil {
		return nil, true
	}
	b := datastore.ObsFilterFrom(f)
	if ids := f.InternalIDs(); len(ids) > 0 {
		local, ok := localizeBigIDs(ids, dbNum)
		if !ok {
			return nil, false
		}
		b.WithInternalIDs(local...)
	}
	if dsf := f.DataStreams(); dsf != nil {
		ld, ok := localizeDataStreamFilter(dsf, dbNum)
		if !ok {
			return nil, false
		}
		b.WithDataStreams(ld)
	}
	if ff := f.Fois(); ff != nil {
		lf, ok := localizeFoiFilter(ff, dbNum)
		if !ok {
			return nil, false
		}
		b.WithFois(lf)
	}
	return b.Build(), true
}

func localizeFoiFilter(f *datastore.FoiFilter, dbNum int) (*datastore.FoiFilter, bool) {
	if f == nil {
		return nil, true
	}
	b := datastore.FoiFilterFrom(f)
	if ids := f.InternalIDs(); len(ids) > 0 {
		local, ok := localizeInt64IDs(ids, dbNum)
		if !ok {
			return nil, false
		}
		b.WithInternalIDs(local...)
	}
	if of := f.Observations(); of != nil {
		lo, ok := localizeObsFilter(of, dbNum)
		if !ok {
			return nil, false
		}
		b.WithObservations(lo)
	}
	return b.Build(), true
}

func localizeCommandStreamFilter(f *datastore.CommandStreamFilter, dbNum int) (*datastore.CommandStreamFilter, bool) {
	if f == nil {
		return nil, true
	}
	b := datastore.CommandStreamFilterFrom(f)
	if ids := f.InternalIDs(); len(ids) > 0 {
		local, ok := localizeInt64IDs(ids, dbNum)
		if !ok {
			return nil, false
		}
		b.WithInternalIDs(local...)
	}
	if pf := f.Procedures(); pf != nil {
		lp, ok := localizeProcedureFilter(pf, dbNum)
		if !ok {
			return nil, false
		}
		b.WithProcedures(lp)
	}
	return b.Build(), true
}

func localizeCommandFilter(f *datastore.CommandFilter, dbNum int) (*datastore.CommandFilter, bool) {
	if f == nil {
		return nil, true
	}
	b := datastore.CommandFilterFrom(f)
	if ids := f.InternalIDs(); len(ids) > 0 {
		local, ok := localizeBigIDs(ids, dbNum)
		if !ok {
			return nil, false
		}
		b.WithInternalIDs(local...)
	}
	if csf := f.CommandStreams(); csf != nil {
		lc, ok := localizeCommandStreamFilter(csf, dbNum)
		if !ok {
			return nil, false
		}
		b.WithCommandStreams(lc)
	}
	if sf := f.Status(); sf != nil {
		ls, ok := localizeCommandStatusFilter(sf, dbNum)
		if !ok {
			return nil, false
		}
		b.WithStatus(ls)
	}
	return b.Build(), true
}

func localizeCommandStatusFilter(f *datastore.CommandStatusFilter, dbNum int) (*datastore.CommandStatusFilter, bool) {
	if f == nil {
		return nil, true
	}
	b := datastore.CommandStatusFilterFrom(f)
	if ids := f.InternalIDs(); len(ids) > 0 {
		local, ok := localizeBigIDs(ids, dbNum)
		if !ok {
			return nil, false
		}
		b.WithInternalIDs(local...)
	}
	if cf := f.Commands(); cf != nil {
		lc, ok := localizeCommandFilter(cf, dbNum)
		if !ok {
			return nil, false
		}
		b.WithCommands(lc)
	}
	return b.Build(), true
}
