package view

import "obshub/pkg/datastore"

// DatabaseView is a read-only projection of a whole observation database
// derived from a single observation filter: procedures are restricted to
// those producing matching data streams, data streams and features of
// interest to the filter's nested predicates, and observations to the
// filter itself. Commands are exposed read-only but unrestricted.
type DatabaseView struct {
	procs *ProcedureView
	fois  *FoiView
	obs   *ObsView
	cmds  *CommandView
}

// NewDatabaseView derives a filtered view of db from obsFilter.
func NewDatabaseView(db datastore.ObsDatabase, obsFilter *datastore.ObsFilter) *DatabaseView {
	var procFilter *datastore.ProcedureFilter
	if dsf := obsFilter.DataStreams(); dsf != nil {
		procFilter = dsf.Procedures()
	}
	return &DatabaseView{
		procs: NewProcedureView(db.Procedures(), procFilter),
		fois:  NewFoiView(db.Fois(), obsFilter.Fois()),
		obs:   NewObsView(db.Observations(), obsFilter),
		cmds:  NewCommandView(db.Commands(), nil),
	}
}

func (v *DatabaseView) Procedures() datastore.ProcedureStore { return v.procs }
func (v *DatabaseView) Fois() datastore.FoiStore             { return v.fois }
func (v *DatabaseView) Observations() datastore.ObsStore     { return v.obs }
func (v *DatabaseView) Commands() datastore.CommandStore     { return v.cmds }

var _ datastore.ObsDatabase = (*DatabaseView)(nil)
