// Package federated implements the observation database contract by routing
// every operation across the databases registered with a registry. It holds
// no data of its own: keys handed to callers are public IDs, keys passed to
// local databases are local IDs, and the translation happens at this
// boundary in both directions.
package federated

import (
	"context"
	"strings"

	"obshub/internal/registry"
	"obshub/pkg/datastore"
)

// Database is the federated observation database.
type Database struct {
	reg *registry.Registry

	procs  *procedureStore
	fois   *foiStore
	obs    *obsStore
	cmds   *commandStore
	ds     *dataStreamStore
	cs     *commandStreamStore
	status *commandStatusStore
}

// NewDatabase returns a federated database over the given registry.
func NewDatabase(reg *registry.Registry) *Database {
	d := &Database{reg: reg}
	d.procs = &procedureStore{d: d}
	d.fois = &foiStore{d: d}
	d.ds = &dataStreamStore{d: d}
	d.obs = &obsStore{d: d}
	d.cs = &commandStreamStore{d: d}
	d.status = &commandStatusStore{d: d}
	d.cmds = &commandStore{d: d}
	return d
}

func (d *Database) Procedures() datastore.ProcedureStore { return d.procs }
func (d *Database) Fois() datastore.FoiStore             { return d.fois }
func (d *Database) Observations() datastore.ObsStore     { return d.obs }
func (d *Database) Commands() datastore.CommandStore     { return d.cmds }

var _ datastore.ObsDatabase = (*Database)(nil)

type target struct {
	db  datastore.LocalDatabase
	num int
}

// allTargets returns every registered database.
func (d *Database) allTargets() []target {
	dbs := d.reg.Databases()
	out := make([]target, 0, len(dbs))
	for _, db := range dbs {
		out = append(out, target{db: db, num: db.DatabaseNum()})
	}
	return out
}

// targetsForUIDs narrows the fan-out to the databases owning the given
// procedure UIDs. ok is false when the set cannot be narrowed: no UIDs, or a
// wildcard pattern that may span databases. UIDs resolving to an
// unregistered database contribute no target; the entities are treated as
// gone.
func (d *Database) targetsForUIDs(uids []string) ([]target, bool) {
	if len(uids) == 0 {
		return nil, false
	}
	for _, uid := range uids {
		if strings.ContainsRune(uid, '*') {
			return nil, false
		}
	}
	seen := map[int]bool{}
	var out []target
	for _, uid := range uids {
		num := d.reg.Resolve(uid)
		if seen[num] {
			continue
		}
		db, ok := d.reg.Database(num)
		if !ok {
			continue
		}
		seen[num] = true
		out = append(out, target{db: db, num: num})
	}
	return out, true
}

// targetsForDispatch converts a registry dispatch map into targets.
func targetsForDispatch(infos map[int]*registry.LocalFilterInfo) []target {
	out := make([]target, 0, len(infos))
	for num, info := range infos {
		out = append(out, target{db: info.DB, num: num})
	}
	return out
}

// shard couples one local store with the filter already translated into its
// local ID space.
type shard[K, V, F any] struct {
	store  datastore.Store[K, V, F]
	filter F
	num    int
}

// fanOut streams the shards in order, re-encoding every yielded entry into
// the public ID space. A shard error fails the whole sequence. The limit
// caps the total number of entries across all shards.
func fanOut[K, V, F any](ctx context.Context, shards []shard[K, V, F], limit int64,
	reencode func(dbNum int, e datastore.Entry[K, V]) datastore.Entry[K, V]) datastore.Seq[K, V] {
	return func(yield func(datastore.Entry[K, V], error) bool) {
		var n int64
		for _, sh := range shards {
			for e, err := range sh.store.SelectEntries(ctx, sh.filter) {
				if err != nil {
					yield(datastore.Entry[K, V]{}, err)
					return
				}
				if !yield(reencode(sh.num, e), nil) {
					return
				}
				n++
				if limit > 0 && n >= limit {
					return
				}
			}
		}
	}
}

// fanOutCount sums the shard counts, capped by limit.
func fanOutCount[K, V, F any](ctx context.Context, shards []shard[K, V, F], limit int64) (int64, error) {
	var total int64
	for _, sh := range shards {
		n, err := sh.store.Count(ctx, sh.filter)
		if err != nil {
			return 0, err
		}
		total += n
	}
	if limit > 0 && total > limit {
		total = limit
	}
	return total, nil
}

// fanOutRemove removes from every shard and sums the counts.
func fanOutRemove[K, V, F any](ctx context.Context, shards []shard[K, V, F]) (int64, error) {
	var total int64
	for _, sh := range shards {
		n, err := sh.store.Remove(ctx, sh.filter)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
