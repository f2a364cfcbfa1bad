// Package registry tracks which local database owns which procedures and
// translates between federation-wide public IDs and database-local IDs.
//
// A given procedure UID can be claimed by at most one database. Procedures
// not claimed by any database fall back to the default state database
// (number 0), which acts as a staging area until an authoritative database
// takes over.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"obshub/pkg/datastore"
)

// Logger is the minimal logging surface the registry needs. Messages carry
// alternating key/value pairs.
type Logger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// DefaultDatabaseNum is the number of the default state database.
const DefaultDatabaseNum = 0

// snapshot is the immutable read view published to query paths. Lookups
// never take the mutation lock; they load the current snapshot atomically.
type snapshot struct {
	databases map[int]datastore.LocalDatabase
	uids      *uidMap
}

func (s *snapshot) clone() *snapshot {
	out := &snapshot{
		databases: make(map[int]datastore.LocalDatabase, len(s.databases)),
		uids:      s.uids,
	}
	for num, db := range s.databases {
		out.databases[num] = db
	}
	return out
}

// Registry is the process-wide table of registered observation databases
// and UID ownership claims. Mutations are serialized; reads are lock-free
// against a copy-on-write snapshot.
type Registry struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
	log  Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger injects a logger; the default discards all messages.
func WithLogger(log Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{log: noopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	r.snap.Store(&snapshot{databases: map[int]datastore.LocalDatabase{}, uids: newUIDMap()})
	return r
}

// RegisterOption configures one database registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	handledUIDs []string
}

// WithHandledUIDs declares the procedure UIDs (exact or trailing-"*"
// namespace patterns) the database actively collects data for. Each UID is
// claimed during registration; if any claim fails the whole registration is
// rolled back.
func WithHandledUIDs(uids ...string) RegisterOption {
	return func(cfg *registerConfig) {
		cfg.handledUIDs = append(cfg.handledUIDs, uids...)
	}
}

// Register adds a database under its database number. Registration is
// all-or-nothing: a duplicate number, an out-of-range number or a UID claim
// conflict leaves the registry unchanged.
func (r *Registry) Register(db datastore.LocalDatabase, opts ...RegisterOption) error {
	if db == nil {
		return errors.New("database cannot be nil")
	}
	var cfg registerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	num := db.DatabaseNum()
	if err := datastore.CheckDatabaseNum(num); err != nil {
		return err
	}
	if len(cfg.handledUIDs) > 0 && db.ReadOnly() {
		return fmt.Errorf("database %d is read-only and cannot collect procedure data", num)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snap.Load()
	if _, exists := snap.databases[num]; exists {
		return fmt.Errorf("database number %d already registered", num)
	}
	next := snap.clone()
	next.databases[num] = db
	for _, uid := range cfg.handledUIDs {
		uids, ok := next.uids.put(uid, num)
		if !ok {
			owner, _ := next.uids.claimant(uid)
			return fmt.Errorf("procedure %s is already handled by database %d", uid, owner)
		}
		next.uids = uids
	}
	// Claims succeeded; evict superseded default-database records before
	// the new snapshot becomes visible.
	if num != DefaultDatabaseNum {
		for _, uid := range cfg.handledUIDs {
			r.evictFromDefault(snap, uid, num)
		}
	}
	r.log.Info("registered database", "databaseNum", num, "handledUIDs", len(cfg.handledUIDs))
	r.snap.Store(next)
	return nil
}

// RegisterMapping claims a single UID (or trailing-"*" namespace) for the
// database with the given number. Fails when another database already
// claims it. Claiming a UID previously tracked only by the default state
// database removes the default database's procedure and data stream records
// for it.
func (r *Registry) RegisterMapping(uid string, databaseNum int) error {
	if uid == "" {
		return errors.New("uid cannot be empty")
	}
	if databaseNum <= 0 || databaseNum >= datastore.MaxDatabases {
		return fmt.Errorf("database number %d out of range (1,%d)", databaseNum, datastore.MaxDatabases)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snap.Load()
	uids, ok := snap.uids.put(uid, databaseNum)
	if !ok {
		owner, _ := snap.uids.claimant(uid)
		return fmt.Errorf("procedure %s is already handled by database %d", uid, owner)
	}
	next := snap.clone()
	next.uids = uids
	r.evictFromDefault(snap, uid, databaseNum)
	r.snap.Store(next)
	return nil
}

// evictFromDefault removes the procedure and data stream records for uid
// from the default state database once another database claims it. Called
// with the mutation lock held.
func (r *Registry) evictFromDefault(snap *snapshot, uid string, newOwner int) {
	defaultDB, ok := snap.databases[DefaultDatabaseNum]
	if !ok {
		return
	}
	ctx := context.Background()
	key, err := defaultDB.Procedures().RemoveByUID(ctx, uid)
	if err != nil {
		return // not tracked by the state database
	}
	r.log.Info("database takes over procedure, clearing state database records",
		"databaseNum", newOwner, "uid", uid)
	dsFilter := datastore.NewDataStreamFilter().WithProcedureIDs(key.InternalID).Build()
	if _, err := defaultDB.Observations().DataStreams().Remove(ctx, dsFilter); err != nil {
		r.log.Warn("failed to clear state database data streams", "uid", uid, "error", err)
	}
}

// UnregisterMapping drops a UID claim. The pattern must match the one used
// at registration (including a trailing "*").
func (r *Registry) UnregisterMapping(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snap.Load()
	next := snap.clone()
	next.uids = next.uids.delete(uid)
	r.snap.Store(next)
}

// Unregister removes a database and drops every UID claim pointing to it.
func (r *Registry) Unregister(db datastore.LocalDatabase) {
	if db == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	num := db.DatabaseNum()
	snap := r.snap.Load()
	next := snap.clone()
	delete(next.databases, num)
	next.uids = next.uids.deleteDatabase(num)
	r.snap.Store(next)
	r.log.Info("unregistered database", "databaseNum", num)
}

// Resolve returns the number of the database claiming uid, falling back to
// the default state database when unclaimed.
func (r *Registry) Resolve(uid string) int {
	if num, ok := r.snap.Load().uids.get(uid); ok {
		return num
	}
	return DefaultDatabaseNum
}

// HasDatabase reports whether some database explicitly claims uid.
func (r *Registry) HasDatabase(uid string) bool {
	_, ok := r.snap.Load().uids.get(uid)
	return ok
}

// DatabaseForUID returns the database that owns uid, falling back to the
// default state database. ok is false when the owning database (or the
// fallback) is not registered.
func (r *Registry) DatabaseForUID(uid string) (datastore.LocalDatabase, bool) {
	snap := r.snap.Load()
	num := DefaultDatabaseNum
	if mapped, ok := snap.uids.get(uid); ok {
		num = mapped
	}
	db, ok := snap.databases[num]
	return db, ok
}

// Database returns the database registered under num.
func (r *Registry) Database(num int) (datastore.LocalDatabase, bool) {
	db, ok := r.snap.Load().databases[num]
	return db, ok
}

// Databases returns all registered databases ordered by database number.
func (r *Registry) Databases() []datastore.LocalDatabase {
	snap := r.snap.Load()
	nums := make([]int, 0, len(snap.databases))
	for num := range snap.databases {
		nums = append(nums, num)
	}
	slices.Sort(nums)
	out := make([]datastore.LocalDatabase, 0, len(nums))
	for _, num := range nums {
		out = append(out, snap.databases[num])
	}
	return out
}

// LocalFilterInfo groups the local IDs of one database extracted from a
// batch of public IDs.
type LocalFilterInfo struct {
	DB          datastore.LocalDatabase
	DatabaseNum int
	LocalIDs    []int64
	LocalBigIDs []datastore.BigID
}

// Dispatch partitions a batch of public IDs by owning database. IDs whose
// database is not registered are skipped: the entity is considered gone.
func (r *Registry) Dispatch(publicIDs []int64) map[int]*LocalFilterInfo {
	snap := r.snap.Load()
	out := make(map[int]*LocalFilterInfo)
	for _, publicID := range publicIDs {
		num, localID := datastore.DecodePublicID(publicID)
		db, ok := snap.databases[num]
		if !ok {
			continue
		}
		info := out[num]
		if info == nil {
			info = &LocalFilterInfo{DB: db, DatabaseNum: num}
			out[num] = info
		}
		info.LocalIDs = append(info.LocalIDs, localID)
	}
	return out
}

// DispatchBig partitions a batch of public big IDs by owning database.
func (r *Registry) DispatchBig(publicIDs []datastore.BigID) map[int]*LocalFilterInfo {
	snap := r.snap.Load()
	out := make(map[int]*LocalFilterInfo)
	for _, publicID := range publicIDs {
		if !publicID.IsValid() {
			continue
		}
		num, localID := datastore.DecodeBigID(publicID)
		db, ok := snap.databases[num]
		if !ok {
			continue
		}
		info := out[num]
		if info == nil {
			info = &LocalFilterInfo{DB: db, DatabaseNum: num}
			out[num] = info
		}
		info.LocalBigIDs = append(info.LocalBigIDs, localID)
	}
	return out
}
