// Package memory implements an in-memory observation database. It is the
// reference backend: the durable backends snapshot its state instead of
// reimplementing query semantics.
package memory

import (
	"sync"

	"obshub/pkg/datastore"
)

// Option configures a Database.
type Option func(*Database)

// WithReadOnly marks the database as read-only after construction. Mutating
// operations return datastore.ErrReadOnly.
func WithReadOnly() Option {
	return func(db *Database) { db.readOnly = true }
}

// WithCommitHook registers a function invoked after every successful
// mutation, outside the database lock. Durable backends use it to persist
// snapshots.
func WithCommitHook(hook func()) Option {
	return func(db *Database) { db.onCommit = hook }
}

// Database is an in-memory observation database. A single RWMutex guards
// all tables; queries take a consistent snapshot under the read lock and
// stream it without holding the lock.
type Database struct {
	mu       sync.RWMutex
	num      int
	readOnly bool
	onCommit func()

	procs       featureTable[datastore.Procedure]
	fois        featureTable[datastore.FeatureOfInterest]
	dataStreams map[datastore.DataStreamKey]datastore.DataStreamInfo
	cmdStreams  map[datastore.CommandStreamKey]datastore.CommandStreamInfo
	obs         map[string]obsRecord
	commands    map[string]cmdRecord
	status      map[string]statusRecord

	nextDataStreamID int64
	nextCmdStreamID  int64
	nextObsID        int64
	nextCmdID        int64
	nextStatusID     int64

	procStore   *procedureStore
	foiStore    *foiStore
	obsStore    *obsStore
	cmdStore    *commandStore
	dsStore     *dataStreamStore
	csStore     *commandStreamStore
	statusStore *commandStatusStore
}

type obsRecord struct {
	key   datastore.BigID
	value datastore.ObsData
}

type cmdRecord struct {
	key   datastore.BigID
	value datastore.CommandData
}

type statusRecord struct {
	key   datastore.BigID
	value datastore.CommandStatus
}

// New returns an empty database registered under databaseNum.
func New(databaseNum int, opts ...Option) *Database {
	db := &Database{
		num:         databaseNum,
		procs:       newFeatureTable[datastore.Procedure](),
		fois:        newFeatureTable[datastore.FeatureOfInterest](),
		dataStreams: map[datastore.DataStreamKey]datastore.DataStreamInfo{},
		cmdStreams:  map[datastore.CommandStreamKey]datastore.CommandStreamInfo{},
		obs:         map[string]obsRecord{},
		commands:    map[string]cmdRecord{},
		status:      map[string]statusRecord{},
	}
	for _, opt := range opts {
		opt(db)
	}
	db.procStore = &procedureStore{db: db}
	db.foiStore = &foiStore{db: db}
	db.dsStore = &dataStreamStore{db: db}
	db.obsStore = &obsStore{db: db}
	db.csStore = &commandStreamStore{db: db}
	db.statusStore = &commandStatusStore{db: db}
	db.cmdStore = &commandStore{db: db}
	return db
}

func (db *Database) DatabaseNum() int { return db.num }
func (db *Database) ReadOnly() bool   { return db.readOnly }

func (db *Database) Procedures() datastore.ProcedureStore { return db.procStore }
func (db *Database) Fois() datastore.FoiStore             { return db.foiStore }
func (db *Database) Observations() datastore.ObsStore     { return db.obsStore }
func (db *Database) Commands() datastore.CommandStore     { return db.cmdStore }

// commit runs the commit hook. Callers must have released the write lock.
func (db *Database) commit() {
	if db.onCommit != nil {
		db.onCommit()
	}
}

var _ datastore.LocalDatabase = (*Database)(nil)
