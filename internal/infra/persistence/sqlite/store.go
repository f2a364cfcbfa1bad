// Package sqlite persists an observation database to a single SQLite file.
// It reuses the in-memory engine for all query semantics and snapshots the
// full state as JSON blobs after every successful mutation.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"obshub/internal/infra/persistence/memory"
	"obshub/pkg/datastore"
)

var _ datastore.LocalDatabase = (*Database)(nil)

// Database is a SQLite-backed observation database.
type Database struct {
	*memory.Database
	db   *sql.DB
	path string

	mu      sync.Mutex
	lastErr error
}

// Open opens or creates the database file at path and hydrates the
// in-memory engine from the stored snapshot.
func Open(path string, databaseNum int) (*Database, error) {
	if path == "" {
		path = "obshub.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	d := &Database{db: db, path: path}
	d.Database = memory.New(databaseNum, memory.WithCommitHook(d.snapshot))
	if err := d.load(databaseNum); err != nil {
		return nil, err
	}
	return d, nil
}

var buckets = []string{
	"meta",
	"procedures",
	"fois",
	"dataStreams",
	"commandStreams",
	"observations",
	"commands",
	"statusReports",
}

func (d *Database) load(databaseNum int) error {
	rows, err := d.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	st := memory.State{DatabaseNum: databaseNum}
	var loaded bool
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		target, ok := bucketTarget(&st, bucket)
		if !ok {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
		loaded = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		d.Database.Import(st)
	}
	return nil
}

// bucketTarget maps a bucket name to its slot in st. The meta bucket holds
// the counters; entity buckets hold the record slices.
func bucketTarget(st *memory.State, bucket string) (any, bool) {
	switch bucket {
	case "meta":
		return st, true
	case "procedures":
		return &st.Procedures, true
	case "fois":
		return &st.Fois, true
	case "dataStreams":
		return &st.DataStreams, true
	case "commandStreams":
		return &st.CommandStreams, true
	case "observations":
		return &st.Observations, true
	case "commands":
		return &st.Commands, true
	case "statusReports":
		return &st.StatusReports, true
	}
	return nil, false
}

func bucketPayload(st memory.State, bucket string) ([]byte, error) {
	switch bucket {
	case "meta":
		meta := st
		meta.Procedures = nil
		meta.Fois = nil
		meta.DataStreams = nil
		meta.CommandStreams = nil
		meta.Observations = nil
		meta.Commands = nil
		meta.StatusReports = nil
		return json.Marshal(meta)
	case "procedures":
		return json.Marshal(st.Procedures)
	case "fois":
		return json.Marshal(st.Fois)
	case "dataStreams":
		return json.Marshal(st.DataStreams)
	case "commandStreams":
		return json.Marshal(st.CommandStreams)
	case "observations":
		return json.Marshal(st.Observations)
	case "commands":
		return json.Marshal(st.Commands)
	case "statusReports":
		return json.Marshal(st.StatusReports)
	}
	return nil, fmt.Errorf("unknown bucket %q", bucket)
}

// snapshot is the commit hook. The store contract has no error channel for
// it, so persistence failures are kept and surfaced by Err.
func (d *Database) snapshot() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastErr = d.persist()
}

func (d *Database) persist() (retErr error) {
	st := d.Database.Export()
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		data, err := bucketPayload(st, bucket)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Err returns the error of the most recent snapshot attempt, or nil.
func (d *Database) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// Path returns the configured database file path.
func (d *Database) Path() string { return d.path }

// Close snapshots once more and closes the underlying database.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.persist(); err != nil {
		_ = d.db.Close()
		return err
	}
	return d.db.Close()
}
