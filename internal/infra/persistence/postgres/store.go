// Package postgres persists an observation database to Postgres. It reuses
// the in-memory engine for all query semantics and snapshots the full state
// into a JSONB table after every successful mutation.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"obshub/internal/infra/persistence/memory"
	"obshub/pkg/datastore"
)

var _ datastore.LocalDatabase = (*Database)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/obshub?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Database is a Postgres-backed observation database.
type Database struct {
	*memory.Database
	db *sql.DB

	mu      sync.Mutex
	lastErr error
}

// Open connects using dsn (falls back to a local default), ensures the
// snapshot table exists, and hydrates the in-memory engine from any stored
// snapshot.
func Open(dsn string, databaseNum int) (*Database, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	d := &Database{db: db}
	d.Database = memory.New(databaseNum, memory.WithCommitHook(d.snapshot))
	if err := d.load(ctx, databaseNum); err != nil {
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

func (d *Database) load(ctx context.Context, databaseNum int) error {
	rows, err := d.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
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
	d.lastErr = d.persist(context.Background())
}

func (d *Database) persist(ctx context.Context) error {
	st := d.Database.Export()
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		data, err := bucketPayload(st, bucket)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Err returns the error of the most recent snapshot attempt, or nil.
func (d *Database) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (d *Database) DB() *sql.DB { return d.db }

// Close snapshots once more and closes the connection pool.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.persist(context.Background()); err != nil {
		_ = d.db.Close()
		return err
	}
	return d.db.Close()
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a
// restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
