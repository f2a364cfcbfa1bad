package hub

import (
	"fmt"
	"os"

	"obshub/internal/infra/persistence/memory"
	"obshub/internal/infra/persistence/postgres"
	"obshub/internal/infra/persistence/sqlite"
	"obshub/pkg/datastore"
)

// StorageDriver identifies a concrete local database implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenLocalDatabase selects a backend using environment variables. Defaults
// to memory when unset.
//
//	OBSHUB_STORAGE_DRIVER: memory|sqlite|postgres (default memory)
//	OBSHUB_SQLITE_PATH: path to sqlite file (default ./obshub.db)
//	OBSHUB_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenLocalDatabase(databaseNum int) (datastore.LocalDatabase, error) {
	driver := os.Getenv("OBSHUB_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageMemory)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.New(databaseNum), nil
	case StorageSQLite:
		return sqlite.Open(os.Getenv("OBSHUB_SQLITE_PATH"), databaseNum)
	case StoragePostgres:
		return postgres.Open(os.Getenv("OBSHUB_POSTGRES_DSN"), databaseNum)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
