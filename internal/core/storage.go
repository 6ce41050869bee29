package core

import (
	"fmt"
	"os"

	"shopcore/internal/infra/persistence/memory"
	"shopcore/internal/infra/persistence/postgres"
	"shopcore/internal/infra/persistence/sqlite"
	"shopcore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// AttachEventSink wires a committed-event sink into stores that support one.
// Every built-in backend does; the return value reports whether the store
// accepted the sink.
func AttachEventSink(store PersistentStore, sink domain.EventSink) bool {
	setter, ok := store.(interface{ SetEventSink(domain.EventSink) })
	if !ok {
		return false
	}
	setter.SetEventSink(sink)
	return true
}

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	SHOPCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	SHOPCORE_SQLITE_PATH: path to sqlite file (default ./shopcore.db)
//	SHOPCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *domain.RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("SHOPCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("SHOPCORE_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("SHOPCORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
