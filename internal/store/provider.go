package store

import (
	"fmt"

	"github.com/emrgen/ingest/internal/compress"
	"gorm.io/gorm"
)

const (
	DriverMemory   = "memory"
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

// Provide returns the store for a driver. db is only used by the sql drivers.
func Provide(driver string, db *gorm.DB, codec compress.Compress) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSqlite, DriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("%s store needs a database connection", driver)
		}
		return NewGormStore(db, codec), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}
