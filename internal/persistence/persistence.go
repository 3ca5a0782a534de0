// Package persistence selects the durable audit store. Only this package
// imports the infra drivers.
package persistence

import (
	"context"
	"fmt"

	"variantcore/internal/infra/persistence/memory"
	"variantcore/internal/infra/persistence/postgres"
	"variantcore/internal/infra/persistence/sqlite"
	"variantcore/pkg/domain"
)

// Driver names an audit store backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Options selects and configures the backend.
type Options struct {
	Driver Driver
	// Path is the sqlite database file.
	Path string
	// DSN is the postgres connection string.
	DSN string
}

// Open constructs the configured store. An empty driver selects sqlite.
func Open(ctx context.Context, opts Options) (domain.AuditStore, error) {
	switch opts.Driver {
	case DriverMemory:
		return memory.NewStore(), nil
	case "", DriverSQLite:
		return sqlite.NewStore(ctx, opts.Path)
	case DriverPostgres:
		return postgres.NewStore(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
