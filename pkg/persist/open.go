package persist

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Config selects and configures a backend.
type Config struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	S3          S3Config
}

// Open returns the store selected by cfg.Driver. An empty driver selects
// the memory store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("persist: sqlite driver requires a path")
		}
		return OpenSQLite(ctx, cfg.SQLitePath)
	case DriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("persist: postgres driver requires a DSN")
		}
		return OpenPostgres(ctx, cfg.PostgresDSN)
	case DriverS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("persist: unknown driver %q", cfg.Driver)
	}
}
