package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Backend names accepted by Open.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the file for the json and sqlite backends.
	Path string
	// DSN and MigrationsPath configure the postgres backend.
	DSN            string
	MigrationsPath string
}

// Open builds the configured store. Postgres migrations run before connecting.
func Open(ctx context.Context, opts Options, log *slog.Logger) (Store, error) {
	switch opts.Backend {
	case BackendJSON, "":
		return OpenFile(opts.Path, log)
	case BackendSQLite:
		return OpenSQLite(opts.Path, log)
	case BackendPostgres:
		if opts.MigrationsPath != "" {
			if err := RunMigrations(opts.DSN, opts.MigrationsPath); err != nil {
				return nil, err
			}
			log.Info("migrations applied")
		}
		return New(ctx, opts.DSN, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
