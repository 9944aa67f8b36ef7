package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverHTTP     = "http"
)

// Options selects and configures a backend.
type Options struct {
	Driver     string
	DSN        string // postgres / sqlite DSN, mongo URI or API base URL
	Database   string // mongo only
	Collection string
}

// Truncater is implemented by backends that can drop every record.
type Truncater interface {
	Truncate(ctx context.Context) error
}

// Open creates the backend named by opts.Driver.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Backend, error) {
	if opts.Collection == "" {
		opts.Collection = CollectionName
	}
	logger = logger.With(zap.String("driver", opts.Driver), zap.String("collection", opts.Collection))

	var (
		b   Backend
		err error
	)
	switch opts.Driver {
	case DriverMemory, "":
		b = NewMemoryStore()
	case DriverPostgres:
		b, err = OpenSQL(ctx, DialectPostgres, opts.DSN, opts.Collection)
	case DriverSQLite:
		b, err = OpenSQL(ctx, DialectSQLite, opts.DSN, opts.Collection)
	case DriverMongo:
		b, err = OpenMongo(ctx, opts.DSN, opts.Database, opts.Collection)
	case DriverHTTP:
		b = NewHTTPStore(opts.DSN, nil)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
	if err != nil {
		logger.Error("failed to open profile store", zap.Error(err))
		return nil, err
	}
	logger.Info("profile store ready")
	return b, nil
}
