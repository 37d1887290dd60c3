package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver    string
	DSN       string
	Namespace string
	// Migrate applies pending schema migrations before the store is returned.
	Migrate bool
}

// Open builds the store selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory, "":
		log.Printf("[docstore] driver=memory namespace=%s", opts.Namespace)
		return NewMemoryStore(opts.Namespace), nil

	case DriverPostgres:
		db, err := sql.Open("postgres", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := prepare(ctx, db, opts); err != nil {
			db.Close()
			return nil, err
		}
		log.Printf("[docstore] driver=postgres namespace=%s", opts.Namespace)
		return NewPostgresStore(db, opts.DSN, opts.Namespace), nil

	case DriverSQLite:
		if dir := filepath.Dir(opts.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		db, err := sql.Open("sqlite3", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := prepare(ctx, db, opts); err != nil {
			db.Close()
			return nil, err
		}
		log.Printf("[docstore] driver=sqlite path=%s namespace=%s", opts.DSN, opts.Namespace)
		return NewSQLiteStore(db, opts.Namespace), nil
	}
	return nil, fmt.Errorf("%q: %w", opts.Driver, ErrUnknownDriver)
}

func prepare(ctx context.Context, db *sql.DB, opts Options) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", opts.Driver, err)
	}
	if opts.Migrate {
		if err := Migrate(db, opts.Driver); err != nil {
			return err
		}
	}
	return nil
}
