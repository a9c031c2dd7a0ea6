package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationFiles embed.FS

// Migrate applies pending migrations for the database's dialect. It is safe
// to run on every start.
func (d *DB) Migrate(ctx context.Context) error {
	m, closeFn, err := d.migrator()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer closeFn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}
	return ctx.Err()
}

// Version reports the applied migration version. Version 0 means none.
func (d *DB) Version() (version uint, dirty bool, err error) {
	m, closeFn, err := d.migrator()
	if err != nil {
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	defer closeFn()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// migrator builds a migrate instance. Postgres migrations run on their own
// pool, which closeFn releases. SQLite migrations share the handle, since an
// in-memory database only exists on that connection, so closeFn leaves it
// open.
func (d *DB) migrator() (*migrate.Migrate, func(), error) {
	var (
		dir      string
		name     string
		drv      database.Driver
		own      *sql.DB
		err      error
		migrator *migrate.Migrate
	)
	switch d.Driver {
	case DriverPostgres:
		dir, name = "migrations/postgres", "pgx5"
		own, err = sql.Open(DriverPostgres, d.dsn)
		if err != nil {
			return nil, nil, err
		}
		drv, err = migratepgx.WithInstance(own, &migratepgx.Config{})
	case DriverSQLite:
		dir, name = "migrations/sqlite", "sqlite3"
		drv, err = migratesqlite.WithInstance(d.Client, &migratesqlite.Config{})
	default:
		return nil, nil, fmt.Errorf("unsupported db driver %q", d.Driver)
	}
	if err != nil {
		if own != nil {
			_ = own.Close()
		}
		return nil, nil, err
	}

	src, err := iofs.New(migrationFiles, dir)
	if err != nil {
		if own != nil {
			_ = drv.Close()
		}
		return nil, nil, err
	}
	migrator, err = migrate.NewWithInstance("iofs", src, name, drv)
	if err != nil {
		_ = src.Close()
		if own != nil {
			_ = drv.Close()
		}
		return nil, nil, err
	}

	closeFn := func() { _ = src.Close() }
	if own != nil {
		closeFn = func() { _, _ = migrator.Close() }
	}
	return migrator, closeFn, nil
}
