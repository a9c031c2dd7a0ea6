// Package storetest opens migrated in-memory databases for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"schoolportal/internal/store"
)

// Open returns a fresh, migrated SQLite database that is closed when the test ends.
func Open(t testing.TB) *store.DB {
	t.Helper()
	db, err := store.NewDB(store.DriverSQLite, ":memory:?_foreign_keys=1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}
