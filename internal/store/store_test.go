package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolportal/internal/store"
	"schoolportal/internal/store/storetest"
)

func TestNewDBRejectsUnknownDriver(t *testing.T) {
	_, err := store.NewDB("mysql", "whatever")
	assert.Error(t, err)
}

func TestNewDBClosesPoolWhenPingFails(t *testing.T) {
	db, err := store.NewDB(store.DriverSQLite, filepath.Join(t.TempDir(), "missing", "school.db"))
	require.Error(t, err)
	assert.Nil(t, db)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := storetest.Open(t)
	require.NoError(t, db.Migrate(context.Background()))
	assert.True(t, db.Healthy(context.Background()))

	version, dirty, err := db.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestVersionBeforeMigrate(t *testing.T) {
	db, err := store.NewDB(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	version, _, err := db.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestMigrateHonoursCancelledContext(t *testing.T) {
	db, err := store.NewDB(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, db.Migrate(ctx), context.Canceled)
}

func TestUniqueViolationIsClassified(t *testing.T) {
	db := storetest.Open(t)
	ctx := context.Background()
	insert := `INSERT INTO teachers (name, email, password, department) VALUES ($1, $2, $3, $4)`

	_, err := db.Client.ExecContext(ctx, insert, "A", "a@univ.edu", "x", "Math")
	require.NoError(t, err)
	_, err = db.Client.ExecContext(ctx, insert, "B", "a@univ.edu", "y", "Physics")
	require.Error(t, err)
	assert.True(t, store.IsUniqueViolation(err))
	assert.False(t, store.IsForeignKeyViolation(err))
}

func TestForeignKeyViolationIsClassified(t *testing.T) {
	db := storetest.Open(t)
	_, err := db.Client.ExecContext(context.Background(),
		`INSERT INTO sessions (student_id, session_token, expires_at) VALUES ($1, $2, CURRENT_TIMESTAMP)`, 999, "tok")
	require.Error(t, err)
	assert.True(t, store.IsForeignKeyViolation(err))
	assert.False(t, store.IsUniqueViolation(err))
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := storetest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.InTx(ctx, db.Client, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO teachers (name, email, password, department) VALUES ($1, $2, $3, $4)`,
			"A", "a@univ.edu", "x", "Math"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.Client.QueryRowContext(ctx, `SELECT COUNT(*) FROM teachers`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestClassifiersIgnoreOtherErrors(t *testing.T) {
	assert.False(t, store.IsUniqueViolation(errors.New("plain")))
	assert.False(t, store.IsForeignKeyViolation(nil))
}
