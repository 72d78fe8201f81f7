package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = RunMigrations(ctx, db, DriverSQLite)
	require.NoError(t, err)
	return db
}

func TestLoadMigrations(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			migrations, err := LoadMigrations(driver)
			require.NoError(t, err)
			require.NotEmpty(t, migrations)

			for i, m := range migrations {
				assert.NotEmpty(t, m.Up, "version %d up", m.Version)
				assert.NotEmpty(t, m.Down, "version %d down", m.Version)
				if i > 0 {
					assert.Greater(t, m.Version, migrations[i-1].Version)
				}
			}
			assert.Equal(t, "create_tables", migrations[0].Name)
		})
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	applied, err := RunMigrations(ctx, db, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	applied, err = RunMigrations(ctx, db, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	for _, table := range []string{"credentials", "scheduled_posts", "community_tags"} {
		_, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1")
		assert.NoError(t, err, table)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}

func TestSplitStatementsSkipsComments(t *testing.T) {
	script := "-- leading comment\nCREATE TABLE a (id INTEGER);\n\n-- another\nCREATE TABLE b (id INTEGER);\n"
	assert.Equal(t, []string{"CREATE TABLE a (id INTEGER)", "CREATE TABLE b (id INTEGER)"}, splitStatements(script))
}
