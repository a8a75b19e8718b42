package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDB is a migrated in-memory database for other packages' tests.
type TestDB struct {
	DB *sql.DB
}

// NewTestDB opens a fresh in-memory, fully-migrated database, closed
// automatically when t ends.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return &TestDB{DB: db}
}

// MustExec runs a raw statement against the test database, failing the
// test on error — for setting up state the typed store functions don't
// expose a path to.
func (t *TestDB) MustExec(test *testing.T, query string, args ...any) {
	test.Helper()
	_, err := t.DB.Exec(query, args...)
	require.NoError(test, err)
}
