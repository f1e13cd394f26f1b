package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesSchema(t *testing.T) {
	logger, _ := test.NewNullLogger()
	storage, err := New(logger, filepath.Join(t.TempDir(), "poems.db"))
	require.NoError(t, err)
	defer storage.Close()

	tables, err := mapSchema(storage.Connection)
	require.NoError(t, err)
	for _, table := range []string{"writers", "poems", "subscribers", "reactions", "comments", "site_stats"} {
		assert.Contains(t, tables, table)
	}
}

func TestNewReopensMatchingDatabase(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "poems.db")

	storage, err := New(logger, path)
	require.NoError(t, err)
	_, err = storage.Connection.Exec(`INSERT INTO site_stats (key, count) VALUES ('home_hits', 3)`)
	require.NoError(t, err)
	require.NoError(t, storage.Close())

	storage, err = New(logger, path)
	require.NoError(t, err)
	defer storage.Close()

	var count int
	require.NoError(t, storage.Connection.QueryRow(`SELECT count FROM site_stats WHERE key = 'home_hits'`).Scan(&count))
	assert.Equal(t, 3, count)
}

func TestNewRejectsForeignSchema(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "other.db")

	foreign, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = foreign.Exec(`CREATE TABLE artworks (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, foreign.Close())

	_, err = New(logger, path)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestApplySchemaIsIdempotent(t *testing.T) {
	logger, _ := test.NewNullLogger()
	storage, err := New(logger, ":memory:")
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, ApplySchema(context.Background(), storage.Connection))
	require.NoError(t, ApplySchema(context.Background(), storage.Connection))
}

func TestForeignKeysAreEnforced(t *testing.T) {
	logger, _ := test.NewNullLogger()
	storage, err := New(logger, ":memory:")
	require.NoError(t, err)
	defer storage.Close()

	_, err = storage.Connection.Exec(`INSERT INTO reactions (poem_id, subscriber_id, is_like) VALUES (1, 1, TRUE)`)
	var sqliteErr sqlite3.Error
	require.True(t, errors.As(err, &sqliteErr))
	assert.Equal(t, sqlite3.ErrConstraintForeignKey, sqliteErr.ExtendedCode)
}

func TestIsUniqueViolation(t *testing.T) {
	logger, _ := test.NewNullLogger()
	storage, err := New(logger, ":memory:")
	require.NoError(t, err)
	defer storage.Close()

	const insert = `INSERT INTO subscribers (email, created_at) VALUES ('reader@example.com', '2024-01-01T00:00:00Z')`
	_, err = storage.Connection.Exec(insert)
	require.NoError(t, err)
	_, err = storage.Connection.Exec(insert)
	require.Error(t, err)

	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsUniqueViolation(errors.New("unique")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestCasefoldFunction(t *testing.T) {
	logger, _ := test.NewNullLogger()
	storage, err := New(logger, ":memory:")
	require.NoError(t, err)
	defer storage.Close()

	var folded, lowered string
	require.NoError(t, storage.Connection.QueryRow(`SELECT casefold(?), lower(?)`, "ÉMILE Über", "ÉMILE Über").
		Scan(&folded, &lowered))
	assert.Equal(t, "émile über", folded)
	assert.Equal(t, "Émile Über", lowered, "SQLite's lower() leaves non-ASCII letters alone")
	assert.Equal(t, Fold("ÉMILE Über"), folded)
}
