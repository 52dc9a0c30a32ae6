package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelfsync/internal/entities"
)

func TestNewDatabase_MigratesSchema(t *testing.T) {
	db, err := NewQuietDatabase(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping())

	migrator := db.DB.Migrator()
	for _, model := range []any{
		&entities.Book{},
		&entities.PagedQuery{},
		&entities.BookQuery{},
		&entities.SyncProgress{},
	} {
		assert.True(t, migrator.HasTable(model), "missing table for %T", model)
	}
	assert.True(t, migrator.HasIndex(&entities.BookQuery{}, "idx_book_queries_tag_position"))
}

func TestNewDatabase_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	db, err := NewQuietDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.DB.Create(&entities.Book{ID: "OL1W", Title: "Dune", Author: "Frank Herbert", LastUpdatedAt: 1}).Error)
	require.NoError(t, db.Close())

	db, err = NewQuietDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	var book entities.Book
	require.NoError(t, db.DB.First(&book, "id = ?", "OL1W").Error)
	assert.Equal(t, "Dune", book.Title)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "app.db?"+sqliteParams, dsn("app.db"))
	assert.Equal(t, "file:app.db?cache=shared&"+sqliteParams, dsn("file:app.db?cache=shared"))
}
