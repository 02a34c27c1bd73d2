package main

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"esl-be/internal/db/migrations"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_UnknownMode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = run(db, "sideways", migrations.FS)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	// No statement may reach the database for a rejected mode.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for i, name := range files {
		content, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)

		sql := string(content)
		assert.Contains(t, sql, "-- +goose Up", name)
		assert.Contains(t, sql, "-- +goose Down", name)
		assert.Less(t, strings.Index(sql, "-- +goose Up"), strings.Index(sql, "-- +goose Down"), name)

		// Versions are sequential, starting at 00001.
		assert.True(t, strings.HasPrefix(name, versionPrefix(i+1)), name)
	}
}

func TestEmbeddedMigrations_CoverTables(t *testing.T) {
	var all strings.Builder
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	for _, name := range files {
		content, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		all.Write(content)
	}

	for _, table := range []string{"users", "orders", "payments", "payment_webhooks", "verification_codes"} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
	assert.Contains(t, all.String(), "UNIQUE (provider, event_key)")
}

func versionPrefix(n int) string {
	return fmt.Sprintf("%05d_", n)
}
