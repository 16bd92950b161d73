package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{
		"migrations/00001_cotacoes.sql",
		"migrations/00002_audit_approvals.sql",
		"migrations/00003_idempotency_keys.sql",
	}, names)

	for _, name := range names {
		raw, err := fs.ReadFile(migrationsFS, name)
		require.NoError(t, err)
		body := string(raw)
		require.True(t, strings.HasPrefix(body, "-- +goose Up"), name)
		require.Contains(t, body, "-- +goose Down", name)
	}
}
