package postgres

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/kiosco?sslmode=disable", migrateURL("postgres://u:p@db:5432/kiosco?sslmode=disable"))
	assert.Equal(t, "pgx5://db/kiosco", migrateURL("postgresql://db/kiosco"))
	assert.Equal(t, "pgx5://db/kiosco", migrateURL("pgx5://db/kiosco"))
}

func TestMigracionesEmbebidas(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "migrations/000001_kiosco_schema.up.sql")
	assert.Contains(t, files, "migrations/000001_kiosco_schema.down.sql")
}
