package migrations

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/electives/internal/db"
)

func TestSQLiteMigrator_UpIsIdempotent(t *testing.T) {
	sqlite, err := db.NewSQLiteDB(filepath.Join(t.TempDir(), "migrate.sqlite3"), time.Second)
	require.NoError(t, err)
	defer sqlite.Close()

	ctx := context.Background()
	m := NewSQLiteMigrator(sqlite.DB, zerolog.Nop())
	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx))

	var applied int
	require.NoError(t, sqlite.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)

	for _, table := range []string{"students", "subjects", "allocations", "preferences", "settings"} {
		var n int
		err := sqlite.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}
