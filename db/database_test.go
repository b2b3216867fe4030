package db

import (
	"context"
	"immigration_crm_go/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemoryAndMigrate(t *testing.T) {
	gw, err := OpenMemory()
	require.NoError(t, err)
	defer gw.Close()

	require.NoError(t, gw.Migrate())
	assert.NoError(t, gw.Ping(context.Background()))

	for _, table := range []string{"clients", "services", "service_milestones", "client_services", "case_milestones", "notifications", "monthly_summaries"} {
		assert.True(t, gw.DB.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestOpenMemoryIsolated(t *testing.T) {
	a, err := OpenMemory()
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenMemory()
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Migrate())
	assert.False(t, b.DB.Migrator().HasTable("clients"))
}

func TestDialectorFor(t *testing.T) {
	t.Run("libsql requires url", func(t *testing.T) {
		_, err := dialectorFor(&config.Config{DBDriver: config.DBDriverLibSQL})
		assert.Error(t, err)
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		_, err := dialectorFor(&config.Config{DBDriver: config.DBDriverPostgres})
		assert.Error(t, err)
	})

	t.Run("libsql dialector", func(t *testing.T) {
		d, err := dialectorFor(&config.Config{DBDriver: config.DBDriverLibSQL, TursoDatabaseURL: "libsql://crm.turso.io", TursoAuthToken: "tok"})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", d.Name())
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := dialectorFor(&config.Config{DBDriver: "oracle"})
		assert.Error(t, err)
	})
}

func TestCloseNilGateway(t *testing.T) {
	var gw *Gateway
	assert.NoError(t, gw.Close())
}
