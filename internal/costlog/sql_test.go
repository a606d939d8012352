package costlog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askp-cli/askp/internal/config"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLWithToken", func(t *testing.T) {
		dsn, err := buildLibsqlDSN(config.CostLogConfig{URL: "libsql://costs.turso.io", AuthToken: "token123"})
		require.NoError(t, err)
		require.Equal(t, "libsql://costs.turso.io?authToken=token123", dsn)
	})

	t.Run("URLKeepsExistingToken", func(t *testing.T) {
		dsn, err := buildLibsqlDSN(config.CostLogConfig{URL: "libsql://costs.turso.io?authToken=abc", AuthToken: "token123"})
		require.NoError(t, err)
		require.Equal(t, "libsql://costs.turso.io?authToken=abc", dsn)
	})

	t.Run("PlainPath", func(t *testing.T) {
		dir := t.TempDir()
		dsn, err := buildLibsqlDSN(config.CostLogConfig{Path: dir + "/db/costs.db"})
		require.NoError(t, err)
		require.Equal(t, "file:"+dir+"/db/costs.db", dsn)
		require.DirExists(t, dir+"/db")
	})

	t.Run("Memory", func(t *testing.T) {
		dsn, err := buildLibsqlDSN(config.CostLogConfig{Path: ":memory:"})
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := buildLibsqlDSN(config.CostLogConfig{})
		require.Error(t, err)
	})
}
