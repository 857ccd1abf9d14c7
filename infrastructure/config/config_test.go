package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATA_BUCKET", "loyalty-data-lake")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "loyalty", cfg.Schema)
	assert.Equal(t, "UserTable", cfg.UserTable)
	assert.Equal(t, "WithdrawnTable", cfg.WithdrawnTable)
	assert.True(t, cfg.ArchiveRaw)
	assert.True(t, cfg.EnableMetrics)
	assert.False(t, cfg.EnableTracing)
}

func TestLoadConfig_RequiresBucket(t *testing.T) {
	t.Setenv("DATA_BUCKET", "")

	_, err := LoadConfig()

	assert.Error(t, err)
}

func TestLoadConfig_ProductionRequiresIAMRole(t *testing.T) {
	t.Setenv("DATA_BUCKET", "loyalty-data-lake")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("REDSHIFT_IAM_ROLE", "")

	_, err := LoadConfig()

	assert.Error(t, err)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATA_BUCKET", "loyalty-data-lake")
	t.Setenv("WAREHOUSE_SCHEMA", "loyalty_staging")
	t.Setenv("ARCHIVE_RAW", "false")
	t.Setenv("ENABLE_TRACING", "true")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "loyalty_staging", cfg.Schema)
	assert.False(t, cfg.ArchiveRaw)
	assert.True(t, cfg.EnableTracing)
}
