package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func TestDefaults(t *testing.T) {
	cfg := newTestConfig()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, SourceBackend, cfg.Source.Kind)
	assert.Equal(t, 10, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, 0.05, cfg.Costing.RoundingStep)
	assert.Equal(t, 2.0, cfg.Costing.RetailMultiplier)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", " Workbook ")
	t.Setenv("CATALOG_WORKBOOK_PATH", "/tmp/catalog.xlsx")
	t.Setenv("COSTING_RETAIL_MULTIPLIER", "2.5")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("BACKEND_TIMEOUT_SECONDS", "3")

	cfg := newTestConfig()

	assert.Equal(t, SourceWorkbook, cfg.Source.Kind)
	assert.Equal(t, "/tmp/catalog.xlsx", cfg.Source.WorkbookPath)
	assert.Equal(t, 2.5, cfg.Costing.RetailMultiplier)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 3, cfg.Backend.TimeoutSeconds)
}
