package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "scd_id", cfg.Engine.Key)
	assert.Equal(t, "scd_current", cfg.Engine.CurrentAtt)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1000, cfg.Ingest.BatchSize)
}

func TestLoadConfigEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	raw := map[string]any{
		"engine": map[string]any{
			"lookup_attributes": []string{"order"},
			"type1_attributes":  []string{"status"},
			"type2_attributes":  []string{"price"},
		},
		"store": map[string]any{
			"backend": "badger",
			"table":   "orders",
		},
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"order"}, cfg.Engine.LookupAtts)
	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, "orders", cfg.Store.Table)
	// Fields the file leaves unset keep their defaults, even inside a
	// section it does set.
	assert.Equal(t, "scd_id", cfg.Engine.Key)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store":{"backend":"oracle"}}`), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigOrDefaultFallsBack(t *testing.T) {
	os.Unsetenv("SCD_CONFIG")
	cfg := LoadConfigOrDefault()
	assert.NotNil(t, cfg)
}
