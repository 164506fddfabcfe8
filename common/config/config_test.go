package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykhdr/crack-dict/common/config"
)

type sample struct {
	config.LogConfig
	Name  string `kdl:"name"`
	Count int    `kdl:"count"`
}

func TestInitializeConfigDefaults(t *testing.T) {
	cfg, err := config.InitializeConfig("", sample{Name: "default", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, 3, cfg.Count)
}

func TestInitializeConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.kdl")
	require.NoError(t, os.WriteFile(path, []byte("name \"file\"\n"), 0o600))

	cfg, err := config.InitializeConfig(path, sample{Name: "default", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Name)
	assert.Equal(t, 3, cfg.Count)
}

func TestInitializeConfigMissingFile(t *testing.T) {
	_, err := config.InitializeConfig(filepath.Join(t.TempDir(), "none.kdl"), sample{})
	require.Error(t, err)
}
