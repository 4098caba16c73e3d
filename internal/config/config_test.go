package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxlang/lox/internal/config"
)

func TestLoadDefaultsWithNoFileOrEnv(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, cfg.StressGC)
	assert.False(t, cfg.LogGC)
	assert.Equal(t, 2, cfg.GCHeapGrowth)
	assert.Equal(t, 64, cfg.FramesMax)
}

func TestLoadYAMLFileSuppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loxrc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stress_gc: true
gc_heap_growth: 4
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.StressGC)
	assert.Equal(t, 4, cfg.GCHeapGrowth)
	assert.Equal(t, 64, cfg.FramesMax)
}

// TestEnvOverridesFile grounds SPEC_FULL.md §2.4 "file defaults, env
// overrides": a value set in the YAML file is still overridden by its
// environment variable.
func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loxrc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gc_heap_growth: 4
`), 0o644))

	t.Setenv("LOX_GC_HEAP_GROWTH", "8")
	t.Setenv("LOX_STRESS_GC", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.GCHeapGrowth)
	assert.True(t, cfg.StressGC)
}
