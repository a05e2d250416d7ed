package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"git.fiblab.net/sim/reachability/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	assert.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 22.0, cfg.Model.AvgSpeedMPH)
	assert.Equal(t, 4, cfg.Generate.Workers)
}

func TestLoadOverridesPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	err := os.WriteFile(path, []byte(`
model:
  transferWalkMinutes: 8
generate:
  workers: 2
`), 0o644)
	assert.NoError(t, err)

	cfg, err := config.Load(path)
	assert.NoError(t, err)
	// 覆盖的字段
	assert.Equal(t, 8.0, cfg.Model.TransferWalkMin)
	assert.Equal(t, 2, cfg.Generate.Workers)
	// 未覆盖的字段保持默认
	assert.Equal(t, 22.0, cfg.Model.AvgSpeedMPH)
	assert.Equal(t, 3, cfg.Generate.Retries)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	err := os.WriteFile(path, []byte(`
model:
  averageSpeedMPH: -5
`), 0o644)
	assert.NoError(t, err)

	_, err = config.Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yml")
	assert.Error(t, err)
}
