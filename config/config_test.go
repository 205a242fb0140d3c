package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/epochtrainer/learning"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, learning.Default(), cfg.Learning)
	assert.Equal(t, "avx", cfg.Backend.Name)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
learning:
  epoch_count: 7
  decay_tail_epoch_count: 3
  decay_on_held_out_increase: true
backend:
  name: " CU "
  cu_memory_portion: 2
run:
  ann_count: 4
  ledger: runs.db
log:
  json: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Learning.EpochCount)
	assert.Equal(t, 3, cfg.Learning.DecayTailEpochCount)
	assert.True(t, cfg.Learning.DecayOnHeldOutIncrease)
	assert.Equal(t, 0.02, cfg.Learning.LearningRate)
	assert.Equal(t, 0.5, cfg.Learning.DecayRate)
	assert.Equal(t, "cu", cfg.Backend.Name)
	assert.Equal(t, uint16(2), cfg.Backend.CuMemoryPortion)
	assert.Equal(t, 4, cfg.Run.AnnCount)
	assert.Equal(t, "runs.db", cfg.Run.Ledger)
	assert.Equal(t, "ann_snapshots", cfg.Run.SnapshotDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	for name, doc := range map[string]string{
		"syntax":     "learning: [",
		"epochs":     "learning: {epoch_count: 0}",
		"decay":      "learning: {decay_rate: 1.5}",
		"backend":    "backend: {name: tpu}",
		"held out":   "data: {size: 10, held_out: 10}",
		"ann count":  "run: {ann_count: -1}",
		"batch size": "backend: {max_batch_size: -2}",
	} {
		cfg := Default()
		assert.Error(t, Parse([]byte(doc), &cfg), name)
	}
}
