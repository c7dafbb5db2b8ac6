package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, 10_000_000.0, cfg.Ingest.SampleRate)
	require.Equal(t, 4, cfg.Downmix.Workers)
	require.Equal(t, 250_000.0, cfg.Downmix.OutputSampleRate)
	require.True(t, cfg.Symbol.GardnerEnabled)
	require.Equal(t, 4096, cfg.Queues.SamplesDepth)
	require.Equal(t, 2048, cfg.Queues.BurstDepth)
	require.Equal(t, 512, cfg.Queues.FrameDepth)
}

func TestLoadOverlaysOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte(`
ingest:
  source: file
  path: /tmp/recording.cf32
  format: float32
downmix:
  workers: 8
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "file", cfg.Ingest.Source)
	require.Equal(t, "/tmp/recording.cf32", cfg.Ingest.Path)
	require.Equal(t, "float32", cfg.Ingest.Format)
	require.Equal(t, 8, cfg.Downmix.Workers)

	// Fields absent from the YAML keep Default()'s values.
	require.Equal(t, 250_000.0, cfg.Downmix.OutputSampleRate)
	require.Equal(t, 512, cfg.Queues.FrameDepth)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
