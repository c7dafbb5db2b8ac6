package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/n5dxb/iridium-ground/internal/config"
	"github.com/n5dxb/iridium-ground/internal/ingest"
	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/sink"
)

// TestPipelineDrainsEmptyFileSourceWithoutHanging exercises the full
// wiring (ingest -> detector -> downmix workers -> symbol recovery ->
// sinks) against a source that closes immediately, verifying every stage
// shuts down in cascade rather than deadlocking on a closed queue.
func TestPipelineDrainsEmptyFileSourceWithoutHanging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.cs8")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	ctx := pipectx.New(false)
	cfg := config.Default()
	cfg.Downmix.Workers = 2
	cfg.Wisdom.Path = filepath.Join(t.TempDir(), "wisdom.gz")

	p := New(Options{
		Ctx:    ctx,
		Cfg:    cfg,
		Source: &ingest.FileSource{Path: path, Format: ingest.FormatInt8},
		Sinks:  sink.NewFanout(),
		Live:   false,
	})

	done := make(chan struct{})
	go func() {
		p.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not shut down after its source exhausted")
	}

	require.Zero(t, ctx.Stats.FramesOK.Load(), "empty recording never reaches a frame sink")
}
