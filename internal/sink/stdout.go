package sink

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/n5dxb/iridium-ground/internal/symbol"
)

// StdoutRaw writes the mandatory iridium-toolkit "RAW:" line (spec.md §6)
// for every accepted frame. It is always on.
type StdoutRaw struct {
	w        io.Writer
	fileInfo string

	mu       sync.Mutex
	firstNs  int64
	hasFirst bool
}

// NewStdoutRaw builds a StdoutRaw writer. If fileInfo is empty, it is
// auto-generated as "i-<epoch_seconds>-t1" from the current wall clock
// (spec.md §6).
func NewStdoutRaw(w io.Writer, fileInfo string) *StdoutRaw {
	if fileInfo == "" {
		fileInfo = fmt.Sprintf("i-%d-t1", time.Now().Unix())
	}
	return &StdoutRaw{w: w, fileInfo: fileInfo}
}

// Frame implements FrameSink, formatting and writing one RAW line.
func (s *StdoutRaw) Frame(f symbol.DemodFrame) {
	s.mu.Lock()
	if !s.hasFirst {
		s.firstNs = f.TimestampNs
		s.hasFirst = true
	}
	tsMs := float64(f.TimestampNs-s.firstNs) / 1e6
	s.mu.Unlock()

	bits := make([]byte, len(f.Bits))
	for i, b := range f.Bits {
		if b != 0 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}

	fmt.Fprintf(s.w, "RAW: %s %012.4f %010d N:%05.2f%+06.2f I:%011d %3d%% %.5f %3d %s\n",
		s.fileInfo,
		tsMs,
		int64(f.CenterFreqHz),
		f.Magnitude,
		f.Noise,
		f.ID,
		f.ConfidencePct,
		f.Level,
		f.PayloadSymbols,
		string(bits),
	)
}
