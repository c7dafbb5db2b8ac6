package ingest

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/n5dxb/iridium-ground/internal/detector"
	"github.com/n5dxb/iridium-ground/internal/dsp/simd"
	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/queue"
)

// bytesPerSample returns the on-disk byte width of one interleaved I or Q
// component for format.
func bytesPerSample(f Format) int {
	switch f {
	case FormatInt8:
		return 1
	case FormatInt16:
		return 2
	case FormatFloat32:
		return 4
	default:
		return 4
	}
}

// FileSource reads a local IQ recording (spec.md §6 push_batch formats:
// int8, int16, float32) and republishes it as SampleBatch values, reading
// ahead BatchSamples complex samples per read (SPEC_FULL.md §4.A).
type FileSource struct {
	Path   string
	Format Format
}

// Run implements Source. A short or terminal read is treated as EOF: the
// source closes out and returns without clearing ctx's running flag — the
// pipeline's own shutdown sequence (Pipeline.Run in internal/pipeline)
// clears it once every stage has drained.
func (s *FileSource) Run(ctx *pipectx.Context, out *queue.Queue[detector.SampleBatch]) {
	f, err := os.Open(s.Path)
	if err != nil {
		ctx.Logf("ingest/file", "open %s: %v", s.Path, err)
		out.Close()
		return
	}
	defer f.Close()

	bps := bytesPerSample(s.Format)
	rawBuf := make([]byte, BatchSamples*2*bps)

	for ctx.Alive() {
		n, err := io.ReadFull(f, rawBuf)
		if n > 0 {
			batch := s.decode(rawBuf[:n])
			ctx.Stats.SamplesIngested.Add(int64(len(batch.Samples)))
			if !out.Add(detector.SampleBatch{Samples: batch.Samples}) {
				ctx.Stats.SamplesDropped.Add(int64(len(batch.Samples)))
			}
		}
		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				ctx.Logf("ingest/file", "read error: %v", err)
			}
			break
		}
	}
	out.Close()
}

type decoded struct {
	Samples []complex64
}

func (s *FileSource) decode(raw []byte) decoded {
	switch s.Format {
	case FormatInt8:
		iq := make([]int8, len(raw))
		for i, b := range raw {
			iq[i] = int8(b)
		}
		return decoded{Samples: simd.Default.Int8ToComplex(iq)}
	case FormatInt16:
		n := len(raw) / 2
		iq := make([]int16, n)
		for i := 0; i < n; i++ {
			iq[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
		}
		return decoded{Samples: int16ToComplex(iq)}
	default:
		n := len(raw) / 4
		iq := make([]float32, n)
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(raw[4*i:])
			iq[i] = math.Float32frombits(bits)
		}
		return decoded{Samples: float32ToComplex(iq)}
	}
}
