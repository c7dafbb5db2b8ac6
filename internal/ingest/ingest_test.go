package ingest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"testing"

	"github.com/n5dxb/iridium-ground/internal/detector"
	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/queue"
	"github.com/stretchr/testify/require"
)

func TestInt16ToComplexScale(t *testing.T) {
	// 0x7FFF>>8 = 0x7F = 127; 0x8000 (-32768)>>8 = -128 (spec.md §4.A:
	// "right-shift 8 then treat as int8").
	out := int16ToComplex([]int16{32767, -32768})
	require.InDelta(t, float64(127)/128, real(out[0]), 1e-6)
	require.InDelta(t, float64(-128)/128, imag(out[0]), 1e-6)
}

func TestInt16ToComplexTakesHighByte(t *testing.T) {
	// 0x7F37 -> high byte 0x7F -> 127/128, discarding the low byte
	// entirely rather than scaling the full 16-bit value.
	out := int16ToComplex([]int16{0x7F37, 0})
	require.InDelta(t, float64(127)/128, real(out[0]), 1e-6)
}

func TestFloat32ToComplexPassthrough(t *testing.T) {
	out := float32ToComplex([]float32{1.5, -2.5})
	require.Equal(t, complex64(complex(1.5, -2.5)), out[0])
}

func TestFileSourceDecodesFloat32Recording(t *testing.T) {
	path := writeCF32(t, []float32{1, 2, -1, -2, 0.5, 0.25})

	src := &FileSource{Path: path, Format: FormatFloat32}
	ctx := pipectx.New(false)
	out := queue.New[detector.SampleBatch](4)

	src.Run(ctx, out)

	batch, ok := out.Take()
	require.True(t, ok)
	require.Equal(t, []complex64{complex(1, 2), complex(-1, -2), complex(0.5, 0.25)}, batch.Samples)

	_, ok = out.Take()
	require.False(t, ok, "source closes the queue once the file is exhausted")
}

func writeCF32(t *testing.T, values []float32) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "iq-*.cf32")
	require.NoError(t, err)
	defer f.Close()

	var buf bytes.Buffer
	for _, v := range values {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf.Write(b[:])
	}
	_, err = f.Write(buf.Bytes())
	require.NoError(t, err)
	return f.Name()
}
