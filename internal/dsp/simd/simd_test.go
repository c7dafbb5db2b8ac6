package simd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAVX2MatchesScalar ensures the vectorization-shaped kernel produces
// the same results as the portable scalar one, since Default silently
// picks between them based on the host's CPU features.
func TestAVX2MatchesScalar(t *testing.T) {
	samples := []complex64{1 + 2i, -3 + 4i, 0.5 - 1.5i, 2, -1, 3 + 3i, 0, 1 + 1i, 5 - 5i}

	wantMag := make([]float64, len(samples))
	gotMag := make([]float64, len(samples))
	scalarKernel{}.MagSq(samples, wantMag)
	avx2Kernel{}.MagSq(samples, gotMag)
	require.InDeltaSlice(t, wantMag, gotMag, 1e-9)

	baseline := []float64{1, 2, 0, 4, 5, 6, 7, 8, 9}
	wantRel := make([]float64, len(samples))
	gotRel := make([]float64, len(samples))
	scalarKernel{}.RelativeMagnitude(wantMag, baseline, wantRel)
	avx2Kernel{}.RelativeMagnitude(gotMag, baseline, gotRel)
	require.InDeltaSlice(t, wantRel, gotRel, 1e-9)

	baselineA := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	baselineB := append([]float64(nil), baselineA...)
	outgoing := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
	incoming := []float64{1.1, 1.2, 1.3, 1.4, 1.5, 1.6, 1.7, 1.8, 1.9}
	scalarKernel{}.BaselineUpdate(baselineA, outgoing, incoming)
	avx2Kernel{}.BaselineUpdate(baselineB, outgoing, incoming)
	require.InDeltaSlice(t, baselineA, baselineB, 1e-9)
}

func TestInt8ToComplexScale(t *testing.T) {
	iq := []int8{127, -128, 0, 64}
	out := scalarKernel{}.Int8ToComplex(iq)
	require.Len(t, out, 2)
	require.InDelta(t, 127.0/128.0, float64(real(out[0])), 1e-6)
	require.InDelta(t, -1.0, float64(imag(out[0])), 1e-6)
	require.InDelta(t, 0.0, float64(real(out[1])), 1e-6)
	require.InDelta(t, 0.5, float64(imag(out[1])), 1e-6)
}
