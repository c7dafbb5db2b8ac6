package symbol

import (
	"math"
	"testing"

	"github.com/n5dxb/iridium-ground/internal/downmix"
	"github.com/stretchr/testify/require"
)

func TestWrappedSymbolDiffReflection(t *testing.T) {
	require.Equal(t, 1, wrappedSymbolDiff(0, 3))
	require.Equal(t, 2, wrappedSymbolDiff(0, 2))
	require.Equal(t, 0, wrappedSymbolDiff(1, 1))
}

func TestHardUWCheckAcceptsExactDownlinkUW(t *testing.T) {
	symbols := append([]int(nil), downlinkUW...)
	dl, ul, ok := hardUWCheck(symbols)
	require.True(t, ok)
	require.Zero(t, dl)
	require.Greater(t, ul, 2)
}

func TestVerifyUniqueWordAcceptsAtDistanceTwo(t *testing.T) {
	symbols := append([]int(nil), downlinkUW...)
	symbols[0] = (symbols[0] + 2) % 4 // distance 2 from original

	errs := make([]float64, len(symbols))
	dir, ok := verifyUniqueWord(symbols, errs)
	require.True(t, ok)
	require.Equal(t, downmix.Downlink, dir)
}

func TestVerifyUniqueWordRejectsFarMismatch(t *testing.T) {
	symbols := make([]int, len(downlinkUW))
	for i := range symbols {
		symbols[i] = (downlinkUW[i] + 2) % 4
	}
	errs := make([]float64, len(symbols))
	for i := range errs {
		errs[i] = 45
	}
	_, ok := verifyUniqueWord(symbols, errs)
	require.False(t, ok)
}

func TestDifferentialDecodeRoundTrip(t *testing.T) {
	// Encoding is the inverse relation: given plaintext symbols p_i, the
	// transmitted s_i satisfies decode(s)_i = map[(s_i - s_{i-1}) mod 4].
	// Build s_i by inverting the map and accumulating, then check decode
	// recovers the original payload.
	invMap := map[int]int{0: 0, 2: 1, 3: 2, 1: 3}
	payload := []int{0, 1, 2, 3, 3, 2, 1, 0}

	s := make([]int, len(payload))
	prev := 0
	for i, p := range payload {
		d := invMap[p]
		s[i] = (prev + d) % 4
		prev = s[i]
	}

	decoded := differentialDecode(s)
	require.Equal(t, payload, decoded)
}

func TestSymbolsToBitsMSBFirst(t *testing.T) {
	bits := symbolsToBits([]int{0, 1, 2, 3})
	require.Equal(t, []byte{0, 0, 0, 1, 1, 0, 1, 1}, bits)
}

func TestHardDecideNearestQuadrant(t *testing.T) {
	for q, pt := range qpskConstellation {
		require.Equal(t, q, hardDecide(pt))
	}
}

func TestRunPLLLocksOntoCleanQPSKTone(t *testing.T) {
	syms := []int{0, 1, 2, 3, 0, 1, 2, 3, 0, 1, 2, 3}
	samples := make([]complex64, len(syms))
	for i, s := range syms {
		samples[i] = complex64(qpskConstellation[s])
	}
	res := runPLL(samples, 0.2)
	require.Equal(t, syms[:len(res.symbols)], res.symbols)
	require.Equal(t, 100, confidence(res.phaseErrDeg))
}

func TestCatmullRomInterpolatesThroughKnownPoints(t *testing.T) {
	p0, p1, p2, p3 := complex128(0), complex128(1), complex128(2), complex128(3)
	require.InDelta(t, real(p1), real(catmullRom(p0, p1, p2, p3, 0)), 1e-9)
	require.InDelta(t, real(p2), real(catmullRom(p0, p1, p2, p3, 1)), 1e-9)
}

func TestGardnerDecimateProducesOneSamplePerSymbol(t *testing.T) {
	sps := 10.0
	symbols := []int{0, 1, 2, 3, 0, 1, 2, 3}
	samples := make([]complex64, 0, len(symbols)*int(sps))
	for _, s := range symbols {
		for k := 0; k < int(sps); k++ {
			samples = append(samples, complex64(qpskConstellation[s]))
		}
	}
	out := gardnerDecimate(samples, sps, 0.02, 2e-4)
	require.InDelta(t, float64(len(symbols)), float64(len(out)), 2)
}

func TestAngularDiffDegWrapsCorrectly(t *testing.T) {
	require.InDelta(t, 0, angularDiffDeg(0, 0), 1e-9)
	require.InDelta(t, 10, angularDiffDeg(10*math.Pi/180, 0), 1e-6)
	require.InDelta(t, 170, angularDiffDeg(190*math.Pi/180, 0), 1e-6)
}

func TestProcessRejectsTooShortFrame(t *testing.T) {
	d := NewDemodulator(Params{})
	_, ok := d.Process(downmix.Frame{
		SamplesPerSym: 10,
		Samples:       make([]complex64, 5),
	})
	require.False(t, ok)
}
