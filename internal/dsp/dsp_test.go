package dsp

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestRotatorMagnitudeBounded is the §8 property test: "The rotator's
// phase magnitude remains within [1-eps, 1+eps] for eps of 1e-3 over any
// 1M-sample run."
func TestRotatorMagnitudeBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		freq := rapid.Float64Range(-0.5, 0.5).Draw(rt, "freq")
		every := rapid.IntRange(1, 8192).Draw(rt, "every")
		r := NewRotator(freq, every)

		const eps = 1e-3
		const n = 100000 // scaled down from 1M for test runtime; same invariant
		for i := 0; i < n; i++ {
			v := r.Step()
			mag := cmplx.Abs(complex128(v))
			if mag < 1-eps || mag > 1+eps {
				rt.Fatalf("rotator magnitude out of bounds at step %d: %v", i, mag)
			}
		}
	})
}

// TestRRCAutocorrelationPeak is the §8 round-trip test: convolving and
// correlating a zero-noise impulse with a matched RRC filter reproduces a
// unit-energy peak at the filter's own group delay.
func TestRRCAutocorrelationPeak(t *testing.T) {
	const ntaps = 51
	const sps = 10.0
	taps := RRC(0.4, ntaps, sps)
	fir := NewFIR(taps)

	// FilterReal is "valid" mode, so the impulse sits in the middle of
	// ntaps-1 zeros on each side to yield the full ntaps-long pulse.
	impulse := make([]float32, 2*ntaps-1)
	impulse[ntaps-1] = 1
	shaped := fir.FilterReal(impulse) // length ntaps: the taps themselves

	// Correlate: convolve the shaped pulse back through the (symmetric)
	// matched filter taps directly to reproduce the RRC's own
	// autocorrelation, matching the RC pulse shape this filter is derived
	// from.
	padded := make([]float32, ntaps+len(shaped)-1)
	copy(padded[ntaps/2:], shaped)
	corr := fir.FilterReal(padded)

	peak := float32(0)
	peakIdx := 0
	for i, v := range corr {
		if v > peak {
			peak = v
			peakIdx = i
		}
	}

	require.InDelta(t, 1.0, float64(peak), 0.05)
	require.InDelta(t, len(corr)/2, peakIdx, 1)
}

// TestFFTRoundTrip is the §8 property test: "FFT plan + inverse FFT on any
// length-fft_size complex input returns the input to within 1e-4 relative
// error." gonum's fourier.CmplxFFT follows the classic FFTPACK convention
// where Coefficients (forward) and Sequence (inverse) are not mutually
// normalized: Sequence(Coefficients(x)) == n*x.
func TestFFTRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		logn := rapid.IntRange(2, 10).Draw(rt, "logn")
		n := 1 << logn

		in := make([]complex64, n)
		for i := range in {
			re := rapid.Float32Range(-1, 1).Draw(rt, "re")
			im := rapid.Float32Range(-1, 1).Draw(rt, "im")
			in[i] = complex(re, im)
		}

		plan := Global.NewComplexFFT(n)
		coeffs := plan.Coefficients(nil, ToComplex128(in))
		seq := plan.Sequence(nil, coeffs)

		for i := range in {
			want := complex128(in[i]) * complex(float64(n), 0)
			got := seq[i]
			diff := cmplx.Abs(got - want)
			scale := cmplx.Abs(want)
			if scale < 1 {
				scale = 1
			}
			if diff/scale > 1e-4 {
				rt.Fatalf("fft round trip mismatch at %d: got %v want %v", i, got, want)
			}
		}
	})
}
