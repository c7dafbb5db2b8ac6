package dsp

import "math"

// Blackman returns an n-point Blackman window, un-normalized (peak == 1 at
// the window's own maximum before any additional scaling).
func Blackman(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	a0, a1, a2 := 0.42, 0.5, 0.08
	nm1 := float64(n - 1)
	for i := range w {
		x := 2 * math.Pi * float64(i) / nm1
		w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
	}
	return w
}

// BlackmanHarris returns an n-point 4-term Blackman-Harris window, used by
// LowpassSinc for the anti-alias/decimation and noise-limiting low-pass
// filters (SPEC_FULL.md §4.C). The fine-CFO tone search uses Blackman.
func BlackmanHarris(n int) []float64 {
	w := make([]float64, n)
	const (
		a0 = 0.35875
		a1 = 0.48829
		a2 = 0.14128
		a3 = 0.01168
	)
	nm1 := float64(n - 1)
	for i := range w {
		x := 2 * math.Pi * float64(i) / nm1
		w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x) - a3*math.Cos(3*x)
	}
	return w
}
