package dsp

import "github.com/n5dxb/iridium-ground/internal/dsp/simd"

// FIR holds a set of real filter taps, stored zero-padded to a multiple of
// eight (spec.md §4.E). The filter methods pass only the first realLen
// taps to the SIMD kernel set (internal/dsp/simd), whose loops handle any
// remainder themselves.
type FIR struct {
	taps    []float32 // zero-padded
	realLen int       // original, un-padded tap count
	kernel  simd.Kernel
}

const firPadTo = 8

// NewFIR builds a FIR from real-valued float64 taps (as produced by the
// tap generators in taps.go), converting and zero-padding them.
func NewFIR(taps []float64) *FIR {
	n := len(taps)
	padded := n
	if r := padded % firPadTo; r != 0 {
		padded += firPadTo - r
	}
	f := &FIR{taps: make([]float32, padded), realLen: n, kernel: simd.Default}
	for i, t := range taps {
		f.taps[i] = float32(t)
	}
	return f
}

// Len returns the original (un-padded) number of taps.
func (f *FIR) Len() int {
	return f.realLen
}

// FilterComplex convolves a complex sequence with the real taps, "valid"
// mode: output has len(in)-realLen+1 samples (or 0 if in is too short).
func (f *FIR) FilterComplex(in []complex64) []complex64 {
	return f.kernel.ComplexFIR(f.taps[:f.realLen], in)
}

// FilterComplexDecimate convolves and decimates by factor d in one pass
// (the downmix engine's anti-alias + decimate step, SPEC_FULL.md §4.C).
func (f *FIR) FilterComplexDecimate(in []complex64, d int) []complex64 {
	return f.kernel.ComplexFIRDecimate(f.taps[:f.realLen], in, d)
}

// FilterReal convolves a real sequence with the real taps, "valid" mode.
func (f *FIR) FilterReal(in []float32) []float32 {
	return f.kernel.RealFIR(f.taps[:f.realLen], in)
}

// GroupDelay returns the filter's group delay in samples ((N-1)/2 for a
// symmetric linear-phase FIR), used to advance the frame timestamp after
// decimation (SPEC_FULL.md §4.C step 2).
func (f *FIR) GroupDelay() float64 {
	return float64(f.realLen-1) / 2
}
