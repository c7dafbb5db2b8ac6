package downmix

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Iridium protocol constants (spec.md §6).
const (
	SymbolRate = 25000.0
	UWLen      = 12
)

// DownlinkUW and UplinkUW are the two unique-word symbol sequences
// (spec.md §6). Symbol values are QPSK quadrant indices 0..3.
var (
	DownlinkUW = []int{0, 2, 2, 2, 2, 0, 0, 0, 2, 0, 0, 2}
	UplinkUW   = []int{2, 2, 0, 0, 0, 2, 0, 0, 2, 0, 2, 2}
)

const (
	downlinkPreambleSymbols = 16
	uplinkPreambleSymbols   = 32
	// s0/s1 are the two constellation points the preamble alternates
	// between; DownlinkUW and UplinkUW only ever use quadrants 0 and 2,
	// so the preamble is built from the same two points.
	s0 = 0
	s1 = 2
)

// constellationPoint returns the unit-magnitude QPSK point for quadrant
// sym (0..3), at 45 + 90*sym degrees.
func constellationPoint(sym int) complex128 {
	angle := math.Pi/4 + float64(sym)*math.Pi/2
	return cmplx.Exp(complex(0, angle))
}

func preambleSymbols(dir Direction) []int {
	if dir == Downlink {
		syms := make([]int, downlinkPreambleSymbols)
		for i := range syms {
			syms[i] = s0
		}
		return syms
	}
	syms := make([]int, uplinkPreambleSymbols)
	for i := range syms {
		if i%2 == 0 {
			syms[i] = s1
		} else {
			syms[i] = s0
		}
	}
	return syms
}

func templateSymbols(dir Direction) []int {
	uw := DownlinkUW
	if dir == Uplink {
		uw = UplinkUW
	}
	syms := append(append([]int(nil), preambleSymbols(dir)...), uw...)
	return syms
}

// pulseShape upsamples symbols to sps-spaced impulses and convolves with
// the RC taps, producing the continuous-time template waveform (spec.md
// §4.C step 8: "passed through an RC pulse shaper").
func pulseShape(symbols []int, sps int, rcTaps []float64) []complex64 {
	impulses := make([]complex64, len(symbols)*sps)
	for i, sym := range symbols {
		impulses[i*sps] = complex64(constellationPoint(sym))
	}

	n := len(rcTaps)
	outLen := len(impulses) + n - 1
	out := make([]complex64, outLen)
	for i, imp := range impulses {
		if imp == 0 {
			continue
		}
		for k := 0; k < n; k++ {
			out[i+k] += imp * complex(float32(rcTaps[k]), 0)
		}
	}
	return out
}

// timeReverseConjugate reverses sample order and conjugates each value,
// so that correlation-by-convolution (spec.md §4.C step 8) reduces to a
// plain FFT multiply against the candidate frame's spectrum.
func timeReverseConjugate(w []complex64) []complex64 {
	n := len(w)
	out := make([]complex64, n)
	for i, v := range w {
		out[n-1-i] = complex64(cmplx.Conj(complex128(v)))
	}
	return out
}

// syncTemplate is one precomputed direction's correlation kernel.
type syncTemplate struct {
	dir             Direction
	preambleSymbols int
	waveformLen     int
	fftSize         int
	spectrum        []complex128
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// buildTemplate precomputes the FFT of the time-reversed, conjugated,
// pulse-shaped preamble+UW waveform for one direction, padded to fftSize.
func buildTemplate(dir Direction, sps int, rcTaps []float64, fftSize int, plan *fourier.CmplxFFT) syncTemplate {
	syms := templateSymbols(dir)
	shaped := pulseShape(syms, sps, rcTaps)
	kernel := timeReverseConjugate(shaped)

	padded := make([]complex128, fftSize)
	for i, v := range kernel {
		if i >= fftSize {
			break
		}
		padded[i] = complex128(v)
	}

	spectrum := plan.Coefficients(nil, padded)
	return syncTemplate{
		dir:             dir,
		preambleSymbols: numPreambleSymbols(dir),
		waveformLen:     len(shaped),
		fftSize:         fftSize,
		spectrum:        spectrum,
	}
}

func numPreambleSymbols(dir Direction) int {
	if dir == Downlink {
		return downlinkPreambleSymbols
	}
	return uplinkPreambleSymbols
}

// correlate runs the candidate frame (already zero-padded to t.fftSize)
// through this template's spectrum and returns the correlation in the
// time domain (spec.md §4.C step 8).
func (t syncTemplate) correlate(candidateSpectrum []complex128, plan *fourier.CmplxFFT) []complex128 {
	product := make([]complex128, t.fftSize)
	for i := range product {
		product[i] = candidateSpectrum[i] * t.spectrum[i]
	}
	return plan.Sequence(nil, product)
}

// quadraticInterp refines a discrete peak index using a 3-point parabolic
// fit over (y[-1], y[0], y[+1]) and returns the fractional offset from
// idx (spec.md §4.C step 5 and step 8).
func quadraticInterp(yLeft, yCenter, yRight float64) float64 {
	denom := yLeft - 2*yCenter + yRight
	if denom == 0 {
		return 0
	}
	return 0.5 * (yLeft - yRight) / denom
}
