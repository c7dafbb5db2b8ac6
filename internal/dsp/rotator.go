package dsp

import "math/cmplx"

// Rotator is a unit-modulus complex phase driven forward by a fixed
// complex phase increment, re-normalized periodically to bound floating
// point drift (spec.md §4.E, §8 "rotator's phase magnitude remains within
// [1-eps, 1+eps]").
type Rotator struct {
	phase complex128
	incr  complex128
	steps int
	every int
}

// NewRotator builds a rotator starting at phase 1+0i, advancing by
// exp(j*2*pi*normalizedFreq) each Step, renormalizing every 'every' steps
// (every <= 0 selects the default of every 4096 steps).
func NewRotator(normalizedFreq float64, every int) *Rotator {
	if every <= 0 {
		every = 4096
	}
	return &Rotator{
		phase: 1,
		incr:  cmplx.Exp(complex(0, 2*3.141592653589793*normalizedFreq)),
		every: every,
	}
}

// Step returns the current phase and advances the rotator by one sample.
func (r *Rotator) Step() complex64 {
	cur := r.phase
	r.phase *= r.incr
	r.steps++
	if r.steps >= r.every {
		r.renormalize()
		r.steps = 0
	}
	return complex64(cur)
}

func (r *Rotator) renormalize() {
	mag := cmplx.Abs(r.phase)
	if mag == 0 {
		r.phase = 1
		return
	}
	r.phase /= complex(mag, 0)
}

// Rotate multiplies every sample in place by the rotator's successive
// phases, i.e. out[n] = in[n] * exp(j*2*pi*freq*n) continuing from the
// rotator's current phase.
func (r *Rotator) Rotate(samples []complex64) {
	for i, s := range samples {
		samples[i] = s * r.Step()
	}
}
