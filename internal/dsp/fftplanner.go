// Package dsp holds the shared DSP primitives used by the burst detector,
// downmix engine and symbol recovery: FIR filtering, tap generation, the
// rotator, windows and the FFT planner. All of it is CPU-bound except plan
// creation, which is serialized through Planner's mutex.
package dsp

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Planner serializes *fourier.CmplxFFT construction behind one process-wide
// mutex, mirroring the single shared resource spec.md's Design Notes call
// out: "plan creation and destruction are serialized by a single
// process-wide mutex; plan execution is lock-free". Every component that
// needs an FFT (the detector, each downmix worker) calls NewComplexFFT once
// at construction and keeps the result for its own exclusive use — plans
// are never shared across goroutines, so Coefficients/Sequence calls never
// take this lock.
type Planner struct {
	mu   sync.Mutex
	seen map[int]struct{}
}

// Global is the one process-wide planner instance.
var Global = &Planner{seen: make(map[int]struct{})}

// NewComplexFFT returns a fresh n-point complex-to-complex FFT plan and
// records n so Sizes can report it to the wisdom file.
func (p *Planner) NewComplexFFT(n int) *fourier.CmplxFFT {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[n] = struct{}{}
	return fourier.NewCmplxFFT(n)
}

// Sizes returns every plan size built so far, in no particular order.
// The wisdom file persists this list (spec.md §6); on the next start the
// pipeline reads it back and logs how many sizes it holds, and each
// component still builds its own plans as usual.
func (p *Planner) Sizes() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	sizes := make([]int, 0, len(p.seen))
	for n := range p.seen {
		sizes = append(sizes, n)
	}
	return sizes
}

// ToComplex128 widens a complex64 slice for use with gonum's FFT, which
// operates on complex128.
func ToComplex128(in []complex64) []complex128 {
	out := make([]complex128, len(in))
	for i, v := range in {
		out[i] = complex128(v)
	}
	return out
}

// ToComplex64 narrows a complex128 slice back to complex64.
func ToComplex64(in []complex128) []complex64 {
	out := make([]complex64, len(in))
	for i, v := range in {
		out[i] = complex64(v)
	}
	return out
}
