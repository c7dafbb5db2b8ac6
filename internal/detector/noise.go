package detector

import "github.com/n5dxb/iridium-ground/internal/dsp/simd"

// ENBW is the equivalent noise bandwidth of the Blackman window relative
// to a rectangular window of the same length (spec.md §4.B).
const ENBW = 1.72

// NoiseFloor is the circular history of the last H magnitude-squared
// spectra plus the incrementally-maintained running sum (spec.md §3
// "Noise floor model"). Entries are appended only when no burst is
// active, unless a long-burst evict forces a refresh.
type NoiseFloor struct {
	history     [][]float64
	baseline    []float64
	idx         int
	revolutions int
	primed      bool
	kernel      simd.Kernel
}

// NewNoiseFloor allocates an H-entry history of fftSize-wide spectra.
func NewNoiseFloor(h, fftSize int) *NoiseFloor {
	nf := &NoiseFloor{
		history:  make([][]float64, h),
		baseline: make([]float64, fftSize),
		kernel:   simd.Default,
	}
	for i := range nf.history {
		nf.history[i] = make([]float64, fftSize)
	}
	return nf
}

// Primed reports whether the history ring has completed one full
// revolution (spec.md: "detection is suppressed until then").
func (nf *NoiseFloor) Primed() bool {
	return nf.primed
}

// Baseline returns the live running-sum slice (read-only for callers).
func (nf *NoiseFloor) Baseline() []float64 {
	return nf.baseline
}

// Update appends magSq to the history ring, replacing the oldest entry and
// updating the running sum in place: sum <- sum - oldest + newest.
func (nf *NoiseFloor) Update(magSq []float64) {
	outgoing := nf.history[nf.idx]
	nf.kernel.BaselineUpdate(nf.baseline, outgoing, magSq)
	copy(nf.history[nf.idx], magSq)
	nf.idx = (nf.idx + 1) % len(nf.history)
	if !nf.primed {
		nf.revolutions++
		if nf.revolutions >= len(nf.history) {
			nf.primed = true
		}
	}
}

// RelativeMagnitude writes magSq[i]/baseline[i] into dst, 0 where the
// baseline is 0 — including, by construction, whenever the detector is
// not yet primed (spec.md Design Note: "this suppresses detection during
// the priming window; it is intentional").
func (nf *NoiseFloor) RelativeMagnitude(magSq []float64, dst []float64) {
	if !nf.primed {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	nf.kernel.RelativeMagnitude(magSq, nf.baseline, dst)
}

// Reset clears the entire noise history, treating the detector as
// unprimed again (spec.md §4.B step 11, squelch).
func (nf *NoiseFloor) Reset() {
	for _, h := range nf.history {
		for i := range h {
			h[i] = 0
		}
	}
	for i := range nf.baseline {
		nf.baseline[i] = 0
	}
	nf.idx = 0
	nf.revolutions = 0
	nf.primed = false
}

// SumHistory recomputes the baseline from scratch by summing every entry
// in the history ring. It exists for the §8 property test that the
// running baseline-sum equals the element-wise sum of the history ring.
func (nf *NoiseFloor) SumHistory() []float64 {
	sum := make([]float64, len(nf.baseline))
	for _, h := range nf.history {
		for i, v := range h {
			sum[i] += v
		}
	}
	return sum
}
