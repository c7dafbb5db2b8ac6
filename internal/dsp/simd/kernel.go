// Package simd provides the runtime-dispatched kernel set spec.md §4.E
// calls for: a scalar fallback always available, and an AVX2+FMA-shaped
// path selected on x86 hosts that report both CPU features. Dispatch
// happens once at package init via golang.org/x/sys/cpu — the same
// package the teacher (cwsl/ka9q_ubersdr) already depends on — never per
// call.
package simd

// Kernel is the full set of hot-loop primitives the burst detector and
// downmix engine call through Default, never branching on CPU features
// themselves.
type Kernel interface {
	Name() string

	// Int8ToComplex converts interleaved signed-byte IQ to complex64,
	// scaling by 1/128 (spec.md §4.A int8 path).
	Int8ToComplex(iq []int8) []complex64

	// WindowMultiply multiplies samples by a real window in place and
	// returns samples.
	WindowMultiply(samples []complex64, window []float64) []complex64

	// FFTShiftMagSq swaps the two halves of spectrum (fftshift) and
	// writes the per-bin magnitude squared into dst, which must be the
	// same length as spectrum (spec.md §4.B step 3).
	FFTShiftMagSq(spectrum []complex128, dst []float64)

	// BaselineUpdate implements the incremental running sum update
	// "sum <- sum - oldest + newest" in place over baseline.
	BaselineUpdate(baseline []float64, outgoing, incoming []float64)

	// RelativeMagnitude writes mag[i]/baseline[i] into dst, 0 where
	// baseline[i] is 0 (spec.md §4.B step 4, the zero-guard Design Note).
	RelativeMagnitude(mag, baseline []float64, dst []float64)

	// MagSq writes |samples[i]|^2 into dst.
	MagSq(samples []complex64, dst []float64)

	// Max returns the index and value of the largest element of values.
	Max(values []float64) (idx int, val float64)

	// ComplexSquareWindow squares each sample (removing QPSK symbol
	// phase) and multiplies by window, returning a new slice the length
	// of window (spec.md §4.C step 5, fine CFO estimation).
	ComplexSquareWindow(samples []complex64, window []float64) []complex64

	// ComplexFIR convolves a complex sequence with real taps, "valid"
	// mode: len(in)-len(taps)+1 output samples (0 if in is too short).
	ComplexFIR(taps []float32, in []complex64) []complex64

	// ComplexFIRDecimate convolves and decimates by d in one pass (spec.md
	// §4.E, the downmix engine's anti-alias + decimate step).
	ComplexFIRDecimate(taps []float32, in []complex64, d int) []complex64

	// RealFIR convolves a real sequence with real taps, "valid" mode.
	RealFIR(taps []float32, in []float32) []float32
}
