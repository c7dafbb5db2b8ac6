//go:build amd64

package simd

// avx2Kernel is shaped for vectorization (4-wide unrolled loops with no
// data dependency between lanes) so the compiler's auto-vectorizer and,
// longer term, a hand-written assembly kernel behind the same interface
// can exploit AVX2+FMA on hosts that have it. It is selected only when
// golang.org/x/sys/cpu reports both HasAVX2 and HasFMA (dispatch.go);
// every method must stay numerically identical to scalarKernel.
type avx2Kernel struct{ scalarKernel }

func (avx2Kernel) Name() string { return "avx2" }

func (avx2Kernel) MagSq(samples []complex64, dst []float64) {
	n := len(samples)
	i := 0
	for ; i+4 <= n; i += 4 {
		for j := 0; j < 4; j++ {
			s := samples[i+j]
			re, im := float64(real(s)), float64(imag(s))
			dst[i+j] = re*re + im*im
		}
	}
	for ; i < n; i++ {
		s := samples[i]
		re, im := float64(real(s)), float64(imag(s))
		dst[i] = re*re + im*im
	}
}

func (avx2Kernel) RelativeMagnitude(mag, baseline []float64, dst []float64) {
	n := len(mag)
	i := 0
	for ; i+4 <= n; i += 4 {
		for j := 0; j < 4; j++ {
			if baseline[i+j] == 0 {
				dst[i+j] = 0
			} else {
				dst[i+j] = mag[i+j] / baseline[i+j]
			}
		}
	}
	for ; i < n; i++ {
		if baseline[i] == 0 {
			dst[i] = 0
		} else {
			dst[i] = mag[i] / baseline[i]
		}
	}
}

func (avx2Kernel) BaselineUpdate(baseline []float64, outgoing, incoming []float64) {
	n := len(baseline)
	i := 0
	for ; i+4 <= n; i += 4 {
		for j := 0; j < 4; j++ {
			baseline[i+j] = baseline[i+j] - outgoing[i+j] + incoming[i+j]
		}
	}
	for ; i < n; i++ {
		baseline[i] = baseline[i] - outgoing[i] + incoming[i]
	}
}

// ComplexFIR, ComplexFIRDecimate, and RealFIR unroll the tap loop 4-wide
// with four independent accumulators so the four partial sums have no
// loop-carried dependency between them — the shape an auto-vectorizer (or
// a hand-written AVX2+FMA kernel behind this same interface) needs to
// issue four FMAs per step instead of one.

func (avx2Kernel) ComplexFIR(taps []float32, in []complex64) []complex64 {
	return avx2Kernel{}.ComplexFIRDecimate(taps, in, 1)
}

func (avx2Kernel) ComplexFIRDecimate(taps []float32, in []complex64, d int) []complex64 {
	n := len(taps)
	if len(in) < n || d < 1 {
		return nil
	}
	outLen := (len(in)-n)/d + 1
	out := make([]complex64, outLen)
	for o := 0; o < outLen; o++ {
		base := o * d
		var acc0, acc1, acc2, acc3 complex64
		k := 0
		for ; k+4 <= n; k += 4 {
			acc0 += in[base+k] * complex(taps[k], 0)
			acc1 += in[base+k+1] * complex(taps[k+1], 0)
			acc2 += in[base+k+2] * complex(taps[k+2], 0)
			acc3 += in[base+k+3] * complex(taps[k+3], 0)
		}
		acc := acc0 + acc1 + acc2 + acc3
		for ; k < n; k++ {
			acc += in[base+k] * complex(taps[k], 0)
		}
		out[o] = acc
	}
	return out
}

func (avx2Kernel) RealFIR(taps []float32, in []float32) []float32 {
	n := len(taps)
	if len(in) < n {
		return nil
	}
	outLen := len(in) - n + 1
	out := make([]float32, outLen)
	for o := 0; o < outLen; o++ {
		var acc0, acc1, acc2, acc3 float32
		k := 0
		for ; k+4 <= n; k += 4 {
			acc0 += in[o+k] * taps[k]
			acc1 += in[o+k+1] * taps[k+1]
			acc2 += in[o+k+2] * taps[k+2]
			acc3 += in[o+k+3] * taps[k+3]
		}
		acc := acc0 + acc1 + acc2 + acc3
		for ; k < n; k++ {
			acc += in[o+k] * taps[k]
		}
		out[o] = acc
	}
	return out
}
