package simd

// scalarKernel is the portable reference implementation; every other
// kernel must produce bit-for-bit-equivalent results up to float rounding.
type scalarKernel struct{}

func (scalarKernel) Name() string { return "scalar" }

func (scalarKernel) Int8ToComplex(iq []int8) []complex64 {
	n := len(iq) / 2
	out := make([]complex64, n)
	const scale = 1.0 / 128.0
	for i := 0; i < n; i++ {
		re := float32(iq[2*i]) * scale
		im := float32(iq[2*i+1]) * scale
		out[i] = complex(re, im)
	}
	return out
}

func (scalarKernel) WindowMultiply(samples []complex64, window []float64) []complex64 {
	n := len(samples)
	if len(window) < n {
		n = len(window)
	}
	for i := 0; i < n; i++ {
		w := float32(window[i])
		samples[i] *= complex(w, 0)
	}
	return samples
}

func (scalarKernel) FFTShiftMagSq(spectrum []complex128, dst []float64) {
	n := len(spectrum)
	half := n / 2
	for i := 0; i < n; i++ {
		src := (i + half) % n
		v := spectrum[src]
		re, im := real(v), imag(v)
		dst[i] = re*re + im*im
	}
}

func (scalarKernel) BaselineUpdate(baseline []float64, outgoing, incoming []float64) {
	for i := range baseline {
		baseline[i] = baseline[i] - outgoing[i] + incoming[i]
	}
}

func (scalarKernel) RelativeMagnitude(mag, baseline []float64, dst []float64) {
	for i := range mag {
		if baseline[i] == 0 {
			dst[i] = 0
			continue
		}
		dst[i] = mag[i] / baseline[i]
	}
}

func (scalarKernel) MagSq(samples []complex64, dst []float64) {
	for i, s := range samples {
		re, im := float64(real(s)), float64(imag(s))
		dst[i] = re*re + im*im
	}
}

func (scalarKernel) Max(values []float64) (int, float64) {
	idx := 0
	val := values[0]
	for i, v := range values {
		if v > val {
			val = v
			idx = i
		}
	}
	return idx, val
}

func (scalarKernel) ComplexSquareWindow(samples []complex64, window []float64) []complex64 {
	n := len(window)
	out := make([]complex64, n)
	for i := 0; i < n && i < len(samples); i++ {
		s := samples[i]
		sq := s * s
		w := float32(window[i])
		out[i] = sq * complex(w, 0)
	}
	return out
}

func (scalarKernel) ComplexFIR(taps []float32, in []complex64) []complex64 {
	return scalarKernel{}.ComplexFIRDecimate(taps, in, 1)
}

func (scalarKernel) ComplexFIRDecimate(taps []float32, in []complex64, d int) []complex64 {
	n := len(taps)
	if len(in) < n || d < 1 {
		return nil
	}
	outLen := (len(in)-n)/d + 1
	out := make([]complex64, outLen)
	for o := 0; o < outLen; o++ {
		base := o * d
		var acc complex64
		for k := 0; k < n; k++ {
			acc += in[base+k] * complex(taps[k], 0)
		}
		out[o] = acc
	}
	return out
}

func (scalarKernel) RealFIR(taps []float32, in []float32) []float32 {
	n := len(taps)
	if len(in) < n {
		return nil
	}
	outLen := len(in) - n + 1
	out := make([]float32, outLen)
	for o := 0; o < outLen; o++ {
		var acc float32
		for k := 0; k < n; k++ {
			acc += in[o+k] * taps[k]
		}
		out[o] = acc
	}
	return out
}
