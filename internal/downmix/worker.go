package downmix

import (
	"math"

	"github.com/n5dxb/iridium-ground/internal/detector"
	"github.com/n5dxb/iridium-ground/internal/dsp"
	"github.com/n5dxb/iridium-ground/internal/dsp/simd"
	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/queue"
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	simplexCenterFreqHz = 1_626_000_000
	noiseLimitBandHz    = 40_000
	rrcAlpha            = 0.4
	rrcTaps             = 51
	corrSearchLen       = 4096
)

// Worker runs the nine-step downmix pipeline (spec.md §4.C) on one burst
// at a time. It is stateless across calls and must not be shared between
// goroutines — each pipeline worker goroutine owns its own Worker value
// and its own FFT plans (spec.md §5).
type Worker struct {
	p   Params
	sps int

	decimateLPF   *dsp.FIR
	decimFactor   int
	noiseLimitLPF *dsp.FIR
	rrc           *dsp.FIR
	rcTaps        []float64
	corrFFTSize   int
	corrPlan      *fourier.CmplxFFT
	downlinkTmpl  syncTemplate
	uplinkTmpl    syncTemplate
	fineCFOPlans  map[int]*fourier.CmplxFFT
	kernel        simd.Kernel
}

// NewWorker builds a Worker with its own plans and precomputed templates.
func NewWorker(params Params) *Worker {
	p := resolve(params)
	sps := int(math.Round(p.OutputSampleRate / 25000))
	if sps < 2 {
		sps = 2
	}

	rcTaps := dsp.RC(rrcAlpha, rrcTaps, float64(sps))
	corrFFTSize := nextPow2(corrSearchLen + uplinkPreambleSymbols*sps + UWLen*sps + rrcTaps)
	corrPlan := dsp.Global.NewComplexFFT(corrFFTSize)

	decimFactor := int(math.Round(p.InputSampleRate / p.OutputSampleRate))
	if decimFactor < 1 {
		decimFactor = 1
	}

	w := &Worker{
		p:             p,
		sps:           sps,
		decimateLPF:   dsp.NewFIR(dsp.LowpassSinc(0.4*p.OutputSampleRate, 0.2*p.OutputSampleRate, p.InputSampleRate)),
		decimFactor:   decimFactor,
		noiseLimitLPF: dsp.NewFIR(dsp.LowpassSinc(noiseLimitBandHz/2, noiseLimitBandHz/5, p.OutputSampleRate)),
		rrc:           dsp.NewFIR(dsp.RRC(rrcAlpha, rrcTaps, float64(sps))),
		rcTaps:        rcTaps,
		corrFFTSize:   corrFFTSize,
		corrPlan:      corrPlan,
		downlinkTmpl:  buildTemplate(Downlink, sps, rcTaps, corrFFTSize, corrPlan),
		uplinkTmpl:    buildTemplate(Uplink, sps, rcTaps, corrFFTSize, corrPlan),
		fineCFOPlans:  make(map[int]*fourier.CmplxFFT),
		kernel:        simd.Default,
	}
	return w
}

// Run takes BurstData from in and emits at most one Frame per burst to
// out, dropping rejected bursts silently (spec.md §4.C, §7 error kind 3).
// It returns once in is closed and drained, leaving out open: several
// workers share out, and the caller closes it after all of them return.
func (w *Worker) Run(ctx *pipectx.Context, in *queue.Queue[detector.BurstData], out *queue.Queue[Frame]) {
	for {
		burst, ok := in.Take()
		if !ok {
			return
		}
		frame, accepted := w.Process(burst)
		if !accepted {
			continue
		}
		ctx.Stats.FramesDownmixed.Add(1)
		if !out.Put(frame) {
			return
		}
	}
}

// Process runs the nine downmix steps on one burst.
func (w *Worker) Process(burst detector.BurstData) (Frame, bool) {
	inputRate := burst.InputSampleRate
	fftSize := burst.FFTSize
	centerFreq := burst.CenterFreqHz
	timestampNs := burst.WallClockNs

	// Step 1: coarse CFO.
	rel := (float64(burst.Info.CenterBin) - float64(fftSize)/2) / float64(fftSize)
	samples := make([]complex64, len(burst.Samples))
	copy(samples, burst.Samples)
	dsp.NewRotator(-rel, 0).Rotate(samples)
	centerFreq += rel * inputRate

	// Step 2: anti-alias + decimate.
	decimated := w.decimateLPF.FilterComplexDecimate(samples, w.decimFactor)
	if len(decimated) == 0 {
		return Frame{}, false
	}
	groupDelaySec := w.decimateLPF.GroupDelay() / inputRate
	timestampNs += int64(groupDelaySec * 1e9)

	// Step 3: noise-limiting LPF (skip if too short).
	if len(decimated) > w.noiseLimitLPF.Len() {
		decimated = w.noiseLimitLPF.FilterComplex(decimated)
	}
	if len(decimated) == 0 {
		return Frame{}, false
	}

	// Step 4: find burst start.
	startIdx, ok := w.findBurstStart(decimated)
	if !ok {
		return Frame{}, false
	}
	if len(decimated)-startIdx < 100 {
		return Frame{}, false
	}
	postStart := decimated[startIdx:]

	// Step 5: fine CFO estimate.
	offset := w.estimateFineCFO(postStart)

	// Step 6: fine CFO correction.
	corrected := make([]complex64, len(postStart))
	copy(corrected, postStart)
	dsp.NewRotator(-offset, 0).Rotate(corrected)
	centerFreq += offset * w.p.OutputSampleRate

	// Step 7: RRC matched filter.
	matched := w.rrc.FilterComplex(corrected)
	if len(matched) == 0 {
		return Frame{}, false
	}

	// Step 8: sync-word correlation.
	peakIdx, peakVal, dir, preambleLen, timingCorr, ok := w.correlateSync(matched)
	if !ok {
		return Frame{}, false
	}
	preambleStart := peakIdx - preambleLen*w.sps - UWLen*w.sps + 1
	uwStart := preambleStart + preambleLen*w.sps

	// Step 9: phase alignment.
	aligned := phaseAlign(matched, peakVal)

	if uwStart < 0 || uwStart >= len(aligned) {
		return Frame{}, false
	}
	fromUW := aligned[uwStart:]

	minLen, maxLen := frameLengthGate(dir, centerFreq, w.sps)
	if len(fromUW) < minLen {
		return Frame{}, false
	}
	if len(fromUW) > maxLen {
		fromUW = fromUW[:maxLen]
	}

	return Frame{
		ID:            burst.Info.ID,
		TimestampNs:   timestampNs,
		CenterFreqHz:  centerFreq,
		OutputRate:    w.p.OutputSampleRate,
		SamplesPerSym: float64(w.sps),
		Direction:     dir,
		Magnitude:     burst.Info.Magnitude,
		Noise:         burst.Info.Noise,
		TimingCorr:    timingCorr,
		Samples:       append([]complex64(nil), fromUW...),
	}, true
}

// findBurstStart implements spec.md §4.C step 4.
func (w *Worker) findBurstStart(samples []complex64) (int, bool) {
	magSq := make([]float64, len(samples))
	w.kernel.MagSq(samples, magSq)

	boxLen := dsp.OddAtLeast3(2 * w.sps)
	half := boxLen / 2
	box := dsp.Box(boxLen)
	smoothed := dsp.NewFIR(box).FilterReal(toFloat32(magSq))

	window := len(smoothed)
	if window > w.p.SearchDepth {
		window = w.p.SearchDepth
	}
	if window == 0 {
		return 0, false
	}
	_, maxVal := w.kernel.Max(toFloat64(smoothed[:window]))
	threshold := 0.28 * maxVal

	preStartSamples := int(w.p.PreStartUs * w.p.OutputSampleRate / 1e6)
	for i := 0; i < window; i++ {
		if float64(smoothed[i]) > threshold {
			idx := i - preStartSamples + half
			if idx < 0 {
				idx = 0
			}
			return idx, true
		}
	}
	return 0, false
}

// estimateFineCFO implements spec.md §4.C step 5.
func (w *Worker) estimateFineCFO(samples []complex64) float64 {
	winLen := floorPow2(26 * w.sps)
	if winLen > len(samples) {
		winLen = floorPow2(len(samples))
	}
	if winLen < 2 {
		return 0
	}
	window := dsp.Blackman(winLen)
	squared := w.kernel.ComplexSquareWindow(samples, window)

	n := winLen * 16
	padded := make([]complex128, n)
	for i, v := range squared {
		padded[i] = complex128(v)
	}

	plan := w.plan(n)
	coeffs := plan.Coefficients(nil, padded)

	mag := make([]float64, n)
	shifted := make([]complex128, n)
	half := n / 2
	for i := 0; i < n; i++ {
		shifted[i] = coeffs[(i+half)%n]
		re, im := real(shifted[i]), imag(shifted[i])
		mag[i] = re*re + im*im
	}
	peakIdx, _ := w.kernel.Max(mag)

	left, right := peakIdx-1, peakIdx+1
	if left < 0 {
		left = 0
	}
	if right >= n {
		right = n - 1
	}
	delta := quadraticInterp(mag[left], mag[peakIdx], mag[right])

	normBin := float64(peakIdx-half) + delta
	return normBin / float64(n) / 2
}

func (w *Worker) plan(n int) *fourier.CmplxFFT {
	if p, ok := w.fineCFOPlans[n]; ok {
		return p
	}
	p := dsp.Global.NewComplexFFT(n)
	w.fineCFOPlans[n] = p
	return p
}

// correlateSync implements spec.md §4.C step 8. The returned timingCorr is
// the fractional sub-sample offset of the true correlation peak from
// peakIdx, found by quadratic interpolation of the three magnitudes
// around it (the same treatment step 5 applies to the fine-CFO peak).
func (w *Worker) correlateSync(samples []complex64) (peakIdx int, peakVal complex128, dir Direction, preambleLen int, timingCorr float64, ok bool) {
	padded := make([]complex128, w.corrFFTSize)
	for i, v := range samples {
		if i >= w.corrFFTSize {
			break
		}
		padded[i] = complex128(v)
	}
	spectrum := w.corrPlan.Coefficients(nil, padded)

	dlCorr := w.downlinkTmpl.correlate(spectrum, w.corrPlan)
	ulCorr := w.uplinkTmpl.correlate(spectrum, w.corrPlan)

	searchLen := corrSearchLen
	if searchLen > len(dlCorr) {
		searchLen = len(dlCorr)
	}

	dlIdx, dlMag := peakMagnitude(dlCorr[:searchLen])
	ulIdx, ulMag := peakMagnitude(ulCorr[:searchLen])

	if dlMag == 0 && ulMag == 0 {
		return 0, 0, Downlink, 0, 0, false
	}

	if dlMag >= ulMag {
		return dlIdx, dlCorr[dlIdx], Downlink, downlinkPreambleSymbols, subSampleOffset(dlCorr, dlIdx), true
	}
	return ulIdx, ulCorr[ulIdx], Uplink, uplinkPreambleSymbols, subSampleOffset(ulCorr, ulIdx), true
}

func peakMagnitude(corr []complex128) (int, float64) {
	idx := 0
	max := 0.0
	for i, v := range corr {
		m := real(v)*real(v) + imag(v)*imag(v)
		if m > max {
			max = m
			idx = i
		}
	}
	return idx, max
}

// subSampleOffset refines idx (the integer correlation peak) to a
// fractional sample offset via quadratic interpolation of the magnitudes
// at idx-1, idx, idx+1, clamped at the array edges.
func subSampleOffset(corr []complex128, idx int) float64 {
	left, right := idx-1, idx+1
	if left < 0 {
		left = 0
	}
	if right >= len(corr) {
		right = len(corr) - 1
	}
	magAt := func(i int) float64 {
		v := corr[i]
		return real(v)*real(v) + imag(v)*imag(v)
	}
	return quadraticInterp(magAt(left), magAt(idx), magAt(right))
}

// phaseAlign implements spec.md §4.C step 9.
func phaseAlign(samples []complex64, c complex128) []complex64 {
	mag := absComplex(c)
	if mag == 0 {
		return samples
	}
	rot := complex64(conj128(c) / complex(mag, 0))
	out := make([]complex64, len(samples))
	for i, s := range samples {
		out[i] = s * rot
	}
	return out
}

func absComplex(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func conj128(c complex128) complex128 {
	return complex(real(c), -imag(c))
}

// frameLengthGate implements spec.md §6 frame-length gates: normal
// 131-191 symbols, simplex (center > 1.626 GHz) 80-444 symbols.
func frameLengthGate(dir Direction, centerFreqHz float64, sps int) (minLen, maxLen int) {
	_ = dir
	if centerFreqHz > simplexCenterFreqHz {
		return 80 * sps, 444 * sps
	}
	return 131 * sps, 191 * sps
}

func floorPow2(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
