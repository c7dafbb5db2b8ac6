package detector

import (
	"math"

	"github.com/n5dxb/iridium-ground/internal/dsp"
	"github.com/n5dxb/iridium-ground/internal/dsp/simd"
	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/queue"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Params configures a Detector. Zero-valued fields are resolved to the
// spec.md §4.B defaults by NewDetector.
type Params struct {
	SampleRate   float64
	CenterFreqHz float64
	FFTSize      int // 0 -> nearest power-of-two to sample_rate/1000
	ThresholdDB  float64
	HistorySize  int // 0 -> 512
	BurstWidthHz float64
	MaxBursts    int     // 0 -> 0.8 * sample_rate / burst_width
	MaxBurstLen  float64 // seconds, 0 -> 0.090
	PreLen       int     // samples, 0 -> 2*FFTSize
	PostLen      float64 // seconds, 0 -> 0.016
	RingSeconds  float64 // 0 -> 2
}

func nearestPow2(x float64) int {
	if x < 1 {
		return 1
	}
	lower := math.Pow(2, math.Floor(math.Log2(x)))
	upper := math.Pow(2, math.Ceil(math.Log2(x)))
	if x-lower <= upper-x {
		return int(lower)
	}
	return int(upper)
}

func resolve(p Params) Params {
	if p.FFTSize == 0 {
		p.FFTSize = nearestPow2(p.SampleRate / 1000)
	}
	if p.HistorySize == 0 {
		p.HistorySize = 512
	}
	if p.BurstWidthHz == 0 {
		p.BurstWidthHz = 40_000
	}
	if p.MaxBursts == 0 {
		p.MaxBursts = int(0.8 * p.SampleRate / p.BurstWidthHz)
	}
	if p.MaxBurstLen == 0 {
		p.MaxBurstLen = 0.090
	}
	if p.PreLen == 0 {
		p.PreLen = 2 * p.FFTSize
	}
	if p.PostLen == 0 {
		p.PostLen = 0.016
	}
	if p.RingSeconds == 0 {
		p.RingSeconds = 2
	}
	return p
}

// Detector is the burst tagger (spec.md §4.B). It owns one FFT plan and
// is driven entirely by one goroutine (Run); it holds no locks.
type Detector struct {
	p Params

	burstWidthBins int
	maxBurstLenN   int64
	postLenN       int64
	thresholdLin   float64

	window []float64
	mask   []float64
	ring   *RingBuffer
	noise  *NoiseFloor
	fft    *fourier.CmplxFFT
	kernel simd.Kernel

	active         []*activeBurst
	nextID         int64
	squelchCounter int

	pending  []complex64
	consumed int64

	ctx *pipectx.Context
}

// NewDetector builds a Detector ready to Run.
func NewDetector(ctx *pipectx.Context, params Params) *Detector {
	p := resolve(params)

	burstWidthBins := int(p.BurstWidthHz / (p.SampleRate / float64(p.FFTSize)))
	if burstWidthBins < 2 {
		burstWidthBins = 2
	}

	win := dsp.Blackman(p.FFTSize)
	for i := range win {
		win[i] *= 1 / 0.42
	}

	ringCapacity := int(p.MaxBurstLen*p.SampleRate) + p.PreLen + int(p.PostLen*p.SampleRate) + 4*p.FFTSize
	minCapacity := int(p.RingSeconds * p.SampleRate)
	if ringCapacity < minCapacity {
		ringCapacity = minCapacity
	}

	thresholdLin := math.Pow(10, p.ThresholdDB/10) / float64(p.HistorySize) / ENBW

	d := &Detector{
		p:              p,
		burstWidthBins: burstWidthBins,
		maxBurstLenN:   int64(p.MaxBurstLen * p.SampleRate),
		postLenN:       int64(p.PostLen * p.SampleRate),
		thresholdLin:   thresholdLin,
		window:         win,
		mask:           make([]float64, p.FFTSize),
		ring:           NewRingBuffer(ringCapacity),
		noise:          NewNoiseFloor(p.HistorySize, p.FFTSize),
		fft:            dsp.Global.NewComplexFFT(p.FFTSize),
		kernel:         simd.Default,
		ctx:            ctx,
	}
	for i := range d.mask {
		d.mask[i] = 1
	}
	return d
}

// Run consumes sample batches from in and emits completed bursts to out
// until in is closed and drained, at which point out is closed too
// (spec.md §5 cancellation).
func (d *Detector) Run(in *queue.Queue[SampleBatch], out *queue.Queue[BurstData]) {
	defer out.Close()
	for {
		batch, ok := in.Take()
		if !ok {
			return
		}
		d.ingest(batch, out)
	}
}

func (d *Detector) ingest(batch SampleBatch, out *queue.Queue[BurstData]) {
	d.ring.Write(batch.Samples)
	d.pending = append(d.pending, batch.Samples...)

	n := d.p.FFTSize
	for len(d.pending) >= n {
		frame := d.pending[:n]
		d.pending = append([]complex64(nil), d.pending[n:]...)
		d.processFrame(frame, out)
	}
}

func (d *Detector) processFrame(frame []complex64, out *queue.Queue[BurstData]) {
	n := d.p.FFTSize

	windowed := make([]complex64, n)
	copy(windowed, frame)
	d.kernel.WindowMultiply(windowed, d.window)

	coeffs := d.fft.Coefficients(nil, dsp.ToComplex128(windowed))

	magSq := make([]float64, n)
	d.kernel.FFTShiftMagSq(coeffs, magSq)

	d.consumed += int64(n)
	now := d.consumed

	relative := make([]float64, n)
	d.noise.RelativeMagnitude(magSq, relative)

	half := d.burstWidthBins / 2
	for _, b := range d.active {
		lo, hi := b.centerBin-1, b.centerBin+1
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		for bin := lo; bin <= hi; bin++ {
			if relative[bin] > d.thresholdLin {
				b.lastActive = now
				break
			}
		}
	}

	masked := make([]float64, n)
	applyMask(relative, d.mask, masked)

	peaks := findPeaks(masked, half, d.thresholdLin)

	forceRefresh := d.evict(now, out)

	d.mask = buildMask(n, half, d.active)

	openedThisFrame := make(map[int64]bool)
	for _, pk := range peaks {
		if !isUnmasked(d.mask, pk.bin) {
			continue
		}
		b := d.open(pk, now)
		openedThisFrame[b.id] = true
		maskNeighborhood(d.mask, b.centerBin, half)
	}

	if len(d.active) > d.p.MaxBursts {
		d.squelch(openedThisFrame)
	}

	if len(d.active) == 0 || forceRefresh {
		d.noise.Update(magSq)
	}
}

func (d *Detector) open(pk peak, now int64) *activeBurst {
	magnitudeDB := 10 * math.Log10(pk.relative*float64(d.p.HistorySize)*ENBW)
	baseline := d.noise.Baseline()[pk.bin]
	binWidth := d.p.SampleRate / float64(d.p.FFTSize)
	noiseDB := 10 * math.Log10(baseline/float64(d.p.HistorySize)/float64(d.p.FFTSize)/float64(d.p.FFTSize)/ENBW/binWidth)

	b := &activeBurst{
		id:         d.nextID,
		start:      now - int64(d.p.PreLen),
		lastActive: now - int64(d.p.PreLen),
		centerBin:  pk.bin,
		magnitude:  magnitudeDB,
		noise:      noiseDB,
	}
	d.nextID += 10
	d.active = append(d.active, b)
	return b
}

// evict removes bursts that have gone silent or exceeded max_burst_len,
// emitting a BurstData for each (spec.md §4.B steps 8 and 12).
func (d *Detector) evict(now int64, out *queue.Queue[BurstData]) bool {
	forceRefresh := false
	kept := d.active[:0]
	for _, b := range d.active {
		silent := b.lastActive+d.postLenN <= now
		tooLong := now-b.start > d.maxBurstLenN
		if !silent && !tooLong {
			kept = append(kept, b)
			continue
		}
		if tooLong {
			forceRefresh = true
		}
		d.emit(b, now, out)
	}
	d.active = kept
	return forceRefresh
}

func (d *Detector) emit(b *activeBurst, stop int64, out *queue.Queue[BurstData]) {
	extractStop := stop + int64(d.p.PreLen)
	samples := d.ring.Extract(b.start, extractStop)

	info := BurstInfo{
		ID:         b.id,
		Start:      b.start,
		Stop:       stop,
		LastActive: b.lastActive,
		CenterBin:  b.centerBin,
		Magnitude:  b.magnitude,
		Noise:      b.noise,
	}
	data := BurstData{
		Info:            info,
		CenterFreqHz:    d.p.CenterFreqHz,
		InputSampleRate: d.p.SampleRate,
		FFTSize:         d.p.FFTSize,
		WallClockNs:     int64(float64(b.start) / d.p.SampleRate * 1e9),
		Samples:         samples,
	}
	if !out.Add(data) {
		d.ctx.Stats.BurstsDropped.Add(1)
		return
	}
	d.ctx.Stats.BurstsDetected.Add(1)
}

// squelch implements spec.md §4.B step 11: evict every burst not opened
// this frame and bump the squelch counter; at 10 the counter wraps and
// the entire noise history is cleared.
func (d *Detector) squelch(openedThisFrame map[int64]bool) {
	kept := d.active[:0]
	for _, b := range d.active {
		if openedThisFrame[b.id] {
			kept = append(kept, b)
		}
	}
	d.active = kept

	d.squelchCounter += 3
	if d.squelchCounter >= 10 {
		d.squelchCounter = 0
		d.noise.Reset()
	}
}
