package symbol

import (
	"math"

	"github.com/n5dxb/iridium-ground/internal/downmix"
	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/queue"
)

const symbolRate = 25000.0

// Demodulator runs one DownmixFrame through symbol recovery at a time.
// It is stateless across frames.
type Demodulator struct {
	p Params
}

// NewDemodulator builds a Demodulator with resolved defaults.
func NewDemodulator(params Params) *Demodulator {
	return &Demodulator{p: resolveParams(params)}
}

// Run takes Frames from in and emits DemodFrames to out, dropping
// rejected frames silently (spec.md §4.D, §7 error kind 3).
func (d *Demodulator) Run(ctx *pipectx.Context, in *queue.Queue[downmix.Frame], out *queue.Queue[DemodFrame]) {
	for {
		frame, ok := in.Take()
		if !ok {
			out.Close()
			return
		}
		demod, accepted := d.Process(frame)
		if !accepted {
			continue
		}
		ctx.Stats.FramesDemodulated.Add(1)
		if !out.Put(demod) {
			return
		}
	}
}

// Process runs decimation, PLL tracking, unique-word verification and
// differential decode on one DownmixFrame.
func (d *Demodulator) Process(frame downmix.Frame) (DemodFrame, bool) {
	sps := frame.SamplesPerSym
	if sps <= 0 {
		sps = frame.OutputRate / symbolRate
	}

	onTime := decimate(d.p.Decimation, frame.Samples, sps, d.p.GardnerKp, d.p.GardnerKi)
	if len(onTime) < 12 {
		return DemodFrame{}, false
	}

	pll := runPLL(onTime, d.p.PLLAlpha)
	if len(pll.symbols) < 12 {
		return DemodFrame{}, false
	}

	dir, ok := verifyUniqueWord(pll.symbols, pll.phaseErrDeg)
	if !ok {
		return DemodFrame{}, false
	}

	decoded := differentialDecode(pll.symbols)
	bits := symbolsToBits(decoded)
	payloadSymbols := len(pll.symbols) - len(downlinkUW)

	nSym := len(pll.symbols)
	refinedFreq := frame.CenterFreqHz
	if nSym > 0 {
		refinedFreq += pll.totalPhase / (float64(nSym) / symbolRate) / (2 * math.Pi)
	}

	return DemodFrame{
		ID:             frame.ID,
		TimestampNs:    frame.TimestampNs,
		CenterFreqHz:   refinedFreq,
		Direction:      dir,
		Magnitude:      frame.Magnitude,
		Noise:          frame.Noise,
		ConfidencePct:  confidence(pll.phaseErrDeg),
		Level:          pll.level,
		SymbolCount:    nSym,
		PayloadSymbols: payloadSymbols,
		Bits:           bits,
	}, true
}
