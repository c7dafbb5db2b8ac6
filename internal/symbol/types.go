// Package symbol implements symbol recovery (spec.md §4.D): Gardner
// timing recovery with cubic interpolation, a first-order PLL, hard-decision
// QPSK, dual-direction unique-word verification with soft rescue, and
// differential decode to a packed bit sequence.
package symbol

import "github.com/n5dxb/iridium-ground/internal/downmix"

// DemodFrame is the terminal artifact of the pipeline (spec.md §3).
type DemodFrame struct {
	ID             int64
	TimestampNs    int64
	CenterFreqHz   float64
	Direction      downmix.Direction
	Magnitude      float64
	Noise          float64
	ConfidencePct  int
	Level          float64
	SymbolCount    int
	PayloadSymbols int
	Bits           []byte // one byte per bit, value 0 or 1
}

// DecimationMode selects how a DownmixFrame is decimated to one sample
// per symbol (spec.md §4.D).
type DecimationMode int

const (
	// GardnerTED is the default: fractional timing recovery with a PI
	// loop filter and Catmull-Rom cubic interpolation.
	GardnerTED DecimationMode = iota
	// NearestNeighbor picks every round(sps)'th sample, no timing loop.
	NearestNeighbor
)

// Params configures the demodulator. Zero-valued fields resolve to
// spec.md §4.D defaults.
type Params struct {
	Decimation DecimationMode
	GardnerKp  float64
	GardnerKi  float64
	PLLAlpha   float64
}

func resolveParams(p Params) Params {
	if p.GardnerKp == 0 {
		p.GardnerKp = 0.02
	}
	if p.GardnerKi == 0 {
		p.GardnerKi = 2e-4
	}
	if p.PLLAlpha == 0 {
		p.PLLAlpha = 0.2
	}
	return p
}
