// Package downmix implements the per-burst downmix pipeline (spec.md
// §4.C): coarse CFO, anti-alias decimation, burst-start search, fine CFO
// via squared-signal FFT, RRC matched filtering, FFT-based sync-word
// correlation and phase alignment. The engine holds no state across
// bursts; each worker is a value replicated N times and owns its own FFT
// plans and buffers (spec.md §5).
package downmix

import "github.com/n5dxb/iridium-ground/internal/detector"

// Direction distinguishes the two Iridium link directions the sync-word
// correlation disambiguates (spec.md §6).
type Direction int

const (
	Downlink Direction = iota
	Uplink
)

func (d Direction) String() string {
	if d == Uplink {
		return "UL"
	}
	return "DL"
}

// Frame is a burst that survived every downmix gate, aligned to the
// unique word (spec.md §3 "DownmixFrame").
type Frame struct {
	ID            int64
	TimestampNs   int64
	CenterFreqHz  float64
	OutputRate    float64
	SamplesPerSym float64
	Direction     Direction
	Magnitude     float64
	Noise         float64
	TimingCorr    float64 // fractional sub-sample timing correction
	Samples       []complex64
}

// Params configures a Worker. Zero-valued fields resolve to spec.md §4.C
// defaults.
type Params struct {
	InputSampleRate  float64 // 0 -> 1_000_000, must match the detector's sample rate
	OutputSampleRate float64 // 0 -> 250_000
	SearchDepth      int     // 0 -> 1<<20
	PreStartUs       float64 // 0 -> 100
}

func resolve(p Params) Params {
	if p.InputSampleRate == 0 {
		p.InputSampleRate = 1_000_000
	}
	if p.OutputSampleRate == 0 {
		p.OutputSampleRate = 250_000
	}
	if p.SearchDepth == 0 {
		p.SearchDepth = 1 << 20
	}
	if p.PreStartUs == 0 {
		p.PreStartUs = 100
	}
	return p
}

// rejectReason is used only for internal logging (spec.md §7 error kind 3:
// per-burst rejection is silent and carries no counter).
type rejectReason string

const (
	reasonTooShortAfterDecimate rejectReason = "too short after decimation"
	reasonStartNotFound         rejectReason = "burst start not found"
	reasonTooShortAfterStart    rejectReason = "remaining run shorter than 100 samples"
	reasonNoCorrelation         rejectReason = "sync correlation below floor"
	reasonFrameLenGate          rejectReason = "frame length outside gate"
)

// burstInfoCompat is an alias for the detector's public BurstData type,
// the only detector type the downmixer consumes.
type burstInfoCompat = detector.BurstData
