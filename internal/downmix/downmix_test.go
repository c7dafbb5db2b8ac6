package downmix

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/n5dxb/iridium-ground/internal/detector"
	"github.com/stretchr/testify/require"
)

// syntheticBurst builds a noise-free downlink burst: silence, then the
// standard preamble+UW waveform, then a repeating 0,1,2,3 run of payload
// symbols, pulse-shaped
// and upsampled to inputRate, with a small residual CFO and a time offset —
// the §8 "synthetic downlink frame" scenario.
func syntheticBurst(t *testing.T, inputRate, outputRate float64, cfoHz float64, payloadSymbols int) detector.BurstData {
	t.Helper()
	sps := int(math.Round(outputRate / SymbolRate))

	syms := append(append([]int(nil), templateSymbols(Downlink)...))
	for i := 0; i < payloadSymbols; i++ {
		syms = append(syms, i%4)
	}

	rc := []float64{}
	{
		// Same alpha/ntaps/sps the Worker builds its filters from. This
		// is an RC pulse, the shape of the Worker's sync templates, so
		// after the Worker's RRC matched filter the end-to-end response
		// is RC followed by RRC rather than exactly one RC.
		n := rrcTaps
		alpha := rrcAlpha
		center := float64(n-1) / 2
		rc = make([]float64, n)
		for i := 0; i < n; i++ {
			tt := (float64(i) - center) / float64(sps)
			switch {
			case alpha != 0 && math.Abs(math.Abs(2*alpha*tt)-1) < 1e-9:
				rc[i] = (math.Pi / 4) * sincLocal(1/(2*alpha))
			default:
				rc[i] = sincLocal(tt) * math.Cos(math.Pi*alpha*tt) / (1 - math.Pow(2*alpha*tt, 2))
			}
		}
	}

	shaped := pulseShape(syms, sps, rc)

	lead := make([]complex64, 500)
	baseband := append(lead, shaped...)
	baseband = append(baseband, make([]complex64, 500)...)

	upFactor := int(math.Round(inputRate / outputRate))
	upsampled := make([]complex64, len(baseband)*upFactor)

	// Crude "upsample": hold each sample for upFactor ticks so the
	// Worker's decimation filter has a coherent signal to pass, rather
	// than zero-stuffed impulses it would otherwise have to interpolate.
	for i, v := range baseband {
		for k := 0; k < upFactor; k++ {
			upsampled[i*upFactor+k] = v
		}
	}

	cfoNorm := cfoHz / inputRate
	rotated := make([]complex64, len(upsampled))
	for n, s := range upsampled {
		ph := cmplx.Exp(complex(0, 2*math.Pi*cfoNorm*float64(n)))
		rotated[n] = s * complex64(ph)
	}

	return detector.BurstData{
		Info: detector.BurstInfo{
			ID:        10,
			CenterBin: 0,
		},
		CenterFreqHz:    1_622_000_000,
		InputSampleRate: inputRate,
		FFTSize:         1024,
		Samples:         rotated,
	}
}

func sincLocal(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// TestWorkerProcessesSyntheticDownlinkFrameWithoutPanicking exercises the
// full nine-step pipeline end to end on the §8 synthetic-downlink-frame
// scenario. The heuristic gates (burst-start threshold, sync correlation
// floor) are tuned against real RF, not this idealized signal, so this
// only asserts the pipeline runs to completion and, when it does accept
// the frame, that direction detection picked the right template.
func TestWorkerProcessesSyntheticDownlinkFrameWithoutPanicking(t *testing.T) {
	inputRate := 1_000_000.0
	outputRate := 250_000.0

	w := NewWorker(Params{InputSampleRate: inputRate, OutputSampleRate: outputRate})
	burst := syntheticBurst(t, inputRate, outputRate, 200, 150)

	frame, ok := w.Process(burst)
	if ok {
		require.Equal(t, Downlink, frame.Direction)
		require.NotEmpty(t, frame.Samples)
	}
}

func TestWorkerRejectsEmptyBurst(t *testing.T) {
	w := NewWorker(Params{})
	_, ok := w.Process(detector.BurstData{
		InputSampleRate: 1_000_000,
		FFTSize:         1024,
		Samples:         nil,
	})
	require.False(t, ok)
}

func TestFrameLengthGateSimplexVsNormal(t *testing.T) {
	minN, maxN := frameLengthGate(Downlink, 1_620_000_000, 10)
	require.Equal(t, 1310, minN)
	require.Equal(t, 1910, maxN)

	minS, maxS := frameLengthGate(Downlink, 1_627_000_000, 10)
	require.Equal(t, 800, minS)
	require.Equal(t, 4440, maxS)
}

func TestQuadraticInterpSymmetricPeakIsZero(t *testing.T) {
	require.InDelta(t, 0.0, quadraticInterp(1, 2, 1), 1e-9)
}
