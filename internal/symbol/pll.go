package symbol

import (
	"math"
	"math/cmplx"
)

// qpskConstellation is the four ideal QPSK points in quadrant order
// 0..3, at 45+90*sym degrees (matching internal/downmix's template
// mapping).
var qpskConstellation = [4]complex128{
	cmplx.Exp(complex(0, math.Pi/4)),
	cmplx.Exp(complex(0, 3*math.Pi/4)),
	cmplx.Exp(complex(0, 5*math.Pi/4)),
	cmplx.Exp(complex(0, 7*math.Pi/4)),
}

// hardDecide returns the quadrant (0..3) nearest to s.
func hardDecide(s complex128) int {
	best := 0
	bestDist := math.Inf(1)
	for q, pt := range qpskConstellation {
		d := cmplx.Abs(s - pt)
		if d < bestDist {
			bestDist = d
			best = q
		}
	}
	return best
}

// pllResult carries the per-symbol hard decisions plus the PLL's
// bookkeeping needed for confidence and residual-CFO reporting.
type pllResult struct {
	symbols      []int
	phaseErrDeg  []float64 // per-symbol offset from the nearest axis, degrees
	totalPhase   float64   // accumulated phase correction, radians
	peakMagnitude float64
	level         float64
}

// runPLL implements spec.md §4.D's first-order PLL (α=0.2) plus
// hard-decision QPSK and the end-of-frame detector.
func runPLL(samples []complex64, alpha float64) pllResult {
	var res pllResult
	estimate := complex128(1)

	peakMag := 0.0
	belowRun := 0
	var magnitudes []float64

	n := len(samples)
	for i := 0; i < n; i++ {
		s := complex128(samples[i])
		mag := cmplx.Abs(s)
		magnitudes = append(magnitudes, mag)
		if mag > peakMag {
			peakMag = mag
		}

		rotated := s * estimate
		sym := hardDecide(rotated)
		ideal := qpskConstellation[sym]

		errTerm := cmplx.Conj(ideal) * rotated
		if m := cmplx.Abs(errTerm); m != 0 {
			errTerm /= complex(m, 0)
		}
		corr := cmplx.Exp(complex(0, alpha*cmplx.Phase(errTerm)))
		estimate *= cmplx.Conj(corr)
		res.totalPhase += alpha * cmplx.Phase(errTerm)

		axis := float64(sym) * math.Pi / 2
		offset := angularDiffDeg(cmplx.Phase(rotated)-math.Pi/4, axis)

		res.symbols = append(res.symbols, sym)
		res.phaseErrDeg = append(res.phaseErrDeg, offset)

		// End-of-frame detector: three consecutive samples below peak/8
		// truncate the frame by those three symbols (spec.md §4.D).
		if peakMag > 0 && mag < peakMag/8 {
			belowRun++
			if belowRun == 3 {
				res.symbols = res.symbols[:len(res.symbols)-3]
				res.phaseErrDeg = res.phaseErrDeg[:len(res.phaseErrDeg)-3]
				break
			}
		} else {
			belowRun = 0
		}
	}

	res.peakMagnitude = peakMag
	if len(magnitudes) > 0 {
		sum := 0.0
		for _, m := range magnitudes {
			sum += m
		}
		res.level = sum / float64(len(magnitudes))
	}
	return res
}

// angularDiffDeg returns the smallest absolute angular difference
// between two angles (radians), in degrees, wrapped to [0, 180].
func angularDiffDeg(a, axis float64) float64 {
	diff := math.Mod(a-axis, 2*math.Pi)
	if diff < 0 {
		diff += 2 * math.Pi
	}
	if diff > math.Pi {
		diff = 2*math.Pi - diff
	}
	return diff * 180 / math.Pi
}

// confidence implements spec.md §4.D: percentage of symbols whose phase
// offset from the nearest constellation axis lies within ±22°.
func confidence(phaseErrDeg []float64) int {
	if len(phaseErrDeg) == 0 {
		return 0
	}
	within := 0
	for _, d := range phaseErrDeg {
		if d <= 22 {
			within++
		}
	}
	return int(math.Round(100 * float64(within) / float64(len(phaseErrDeg))))
}
