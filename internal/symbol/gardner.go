package symbol

import "math/cmplx"

// catmullRom performs Catmull-Rom cubic interpolation between p1 and p2
// using p0 and p3 as the outer control points, at fractional position
// t in [0, 1) (spec.md §4.D: "on-time and mid-point samples are obtained
// by Catmull-Rom cubic interpolation").
func catmullRom(p0, p1, p2, p3 complex128, t float64) complex128 {
	t2 := t * t
	t3 := t2 * t

	a0 := -0.5*p0 + 1.5*p1 - 1.5*p2 + 0.5*p3
	a1 := p0 - 2.5*p1 + 2*p2 - 0.5*p3
	a2 := -0.5*p0 + 0.5*p2
	a3 := p1

	return a0*complex(t3, 0) + a1*complex(t2, 0) + a2*complex(t, 0) + a3
}

// interpAt returns the Catmull-Rom interpolated sample at fractional
// index pos into samples, clamping the four control points to the slice
// bounds.
func interpAt(samples []complex128, pos float64) complex128 {
	i := int(pos)
	frac := pos - float64(i)

	at := func(k int) complex128 {
		if k < 0 {
			k = 0
		}
		if k >= len(samples) {
			k = len(samples) - 1
		}
		return samples[k]
	}
	return catmullRom(at(i-1), at(i), at(i+1), at(i+2), frac)
}

// gardnerDecimate implements the default decimation mode: a Gardner
// timing-error detector with a PI loop filter, producing one on-time
// sample per symbol (spec.md §4.D).
func gardnerDecimate(samples []complex64, sps float64, kp, ki float64) []complex64 {
	c128 := make([]complex128, len(samples))
	for i, s := range samples {
		c128[i] = complex128(s)
	}

	var out []complex64
	pos := 0.0
	integral := 0.0
	prevOnTime := complex128(0)

	for pos+sps < float64(len(c128)) {
		onTime := interpAt(c128, pos)
		midTime := interpAt(c128, pos+sps/2)

		out = append(out, complex64(onTime))

		errSignal := real((prevOnTime - onTime) * cmplx.Conj(midTime))
		if errSignal > 1 {
			errSignal = 1
		}
		if errSignal < -1 {
			errSignal = -1
		}

		integral += ki * errSignal
		adjust := kp*errSignal + integral
		if adjust > 0.5 {
			adjust = 0.5
		}
		if adjust < -0.5 {
			adjust = -0.5
		}

		prevOnTime = onTime
		pos += sps + adjust
	}
	return out
}

// nearestNeighborDecimate implements the non-default decimation mode:
// plain every-round(sps)'th-sample selection.
func nearestNeighborDecimate(samples []complex64, sps float64) []complex64 {
	step := int(sps + 0.5)
	if step < 1 {
		step = 1
	}
	var out []complex64
	for i := 0; i < len(samples); i += step {
		out = append(out, samples[i])
	}
	return out
}

// decimate dispatches on mode (spec.md §4.D "Decimation to 1 sps").
func decimate(mode DecimationMode, samples []complex64, sps float64, kp, ki float64) []complex64 {
	if mode == NearestNeighbor {
		return nearestNeighborDecimate(samples, sps)
	}
	return gardnerDecimate(samples, sps, kp, ki)
}
