package symbol

import (
	"math"

	"github.com/n5dxb/iridium-ground/internal/downmix"
)

// downlinkUW and uplinkUW alias downmix's unique-word sequences so the
// two packages never drift apart.
var (
	downlinkUW = downmix.DownlinkUW
	uplinkUW   = downmix.UplinkUW
)

// wrappedSymbolDiff is the QPSK-reflection-aware absolute difference
// between two quadrant symbols: a difference of 3 wraps to 1 (spec.md
// §4.D unique-word check).
func wrappedSymbolDiff(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d == 3 {
		d = 1
	}
	return d
}

// hardUWCheck returns, for each direction, the total wrapped symbol
// distance against that direction's unique word, and whether len(symbols)
// is at least UW length.
func hardUWCheck(symbols []int) (downlinkDist, uplinkDist int, ok bool) {
	if len(symbols) < len(downlinkUW) {
		return 0, 0, false
	}
	candidate := symbols[:len(downlinkUW)]
	for i, sym := range candidate {
		downlinkDist += wrappedSymbolDiff(sym, downlinkUW[i])
		uplinkDist += wrappedSymbolDiff(sym, uplinkUW[i])
	}
	return downlinkDist, uplinkDist, true
}

// softUWRescue computes the mean absolute angular error of the first
// len(uw) phase offsets against each direction's expected phases,
// normalized so 90 degrees == 1.0 (spec.md §4.D soft rescue).
func softUWRescue(phaseErrDeg []float64, symbols []int) (downlinkErr, uplinkErr float64) {
	n := len(downlinkUW)
	if len(symbols) < n || len(phaseErrDeg) < n {
		return math.Inf(1), math.Inf(1)
	}
	var dlSum, ulSum float64
	for i := 0; i < n; i++ {
		dlDiff := float64(wrappedSymbolDiff(symbols[i], downlinkUW[i])) * 90
		ulDiff := float64(wrappedSymbolDiff(symbols[i], uplinkUW[i])) * 90
		dlSum += (dlDiff + phaseErrDeg[i]) / 90
		ulSum += (ulDiff + phaseErrDeg[i]) / 90
	}
	return dlSum / float64(n), ulSum / float64(n)
}

// verifyUniqueWord implements the dual-direction hard check with soft
// rescue fallback (spec.md §4.D). It returns the resolved direction and
// whether the frame should be accepted.
func verifyUniqueWord(symbols []int, phaseErrDeg []float64) (downmix.Direction, bool) {
	dlDist, ulDist, ok := hardUWCheck(symbols)
	if !ok {
		return downmix.Downlink, false
	}
	if dlDist <= 2 || ulDist <= 2 {
		if dlDist <= ulDist {
			return downmix.Downlink, true
		}
		return downmix.Uplink, true
	}

	dlErr, ulErr := softUWRescue(phaseErrDeg, symbols)
	if dlErr <= 3.0 || ulErr <= 3.0 {
		if dlErr <= ulErr {
			return downmix.Downlink, true
		}
		return downmix.Uplink, true
	}
	return downmix.Downlink, false
}

// diffDecodeMap implements spec.md §4.D: map = [0,2,3,1].
var diffDecodeMap = [4]int{0, 2, 3, 1}

// differentialDecode replaces each symbol s_i with
// map[(s_i - s_{i-1}) mod 4], s_{-1} = 0.
func differentialDecode(symbols []int) []int {
	out := make([]int, len(symbols))
	prev := 0
	for i, s := range symbols {
		d := ((s - prev) % 4 + 4) % 4
		out[i] = diffDecodeMap[d]
		prev = s
	}
	return out
}

// symbolsToBits packs each decoded symbol into two MSB-first bits
// (spec.md §4.D bit emission).
func symbolsToBits(symbols []int) []byte {
	bits := make([]byte, 0, len(symbols)*2)
	for _, s := range symbols {
		bits = append(bits, byte((s>>1)&1), byte(s&1))
	}
	return bits
}
