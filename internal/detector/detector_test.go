package detector

import (
	"testing"

	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/queue"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestNoiseFloorBaselineInvariant is the §8 property test: "the running
// baseline-sum equals the element-wise sum of the baseline history (after
// priming)."
func TestNoiseFloorBaselineInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := rapid.IntRange(2, 8).Draw(rt, "h")
		n := rapid.IntRange(2, 16).Draw(rt, "n")
		nf := NewNoiseFloor(h, n)

		rounds := rapid.IntRange(0, h*3).Draw(rt, "rounds")
		for i := 0; i < rounds; i++ {
			spectrum := make([]float64, n)
			for j := range spectrum {
				spectrum[j] = rapid.Float64Range(0, 10).Draw(rt, "v")
			}
			nf.Update(spectrum)
		}

		if !nf.Primed() {
			return
		}
		sum := nf.SumHistory()
		baseline := nf.Baseline()
		for i := range sum {
			if diff := sum[i] - baseline[i]; diff > 1e-6 || diff < -1e-6 {
				rt.Fatalf("baseline sum mismatch at bin %d: sum=%v baseline=%v", i, sum[i], baseline[i])
			}
		}
	})
}

func TestNoiseFloorPrimedAfterHRevolutions(t *testing.T) {
	nf := NewNoiseFloor(4, 2)
	for i := 0; i < 4; i++ {
		require.False(t, nf.Primed())
		nf.Update([]float64{1, 1})
	}
	require.True(t, nf.Primed())
}

func TestNoiseFloorResetUnprimesAndClears(t *testing.T) {
	nf := NewNoiseFloor(4, 2)
	for i := 0; i < 4; i++ {
		nf.Update([]float64{2, 3})
	}
	require.True(t, nf.Primed())
	nf.Reset()
	require.False(t, nf.Primed())
	require.Equal(t, []float64{0, 0}, nf.Baseline())
}

// TestBurstEvictedAtMaxLenAndForcesRefresh is the §8 boundary test: "burst
// spanning exactly max_burst_len + 1 samples is evicted and triggers a
// noise refresh."
func TestBurstEvictedAtMaxLenAndForcesRefresh(t *testing.T) {
	d := &Detector{
		p:            Params{MaxBurstLen: 1},
		maxBurstLenN: 10,
		active: []*activeBurst{
			{id: 10, start: 0, lastActive: 0, centerBin: 5},
		},
		ring: NewRingBuffer(1024),
		ctx:  pipectx.New(false),
	}
	out := queue.New[BurstData](4)
	forceRefresh := d.evict(11, out)
	require.True(t, forceRefresh)
	require.Empty(t, d.active)
}

func TestBurstSurvivesExactlyAtMaxLen(t *testing.T) {
	d := &Detector{
		p:            Params{MaxBurstLen: 1},
		maxBurstLenN: 10,
		postLenN:     100,
		active: []*activeBurst{
			{id: 10, start: 0, lastActive: 10, centerBin: 5},
		},
		ring: NewRingBuffer(1024),
	}
	out := queue.New[BurstData](4)
	forceRefresh := d.evict(10, out)
	require.False(t, forceRefresh)
	require.Len(t, d.active, 1)
}

// TestBurstIDsStrictlyIncreaseAndAreMultiplesOfTen is a §8 invariant
// test plus the sub-ID reservation Design Note (§9): ids advance by 10.
func TestBurstIDsStrictlyIncreaseAndAreMultiplesOfTen(t *testing.T) {
	ctx := pipectx.New(false)
	d := NewDetector(ctx, Params{SampleRate: 1_000_000, CenterFreqHz: 1_622_000_000})

	var prev int64 = -10
	for i := 0; i < 5; i++ {
		b := d.open(peak{bin: 100 + i, relative: 1}, int64(i*1000))
		require.Greater(t, b.id, prev)
		require.Zero(t, b.id%10)
		prev = b.id
	}
}

func TestStartLessEqualLastActiveLessEqualStop(t *testing.T) {
	ctx := pipectx.New(false)
	d := NewDetector(ctx, Params{SampleRate: 1_000_000, CenterFreqHz: 1_622_000_000, MaxBurstLen: 0.01})

	b := d.open(peak{bin: 50, relative: 1}, 1000)
	b.lastActive = 1005
	out := queue.New[BurstData](4)
	d.active = []*activeBurst{b}
	d.postLenN = 0
	d.evict(1005, out)

	emitted, ok := out.Take()
	require.True(t, ok)
	require.LessOrEqual(t, emitted.Info.Start, emitted.Info.LastActive)
	require.LessOrEqual(t, emitted.Info.LastActive, emitted.Info.Stop)
}
