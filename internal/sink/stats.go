package sink

import (
	"fmt"
	"io"
	"time"

	"github.com/n5dxb/iridium-ground/internal/pipectx"
)

// StatsLine writes the one-line-per-second stderr stats line (spec.md
// §6). It is driven by the pipeline's stats thread, reading Context.Stats
// and a snapshot of the three queue depths once a second.
type StatsLine struct {
	w    io.Writer
	live bool // false => file playback, reports srr instead of i:<N>/s

	prevIngested int64
	prevOK       int64

	iRateSum          float64
	okPctSum          float64
	okTotalRateSum    float64
	intervalsObserved int64
}

// NewStatsLine builds a StatsLine. live selects between the "i:<N>/s"
// (live source) and "srr:<pct>%" (file playback) fields.
func NewStatsLine(w io.Writer, live bool) *StatsLine {
	return &StatsLine{w: w, live: live}
}

// QueueDepths is the one-second snapshot of the three pipeline queues'
// depths, used for the "q_max" field.
type QueueDepths struct {
	Samples int
	Burst   int
	Frame   int
}

// Emit writes one stats line for the interval that just elapsed,
// advancing the internal rate-tracking state.
func (s *StatsLine) Emit(ctx *pipectx.Context, q QueueDepths, sampleRateRatioPct float64) {
	ingested := ctx.Stats.SamplesIngested.Load()
	detected := ctx.Stats.BurstsDetected.Load()
	demodulated := ctx.Stats.FramesDemodulated.Load()
	okNow := ctx.Stats.FramesOK.Load()
	okTotal := ctx.Stats.FramesOKTotal.Load()
	dropped := ctx.Stats.SamplesDropped.Load() + ctx.Stats.BurstsDropped.Load() + ctx.Stats.FramesDropped.Load()

	iRate := ingested - s.prevIngested
	s.prevIngested = ingested
	s.iRateSum += float64(iRate)

	qMax := q.Samples
	if q.Burst > qMax {
		qMax = q.Burst
	}
	if q.Frame > qMax {
		qMax = q.Frame
	}

	var iOkPct float64
	if detected > 0 {
		iOkPct = 100 * float64(demodulated) / float64(detected)
	}

	okRate := okNow - s.prevOK
	s.prevOK = okNow

	var okPct float64
	if demodulated > 0 {
		okPct = 100 * float64(okNow) / float64(demodulated)
	}

	s.intervalsObserved++
	s.okPctSum += okPct
	s.okTotalRateSum += float64(okRate)
	okAvgPct := s.okPctSum / float64(s.intervalsObserved)
	okAvgRate := s.okTotalRateSum / float64(s.intervalsObserved)

	var lead string
	if s.live {
		lead = fmt.Sprintf("i:%d/s i_avg:%d/s", iRate, int64(s.iRateSum/float64(s.intervalsObserved)))
	} else {
		lead = fmt.Sprintf("srr:%.1f%% i_avg:%d/s", sampleRateRatioPct, int64(s.iRateSum/float64(s.intervalsObserved)))
	}

	fmt.Fprintf(s.w, "%d %s q_max:%d i_ok:%.1f%% o:%d/s ok:%.1f%% ok:%d/s ok_avg:%.1f%% ok:%d ok_avg:%d/s d:%d\n",
		time.Now().Unix(),
		lead,
		qMax,
		iOkPct,
		demodulated,
		okPct,
		okRate,
		okAvgPct,
		okTotal,
		int64(okAvgRate),
		dropped,
	)
}
