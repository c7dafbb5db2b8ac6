package sink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/n5dxb/iridium-ground/internal/symbol"
)

// Metrics exposes pipeline counters on Prometheus, separate from the
// stderr stats line §6 requires (SPEC_FULL.md §1 ambient stack).
type Metrics struct {
	framesDecoded   *prometheus.CounterVec
	framesConfident prometheus.Counter
	burstsDetected  prometheus.Counter
	samplesDropped  prometheus.Counter
	queueDepth      *prometheus.GaugeVec
}

// NewMetrics registers this pipeline's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		framesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iridium",
			Name:      "frames_decoded_total",
			Help:      "Decoded frames by link direction.",
		}, []string{"direction"}),
		framesConfident: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "iridium",
			Name:      "frames_confident_total",
			Help:      "Decoded frames with confidence >= 90%.",
		}),
		burstsDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "iridium",
			Name:      "bursts_detected_total",
			Help:      "Bursts tagged by the detector.",
		}),
		samplesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "iridium",
			Name:      "samples_dropped_total",
			Help:      "Samples shed on a saturated samples_queue.",
		}),
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "iridium",
			Name:      "queue_depth",
			Help:      "Most recent observed depth of each pipeline queue.",
		}, []string{"queue"}),
	}
}

// Frame implements FrameSink.
func (m *Metrics) Frame(f symbol.DemodFrame) {
	m.framesDecoded.WithLabelValues(f.Direction.String()).Inc()
	if f.ConfidencePct >= 90 {
		m.framesConfident.Inc()
	}
}

// ObserveQueues records the three queue depths (SPEC_FULL.md stats
// thread, which calls this alongside sink.StatsLine.Emit).
func (m *Metrics) ObserveQueues(q QueueDepths) {
	m.queueDepth.WithLabelValues("samples").Set(float64(q.Samples))
	m.queueDepth.WithLabelValues("burst").Set(float64(q.Burst))
	m.queueDepth.WithLabelValues("frame").Set(float64(q.Frame))
}

// ObserveBurstsDetected should be called once per second with the
// delta since the last call, mirroring ctx.Stats.BurstsDetected.
func (m *Metrics) ObserveBurstsDetected(delta int64) {
	if delta > 0 {
		m.burstsDetected.Add(float64(delta))
	}
}

// ObserveSamplesDropped mirrors ObserveBurstsDetected for dropped samples.
func (m *Metrics) ObserveSamplesDropped(delta int64) {
	if delta > 0 {
		m.samplesDropped.Add(float64(delta))
	}
}
