// Package pipeline wires the ingest, detector, downmix and symbol-recovery
// stages together over the three bounded queues spec.md §5 names, and
// drives the once-a-second stats thread that feeds sink.StatsLine,
// sink.Metrics and sink.ResourceGauges.
package pipeline

import (
	"sync"
	"time"

	"github.com/n5dxb/iridium-ground/internal/config"
	"github.com/n5dxb/iridium-ground/internal/detector"
	"github.com/n5dxb/iridium-ground/internal/downmix"
	"github.com/n5dxb/iridium-ground/internal/dsp"
	"github.com/n5dxb/iridium-ground/internal/ingest"
	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/queue"
	"github.com/n5dxb/iridium-ground/internal/sink"
	"github.com/n5dxb/iridium-ground/internal/symbol"
)

// Pipeline owns the three queues and every goroutine between the ingest
// source and the frame sinks (spec.md §5). It is built once per process
// and torn down exactly once, when its Source closes the samples queue
// and every stage downstream drains in turn.
type Pipeline struct {
	ctx *pipectx.Context

	source ingest.Source
	det    *detector.Detector
	demod  *symbol.Demodulator
	sinks  *sink.Fanout

	workers []*downmix.Worker

	samplesQ *queue.Queue[detector.SampleBatch]
	burstQ   *queue.Queue[detector.BurstData]
	frameQ   *queue.Queue[downmix.Frame]
	demodQ   *queue.Queue[symbol.DemodFrame]

	stats     *sink.StatsLine
	metrics   *sink.Metrics
	resources *sink.ResourceGauges
	live      bool

	wisdomPath        string
	nominalSampleRate float64
	prevIngested      int64
}

// Options gathers the built collaborators a caller assembles from cfg
// before calling New (cmd/iridium-ground owns that wiring).
type Options struct {
	Ctx    *pipectx.Context
	Cfg    config.Config
	Source ingest.Source
	Sinks  *sink.Fanout

	Metrics   *sink.Metrics // nil disables Prometheus observation
	Resources *sink.ResourceGauges // nil disables host resource gauges

	Live bool // true for a live RTP source, false for file playback
}

// New builds a Pipeline from already-constructed collaborators, sizing
// every queue and downmix worker pool from cfg.
func New(opt Options) *Pipeline {
	cfg := opt.Cfg

	det := detector.NewDetector(opt.Ctx, detector.Params{
		SampleRate:   cfg.Ingest.SampleRate,
		CenterFreqHz: cfg.Ingest.CenterFreqHz,
		FFTSize:      cfg.Detector.FFTSize,
		ThresholdDB:  cfg.Detector.ThresholdDB,
		HistorySize:  cfg.Detector.HistorySize,
		BurstWidthHz: cfg.Detector.BurstWidthHz,
		MaxBursts:    cfg.Detector.MaxBursts,
		MaxBurstLen:  cfg.Detector.MaxBurstLenMs / 1000,
		PreLen:       cfg.Detector.PreLenSamples,
		PostLen:      cfg.Detector.PostLenMs / 1000,
		RingSeconds:  cfg.Detector.RingBufferSecMin,
	})

	workers := make([]*downmix.Worker, cfg.Downmix.Workers)
	for i := range workers {
		workers[i] = downmix.NewWorker(downmix.Params{
			InputSampleRate:  cfg.Ingest.SampleRate,
			OutputSampleRate: cfg.Downmix.OutputSampleRate,
			SearchDepth:      cfg.Downmix.SearchDepth,
			PreStartUs:       cfg.Downmix.PreStartUs,
		})
	}

	decimation := symbol.GardnerTED
	if !cfg.Symbol.GardnerEnabled {
		decimation = symbol.NearestNeighbor
	}
	demod := symbol.NewDemodulator(symbol.Params{
		Decimation: decimation,
		GardnerKp:  cfg.Symbol.GardnerKp,
		GardnerKi:  cfg.Symbol.GardnerKi,
		PLLAlpha:   cfg.Symbol.PLLAlpha,
	})

	return &Pipeline{
		ctx:     opt.Ctx,
		source:  opt.Source,
		det:     det,
		demod:   demod,
		sinks:   opt.Sinks,
		workers: workers,

		samplesQ: queue.New[detector.SampleBatch](cfg.Queues.SamplesDepth),
		burstQ:   queue.New[detector.BurstData](cfg.Queues.BurstDepth),
		frameQ:   queue.New[downmix.Frame](cfg.Queues.FrameDepth),
		demodQ:   queue.New[symbol.DemodFrame](cfg.Queues.FrameDepth),

		stats:      sink.NewStatsLine(opt.Ctx.Logger.Writer(), opt.Live),
		metrics:    opt.Metrics,
		resources:  opt.Resources,
		live:       opt.Live,
		wisdomPath: cfg.Wisdom.Path,

		nominalSampleRate: cfg.Ingest.SampleRate,
	}
}

// Run starts every stage and blocks until the source exhausts (file
// playback) or ctx.Stop is called (live capture, SIGINT/SIGTERM). It
// drains every downstream stage before returning, so no frame in flight
// is lost on shutdown.
func (p *Pipeline) Run() {
	if sizes, err := sink.LoadWisdom(p.wisdomPath); err == nil && sizes != nil {
		p.ctx.Logf("pipeline", "loaded %d warm FFT plan sizes from %s", len(sizes), p.wisdomPath)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.source.Run(p.ctx, p.samplesQ)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.det.Run(p.samplesQ, p.burstQ)
	}()

	var downmixWG sync.WaitGroup
	for _, w := range p.workers {
		downmixWG.Add(1)
		go func(w *downmix.Worker) {
			defer downmixWG.Done()
			w.Run(p.ctx, p.burstQ, p.frameQ)
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		downmixWG.Wait()
		p.frameQ.Close()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.demod.Run(p.ctx, p.frameQ, p.demodQ)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			frame, ok := p.demodQ.Take()
			if !ok {
				return
			}
			p.ctx.Stats.FramesOK.Add(1)
			p.ctx.Stats.FramesOKTotal.Add(1)
			p.sinks.Frame(frame)
		}
	}()

	statsDone := make(chan struct{})
	go func() {
		defer close(statsDone)
		p.statsLoop()
	}()

	wg.Wait()
	p.ctx.Stop()
	<-statsDone

	if sizes := p.warmFFTSizes(); len(sizes) > 0 {
		if err := sink.SaveWisdom(p.wisdomPath, sizes); err != nil {
			p.ctx.Logf("pipeline", "save wisdom: %v", err)
		}
	}
}

// statsLoop runs the once-a-second stats thread for as long as ctx is
// alive, then emits one final line on the interval the shutdown lands in
// (spec.md §5 "stats thread").
func (p *Pipeline) statsLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	var prevBursts, prevDropped int64
	for p.ctx.Alive() {
		<-ticker.C
		p.emitStats(&prevBursts, &prevDropped)
	}
	p.emitStats(&prevBursts, &prevDropped)
}

func (p *Pipeline) emitStats(prevBursts, prevDropped *int64) {
	q := sink.QueueDepths{
		Samples: p.samplesQ.Len(),
		Burst:   p.burstQ.Len(),
		Frame:   p.frameQ.Len(),
	}
	p.ctx.Stats.SamplesQueueDepth.Store(int64(q.Samples))
	p.ctx.Stats.BurstQueueDepth.Store(int64(q.Burst))
	p.ctx.Stats.FrameQueueDepth.Store(int64(q.Frame))

	// srr is the file-playback throughput ratio: samples actually ingested
	// this interval against the nominal rate cfg.Ingest.SampleRate implies
	// for one second, as a percentage (100% = reading in real time).
	var srr float64
	if p.nominalSampleRate > 0 {
		ingested := p.ctx.Stats.SamplesIngested.Load()
		rate := ingested - p.prevIngested
		p.prevIngested = ingested
		srr = 100 * float64(rate) / p.nominalSampleRate
	}
	p.stats.Emit(p.ctx, q, srr)

	if p.metrics != nil {
		p.metrics.ObserveQueues(q)
		bursts := p.ctx.Stats.BurstsDetected.Load()
		dropped := p.ctx.Stats.SamplesDropped.Load()
		p.metrics.ObserveBurstsDetected(bursts - *prevBursts)
		p.metrics.ObserveSamplesDropped(dropped - *prevDropped)
		*prevBursts = bursts
		*prevDropped = dropped
	}
	if p.resources != nil {
		p.resources.Sample()
	}
}

// warmFFTSizes reports every FFT plan size dsp.Global built during this
// run, for SaveWisdom to persist.
func (p *Pipeline) warmFFTSizes() []int {
	return dsp.Global.Sizes()
}
