// Command iridium-ground runs the Iridium L-band ground-station pipeline:
// ingest, burst detection, downmix, symbol recovery and frame sinks,
// wired together by internal/pipeline from a YAML configuration file
// (adapted from the teacher's flag-parsing and signal-handling main.go).
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/n5dxb/iridium-ground/internal/config"
	"github.com/n5dxb/iridium-ground/internal/ingest"
	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/pipeline"
	"github.com/n5dxb/iridium-ground/internal/sink"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	verbose := flag.Bool("verbose", false, "enable verbose component logging")
	metricsAddr := flag.String("metrics-listen", "", "address to serve Prometheus /metrics on, e.g. :9477 (empty disables it)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := pipectx.New(*verbose || cfg.Logging.Verbose)

	source, live, err := buildSource(cfg)
	if err != nil {
		log.Fatalf("build ingest source: %v", err)
	}

	sinks := []sink.FrameSink{sink.NewStdoutRaw(os.Stdout, cfg.Sinks.FileInfo)}

	var metrics *sink.Metrics
	var resources *sink.ResourceGauges
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = sink.NewMetrics(reg)
		resources = sink.NewResourceGauges(reg)
		sinks = append(sinks, metrics)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			ctx.Logf("main", "serving metrics on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				ctx.Logf("main", "metrics server: %v", err)
			}
		}()
	}

	if cfg.Sinks.MQTT.Enabled {
		alert, err := sink.NewMQTTAlert(ctx, cfg.Sinks.MQTT.Broker, cfg.Sinks.MQTT.Topic, cfg.Sinks.MQTT.Username, cfg.Sinks.MQTT.Password)
		if err != nil {
			log.Fatalf("connect mqtt sink: %v", err)
		}
		defer alert.Close()
		sinks = append(sinks, alert)
	}

	p := pipeline.New(pipeline.Options{
		Ctx:       ctx,
		Cfg:       cfg,
		Source:    source,
		Sinks:     sink.NewFanout(sinks...),
		Metrics:   metrics,
		Resources: resources,
		Live:      live,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		ctx.Logf("main", "shutting down")
		ctx.Stop()
	}()

	p.Run()
}

// buildSource constructs the configured ingest.Source and reports whether
// it is a live feed (RTP) as opposed to finite file playback, which the
// stats thread needs to choose between the "i:<N>/s" and "srr:<pct>%"
// fields (spec.md §6).
func buildSource(cfg config.Config) (ingest.Source, bool, error) {
	switch cfg.Ingest.Source {
	case "rtp":
		return &ingest.RTPSource{
			MulticastAddr: cfg.Ingest.RTPMulticast,
			PayloadType:   payloadTypeFromFormat(cfg.Ingest.RTPPayloadFmt),
		}, true, nil
	default:
		return &ingest.FileSource{
			Path:   cfg.Ingest.Path,
			Format: ingest.Format(cfg.Ingest.Format),
		}, false, nil
	}
}

func payloadTypeFromFormat(name string) uint8 {
	if name == "" {
		return 96
	}
	var pt uint8
	for _, c := range name {
		if c < '0' || c > '9' {
			return 96
		}
		pt = pt*10 + uint8(c-'0')
	}
	return pt
}
