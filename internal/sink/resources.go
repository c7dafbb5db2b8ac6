package sink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceGauges publishes host load and memory as Prometheus gauges,
// adapted from the teacher's load_history.go sampling loop (cpu.Info
// for core count, load averages on a 1-second tick) (SPEC_FULL.md §1).
type ResourceGauges struct {
	cpuCores      float64
	load1         prometheus.Gauge
	load5         prometheus.Gauge
	load15        prometheus.Gauge
	loadPerCore   prometheus.Gauge
	memUsedPct    prometheus.Gauge
	cpuCoresGauge prometheus.Gauge
}

// NewResourceGauges registers the resource collectors against reg and
// records the host's CPU core count once, mirroring NewLoadHistoryTracker.
func NewResourceGauges(reg prometheus.Registerer) *ResourceGauges {
	factory := promauto.With(reg)

	cores := 0
	if info, err := cpu.Info(); err == nil {
		for _, c := range info {
			cores += int(c.Cores)
		}
	}

	r := &ResourceGauges{
		cpuCores: float64(cores),
		load1: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "iridium", Subsystem: "host", Name: "load1",
			Help: "1-minute load average.",
		}),
		load5: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "iridium", Subsystem: "host", Name: "load5",
			Help: "5-minute load average.",
		}),
		load15: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "iridium", Subsystem: "host", Name: "load15",
			Help: "15-minute load average.",
		}),
		loadPerCore: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "iridium", Subsystem: "host", Name: "load1_per_core",
			Help: "1-minute load average divided by CPU core count.",
		}),
		memUsedPct: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "iridium", Subsystem: "host", Name: "mem_used_percent",
			Help: "Fraction of host memory in use, 0-100.",
		}),
		cpuCoresGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "iridium", Subsystem: "host", Name: "cpu_cores",
			Help: "CPU cores detected at startup.",
		}),
	}
	r.cpuCoresGauge.Set(r.cpuCores)
	return r
}

// Sample reads current host load and memory and updates the gauges. It
// is meant to be called once per second from the stats thread, alongside
// StatsLine.Emit and Metrics.ObserveQueues.
func (r *ResourceGauges) Sample() {
	if avg, err := load.Avg(); err == nil {
		r.load1.Set(avg.Load1)
		r.load5.Set(avg.Load5)
		r.load15.Set(avg.Load15)
		if r.cpuCores > 0 {
			r.loadPerCore.Set(avg.Load1 / r.cpuCores)
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		r.memUsedPct.Set(vm.UsedPercent)
	}
}
