// Package sink implements the per-frame FrameSink callback contract
// (spec.md §6): the mandatory stdout RAW-line writer, an optional MQTT
// alert publisher, and a Prometheus metrics exporter, plus the FFT-plan
// wisdom file hooks.
package sink

import "github.com/n5dxb/iridium-ground/internal/symbol"

// FrameSink receives every accepted DemodFrame. The web map and GSMTAP
// serializer remain named Non-goals: only this interface is defined for
// them, with no concrete implementation in this module.
type FrameSink interface {
	Frame(f symbol.DemodFrame)
}

// FrameSinkFunc adapts a plain function to FrameSink.
type FrameSinkFunc func(f symbol.DemodFrame)

func (fn FrameSinkFunc) Frame(f symbol.DemodFrame) { fn(f) }

// Fanout broadcasts one DemodFrame to every registered sink, matching
// spec.md §6 "collaborators register at startup".
type Fanout struct {
	sinks []FrameSink
}

// NewFanout builds a Fanout over the given sinks in registration order.
func NewFanout(sinks ...FrameSink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Frame(frame symbol.DemodFrame) {
	for _, s := range f.sinks {
		s.Frame(frame)
	}
}
