// Package ingest implements the two sample sources SPEC_FULL.md §4.A
// names: a local file reader (ci8/cs16/cf32) and an RTP multicast reader
// grounded in the ka9q-radio ecosystem. Both produce identical
// detector.SampleBatch values.
package ingest

import (
	"github.com/n5dxb/iridium-ground/internal/detector"
	"github.com/n5dxb/iridium-ground/internal/dsp/simd"
	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/queue"
)

// Format names the interleaved IQ sample encoding (spec.md §6
// push_batch contract).
type Format string

const (
	FormatInt8    Format = "int8"
	FormatInt16   Format = "int16"
	FormatFloat32 Format = "float32"
)

// BatchSamples is the nominal number of complex samples per published
// SampleBatch (spec.md §4.A: "batches of ~32k samples").
const BatchSamples = 32768

// Source produces SampleBatch values until exhausted or the pipeline
// context's running flag clears.
type Source interface {
	Run(ctx *pipectx.Context, out *queue.Queue[detector.SampleBatch])
}

// int16ToComplex implements spec.md §4.A's int16 path: "right-shift 8
// then treat as int8" — the top byte of each sign-preserving 16-bit
// sample is the int8 sample, scaled through the same 1/128 path as the
// native int8 encoding.
func int16ToComplex(iq []int16) []complex64 {
	iq8 := make([]int8, len(iq))
	for i, v := range iq {
		iq8[i] = int8(v >> 8)
	}
	return simd.Default.Int8ToComplex(iq8)
}

func float32ToComplex(iq []float32) []complex64 {
	out := make([]complex64, len(iq)/2)
	for i := range out {
		out[i] = complex(iq[2*i], iq[2*i+1])
	}
	return out
}
