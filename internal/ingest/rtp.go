package ingest

import (
	"net"

	"github.com/n5dxb/iridium-ground/internal/detector"
	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/queue"
	"github.com/pion/rtp"
)

// RTPSource attaches to a live ka9q-radio channel's multicast IQ stream:
// a local radiod instance depacketizes a down-converted passband to
// cs16-encoded (int16 interleaved) RTP payloads (SPEC_FULL.md §4.A).
type RTPSource struct {
	MulticastAddr string // "239.x.x.x:port"
	PayloadType   uint8
}

// Run joins the multicast group and republishes each RTP payload as a
// SampleBatch. Sequence-number gaps are logged, not treated as errors —
// a gap just means fewer samples arrived this interval (SPEC_FULL.md
// §4.A).
func (s *RTPSource) Run(ctx *pipectx.Context, out *queue.Queue[detector.SampleBatch]) {
	addr, err := net.ResolveUDPAddr("udp4", s.MulticastAddr)
	if err != nil {
		ctx.Logf("ingest/rtp", "resolve %s: %v", s.MulticastAddr, err)
		out.Close()
		return
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		ctx.Logf("ingest/rtp", "listen %s: %v", s.MulticastAddr, err)
		out.Close()
		return
	}
	defer conn.Close()
	_ = conn.SetReadBuffer(1 << 20)

	buf := make([]byte, 65536)
	haveSeq := false
	var lastSeq uint16

	for ctx.Alive() {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			ctx.Logf("ingest/rtp", "socket closed: %v", err)
			break
		}
		if n < 12 {
			continue
		}

		packet := &rtp.Packet{}
		if err := packet.Unmarshal(buf[:n]); err != nil {
			ctx.Logf("ingest/rtp", "unmarshal: %v", err)
			continue
		}
		if packet.PayloadType != s.PayloadType {
			continue
		}

		if haveSeq && packet.SequenceNumber != lastSeq+1 {
			ctx.Logf("ingest/rtp", "sequence gap: expected %d got %d", lastSeq+1, packet.SequenceNumber)
		}
		haveSeq = true
		lastSeq = packet.SequenceNumber

		iq := make([]int16, len(packet.Payload)/2)
		for i := range iq {
			iq[i] = int16(packet.Payload[2*i]) | int16(packet.Payload[2*i+1])<<8
		}
		samples := int16ToComplex(iq)

		ctx.Stats.SamplesIngested.Add(int64(len(samples)))
		if !out.Add(detector.SampleBatch{Samples: samples}) {
			ctx.Stats.SamplesDropped.Add(int64(len(samples)))
		}
	}
	out.Close()
}
