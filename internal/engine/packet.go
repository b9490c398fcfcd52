package engine

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"bbogateway/internal/arch"
	"bbogateway/internal/bbo"
	"bbogateway/internal/clock"
	"bbogateway/internal/nic"
	"bbogateway/internal/wireparse"
)

// Header offsets/sizes for the Ethernet -> IPv4 -> UDP walk in
// processPacket, matching original_source/include/dpdk_receiver.h's
// process_packet exactly.
const (
	ethHeaderLen    = 14
	ethTypeOffset   = 12
	ethTypeIPv4     = 0x0800
	ipv4ProtoOffset = 9
	ipv4ProtoUDP    = 17
	udpHeaderLen    = 8
	udpDstPortOff   = 2
	udpLenOff       = 4
)

// frameBytes views a received packet's framework-owned buffer as a Go
// byte slice with no copy — the Go expression of spec.md §9's "raw
// pointer arithmetic through packet headers... typed unaligned reads at
// fixed byte offsets" note.
func frameBytes(p *nic.Packet) []byte {
	if p.Len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p.Data), p.Len)
}

// processPacket runs the ten steps of spec.md §4.7 on one frame: capture
// the reception timestamp before any data-dependent load, filter on
// ethertype/protocol/port, locate the UDP payload, parse it into a pool
// slot, and publish. Hot-path failures (non-IPv4/UDP/wrong-port frames)
// are a silent filter, never counted (spec.md §7); truncated payloads and
// full ring both increment their own counter and the loop continues.
//
//go:nosplit
func (e *Engine) processPacket(frame []byte) {
	ts := clock.ReadCycleUnserialized()

	if arch.Unlikely(len(frame) < ethHeaderLen) {
		return
	}
	ethType := binary.BigEndian.Uint16(frame[ethTypeOffset:])
	if arch.Unlikely(ethType != ethTypeIPv4) {
		return
	}

	ip := frame[ethHeaderLen:]
	if arch.Unlikely(len(ip) < 20) {
		return
	}
	if arch.Unlikely(ip[ipv4ProtoOffset] != ipv4ProtoUDP) {
		return
	}
	ihl := int(ip[0]&0x0F) * 4

	if arch.Unlikely(len(ip) < ihl+udpHeaderLen) {
		return
	}
	udp := ip[ihl:]
	dstPort := binary.BigEndian.Uint16(udp[udpDstPortOff:])
	if arch.Unlikely(dstPort != e.cfg.UDPPort) {
		return
	}

	dgramLen := int(binary.BigEndian.Uint16(udp[udpLenOff:]))
	payloadLen := dgramLen - udpHeaderLen
	available := len(udp) - udpHeaderLen
	// Open Question (spec.md §9 / DESIGN.md #1): a malformed dgram_len
	// larger than the actual frame is unspecified upstream; this engine
	// clamps to the bytes actually available rather than reading past the
	// buffer.
	if payloadLen < 0 {
		payloadLen = 0
	}
	if payloadLen > available {
		payloadLen = available
	}
	payload := udp[udpHeaderLen : udpHeaderLen+payloadLen]

	atomic.AddUint64(&e.packetsReceived, 1)

	tsNS := e.clk.CyclesToNS(ts)
	seq := e.sequence
	e.sequence++

	rec, ok := wireparse.Parse(payload, e.pool, tsNS, seq)
	if arch.Unlikely(!ok) {
		atomic.AddUint64(&e.parseErrors, 1)
		return
	}

	if e.State() == StateWarming {
		rec.Flags |= bbo.FlagSynthetic
	}

	if !e.pub.Publish(rec) {
		atomic.AddUint64(&e.ringBufferFull, 1)
	}
	atomic.AddUint64(&e.packetsProcessed, 1)
}
