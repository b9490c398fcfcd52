package engine

import (
	"encoding/binary"

	"bbogateway/internal/wireparse"
)

// buildSyntheticFrame assembles a minimal Ethernet + IPv4 + UDP frame
// carrying a 28-byte BBO payload with symbol "WARMUP  " and fake prices,
// matching original_source/include/dpdk_receiver.h's warm_up description:
// "synthesize an in-memory packet... invoke process_packet on it". The
// frame is built once and replayed as many times as WarmUp's count.
func buildSyntheticFrame(udpPort uint16) []byte {
	const (
		bboLen = wireparse.MinSize
		udpLen = udpHeaderLen + bboLen
		ipLen  = 20 + udpLen
		total  = ethHeaderLen + ipLen
	)

	f := make([]byte, total)

	// Ethernet: zero MACs, ethertype IPv4.
	binary.BigEndian.PutUint16(f[ethTypeOffset:], ethTypeIPv4)

	ip := f[ethHeaderLen:]
	ip[0] = 0x45 // version 4, IHL 5 (20 bytes)
	binary.BigEndian.PutUint16(ip[2:], uint16(ipLen))
	ip[ipv4ProtoOffset] = ipv4ProtoUDP

	udp := ip[20:]
	binary.BigEndian.PutUint16(udp[0:], 0) // src port, unused
	binary.BigEndian.PutUint16(udp[udpDstPortOff:], udpPort)
	binary.BigEndian.PutUint16(udp[udpLenOff:], uint16(udpLen))

	payload := udp[udpHeaderLen:]
	copy(payload[0:8], []byte("WARMUP  "))
	binary.BigEndian.PutUint32(payload[8:], 1000000)  // bid raw, 100.0000
	binary.BigEndian.PutUint32(payload[12:], 100)     // bid shares
	binary.BigEndian.PutUint32(payload[16:], 1000500) // ask raw, 100.0500
	binary.BigEndian.PutUint32(payload[20:], 100)      // ask shares
	binary.BigEndian.PutUint32(payload[24:], 500)      // spread raw, 0.0500

	return f
}
