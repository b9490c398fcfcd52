// Package wireparse implements the branchless, zero-copy parse of a BBO
// datagram payload into a slotpool.Pool slot, grounded on
// original_source/include/bbo_parser_fast.h's BBOParserFast.
package wireparse

import (
	"encoding/binary"

	"bbogateway/internal/arch"
	"bbogateway/internal/bbo"
	"bbogateway/internal/slotpool"
)

// Wire layout offsets and sizes, matching bbo_parser_fast.h exactly.
const (
	symbolOffset    = 0
	bidPriceOffset  = 8
	bidSharesOffset = 12
	askPriceOffset  = 16
	askSharesOffset = 20
	spreadOffset    = 24
	t1Offset        = 28
	t2Offset        = 32
	t3Offset        = 36
	t4Offset        = 40

	// MinSize is the minimum payload length the hot parser accepts:
	// symbol(8) + bid/ask price+shares+spread (20).
	MinSize = 28
	// FullSize is the payload length that additionally carries the
	// optional four 32-bit hardware timestamps.
	FullSize = 44
)

// priceMultiplier converts the wire's fixed-point price (scaled x10000)
// to a float64 price. Multiplication, not division, is a deliberate
// micro-optimization per spec.md §4.5 and must stay a compile-time
// constant.
const priceMultiplier = 0.0001

// Parse reads a BBO datagram payload and, on success, returns a freshly
// populated slot acquired from pool. len(payload) < MinSize fails silently
// (no hot-path log); symbol validity is never checked here — call
// IsValidBBO separately on the cold path if needed.
//
//go:nosplit
func Parse(payload []byte, pool *slotpool.Pool, tsNS uint64, sequence uint32) (*bbo.Record, bool) {
	if arch.Unlikely(len(payload) < MinSize) {
		return nil, false
	}

	rec := pool.Acquire()

	copy(rec.Symbol[:], payload[symbolOffset:symbolOffset+8])

	bidRaw := binary.BigEndian.Uint32(payload[bidPriceOffset:])
	bidShares := binary.BigEndian.Uint32(payload[bidSharesOffset:])
	askRaw := binary.BigEndian.Uint32(payload[askPriceOffset:])
	askShares := binary.BigEndian.Uint32(payload[askSharesOffset:])
	spreadRaw := binary.BigEndian.Uint32(payload[spreadOffset:])

	rec.BidPrice = float64(bidRaw) * priceMultiplier
	rec.AskPrice = float64(askRaw) * priceMultiplier
	rec.Spread = float64(spreadRaw) * priceMultiplier
	rec.BidShares = bidShares
	rec.AskShares = askShares

	rec.TimestampNS = tsNS
	rec.Sequence = sequence
	rec.Valid = 1

	if arch.Likely(len(payload) >= FullSize) {
		rec.Flags = bbo.FlagHasHWTimestamps
	} else {
		rec.Flags = 0
	}

	return rec, true
}

// IsValidBBO is the cold symbol-validity predicate: printable ASCII or
// space only, per spec.md invariant 4. Never called from Parse.
func IsValidBBO(payload []byte) bool {
	if len(payload) < MinSize {
		return false
	}
	for i := 0; i < 8; i++ {
		c := payload[i]
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// ExtractTimestamps pulls the optional t1..t4 hardware-timestamp annex out
// of a full-length payload. Cold-path only; returns ok=false when the
// payload is too short to carry the annex.
func ExtractTimestamps(payload []byte) (bbo.HWTimestamps, bool) {
	var hw bbo.HWTimestamps
	if len(payload) < FullSize {
		return hw, false
	}
	hw.T1 = binary.BigEndian.Uint32(payload[t1Offset:])
	hw.T2 = binary.BigEndian.Uint32(payload[t2Offset:])
	hw.T3 = binary.BigEndian.Uint32(payload[t3Offset:])
	hw.T4 = binary.BigEndian.Uint32(payload[t4Offset:])
	hw.CalculateLatencies()
	return hw, true
}

// Serialize is the canonical round-trip encoder used by tests and by
// diagnostic tooling: it re-emits a payload in the same big-endian layout
// Parse consumed. Timestamp/sequence fields are not part of the wire
// format and are not emitted. Cold path only.
func Serialize(rec *bbo.Record, hw *bbo.HWTimestamps) []byte {
	size := MinSize
	if hw != nil {
		size = FullSize
	}
	out := make([]byte, size)

	copy(out[symbolOffset:], rec.Symbol[:])
	binary.BigEndian.PutUint32(out[bidPriceOffset:], uint32(rec.BidPrice/priceMultiplier+0.5))
	binary.BigEndian.PutUint32(out[bidSharesOffset:], rec.BidShares)
	binary.BigEndian.PutUint32(out[askPriceOffset:], uint32(rec.AskPrice/priceMultiplier+0.5))
	binary.BigEndian.PutUint32(out[askSharesOffset:], rec.AskShares)
	binary.BigEndian.PutUint32(out[spreadOffset:], uint32(rec.Spread/priceMultiplier+0.5))

	if hw != nil {
		binary.BigEndian.PutUint32(out[t1Offset:], hw.T1)
		binary.BigEndian.PutUint32(out[t2Offset:], hw.T2)
		binary.BigEndian.PutUint32(out[t3Offset:], hw.T3)
		binary.BigEndian.PutUint32(out[t4Offset:], hw.T4)
	}

	return out
}
