// Package bbo defines the 64-byte, cache-line-aligned Best Bid/Offer
// record that flows from the wire parser through the slot pool to the
// ring publisher, grounded on original_source/include/bbo_data.h's
// BBODataFast.
package bbo

import (
	"unsafe"

	"bbogateway/internal/utils"
)

// Flag bits for Record.Flags, matching BboFlags in bbo_data.h.
const (
	FlagHasHWTimestamps uint8 = 1 << 0
	FlagSynthetic       uint8 = 1 << 1
	FlagStale           uint8 = 1 << 2
)

// Record is exactly 64 bytes, fields in declaration order per spec.md §3.
// Layout is fixed and bit-identical across instances — no endianness
// conversion on store, the record lives in host order. Go gives the type
// itself natural 8-byte alignment; the 64-byte cache-line alignment
// invariant is guaranteed instead by internal/slotpool's placement (a
// 64-byte-aligned base address plus a fixed 64-byte stride per slot), the
// same division of responsibility the original's mmap-backed BBOPool used.
type Record struct {
	Symbol      [8]byte // space-padded ASCII ticker, not NUL-terminated
	BidPrice    float64
	AskPrice    float64
	BidShares   uint32
	AskShares   uint32
	Spread      float64
	TimestampNS uint64
	Sequence    uint32
	Valid       uint8
	Flags       uint8
	_           [10]byte // padding to 64 bytes
}

func init() {
	if unsafe.Sizeof(Record{}) != 64 {
		panic("bbo: Record must be exactly 64 bytes")
	}
}

// Clear zeroes every byte of the record in place.
//
//go:nosplit
//go:inline
func (r *Record) Clear() {
	*r = Record{}
}

// SetSymbol copies up to 8 bytes of b into Symbol, space-padding any
// remainder.
//
//go:nosplit
//go:inline
func (r *Record) SetSymbol(b []byte) {
	n := len(b)
	if n > 8 {
		n = 8
	}
	copy(r.Symbol[:n], b)
	for i := n; i < 8; i++ {
		r.Symbol[i] = ' '
	}
}

// Symbol8 returns the ticker with trailing spaces and NULs trimmed. Cold
// diagnostic path only — it is never called while parsing.
func (r *Record) Symbol8() string {
	n := 8
	for n > 0 && (r.Symbol[n-1] == ' ' || r.Symbol[n-1] == 0) {
		n--
	}
	return utils.B2s(r.Symbol[:n])
}

// IsValidBBO reports whether the symbol bytes are all printable ASCII or
// space, per spec.md invariant 4. Cold predicate — the hot parser never
// calls it.
func IsValidBBO(r *Record) bool {
	for _, c := range r.Symbol {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// HWTimestamps is the optional hardware-timestamp annex: four 32-bit cycle
// counts and three derived microsecond deltas, extracted only by cold-path
// callers that want detailed latency analysis.
type HWTimestamps struct {
	T1, T2, T3, T4 uint32
	LatencyAUs     float64
	LatencyBUs     float64
	TotalUs        float64
}

// nsPerFPGACycle matches the original's 125 MHz FPGA clock assumption
// (8 ns/cycle) used only to interpret the t1..t4 annex, unrelated to the
// host RDTSC clock in package clock.
const nsPerFPGACycle = 8.0
const usPerNS = 0.001

// CalculateLatencies fills LatencyAUs/LatencyBUs/TotalUs from T1..T4.
func (h *HWTimestamps) CalculateLatencies() {
	h.LatencyAUs = float64(h.T2-h.T1) * nsPerFPGACycle * usPerNS
	h.LatencyBUs = float64(h.T4-h.T3) * nsPerFPGACycle * usPerNS
	h.TotalUs = h.LatencyAUs + h.LatencyBUs
}
