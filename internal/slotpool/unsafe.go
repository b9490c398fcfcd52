package slotpool

import (
	"sync/atomic"
	"unsafe"

	"bbogateway/internal/bbo"
)

// bytesToSlots reinterprets an mmap-backed byte slice as n consecutive
// bbo.Record values with no copy, the Go analogue of the original's
// reinterpret_cast<BBODataFast*>(mmap(...)).
func bytesToSlots(b []byte, n int) []bbo.Record {
	return unsafe.Slice((*bbo.Record)(unsafe.Pointer(&b[0])), n)
}

// alignSlots carves n 64-byte-aligned records out of raw, a byte buffer
// over-allocated by up to 63 bytes of slack. Byte-granular slack is
// required: a []bbo.Record slice has a fixed 64-byte stride, so shifting
// by whole records never changes the address's residue mod 64 — only a
// byte-level offset can.
func alignSlots(raw []byte, n int) []bbo.Record {
	addr := uintptr(unsafe.Pointer(&raw[0]))
	offset := (64 - addr%64) % 64
	return unsafe.Slice((*bbo.Record)(unsafe.Pointer(&raw[offset])), n)
}

// recordWord returns a pointer to the first 8 bytes of r, for WarmCache's
// single-word touch per slot.
func recordWord(r *bbo.Record) unsafe.Pointer {
	return unsafe.Pointer(r)
}

// atomicAddRelaxed adds delta to *p and returns the PRE-increment value,
// matching fetch_add(1)'s literal semantics (Go's atomic.AddUint32 returns
// the post-increment value, so the delta is subtracted back out). Go's
// sync/atomic exposes no relaxed/acquire/release distinction the way C++
// does; this is the closest available primitive and is documented here as
// relaxed-ordering in intent, matching spec.md §4.4 ("the counter could be
// a plain scalar; making it atomic costs nothing... and allows safe
// external inspection").
//
//go:nosplit
//go:inline
func atomicAddRelaxed(p *uint32, delta uint32) uint32 {
	return atomic.AddUint32(p, delta) - delta
}

// atomicLoadRelaxed reads *p for diagnostic inspection from another
// goroutine.
//
//go:nosplit
//go:inline
func atomicLoadRelaxed(p *uint32) uint32 {
	return atomic.LoadUint32(p)
}
