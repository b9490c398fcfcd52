// Package slotpool implements the pre-allocated, power-of-two circular
// array of bbo.Record slots the receive engine acquires from on every
// packet, grounded on original_source/include/bbo_pool.h's BBOPool<N>.
// There is no free operation: reuse is implicit via wrap-around, and the
// acquire counter is a single padded atomic written only by the owning
// thread (spec.md §3/§4.4).
package slotpool

import (
	"fmt"

	"golang.org/x/sys/unix"

	"bbogateway/internal/arch"
	"bbogateway/internal/bbo"
)

const recordSize = 64

// mapHugeShift2MB encodes an explicit 2 MiB huge-page size hint into the
// mmap flags, matching MAP_HUGETLB | (21 << MAP_HUGE_SHIFT) in the
// original's allocate_pool fallback.
const mapHugeShift2MB = 21 << 26 // unix.MAP_HUGE_SHIFT == 26

// Pool is a contiguous array of N bbo.Record slots, N a power of two.
// Indexing always uses a bitmask, never modulo (spec.md invariant 1).
type Pool struct {
	slots     []bbo.Record
	mask      uint32
	usingHuge bool
	backing   []byte // non-nil only for the mmap-backed allocation paths

	_    [64]byte
	head uint32 // relaxed atomic, single-writer; padded to its own cache line
	_    [60]byte
}

// New allocates a Pool of n slots. n must be a power of two. Allocation is
// tried in priority order: huge-page anonymous mapping, explicit 2 MiB
// huge-page mapping, 64-byte-aligned ordinary allocation. The ordinary
// fallback cannot itself fail in Go (no OOM-returning allocator call is
// exposed), so New only returns an error for a bad n.
func New(n int) (*Pool, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("slotpool: size %d is not a power of two", n)
	}

	p := &Pool{mask: uint32(n - 1)}
	byteLen := n * recordSize

	if b, ok := mmapHuge(byteLen, 0); ok {
		p.backing = b
		p.usingHuge = true
		p.slots = bytesToSlots(b, n)
	} else if b, ok := mmapHuge(byteLen, mapHugeShift2MB); ok {
		p.backing = b
		p.usingHuge = true
		p.slots = bytesToSlots(b, n)
	} else {
		p.slots = alignedAlloc(n)
		p.usingHuge = false
	}

	// Pre-fault every slot so no page fault occurs on the hot path.
	for i := range p.slots {
		p.slots[i].Clear()
	}

	return p, nil
}

// mmapHuge attempts an anonymous huge-page mapping of byteLen bytes with
// the given extra flags (0, or an explicit huge-page-size hint).
func mmapHuge(byteLen int, extraFlags int) ([]byte, bool) {
	b, err := unix.Mmap(-1, 0, byteLen,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_HUGETLB|extraFlags)
	if err != nil {
		return nil, false
	}
	return b, true
}

// alignedAlloc returns an ordinary, 64-byte-aligned slice of n records by
// over-allocating and hand-aligning, a manual pointer-arithmetic-over-a-
// raw-[]byte idiom rather than reaching for a dedicated aligned-alloc
// library.
func alignedAlloc(n int) []bbo.Record {
	raw := make([]byte, n*recordSize+63) // 63 bytes of slack for alignment
	return alignSlots(raw, n)
}

// Acquire returns the next slot in round-robin order via a relaxed,
// cache-line-padded atomic counter. Always succeeds; the returned pointer
// remains exclusively owned by the caller until the next wrap visits the
// same index (spec.md invariant 5).
//
//go:nosplit
//go:inline
func (p *Pool) Acquire() *bbo.Record {
	idx := atomicAddRelaxed(&p.head, 1) & p.mask
	return &p.slots[idx]
}

// WarmCache touches one 8-byte word from each slot in ascending order to
// pre-fault pages and prime the cache, with a compiler barrier after the
// loop to prevent the optimizer from eliding it.
func (p *Pool) WarmCache() {
	var sink uint64
	for i := range p.slots {
		sink += *(*uint64)(recordWord(&p.slots[i]))
	}
	arch.CompilerBarrier()
	sinkDiscard(sink)
}

// CurrentHead exposes the acquire counter for diagnostics.
func (p *Pool) CurrentHead() uint32 {
	return atomicLoadRelaxed(&p.head)
}

// UsingHugePages reports which backing allocation succeeded.
func (p *Pool) UsingHugePages() bool { return p.usingHuge }

// Len returns the slot count.
func (p *Pool) Len() int { return len(p.slots) }

// Close releases the pool's backing memory.
func (p *Pool) Close() error {
	if p.backing != nil {
		return unix.Munmap(p.backing)
	}
	return nil
}

// sinkDiscard exists purely so WarmCache's accumulator has an observable
// use; without it the compiler would be free to prove sink dead despite
// the barrier.
//
//go:noinline
func sinkDiscard(uint64) {}
