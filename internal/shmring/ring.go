// Package shmring is the single-producer interface to a cross-process
// SPSC ring living in a named POSIX shared-memory segment, grounded on
// spec.md §4.6/§6: a sequence-stamped payload slot per entry, head/tail
// each cache-line padded, laid out in a memory-mapped region a separate
// consumer process can also attach to.
package shmring

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/sys/unix"

	"bbogateway/internal/bbo"
)

// Consumer-side wire record: wider 16-byte symbol plus the four
// hardware-timestamp fields (always zeroed on publish — convert_and_publish's
// documented behavior, see Open Questions in DESIGN.md). Fixed layout,
// copied by value into the ring slot. 128 bytes matches spec.md §6's
// 16384-capacity default sizing to ≈2 MiB.
const consumerRecordSize = 128

const (
	crSymbolOff    = 0  // 16 bytes
	crBidPriceOff  = 16 // 8 bytes
	crAskPriceOff  = 24 // 8 bytes
	crBidSharesOff = 32 // 4 bytes
	crAskSharesOff = 36 // 4 bytes
	crSpreadOff    = 40 // 8 bytes
	crTimestampOff = 48 // 8 bytes
	crHWT1Off      = 56 // 4 bytes
	crHWT2Off      = 60 // 4 bytes
	crHWT3Off      = 64 // 4 bytes
	crHWT4Off      = 68 // 4 bytes
	crValidOff     = 72 // 1 byte
	// remaining 55 bytes reserved/padding
)

// slotStride is the full width of one ring slot: an 8-byte sequence stamp
// followed by one consumer record. The stamp is kept outside the record
// body (rather than carved from its first 8 bytes) so the record's own
// 128-byte layout is never truncated and never overlaps the next slot's
// stamp.
const slotStride = 8 + consumerRecordSize

// ringMagic/ringVersion identify a segment this package placed; a segment
// lacking them is treated as uninitialized and is (re)placed.
const (
	ringMagic   = uint32(0xB8057E51)
	ringVersion = uint32(1)
)

// headerSize is the fixed, cache-line padded ring descriptor written at
// offset 0 of the mapping: magic, version, mask, then head/tail each
// isolated on their own cache line to avoid false sharing between the
// producer (this process) and the consumer (a separate process).
const headerSize = 192

// DefaultName and DefaultCapacity match spec.md §6.
const (
	DefaultName     = "gateway"
	DefaultCapacity = 16384
)

// Publisher is this process's single-producer handle onto the ring.
type Publisher struct {
	mem  []byte
	path string
	mask uint64
}

// segmentPath returns /dev/shm/bbo_ring_<name>, the Linux tmpfs path
// backing the POSIX-style shared-memory segment /bbo_ring_<name> named in
// spec.md §6 (no shm_open(3) binding exists in Go stdlib or the pack; on
// Linux /dev/shm is a plain tmpfs mount, so a regular unix.Open suffices).
func segmentPath(name string) string {
	return "/dev/shm/bbo_ring_" + name
}

// ringByteSize computes the full mapping size for a given capacity.
func ringByteSize(capacity uint64) int {
	return headerSize + int(capacity)*slotStride
}

// Open attaches to the named ring, creating and placement-initializing it
// if absent. capacity must be a power of two.
func Open(name string, capacity uint64) (*Publisher, error) {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("shmring: capacity %d is not a power of two", capacity)
	}
	path := segmentPath(name)
	size := ringByteSize(capacity)

	fd, err := unix.Open(path, unix.O_RDWR, 0666)
	if err == nil {
		mem, mErr := mmapFD(fd, size)
		unix.Close(fd) // mapping keeps the segment alive (spec.md §5)
		if mErr != nil {
			return nil, fmt.Errorf("shmring: mmap existing segment: %w", mErr)
		}
		p := &Publisher{mem: mem, path: path, mask: capacity - 1}
		if !p.isInitialized() {
			p.placementInit(capacity)
		}
		return p, nil
	}
	if err != unix.ENOENT {
		return nil, fmt.Errorf("shmring: open existing segment: %w", err)
	}

	// Stale segments from prior crashed runs are unlinked before create.
	_ = unix.Unlink(path)

	fd, err = unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL, 0666)
	if err != nil {
		return nil, fmt.Errorf("shmring: create segment: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shmring: truncate segment: %w", err)
	}
	mem, mErr := mmapFD(fd, size)
	unix.Close(fd)
	if mErr != nil {
		return nil, fmt.Errorf("shmring: mmap new segment: %w", mErr)
	}

	p := &Publisher{mem: mem, path: path, mask: capacity - 1}
	p.placementInit(capacity)
	return p, nil
}

func mmapFD(fd int, size int) ([]byte, error) {
	return unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func (p *Publisher) isInitialized() bool {
	return binary.LittleEndian.Uint32(p.mem[0:4]) == ringMagic &&
		binary.LittleEndian.Uint32(p.mem[4:8]) == ringVersion
}

// placementInit writes the ring descriptor into a pre-existing mapping,
// with an explicit already-initialized sentinel (magic+version) rather
// than relying on any new-at-address language feature.
func (p *Publisher) placementInit(capacity uint64) {
	binary.LittleEndian.PutUint32(p.mem[0:4], ringMagic)
	binary.LittleEndian.PutUint32(p.mem[4:8], ringVersion)
	binary.LittleEndian.PutUint64(p.mem[8:16], capacity-1) // mask
	// head at [64:72), tail at [128:136), each on its own cache line.
	binary.LittleEndian.PutUint64(p.mem[64:72], 0)
	binary.LittleEndian.PutUint64(p.mem[128:136], 0)

	// Every slot's sequence stamp starts at its own index, the same
	// initialization ring32/ring56 perform in New(), so the first
	// publish to slot i observes seq == tail (== i) and proceeds.
	for i := uint64(0); i < capacity; i++ {
		off := p.slotOffset(i)
		binary.LittleEndian.PutUint64(p.mem[off:off+8], i)
	}
}

func (p *Publisher) tail() uint64     { return binary.LittleEndian.Uint64(p.mem[128:136]) }
func (p *Publisher) setTail(v uint64) { binary.LittleEndian.PutUint64(p.mem[128:136], v) }

// headView exposes the consumer-owned head position, for diagnostics only
// (spec.md §5: the ring is the only cross-process synchronization
// surface; this process never advances head itself).
func (p *Publisher) headView() uint64 { return binary.LittleEndian.Uint64(p.mem[64:72]) }

// slotOffset returns the mapping offset of slot index's sequence stamp;
// the slot's record body starts 8 bytes after it.
func (p *Publisher) slotOffset(index uint64) int {
	return headerSize + int(index)*slotStride
}

// Publish widens rec's 8-byte symbol to 16 bytes, copies prices/shares/
// spread/timestamp/validity, zeroes the hardware-timestamp fields
// (convert_and_publish's documented behavior, preserved per DESIGN.md §2),
// and attempts a non-blocking try_publish against the consumer's declared
// sequence-stamped slot. Returns false when the ring is full; the caller
// (internal/engine) increments RingBufferFull on false.
//
//go:nosplit
func (p *Publisher) Publish(rec *bbo.Record) bool {
	t := p.tail()
	idx := t & p.mask
	slotOff := p.slotOffset(idx)
	seqOff := slotOff // sequence stamp lives in the slot's first 8 bytes

	seq := binary.LittleEndian.Uint64(p.mem[seqOff : seqOff+8])
	if seq != t {
		return false // consumer has not yet reclaimed this slot
	}

	body := p.mem[slotOff+8 : slotOff+8+consumerRecordSize]

	var symbol16 [16]byte
	copy(symbol16[:8], rec.Symbol[:])
	for i := 8; i < 16; i++ {
		symbol16[i] = ' '
	}
	symbol16[15] = 0
	copy(body[crSymbolOff:], symbol16[:])

	binary.LittleEndian.PutUint64(body[crBidPriceOff:], math.Float64bits(rec.BidPrice))
	binary.LittleEndian.PutUint64(body[crAskPriceOff:], math.Float64bits(rec.AskPrice))
	binary.LittleEndian.PutUint32(body[crBidSharesOff:], rec.BidShares)
	binary.LittleEndian.PutUint32(body[crAskSharesOff:], rec.AskShares)
	binary.LittleEndian.PutUint64(body[crSpreadOff:], math.Float64bits(rec.Spread))
	binary.LittleEndian.PutUint64(body[crTimestampOff:], rec.TimestampNS)
	// convert_and_publish always zeroes the hardware-timestamp fields
	// regardless of whether fast.flags carried them, so they are written
	// unconditionally rather than left as stale bytes from a reused slot.
	binary.LittleEndian.PutUint32(body[crHWT1Off:], 0)
	binary.LittleEndian.PutUint32(body[crHWT2Off:], 0)
	binary.LittleEndian.PutUint32(body[crHWT3Off:], 0)
	binary.LittleEndian.PutUint32(body[crHWT4Off:], 0)
	body[crValidOff] = rec.Valid

	binary.LittleEndian.PutUint64(p.mem[seqOff:seqOff+8], t+1)
	p.setTail(t + 1)
	return true
}

// Close munmaps the backing mapping.
func (p *Publisher) Close() error {
	return unix.Munmap(p.mem)
}
