// Package engine is the busy-poll receive loop: it pulls bursts from a
// nic.Device, prefetches ahead, walks Ethernet/IPv4/UDP headers, parses
// BBO payloads, and publishes into the cross-process ring. Grounded on
// original_source/include/dpdk_receiver.h's DPDKReceiver (process_burst,
// process_packet, warm_up, the Stats block), generalized from a
// consumer-side pop loop to a producer-side poll loop.
package engine

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"bbogateway/internal/arch"
	"bbogateway/internal/clock"
	"bbogateway/internal/nic"
	"bbogateway/internal/shmring"
	"bbogateway/internal/slotpool"
)

// BurstSize is a deliberate floor, well below the framework's maximum
// (typically 64-256): smaller bursts reduce worst-case batch service
// time and tail latency at no benefit to throughput, which is the
// correct trade for a P99-optimized design (spec.md §4.7).
const BurstSize = 32

// State is the engine's externally-driven lifecycle.
type State int32

const (
	StateUninit State = iota
	StateInitialized
	StateWarming
	StateRunning
	StateStopped
)

// Config carries the per-run parameters the engine itself needs; CLI
// parsing and defaulting live in internal/config.
type Config struct {
	Queue         int
	UDPPort       uint16
	WarmupPackets int
	SkipWarmup    bool
	Core          int32
}

// Engine is the receive loop plus its counters. Counters are individually
// cache-line padded uint64 atomics, relaxed ordering, single-writer
// (the engine goroutine) many-reader (an optional stats reader).
type Engine struct {
	dev  nic.Device
	pool *slotpool.Pool
	clk  *clock.Clock
	pub  *shmring.Publisher
	cfg  Config

	state   int32
	running uint32

	sequence uint32 // plain scalar: single-writer, the engine goroutine only

	_                [64]byte
	packetsReceived  uint64
	_                [56]byte
	packetsProcessed uint64
	_                [56]byte
	parseErrors      uint64
	_                [56]byte
	ringBufferFull   uint64
	_                [56]byte
}

// New builds an Engine over an already-open device, pool, calibrated
// clock, and ring publisher. None of those are constructed here — device
// binding, huge-page pool creation, and ring mapping are initialization
// concerns the caller (cmd/bbogateway) owns, per spec.md §1's external
// collaborator boundary.
func New(dev nic.Device, pool *slotpool.Pool, clk *clock.Clock, pub *shmring.Publisher, cfg Config) *Engine {
	return &Engine{dev: dev, pool: pool, clk: clk, pub: pub, cfg: cfg}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	return State(atomic.LoadInt32(&e.state))
}

// Init configures and starts the device, moving Uninit -> Initialized.
// Device/mempool/segment/calibration failures are fatal per spec.md §7;
// Init returns the error and leaves the engine out of Running. Promiscuous
// mode denial is a warning only and never fails Init.
func (e *Engine) Init() error {
	if e.State() != StateUninit {
		return fmt.Errorf("engine: Init called from state %v, want Uninit", e.State())
	}
	if err := e.dev.Configure(1, 0); err != nil {
		return fmt.Errorf("engine: device configure: %w", err)
	}
	if err := e.dev.Start(); err != nil {
		return fmt.Errorf("engine: device start: %w", err)
	}
	// Promiscuous-enable denial is a warning, not fatal (spec.md §7); the
	// caller's telemetry logger records it, Init does not fail on it.
	_ = e.dev.SetPromiscuous(true)

	atomic.StoreInt32(&e.state, int32(StateInitialized))
	return nil
}

// WarmUp runs the two-phase warm-up protocol: a cache touch over the slot
// pool plus one clock read, then count synthetic packets driven through
// the exact process_packet code path the hot loop will execute. Moves
// Initialized -> Warming and leaves the engine there; Run advances to
// Running. A zero count (or cfg.SkipWarmup) performs only the cache touch.
func (e *Engine) WarmUp(count int) error {
	if e.State() != StateInitialized {
		return fmt.Errorf("engine: WarmUp called from state %v, want Initialized", e.State())
	}
	atomic.StoreInt32(&e.state, int32(StateWarming))

	e.pool.WarmCache()
	sinkDiscard(e.clk.CyclesToNS(clock.ReadCycleUnserialized()))

	if !e.cfg.SkipWarmup {
		frame := buildSyntheticFrame(e.cfg.UDPPort)
		for i := 0; i < count; i++ {
			e.processPacket(frame)
		}
	}
	return nil
}

// Run enters the busy-poll loop, moving Warming (or Initialized, if
// WarmUp was skipped) -> Running. It blocks until Stop is called from
// another goroutine, then moves to Stopped (terminal for this process
// invocation) and returns.
func (e *Engine) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if e.cfg.Core >= 0 {
		_ = arch.SetAffinity(int(e.cfg.Core))
	}

	atomic.StoreUint32(&e.running, 1)
	atomic.StoreInt32(&e.state, int32(StateRunning))

	var burst [BurstSize]nic.Packet
	for atomic.LoadUint32(&e.running) != 0 {
		count, _ := e.dev.RxBurst(e.cfg.Queue, burst[:])
		if count == 0 {
			continue
		}
		for i := 0; i < count; i++ {
			if arch.Likely(i+1 < count) {
				arch.PrefetchL1(burst[i+1].Data)
			}
			if arch.Likely(i+2 < count) {
				arch.PrefetchL2(burst[i+2].Data)
			}
			e.processPacket(frameBytes(&burst[i]))
			burst[i].Free()
		}
	}

	atomic.StoreInt32(&e.state, int32(StateStopped))
}

// Stop requests graceful shutdown: the next loop iteration in Run observes
// the cleared flag (relaxed load — ordering does not matter for shutdown,
// spec.md §5) and returns. Safe to call from a signal handler goroutine.
func (e *Engine) Stop() {
	atomic.StoreUint32(&e.running, 0)
}

// Counters, relaxed-load for diagnostic readers (an optional stats
// goroutine, or telemetry.Counters).
func (e *Engine) PacketsReceived() uint64  { return atomic.LoadUint64(&e.packetsReceived) }
func (e *Engine) PacketsProcessed() uint64 { return atomic.LoadUint64(&e.packetsProcessed) }
func (e *Engine) ParseErrors() uint64      { return atomic.LoadUint64(&e.parseErrors) }
func (e *Engine) RingBufferFull() uint64   { return atomic.LoadUint64(&e.ringBufferFull) }

// sinkDiscard pulls the clock constants into cache during warm-up without
// letting the optimizer prove the read dead (mirrors slotpool.WarmCache's
// own compiler-barrier-guarded sink).
//
//go:noinline
func sinkDiscard(uint64) {}
