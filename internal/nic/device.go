// Package nic expresses the kernel-bypass framework contract the receive
// engine consumes (spec.md §6), as a Go interface rather than invented
// DPDK bindings — no DPDK Go binding exists in the pack or the wider
// ecosystem, since DPDK is a C/C++-only userspace driver framework, so
// this interface is, per spec.md §9's design-notes instruction, the Go
// expression of "the kernel-bypass framework's own initialization" staying
// an external collaborator.
package nic

import "unsafe"

// Packet is one received frame handle: a pointer/length pair into
// framework-owned buffer memory, plus a Free callback that releases it
// back to the framework (rte_pktmbuf_free in the original).
type Packet struct {
	Data unsafe.Pointer
	Len  int
	Free func()
}

// Device mirrors spec.md §6's consumed contract: device configuration,
// start, optional promiscuous mode, and the burst-receive poll primitive.
// A real binding (device binding, huge-page memory pool creation, link
// bring-up) is explicitly out of scope for this core (spec.md §1); Device
// exists so internal/engine can be driven by either one, in tests, or by
// nic/simnic's software loopback.
type Device interface {
	// Configure prepares rxQueues RX queues and txQueues TX queues.
	Configure(rxQueues, txQueues int) error
	// Start brings the device up for polling.
	Start() error
	// SetPromiscuous enables or disables promiscuous mode. A denial here
	// is an init warning, not fatal (spec.md §7).
	SetPromiscuous(enable bool) error
	// RxBurst polls up to len(out) packets from queue into out, returning
	// the count actually received. Never blocks.
	RxBurst(queue int, out []Packet) (int, error)
	// Close releases the device.
	Close() error
}
