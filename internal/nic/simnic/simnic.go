// Package simnic is a software loopback implementation of nic.Device used
// by internal/engine's tests and by the CLI's -sim mode, letting the full
// Ethernet→IPv4→UDP→BBO pipeline run without a DPDK-class binding, per
// spec.md §9's note that the kernel-bypass framework is an external
// collaborator this core only consumes through an interface.
package simnic

import (
	"sync"
	"unsafe"

	"bbogateway/internal/nic"
)

// Device is an in-process byte-queue NIC: frames injected with Inject are
// handed back, one burst at a time, from RxBurst.
type Device struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

// New returns a ready-to-use simulated device.
func New() *Device {
	return &Device{}
}

func (d *Device) Configure(rxQueues, txQueues int) error { return nil }
func (d *Device) Start() error                           { return nil }
func (d *Device) SetPromiscuous(enable bool) error        { return nil }
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Inject enqueues a raw frame (Ethernet header onward) to be returned by a
// future RxBurst. The byte slice is retained until RxBurst hands it out;
// callers should not mutate it afterward.
func (d *Device) Inject(frame []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, frame)
}

// RxBurst drains up to len(out) queued frames into out.
func (d *Device) RxBurst(queue int, out []nic.Packet) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(out)
	if n > len(d.frames) {
		n = len(d.frames)
	}
	for i := 0; i < n; i++ {
		f := d.frames[i]
		out[i] = nic.Packet{
			Data: unsafe.Pointer(&f[0]),
			Len:  len(f),
			Free: func() {},
		}
	}
	d.frames = d.frames[n:]
	return n, nil
}

// Pending reports how many frames remain queued, for test assertions.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames)
}
