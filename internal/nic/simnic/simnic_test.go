package simnic

import (
	"testing"

	"bbogateway/internal/nic"
)

func TestRxBurstDrainsInjectedFramesInOrder(t *testing.T) {
	d := New()
	d.Inject([]byte{1, 2, 3})
	d.Inject([]byte{4, 5})

	var out [4]nic.Packet
	n, err := d.RxBurst(0, out[:])
	if err != nil {
		t.Fatalf("RxBurst: %v", err)
	}
	if n != 2 {
		t.Fatalf("RxBurst() count = %d, want 2", n)
	}
	if out[0].Len != 3 || out[1].Len != 2 {
		t.Fatalf("unexpected packet lengths: %d, %d", out[0].Len, out[1].Len)
	}
	if *(*byte)(out[0].Data) != 1 {
		t.Fatalf("first packet's first byte = %d, want 1", *(*byte)(out[0].Data))
	}
	if d.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0 after full drain", d.Pending())
	}
}

func TestRxBurstRespectsOutputCapacity(t *testing.T) {
	d := New()
	for i := 0; i < 5; i++ {
		d.Inject([]byte{byte(i)})
	}

	var out [2]nic.Packet
	n, err := d.RxBurst(0, out[:])
	if err != nil {
		t.Fatalf("RxBurst: %v", err)
	}
	if n != 2 {
		t.Fatalf("RxBurst() count = %d, want 2 (bounded by len(out))", n)
	}
	if d.Pending() != 3 {
		t.Fatalf("Pending() = %d, want 3 remaining", d.Pending())
	}
}

func TestRxBurstOnEmptyQueueReturnsZero(t *testing.T) {
	d := New()
	var out [4]nic.Packet
	n, err := d.RxBurst(0, out[:])
	if err != nil {
		t.Fatalf("RxBurst: %v", err)
	}
	if n != 0 {
		t.Fatalf("RxBurst() count = %d, want 0 on empty queue", n)
	}
}
