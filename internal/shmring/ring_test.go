package shmring

import (
	"fmt"
	"testing"

	"golang.org/x/sys/unix"

	"bbogateway/internal/bbo"
)

func freshName(t *testing.T) string {
	t.Helper()
	name := fmt.Sprintf("test_%s_%d", t.Name(), len(t.Name()))
	t.Cleanup(func() {
		_ = unix.Unlink(segmentPath(name))
	})
	return name
}

func TestOpenCreatesSegmentWhenAbsent(t *testing.T) {
	name := freshName(t)
	p, err := Open(name, 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()
	if !p.isInitialized() {
		t.Fatalf("segment not placement-initialized")
	}
}

func TestOpenRejectsNonPowerOfTwoCapacity(t *testing.T) {
	if _, err := Open(freshName(t), 100); err == nil {
		t.Fatalf("Open() err = nil, want error for non-power-of-two capacity")
	}
}

func TestPublishSucceedsUntilFull(t *testing.T) {
	name := freshName(t)
	p, err := Open(name, 4)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	var rec bbo.Record
	rec.SetSymbol([]byte("AAPL"))
	rec.Valid = 1

	for i := 0; i < 4; i++ {
		if !p.Publish(&rec) {
			t.Fatalf("Publish() #%d = false, want true (capacity 4)", i)
		}
	}
	if p.Publish(&rec) {
		t.Fatalf("Publish() #5 = true, want false (ring full, no consumer)")
	}
}

func TestReopenAttachesToExistingSegmentWithoutReinitializing(t *testing.T) {
	name := freshName(t)
	p1, err := Open(name, 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var rec bbo.Record
	rec.SetSymbol([]byte("IBM"))
	if !p1.Publish(&rec) {
		t.Fatalf("Publish() = false on fresh ring")
	}
	p1.Close()

	p2, err := Open(name, 8)
	if err != nil {
		t.Fatalf("Open (reattach): %v", err)
	}
	defer p2.Close()

	// tail should have carried over from the first publish, not reset to 0.
	if got := p2.tail(); got != 1 {
		t.Fatalf("tail after reattach = %d, want 1", got)
	}
}
