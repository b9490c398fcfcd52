//go:build !amd64 || noasm

// Portable fallback for non-amd64 targets or noasm builds. There is no
// portable cycle counter, so both reads fall back to the wall clock;
// spec.md §4.2 documents this as non-authoritative and exists solely so
// the module builds on CI runners without RDTSC, never as a latency
// measurement path.

package clock

import "time"

func readCycleUnserialized() uint64 { return uint64(time.Now().UnixNano()) }
func readCycleSerialized() uint64   { return uint64(time.Now().UnixNano()) }
