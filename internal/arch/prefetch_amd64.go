//go:build amd64 && !noasm

// Go declarations for the prefetch opcodes implemented in prefetch_amd64.s.
// PrefetchL1 issues PREFETCHT0 (pull the line into all cache levels,
// temporal); PrefetchL2 issues PREFETCHT1 (L2 and below). Both are
// fire-and-forget hints: a bad or unmapped address is silently ignored by
// the CPU, so no bounds checking happens here.

package arch

import "unsafe"

// PrefetchL1 hints that addr will be touched again immediately.
//
//go:noescape
func PrefetchL1(addr unsafe.Pointer)

// PrefetchL2 hints that addr will be touched again soon, but not
// immediately — used for the second packet ahead in a burst.
//
//go:noescape
func PrefetchL2(addr unsafe.Pointer)
