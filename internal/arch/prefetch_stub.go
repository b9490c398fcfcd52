//go:build !amd64 || noasm

// Portable fallback: prefetch is a no-op on architectures (or builds) where
// the hand-written opcode form below is unavailable. Source stays unchanged
// across GOARCH; only the hint is lost.

package arch

import "unsafe"

// PrefetchL1 is a no-op on unsupported targets.
func PrefetchL1(addr unsafe.Pointer) {}

// PrefetchL2 is a no-op on unsupported targets.
func PrefetchL2(addr unsafe.Pointer) {}
