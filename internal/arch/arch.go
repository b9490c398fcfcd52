// Package arch collects the branch-prediction and cache-control primitives
// the receive engine places by hand on its hot path: prefetch hints,
// compiler/memory fences, and CPU-pinning. None of this allocates and none
// of it is meant to be called anywhere but the poll loop and initialization.
package arch

// Likely documents that cond is expected true; it is an identity function —
// Go exposes no __builtin_expect equivalent to the compiler — kept so call
// sites read the same way the original branch-weight hints did.
//
//go:nosplit
//go:inline
func Likely(cond bool) bool { return cond }

// Unlikely documents that cond is expected false.
//
//go:nosplit
//go:inline
func Unlikely(cond bool) bool { return cond }
