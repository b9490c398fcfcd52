//go:build amd64 && !noasm

package arch

// CompilerBarrier is an opaque call with no body: the Go compiler cannot
// see across it and so cannot reorder or elide memory operations around
// it, the same role asm volatile("" ::: "memory") plays in the C++ source.
//
//go:noescape
func CompilerBarrier()

// MemoryFence issues a full MFENCE — not used on the hot path (spec.md
// §4.1), present for completeness and for the cold diagnostic reader.
//
//go:noescape
func MemoryFence()
