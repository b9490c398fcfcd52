//go:build !amd64 || noasm

package arch

// CompilerBarrier is a no-op on unsupported targets.
func CompilerBarrier() {}

// MemoryFence is a no-op on unsupported targets.
func MemoryFence() {}
