//go:build !linux

package arch

// SetAffinity is a no-op on non-Linux targets; CPU pinning has no portable
// equivalent and the engine runs unpinned.
func SetAffinity(cpu int) error { return nil }
