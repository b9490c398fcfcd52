//go:build linux

// Linux binding for sched_setaffinity(2), pinning the calling OS thread to
// a single logical CPU, the core index computed on the fly since spec.md
// §6's -c/--core flag takes any int32 rather than selecting from a small
// fixed set.
//
// SetAffinity returns the syscall's error (EPERM/EINVAL on a
// cgroup-constrained or containerized host, EINVAL for cores above 63);
// internal/engine ignores it and runs unpinned (spec.md §7 treats this as
// an init warning, not a fatal error).

package arch

import (
	"syscall"
	"unsafe"
)

// SetAffinity pins the current OS thread to cpu (0-based). Negative values
// are treated as "no pinning requested" and are silently ignored.
func SetAffinity(cpu int) error {
	if cpu < 0 {
		return nil
	}
	var mask [1]uintptr
	word := cpu / 64
	bit := uint(cpu % 64)
	if word != 0 {
		// Single-word mask only supports cores 0-63.
		return syscall.EINVAL
	}
	mask[0] = 1 << bit
	_, _, errno := syscall.RawSyscall(
		syscall.SYS_SCHED_SETAFFINITY,
		0, // pid 0 => current thread
		uintptr(unsafe.Sizeof(mask[0])),
		uintptr(unsafe.Pointer(&mask[0])),
	)
	if errno != 0 {
		return errno
	}
	return nil
}
