//go:build amd64 && !noasm

// Go declarations for the two cycle-counter reads implemented in
// rdtsc_amd64.s. The serialized/unserialized split is semantic, not
// stylistic (spec.md §9): readCycleUnserialized is a bare RDTSC used on the
// hot path, where a few cycles of jitter beat a pipeline drain;
// readCycleSerialized is RDTSCP, used only by Calibrate, NowNS and ElapsedNS.

package clock

//go:noescape
func readCycleUnserialized() uint64

//go:noescape
func readCycleSerialized() uint64
