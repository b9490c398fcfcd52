// Package clock calibrates the CPU cycle counter against the wall clock
// once at startup and thereafter offers pure scalar cycles<->nanoseconds
// conversions, grounded on original_source/include/rdtsc.h's
// TSCCalibrator: a single blocking calibration window, two derived
// doubles, and a base cycle count, all read-only after construction.
package clock

import "time"

// defaultWindow is the calibration sleep length: 10 ms, matching the
// original's calibration_us constant.
const defaultWindow = 10 * time.Millisecond

// Clock holds the calibration constants. Zero value is not usable; build
// one with Calibrate. All fields are written once and read thereafter, so
// no synchronization guards access from multiple goroutines.
type Clock struct {
	nsPerCycle  float64
	cyclesPerNS float64
	baseCycle   uint64
}

// Calibrate blocks for window (defaultWindow if window <= 0), measuring the
// cycle delta across a wall-clock sleep of that length, and derives
// ns-per-cycle / cycles-per-ns from it. Must run before the poll loop
// starts (spec.md invariant 6: ns_per_cycle > 0 when the loop begins).
func Calibrate(window time.Duration) *Clock {
	if window <= 0 {
		window = defaultWindow
	}

	start := readCycleSerialized()
	time.Sleep(window)
	end := readCycleSerialized()

	cycles := end - start
	ns := float64(window.Nanoseconds())

	c := &Clock{
		nsPerCycle:  ns / float64(cycles),
		cyclesPerNS: float64(cycles) / ns,
	}
	c.baseCycle = readCycleSerialized()
	return c
}

// CyclesToNS converts a cycle count to nanoseconds using the calibrated
// ratio.
//
//go:nosplit
//go:inline
func (c *Clock) CyclesToNS(cycles uint64) uint64 {
	return uint64(float64(cycles) * c.nsPerCycle)
}

// NSToCycles converts a nanosecond duration to an equivalent cycle count.
//
//go:nosplit
//go:inline
func (c *Clock) NSToCycles(ns uint64) uint64 {
	return uint64(float64(ns) * c.cyclesPerNS)
}

// NowNS returns an approximation of current time by converting a freshly
// serialized cycle read. Cold/diagnostic path only — the hot path uses
// ReadCycleUnserialized directly and converts with CyclesToNS.
func (c *Clock) NowNS() uint64 {
	return c.CyclesToNS(readCycleSerialized())
}

// ElapsedNS returns nanoseconds elapsed since calibration completed.
func (c *Clock) ElapsedNS() uint64 {
	return c.CyclesToNS(readCycleSerialized() - c.baseCycle)
}

// NsPerCycle exposes the calibrated ratio for diagnostics.
func (c *Clock) NsPerCycle() float64 { return c.nsPerCycle }

// ReadCycleUnserialized is the hot-path timestamp capture: a bare,
// unserialized cycle read with no pipeline-draining side effects. Callers
// convert the result with CyclesToNS.
//
//go:nosplit
//go:inline
func ReadCycleUnserialized() uint64 {
	return readCycleUnserialized()
}
