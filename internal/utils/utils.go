// Package utils holds the small zero-allocation helpers shared by the cold
// diagnostic paths.
package utils

import "unsafe"

// B2s converts a []byte to a string without allocation. Caller must ensure
// the backing slice remains valid and unchanged for the string's lifetime.
// Cold-path only (symbol trimming, log formatting) — never on the hot
// parse path.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
