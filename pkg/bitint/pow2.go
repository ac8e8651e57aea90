// SPDX-License-Identifier: MIT
//
// Package bitint holds the power-of-two helpers used to size FFT windows and
// ring buffers. Everything here is branch-light and allocation-free.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Zero and negative
// inputs return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	// size-1 keeps exact powers of two from being doubled.
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Mask returns size-1 for a power-of-two size, the index mask used by the
// lock-free rings. It returns 0 for anything else.
func Mask(size int) uint64 {
	if !IsPowerOfTwo(size) {
		return 0
	}
	return uint64(size - 1)
}
