package core

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Purpose: complex FFT, in two implementations per spec.md §9's dual-FFT
// requirement: a production transform backed by go-dsp/fft (grounded on the
// ausocean-av pack entry's use of the same library), and a portable
// bit-reversed radix-2 reference implementation for cross-validation (no
// build falls back to it in place of the production library). Grounded on
// DSP_FFT.cpp's TESTMODE branch, which keeps exactly this kind of dual
// implementation (arm_cfft_radix2_f32 as the "slow but obviously correct"
// reference against the production CMSIS routine).

// FFT computes the forward complex FFT of in (length must be a power of
// two) using the production library.
func FFT(in []complex128) []complex128 {
	return fft.FFT(in)
}

// IFFT computes the inverse complex FFT using the production library.
func IFFT(in []complex128) []complex128 {
	return fft.IFFT(in)
}

// Radix2FFT is the portable reference transform: iterative, bit-reversed,
// decimation-in-time, no external dependency. Used only in tests to
// cross-check the production FFT; no production code path calls it.
func Radix2FFT(in []complex128) []complex128 {
	n := len(in)
	out := make([]complex128, n)
	copy(out, in)
	radix2(out, false)
	return out
}

// Radix2IFFT is Radix2FFT's inverse, including the 1/N scaling.
func Radix2IFFT(in []complex128) []complex128 {
	n := len(in)
	out := make([]complex128, n)
	copy(out, in)
	radix2(out, true)
	for i := range out {
		out[i] /= complex(float64(n), 0)
	}
	return out
}

func radix2(a []complex128, inverse bool) {
	n := len(a)
	if n <= 1 {
		return
	}
	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}
	sign := -1.0
	if inverse {
		sign = 1.0
	}
	for length := 2; length <= n; length <<= 1 {
		ang := sign * 2 * math.Pi / float64(length)
		wlen := cmplx.Rect(1, ang)
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			for k := 0; k < length/2; k++ {
				u := a[i+k]
				v := a[i+k+length/2] * w
				a[i+k] = u + v
				a[i+k+length/2] = u - v
				w *= wlen
			}
		}
	}
}
