package core

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestFFTMatchesRadix2Reference cross-validates the production go-dsp/fft
// transform against the portable radix-2 reference, per spec.md §9's
// dual-FFT requirement: both must agree bin-for-bin on the same input.
func TestFFTMatchesRadix2Reference(t *testing.T) {
	const n = 64
	in := make([]complex128, n)
	for k := range in {
		in[k] = complex(math.Sin(float64(k)*0.3), math.Cos(float64(k)*0.17))
	}

	want := FFT(append([]complex128(nil), in...))
	got := Radix2FFT(in)

	assert.Len(t, got, n)
	for k := range want {
		assert.InDelta(t, real(want[k]), real(got[k]), 1e-6, "bin %d real", k)
		assert.InDelta(t, imag(want[k]), imag(got[k]), 1e-6, "bin %d imag", k)
	}
}

// TestRadix2RoundTrip checks Radix2IFFT(Radix2FFT(x)) == x within float
// tolerance, the property the original's TESTMODE reference transform
// exists to guarantee before it's trusted as ground truth for the
// production routine.
func TestRadix2RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		shift := rapid.IntRange(2, 7).Draw(t, "log2n")
		n := 1 << shift
		in := make([]complex128, n)
		for k := range in {
			re := rapid.Float64Range(-10, 10).Draw(t, "re")
			im := rapid.Float64Range(-10, 10).Draw(t, "im")
			in[k] = complex(re, im)
		}

		out := Radix2IFFT(Radix2FFT(in))
		for k := range in {
			assert.InDelta(t, real(in[k]), real(out[k]), 1e-6)
			assert.InDelta(t, imag(in[k]), imag(out[k]), 1e-6)
		}
	})
}

// TestRadix2FFTDCBin checks that a constant input concentrates all energy
// in bin 0, the simplest possible cross-check of the bit-reversal and
// butterfly wiring before trusting it against tone inputs.
func TestRadix2FFTDCBin(t *testing.T) {
	const n = 32
	in := make([]complex128, n)
	for k := range in {
		in[k] = complex(1, 0)
	}
	out := Radix2FFT(in)

	assert.InDelta(t, float64(n), real(out[0]), 1e-6)
	for k := 1; k < n; k++ {
		assert.InDelta(t, 0, cmplx.Abs(out[k]), 1e-6, "bin %d should be silent", k)
	}
}

// TestCalcPSDLocatesToneBin checks the zoom-FFT engine's bin-location
// invariant (spec.md §8): a pure complex exponential at FFT bin k (k in
// [0, SpectrumRes/2)) must peak in the returned PSD at bin k+SpectrumRes/2,
// matching CalcPSD's documented fftshift-style half-swap (DC ends up
// centered at SpectrumRes/2, not at bin 0).
func TestCalcPSDLocatesToneBin(t *testing.T) {
	const k = 40 // an arbitrary positive-frequency FFT bin below Nyquist/2
	half := SpectrumRes / 2

	i := make([]float32, SpectrumRes)
	q := make([]float32, SpectrumRes)
	for n := 0; n < SpectrumRes; n++ {
		angle := 2 * math.Pi * float64(k) * float64(n) / float64(SpectrumRes)
		i[n] = float32(math.Cos(angle))
		q[n] = float32(math.Sin(angle))
	}

	e := NewSpectrumEngine()
	psd := e.CalcPSD(i, q)

	peakBin := 0
	peakVal := psd[0]
	for n, v := range psd {
		if v > peakVal {
			peakVal = v
			peakBin = n
		}
	}

	assert.Equal(t, k+half, peakBin)
}

// TestCalcPSDDCBinIsCentered is the k=0 special case of the bin-location
// invariant: a DC (zero-frequency) input peaks at exactly SpectrumRes/2.
func TestCalcPSDDCBinIsCentered(t *testing.T) {
	half := SpectrumRes / 2

	i := make([]float32, SpectrumRes)
	q := make([]float32, SpectrumRes)
	for n := range i {
		i[n] = 1
	}

	e := NewSpectrumEngine()
	psd := e.CalcPSD(i, q)

	peakBin := 0
	peakVal := psd[0]
	for n, v := range psd {
		if v > peakVal {
			peakVal = v
			peakBin = n
		}
	}

	assert.Equal(t, half, peakBin)
}
