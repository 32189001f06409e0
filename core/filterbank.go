package core

// Purpose: FIR decimator/interpolator and Hilbert filter bank shared by the
// receive and transmit pipelines (SPEC_FULL.md §4.2, §4.4, §4.7). Grounded on
// DSP_FFT.cpp's InitializeFilters/FIR_*_EX state-vector sizing (the "FIXED"
// branch, preserved per spec.md §9) and the teacher's gen_lowpass/gen_bandpass
// kernel-generation style in dsp.go.

// FIR tap counts and block sizes for the fixed decimation/interpolation
// chain. Kept as named constants rather than recomputed because the
// original state-vector sizes are themselves load-bearing (an earlier,
// unfixed build used smaller buffers and corrupted memory under certain
// block counts; see DSP_FFT.cpp's inline comments).
const (
	decimNumTaps   = 48
	hilbertNumTaps = 100
)

// FIRDecimator is a single-rate-change FIR stage: decimation-by-M with a
// direct-form state buffer sized numTaps+blockSize-1, matching
// arm_fir_decimate_instance_f32's semantics without the CMSIS-DSP
// dependency.
type FIRDecimator struct {
	coeffs    []float32
	state     []float32
	numTaps   int
	factor    int
	blockSize int
}

// NewFIRDecimator builds a decimator for the given factor and block size.
// state is sized numTaps+blockSize-1, matching the original's
// "was 535 before being fixed" / "559" comment: state vector size must be
// numTaps+blockSize-1 or the filter reads stale samples past its history.
func NewFIRDecimator(coeffs []float32, factor, blockSize int) *FIRDecimator {
	numTaps := len(coeffs)
	return &FIRDecimator{
		coeffs:    coeffs,
		state:     make([]float32, numTaps+blockSize-1),
		numTaps:   numTaps,
		factor:    factor,
		blockSize: blockSize,
	}
}

// Process decimates in into out (len(out) == len(in)/factor), maintaining
// history across calls the way a streaming FIR decimator must.
func (d *FIRDecimator) Process(in, out []float32) {
	hist := d.state
	// Shift history left, append new block.
	copy(hist, hist[len(in):])
	copy(hist[len(hist)-len(in):], in)

	outIdx := 0
	for i := 0; i < len(in); i += d.factor {
		var acc float32
		base := len(hist) - len(in) + i
		for k := 0; k < d.numTaps; k++ {
			acc += d.coeffs[k] * hist[base-k]
		}
		if outIdx < len(out) {
			out[outIdx] = acc
		}
		outIdx++
	}
}

// FIRInterpolator is the inverse stage: interpolation-by-L, zero-stuffing
// and filtering in one pass, matching arm_fir_interpolate's polyphase
// semantics (implemented directly rather than via a polyphase decomposition,
// since the original ARM routine is itself a plain zero-stuff-then-filter
// for these small factors).
type FIRInterpolator struct {
	coeffs  []float32
	state   []float32
	numTaps int
	factor  int
}

// NewFIRInterpolator builds an interpolator for the given upsampling factor.
func NewFIRInterpolator(coeffs []float32, factor, blockSize int) *FIRInterpolator {
	numTaps := len(coeffs)
	return &FIRInterpolator{
		coeffs:  coeffs,
		state:   make([]float32, numTaps+blockSize*factor-1),
		numTaps: numTaps,
		factor:  factor,
	}
}

// Process upsamples in (len blockSize) into out (len blockSize*factor).
// It zero-stuffs, filters, and then applies the post-interpolation gain
// itself by multiplying every output sample by factor (2, 2, 4 for the
// three TX stages, matching TXInterpolateBy2/2Again/4's scale factors).
func (p *FIRInterpolator) Process(in, out []float32) {
	hist := p.state
	outLen := len(in) * p.factor
	copy(hist, hist[outLen:])
	for i, s := range in {
		for j := 0; j < p.factor; j++ {
			idx := len(hist) - outLen + i*p.factor + j
			if j == 0 {
				hist[idx] = s
			} else {
				hist[idx] = 0
			}
		}
	}

	for i := 0; i < outLen && i < len(out); i++ {
		var acc float32
		base := len(hist) - outLen + i
		for k := 0; k < p.numTaps; k++ {
			acc += p.coeffs[k] * hist[base-k]
		}
		out[i] = acc * float32(p.factor)
	}
}

// HilbertPair is the matched ±45-degree FIR pair used to build an SSB
// analytic signal (FIR_Hilbert_L/R, 100 taps each, grounded on
// DSP_FFT.cpp's SSBBandpassFilter). I is filtered by the +45 degree taps,
// Q by the -45 degree taps; the combination yields a 90-degree relative
// phase shift across the passband.
type HilbertPair struct {
	i *FIRDecimator // factor-1 "decimator" reused as a plain FIR: state-only filter
	q *FIRDecimator
}

// NewHilbertPair builds the I/Q Hilbert filter pair for a given block size.
func NewHilbertPair(coeffsPos45, coeffsNeg45 []float32, blockSize int) *HilbertPair {
	return &HilbertPair{
		i: NewFIRDecimator(coeffsPos45, 1, blockSize),
		q: NewFIRDecimator(coeffsNeg45, 1, blockSize),
	}
}

// Process filters I and Q in place through their respective Hilbert taps.
func (h *HilbertPair) Process(i, q []float32) {
	iOut := make([]float32, len(i))
	qOut := make([]float32, len(q))
	h.i.Process(i, iOut)
	h.q.Process(q, qOut)
	copy(i, iOut)
	copy(q, qOut)
}

// SidebandSelect negates I (the in-phase path) for USB, leaving it
// untouched for LSB, matching SidebandSelection's "negate I only on USB,
// LSB default" convention exactly.
func SidebandSelect(mode OperatingMode, i []float32) {
	if mode != ModeUSB {
		return
	}
	for n := range i {
		i[n] = -i[n]
	}
}

// RXFilterChain is the fixed two-stage decimation-by-4 chain (192k -> 96k
// -> 48k conceptually expressed here as the 8k intermediate rate the
// original's coeffs48K_8K_LPF_FIR/coeffs12K_8K_LPF_FIR names document),
// grounded on DSP_FFT.cpp's FIR_dec2_EX/FIR_dec3_EX pair under the FIXED
// branch (decimate-by-2 twice, 48-tap prototype each stage).
type RXFilterChain struct {
	dec2I, dec2Q *FIRDecimator
	dec3I, dec3Q *FIRDecimator
}

// NewRXFilterChain builds the two decimate-by-2 stages from prototype
// low-pass coefficient sets (coeffs48K8K, coeffs12K8K in the caller's
// naming), operating on 512-sample then 256-sample blocks as in the
// original's arm_fir_decimate_f32 calls.
func NewRXFilterChain(coeffs48K8K, coeffs12K8K []float32) *RXFilterChain {
	return &RXFilterChain{
		dec2I: NewFIRDecimator(coeffs48K8K, 2, 512),
		dec2Q: NewFIRDecimator(coeffs48K8K, 2, 512),
		dec3I: NewFIRDecimator(coeffs12K8K, 2, 256),
		dec3Q: NewFIRDecimator(coeffs12K8K, 2, 256),
	}
}

// Process runs both decimate-by-2 stages in sequence: 512 -> 256 -> 128.
func (f *RXFilterChain) Process(i, q []float32) (outI, outQ []float32) {
	mid := make([]float32, len(i)/2)
	midQ := make([]float32, len(q)/2)
	f.dec2I.Process(i, mid)
	f.dec2Q.Process(q, midQ)

	outI = make([]float32, len(mid)/2)
	outQ = make([]float32, len(midQ)/2)
	f.dec3I.Process(mid, outI)
	f.dec3Q.Process(midQ, outQ)
	return outI, outQ
}

// TXFilterChain is the mirror-image interpolation chain: int3 (x2), int1
// (x2), int2 (x4), grounded on DSP_FFT.cpp's FIR_int3_EX/FIR_int1_EX/
// FIR_int2_EX triple with the documented post-stage scale factors.
type TXFilterChain struct {
	int3I, int3Q *FIRInterpolator
	int1I, int1Q *FIRInterpolator
	int2I, int2Q *FIRInterpolator
}

// NewTXFilterChain builds the three interpolation stages.
func NewTXFilterChain(coeffs12K8K, coeffs48K8K, coeffs192K10K []float32) *TXFilterChain {
	return &TXFilterChain{
		int3I: NewFIRInterpolator(coeffs12K8K, 2, 64),
		int3Q: NewFIRInterpolator(coeffs12K8K, 2, 64),
		int1I: NewFIRInterpolator(coeffs48K8K, 2, 128),
		int1Q: NewFIRInterpolator(coeffs48K8K, 2, 128),
		int2I: NewFIRInterpolator(coeffs192K10K, 4, 256),
		int2Q: NewFIRInterpolator(coeffs192K10K, 4, 256),
	}
}

// Process runs all three interpolation stages in sequence.
func (f *TXFilterChain) Process(i, q []float32) (outI, outQ []float32) {
	mid1I := make([]float32, len(i)*2)
	mid1Q := make([]float32, len(q)*2)
	f.int3I.Process(i, mid1I)
	f.int3Q.Process(q, mid1Q)

	mid2I := make([]float32, len(mid1I)*2)
	mid2Q := make([]float32, len(mid1Q)*2)
	f.int1I.Process(mid1I, mid2I)
	f.int1Q.Process(mid1Q, mid2Q)

	outI = make([]float32, len(mid2I)*4)
	outQ = make([]float32, len(mid2Q)*4)
	f.int2I.Process(mid2I, outI)
	f.int2Q.Process(mid2Q, outQ)
	return outI, outQ
}

// RXInterpChain is the receive side's reverse-of-decimation interpolation
// pair (int by 2, then int by 4, back up to the DAC sample rate), matching
// §4.10 step 13. It reuses the same FIRInterpolator primitive as the
// transmit chain with its own coefficient sets and state.
type RXInterpChain struct {
	int1I, int1Q *FIRInterpolator
	int2I, int2Q *FIRInterpolator
}

// NewRXInterpChain builds the two-stage RX interpolator.
func NewRXInterpChain(coeffs8K, coeffs10K []float32) *RXInterpChain {
	return &RXInterpChain{
		int1I: NewFIRInterpolator(coeffs8K, 2, 128),
		int1Q: NewFIRInterpolator(coeffs8K, 2, 128),
		int2I: NewFIRInterpolator(coeffs10K, 4, 256),
		int2Q: NewFIRInterpolator(coeffs10K, 4, 256),
	}
}

// Process runs both interpolation stages in sequence: x2 then x4.
func (f *RXInterpChain) Process(i, q []float32) (outI, outQ []float32) {
	midI := make([]float32, len(i)*2)
	midQ := make([]float32, len(q)*2)
	f.int1I.Process(i, midI)
	f.int1Q.Process(q, midQ)

	outI = make([]float32, len(midI)*4)
	outQ = make([]float32, len(midQ)*4)
	f.int2I.Process(midI, outI)
	f.int2Q.Process(midQ, outQ)
	return outI, outQ
}
