package core

// Purpose: the overlap-save FFT band-pass convolution filter (SPEC_FULL.md
// §4.4). Grounded on DSP_FFT.cpp's ConvolutionFilter exactly, including the
// ordering of its three buffer-fill steps (the prior block is read into the
// first half of the FFT buffer BEFORE the current block overwrites the
// saved-sample state for next time, which only THEN gets copied into the
// second half) and the discard-first-256-complex-samples step on the way
// back out.

// ConvFilterLength is FFT_LENGTH in the original: the convolution filter
// operates on 512 complex samples per call.
const ConvFilterLength = 512

// ConvFilterBlock is the per-call block size (256 real samples in, 256 real
// samples out), half of ConvFilterLength.
const ConvFilterBlock = ConvFilterLength / 2

// ConvolutionFilter is the overlap-save band-pass filter engine. It keeps
// the previous call's I/Q block as state (last_sample_buffer_L/R in the
// original) and a frequency-domain mask built once per filter-setting
// change (FIR_filter_mask).
type ConvolutionFilter struct {
	lastI, lastQ []float32 // ConvFilterBlock samples, previous call's input
	mask         []complex128
}

// NewConvolutionFilter builds a convolution filter with its "previous
// block" state initialized to zero, matching the original's static
// zero-initialized last_sample_buffer_L/R.
func NewConvolutionFilter() *ConvolutionFilter {
	return &ConvolutionFilter{
		lastI: make([]float32, ConvFilterBlock),
		lastQ: make([]float32, ConvFilterBlock),
		mask:  make([]complex128, ConvFilterLength),
	}
}

// SetMask installs a new frequency-domain filter mask (built by
// InitFilterMask-equivalent code outside this file, typically from
// GenBandpass's kernel run through an FFT once per filter-setting change).
func (c *ConvolutionFilter) SetMask(mask []complex128) {
	copy(c.mask, mask)
}

// Process runs one overlap-save step. in.I/in.Q must hold exactly
// ConvFilterBlock samples (§4.4's shape precondition); the result, also
// ConvFilterBlock samples, is written back into out.
func (c *ConvolutionFilter) Process(inI, inQ []float32, outI, outQ []float32) error {
	if len(inI) != ConvFilterBlock || len(inQ) != ConvFilterBlock {
		return &ShapeError{Stage: "ConvolutionFilter", GotN: len(inI), WantN: ConvFilterBlock}
	}

	buf := make([]complex128, ConvFilterLength)
	// Fill first half with the PREVIOUS call's samples...
	for i := 0; i < ConvFilterBlock; i++ {
		buf[i] = complex(float64(c.lastI[i]), float64(c.lastQ[i]))
	}
	// ...then save the CURRENT samples as next call's "previous" state...
	copy(c.lastI, inI)
	copy(c.lastQ, inQ)
	// ...and only then fill the second half with the current block. This
	// ordering matters only in that it must not read c.lastI/Q after the
	// copy above; preserved as in the original regardless.
	for i := 0; i < ConvFilterBlock; i++ {
		buf[ConvFilterBlock+i] = complex(float64(inI[i]), float64(inQ[i]))
	}

	spec := FFT(buf)
	for i := range spec {
		spec[i] *= c.mask[i]
	}
	td := IFFT(spec)

	// Discard the first ConvFilterBlock complex samples of the inverse
	// transform; only the second half is valid output.
	for i := 0; i < ConvFilterBlock; i++ {
		v := td[ConvFilterBlock+i]
		outI[i] = float32(real(v))
		outQ[i] = float32(imag(v))
	}
	return nil
}
