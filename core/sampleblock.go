package core

// Purpose: the typed container carried between every pipeline stage. See
// SPEC_FULL.md §3 (SampleBlock) and §4.1.

// MaxBlockSamples is the largest N any stage will ever see (the receive
// pipeline's 2048-sample input block at 192 kHz). Every SampleBlock is
// allocated at this capacity up front and never reallocated.
const MaxBlockSamples = 2048

// SampleBlock is an ordered pair of equal-length I/Q sample arrays plus the
// block's current length N and sample rate. N is always a positive multiple
// of 4 and never exceeds cap(I) == cap(Q). Stages that change the effective
// sample rate update N and SampleRateHz together; failing to update both is
// a bug (see SPEC_FULL.md §4.1).
//
// Mono audio after demodulation is carried in I, with Q holding a scratch
// copy (or zeros); both invariants continue to hold.
type SampleBlock struct {
	I            []float32
	Q            []float32
	N            int
	SampleRateHz int
}

// NewSampleBlock allocates a block at full capacity with the given initial
// length and sample rate.
func NewSampleBlock(n, sampleRateHz int) *SampleBlock {
	return &SampleBlock{
		I:            make([]float32, MaxBlockSamples),
		Q:            make([]float32, MaxBlockSamples),
		N:            n,
		SampleRateHz: sampleRateHz,
	}
}

// Reset zeros the active portion of the block and sets a new length/rate.
func (b *SampleBlock) Reset(n, sampleRateHz int) {
	for i := 0; i < n; i++ {
		b.I[i] = 0
		b.Q[i] = 0
	}
	b.N = n
	b.SampleRateHz = sampleRateHz
}

// Require checks the block's shape against a stage's precondition. On
// mismatch it returns a *ShapeError wrapping ErrShapeMismatch; the caller
// must not touch the block.
func (b *SampleBlock) Require(stage string, wantN, wantRateHz int) error {
	if b.N != wantN || (wantRateHz != 0 && b.SampleRateHz != wantRateHz) {
		return &ShapeError{Stage: stage, GotN: b.N, GotRate: b.SampleRateHz, WantN: wantN, WantRate: wantRateHz}
	}
	return nil
}

// decimateInPlace updates N and SampleRateHz for a decimation-by-M stage.
// The caller is responsible for having already written the M-fold-shorter
// result into I[0:N/M] and Q[0:N/M]; aliasing within the same backing array
// is expected here (decimation is in-place per §4.1).
func (b *SampleBlock) decimateInPlace(m int) {
	b.N /= m
	b.SampleRateHz /= m
}

// interpolateInPlace updates N and SampleRateHz for an interpolation-by-L
// stage, symmetric to decimateInPlace.
func (b *SampleBlock) interpolateInPlace(l int) {
	b.N *= l
	b.SampleRateHz *= l
}

// CopyIQ copies src.N samples of I and Q from src into dst and sets dst's N
// and SampleRateHz to src's. Used by stages documented as non-aliasing (FFT
// convolution).
func CopyIQ(dst, src *SampleBlock) {
	copy(dst.I[:src.N], src.I[:src.N])
	copy(dst.Q[:src.N], src.Q[:src.N])
	dst.N = src.N
	dst.SampleRateHz = src.SampleRateHz
}
