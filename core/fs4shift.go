package core

import "math"

// Purpose: the Fs/4 frequency-translation trick and the arbitrary-frequency
// NCO (SPEC_FULL.md §4.3), grounded on DSP_FFT.cpp's FreqShiftFs4/FreqShiftF
// exactly, including FreqShiftFs4's four-sample rotation sequence (identity
// on sample 0, swap-with-negate on sample 1, negate-both on sample 2,
// swap-with-negate the other way on sample 3) and FreqShiftF's
// monotonically-increasing phase counter that wraps at the sample rate.

// FreqShiftFs4 rotates (I, Q) by 90 degrees per sample in place, equivalent
// to multiplying by e^(+j*2*pi*n/4). N must be a multiple of 4.
func FreqShiftFs4(i, q []float32) {
	for n := 0; n+3 < len(i); n += 4 {
		h1 := -q[n+1]
		h2 := i[n+1]
		i[n+1], q[n+1] = h1, h2

		h1 = -i[n+2]
		h2 = -q[n+2]
		i[n+2], q[n+2] = h1, h2

		h1 = q[n+3]
		h2 = -i[n+3]
		i[n+3], q[n+3] = h1, h2
		// n+0 left untouched: the DC-aligned sample is its own rotation.
	}
}

// NCO is the arbitrary-frequency translator: an in-place complex
// multiplier tracking a monotonically increasing phase counter that wraps
// at the sample rate to avoid phase-accumulation error across blocks,
// matching FreqShiftF's `iFSF` exactly.
type NCO struct {
	sampleRateHz int
	phaseCounter int
}

// NewNCO builds an NCO for the given sample rate.
func NewNCO(sampleRateHz int) *NCO {
	return &NCO{sampleRateHz: sampleRateHz}
}

// ShiftBy applies a frequency shift of freqHz to (i, q) in place, advancing
// the phase counter by one per sample and wrapping it at sampleRateHz.
func (n *NCO) ShiftBy(i, q []float32, freqHz float64) {
	omega := 2 * math.Pi * freqHz
	tSample := 1.0 / float64(n.sampleRateHz)
	ncoInc := omega * tSample

	for idx := range i {
		theta := ncoInc * float64(n.phaseCounter)
		cosv := math.Cos(theta)
		sinv := math.Sin(theta)
		ip, qp := float64(i[idx]), float64(q[idx])
		i[idx] = float32(ip*cosv - qp*sinv)
		q[idx] = float32(qp*cosv + ip*sinv)

		n.phaseCounter++
		if n.phaseCounter == n.sampleRateHz {
			n.phaseCounter = 0
		}
	}
}
