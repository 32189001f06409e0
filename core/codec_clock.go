package core

import "math"

// Purpose: I2S sample-rate clock-divider arithmetic (SPEC_FULL.md §6.2).
// No original-source file documents the Teensy SAI clock programming at
// the register level (that's hardware-driver territory, out of scope per
// §1), so this is the pure arithmetic from spec.md §6.2 implemented
// without a hardware target; no test covers it. Named SetI2SFreq after
// MainBoard_AudioIO.h's declaration; nothing in codec/ calls it.

// I2SClockProgram is the (n1, n2, fractional-multiplier) triple the SAI
// clock registers are programmed with.
type I2SClockProgram struct {
	N1             int
	N2             int
	NumeratorC     int // floor(C)
	NumeratorFrac  int // round((C - floor(C)) * 10000)
	DenominatorFrac int // always 10000
}

// ErrI2SDividerOutOfRange is returned when the computed n2 exceeds the
// divider's 6-bit range (n2 > 63), matching SetI2SFreq's documented
// failure mode.
var ErrI2SDividerOutOfRange = errI2SDividerOutOfRange{}

type errI2SDividerOutOfRange struct{}

func (errI2SDividerOutOfRange) Error() string { return "core: I2S clock divider n2 out of range" }

// SetI2SFreq computes the SAI clock-divider program for a target sample
// rate in Hz, following spec.md §6.2's formula exactly:
//
//	n1 = 4 if freq>8000 else 8
//	n2 = 1 + (24e6 * 27) / (freq * 256 * n1)
//	C  = freq * 256 * n1 * n2 / 24e6
func SetI2SFreq(freqHz int) (I2SClockProgram, error) {
	n1 := 8
	if freqHz > 8000 {
		n1 = 4
	}

	n2 := 1 + int(float64(24_000_000*27)/(float64(freqHz)*256*float64(n1)))
	if n2 > 63 {
		return I2SClockProgram{}, ErrI2SDividerOutOfRange
	}

	c := float64(freqHz) * 256 * float64(n1) * float64(n2) / 24_000_000
	intPart := math.Floor(c)
	frac := math.Round((c - intPart) * 10000)

	return I2SClockProgram{
		N1:              n1,
		N2:              n2,
		NumeratorC:      int(intPart),
		NumeratorFrac:   int(frac),
		DenominatorFrac: 10000,
	}, nil
}

// PreDivider and PostDivider are the values programmed into the two SAI
// clock registers: N1-1 and N2-1 respectively.
func (p I2SClockProgram) PreDivider() int  { return p.N1 - 1 }
func (p I2SClockProgram) PostDivider() int { return p.N2 - 1 }
