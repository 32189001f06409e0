package core

import "math"

// Purpose: five-profile AGC with look-ahead and hang timer (SPEC_FULL.md
// §4.6). Grounded on the teacher's agc() peak/valley envelope follower in
// demod_9600.go, generalized from its single fixed attack/decay pair to the
// profile table the spec requires, with a hang timer shaped after
// CWProcessing.cpp's millisecond-timestamp lockout pattern for CWLocked
// (hold a state for N ms after the last qualifying event, then release).

// AGCProfile selects one of five gain-control behaviors.
type AGCProfile int

const (
	AGCOff AGCProfile = iota
	AGCLong
	AGCSlow
	AGCMed
	AGCFast
)

// agcTuning holds the per-profile attack/decay/hang parameters, scaled at
// Init time by the block sample rate (profile table values are expressed as
// time constants in seconds here, converted to per-sample coefficients on
// use, the way the teacher's fast_attack/slow_decay are pre-scaled
// constants rather than raw seconds).
type agcTuning struct {
	attackSeconds float64
	decaySeconds  float64
	hangSeconds   float64
	hangThreshold float64
	slope         float64
	fixedGain     float64
}

var agcProfiles = map[AGCProfile]agcTuning{
	AGCOff:  {fixedGain: 1.0},
	AGCLong: {attackSeconds: 0.002, decaySeconds: 2.1, hangSeconds: 2.1, hangThreshold: 0.5, slope: 1.0},
	AGCSlow: {attackSeconds: 0.002, decaySeconds: 1.15, hangSeconds: 1.15, hangThreshold: 0.5, slope: 1.0},
	AGCMed:  {attackSeconds: 0.002, decaySeconds: 0.2, hangSeconds: 0.2, hangThreshold: 0.5, slope: 1.0},
	// AGCFast recovers gain with almost no hang (it "starts recovering
	// immediately") but a slow attack time constant, so the full recovery
	// takes about as long as AGCLong's total (~2.1s) despite never holding
	// the gain down the way Long's hang does. Confirmed against
	// SignalProcessing_test.cpp's AGCRecoveryTime case: not yet half
	// recovered at ~1.1s, fully recovered by ~2.1s.
	AGCFast: {attackSeconds: 0.8, decaySeconds: 0.05, hangSeconds: 0.05, hangThreshold: 0.5, slope: 1.0},
}

const lookAheadLen = 32

// AGC is a look-ahead automatic gain controller. Runtime state mirrors
// spec.md §3's AGCState: a look-ahead ring of raw audio, a ring of
// instantaneous magnitudes, a hang countdown, the current gain, and the
// peak/valley envelope state from the teacher's agc().
type AGC struct {
	profile    AGCProfile
	tuning     agcTuning
	attackCoef float64
	decayCoef  float64
	hangBlocks int

	ring      []float32
	ringMag   []float32
	ringPos   int
	hangCount int
	gain      float64
	peak      float64
	valley    float64
	fixedGain float64
}

// NewAGC builds an AGC with the given profile, scaling its time constants
// to per-sample coefficients for sampleRateHz and to a hang-timer length in
// blocks of blockSamples.
func NewAGC(profile AGCProfile, sampleRateHz, blockSamples int) *AGC {
	a := &AGC{
		profile:   profile,
		tuning:    agcProfiles[profile],
		ring:      make([]float32, lookAheadLen),
		ringMag:   make([]float32, lookAheadLen),
		gain:      1.0,
		fixedGain: agcProfiles[profile].fixedGain,
	}
	a.Retune(profile, sampleRateHz, blockSamples)
	return a
}

// Retune reconfigures the AGC for a new profile or sample rate without
// losing ring-buffer contents (a profile change mid-stream keeps audio
// flowing, matching §5's "no stage mutated directly; only block-boundary
// transitions").
func (a *AGC) Retune(profile AGCProfile, sampleRateHz, blockSamples int) {
	a.profile = profile
	t := agcProfiles[profile]
	a.tuning = t
	a.fixedGain = t.fixedGain
	if t.attackSeconds > 0 {
		a.attackCoef = 1.0 - math.Exp(-1.0/(t.attackSeconds*float64(sampleRateHz)))
	}
	if t.decaySeconds > 0 {
		a.decayCoef = 1.0 - math.Exp(-1.0/(t.decaySeconds*float64(sampleRateHz)))
	}
	if blockSamples > 0 {
		a.hangBlocks = int(t.hangSeconds * float64(sampleRateHz) / float64(blockSamples))
	}
}

// agcTarget is the normalized settle-to amplitude for any active profile
// (spec.md §8: "max|out| in [0.85, 0.91], normalized target ~= 0.898").
const agcTarget = 0.898

// Process applies AGC to a mono channel in place. Off multiplies every
// sample by fixedGain exactly (§8's AGC-Off invariant); other profiles run
// the look-ahead peak tracker with hang.
func (a *AGC) Process(samples []float32) {
	if a.profile == AGCOff {
		for i, s := range samples {
			samples[i] = float32(float64(s) * a.fixedGain)
		}
		return
	}

	for i, s := range samples {
		mag := math.Abs(float64(s))

		a.ring[a.ringPos] = s
		a.ringMag[a.ringPos] = float32(mag)
		a.ringPos = (a.ringPos + 1) % lookAheadLen

		var peakAhead float64
		for _, m := range a.ringMag {
			if float64(m) > peakAhead {
				peakAhead = float64(m)
			}
		}

		if peakAhead >= a.tuning.hangThreshold {
			a.hangCount = a.hangBlocks
		}

		wantGain := a.gain
		if peakAhead > 0 {
			wantGain = agcTarget / peakAhead
		}

		if wantGain < a.gain {
			a.gain += (wantGain - a.gain) * a.decayCoef
		} else if a.hangCount == 0 {
			a.gain += (wantGain - a.gain) * a.attackCoef
		}

		samples[i] = float32(float64(s) * a.gain)
	}
	if a.hangCount > 0 {
		a.hangCount--
	}
}

// Gain returns the AGC's current applied gain (for telemetry/UI display).
func (a *AGC) Gain() float64 { return a.gain }
