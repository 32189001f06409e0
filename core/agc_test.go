package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// agcRunTone runs an AGC over nBlocks blocks of a constant-amplitude sine
// cycle and returns the peak |output| of each block, mirroring
// SignalProcessing_test.cpp's AGCRecoveryTime harness: a quiet tone, a
// loud spike, then quiet again, checking how fast the gain recovers.
func agcRunTone(a *AGC, amplitude float32, blockLen, nBlocks int) []float32 {
	peaks := make([]float32, nBlocks)
	for b := 0; b < nBlocks; b++ {
		block := make([]float32, blockLen)
		for i := range block {
			if i%2 == 0 {
				block[i] = amplitude
			} else {
				block[i] = -amplitude
			}
		}
		a.Process(block)
		var peak float32
		for _, s := range block {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
		peaks[b] = peak
	}
	return peaks
}

func TestAGCOffLeavesAmplitudeUnchanged(t *testing.T) {
	a := NewAGC(AGCOff, 8000, 256)
	peaks := agcRunTone(a, 0.01, 256, 5)
	for _, p := range peaks {
		assert.InDelta(t, 0.01, p, 1e-6)
	}
}

// TestAGCNonOffConverges checks that every non-Off profile settles the
// output peak toward agcTarget when fed a sustained tone, per spec.md §8's
// "max|out| in [0.85, 0.91]" invariant.
func TestAGCNonOffConverges(t *testing.T) {
	blockRateHz := 8000
	blockLen := 256
	for _, profile := range []AGCProfile{AGCLong, AGCSlow, AGCMed, AGCFast} {
		a := NewAGC(profile, blockRateHz, blockLen)
		peaks := agcRunTone(a, 0.01, blockLen, 400)
		last := peaks[len(peaks)-1]
		assert.InDelta(t, agcTarget, last, 0.02, "profile %v settle amplitude", profile)
	}
}

// TestAGCFastRecoversSlowerThanMed checks the relative-timing invariant the
// review grounded on AGCRecoveryTime: AGCFast's post-spike recovery takes
// much longer than AGCMed's, despite Med holding its gain for a short
// (~0.2s) hang first, because Fast's attack time constant is far slower.
func TestAGCFastRecoversSlowerThanMed(t *testing.T) {
	const blockRateHz = 8000
	const blockLen = 256
	const blocksPerSec = blockRateHz / blockLen

	runSpikeRecovery := func(profile AGCProfile) []float32 {
		a := NewAGC(profile, blockRateHz, blockLen)
		agcRunTone(a, 0.01, blockLen, blocksPerSec) // 1s quiet, gain settles
		agcRunTone(a, 0.5, blockLen, blocksPerSec/10) // 0.1s loud spike
		return agcRunTone(a, 0.01, blockLen, 3*blocksPerSec) // 3s quiet recovery
	}

	medRecovery := runSpikeRecovery(AGCMed)
	fastRecovery := runSpikeRecovery(AGCFast)

	// Both fully recover by the end of the 3s window...
	assert.InDelta(t, agcTarget, medRecovery[len(medRecovery)-1], 0.05)
	assert.InDelta(t, agcTarget, fastRecovery[len(fastRecovery)-1], 0.05)

	// ...but at the 1.1s mark (halfway through Fast's documented ~2.1s
	// recovery), Med has already fully recovered while Fast has not.
	const checkBlock = blocksPerSec + blocksPerSec/10
	assert.InDelta(t, agcTarget, medRecovery[checkBlock], 0.05)
	assert.Less(t, fastRecovery[checkBlock], float32(agcTarget*0.9))
}

// TestAGCGainMonotoneTowardTarget fuzzes a constant-amplitude input across
// every non-Off profile and checks the gain never overshoots past a sane
// bound, a looser property than exact convergence timing but one that
// holds for every legal attack/decay coefficient pair.
func TestAGCGainMonotoneTowardTarget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		profile := rapid.SampledFrom([]AGCProfile{AGCLong, AGCSlow, AGCMed, AGCFast}).Draw(t, "profile")
		amp := rapid.Float64Range(0.001, 0.9).Draw(t, "amp")

		a := NewAGC(profile, 8000, 256)
		peaks := agcRunTone(a, float32(amp), 256, 200)
		last := peaks[len(peaks)-1]
		assert.LessOrEqual(t, float64(last), 1.0)
		assert.GreaterOrEqual(t, float64(last), 0.0)
	})
}
