package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// cwLevelSequence builds a millisecond-resolution tone-level sequence for a
// sequence of dit/dah/gap runs, matching the 15wpm dit=80ms/dah=240ms
// timing SetDitLength(15) derives.
func cwLevelSequence(runs ...[2]int) []int {
	var out []int
	for _, r := range runs {
		level, ms := r[0], r[1]
		for i := 0; i < ms; i++ {
			out = append(out, level)
		}
	}
	return out
}

const (
	dit        = 80
	dah        = 240
	intraGap   = 80
	interChar  = 200
	wordGap    = 600
)

// TestCWDecoderDecodesLiteralABCDSpace feeds the exact dit/dah timing for
// "ABCD " (A=.- B=-... C=-.-. D=-..) through Tick one simulated millisecond
// at a time and checks the decoded output, tracing the 6-state machine the
// way CWProcessing.cpp's DoCWDecoding does.
func TestCWDecoderDecodesLiteralABCDSpace(t *testing.T) {
	d := NewCWDecoder(15)

	seq := cwLevelSequence(
		[2]int{1, dit}, [2]int{0, intraGap}, [2]int{1, dah}, [2]int{0, interChar}, // A
		[2]int{1, dah}, [2]int{0, intraGap}, [2]int{1, dit}, [2]int{0, intraGap},
		[2]int{1, dit}, [2]int{0, intraGap}, [2]int{1, dit}, [2]int{0, interChar}, // B
		[2]int{1, dah}, [2]int{0, intraGap}, [2]int{1, dit}, [2]int{0, intraGap},
		[2]int{1, dah}, [2]int{0, intraGap}, [2]int{1, dit}, [2]int{0, interChar}, // C
		[2]int{1, dah}, [2]int{0, intraGap}, [2]int{1, dit}, [2]int{0, intraGap},
		[2]int{1, dit}, [2]int{0, wordGap}, // D, then a word gap
	)

	var decoded []byte
	for n, level := range seq {
		if c := d.Tick(level, int64(n+1)); c != 0 {
			decoded = append(decoded, c)
		}
	}

	assert.Equal(t, "ABCD ", string(decoded))
}

func TestCWDecoderWPMRoundTrip(t *testing.T) {
	d := NewCWDecoder(20)
	assert.Equal(t, int64(20), d.WPM())
}

func TestToneDetectorLocksOnStrongTone(t *testing.T) {
	const sampleRateHz = 8000
	const blockLen = 256
	td := NewToneDetector(700, sampleRateHz, blockLen)

	block := make([]float32, blockLen)
	for i := range block {
		block[i] = float32(1.0)
		if i%2 == 0 {
			block[i] = -1
		}
	}
	// Feed the detector's own reference tone so correlation is maximal.
	copy(block, td.refTone)

	var locked bool
	for i := 0; i < 5; i++ {
		_, locked = td.Process(block, 32)
	}
	assert.True(t, locked)
}

func TestToneDetectorUnlocksAfterSilence(t *testing.T) {
	const sampleRateHz = 8000
	const blockLen = 256
	td := NewToneDetector(700, sampleRateHz, blockLen)
	td.locked = true

	silence := make([]float32, blockLen)
	for ms := 0; ms < 2100; ms += 32 {
		td.Process(silence, 32)
	}
	_, locked := td.Process(silence, 32)
	assert.False(t, locked)
}
