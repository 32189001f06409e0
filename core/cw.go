package core

import "math"

// Purpose: CW (Morse) tone detection and decoding (SPEC_FULL.md §4.8).
// Grounded on CWProcessing.cpp byte-for-byte where the header defining its
// tuning constants (HISTOGRAM_ELEMENTS, LOWEST_ATOM_TIME, SCALE_CONSTANT,
// ADAPTIVE_SCALE_FACTOR, DECODER_BUFFER_SIZE) was not among the retrieved
// files; those five are reproduced here at values consistent with the
// surrounding logic's comments ("15 wpm ditLength" == 80ms, signal/gap
// histograms indexed in milliseconds up to one dah's worth of time).

const (
	histogramElements     = 256
	lowestAtomTimeMs      = 20
	decoderBufferSize     = 128 // also the initial dash jump into the flat Morse tree
	scaleConstant         = 1000
	adaptiveScaleFactor   = 0.75
	cwLockoutMs           = 2000
)

// morseTree is the flat 129-character prefix-encoded binary tree, copied
// verbatim from CWProcessing.cpp per spec.md §4.8 ("must match the source
// literal exactly").
const morseTree = "-EISH5--4--V---3--UF--------?-2--ARL---------.--.WP------J---1--TNDB6--.--X/-----KC------Y------MGZ7----,Q------O-8------9--0----"

// goertzelMag computes the Goertzel-algorithm magnitude of block at freqHz
// given the block's sample rate, matching goertzel_mag's k=(int)(0.5+N*freq/rate) bin selection.
func goertzelMag(block []float32, freqHz float64, sampleRateHz int) float64 {
	n := len(block)
	k := int(0.5 + float64(n)*freqHz/float64(sampleRateHz))
	w := 2 * math.Pi * float64(k) / float64(n)
	cosine := math.Cos(w)
	coeff := 2 * cosine

	var q0, q1, q2 float64
	for _, s := range block {
		q0 = coeff*q1 - q2 + float64(s)
		q2 = q1
		q1 = q0
	}
	real := q1 - q2*cosine
	imag := q2 * math.Sin(w)
	return math.Sqrt(real*real + imag*imag)
}

// correlate returns the maximum of the cross-correlation between block and
// reference (same length), matching arm_correlate_f32+arm_max_f32's use in
// DoCWReceiveProcessing.
func correlate(block, reference []float32) float32 {
	n := len(block)
	var maxVal float32
	for lag := -(n - 1); lag < n; lag++ {
		var sum float32
		for i := 0; i < n; i++ {
			j := i + lag
			if j < 0 || j >= n {
				continue
			}
			sum += block[i] * reference[j]
		}
		if sum > maxVal {
			maxVal = sum
		}
	}
	return maxVal
}

// ToneDetector is the CW tone detector: cross-correlation against a
// pre-sampled sinusoid plus a Goertzel magnitude, combined and smoothed,
// grounded on DoCWReceiveProcessing exactly.
type ToneDetector struct {
	refTone      []float32
	toneHz       float64
	sampleRateHz int
	aveCorr      float32
	locked       bool
	zeroRunMs    int
}

// NewToneDetector builds a tone detector for toneHz at sampleRateHz, with a
// reference sinusoid of blockLen samples (matching InitializeCWProcessing's
// sinBuffer construction).
func NewToneDetector(toneHz float64, sampleRateHz, blockLen int) *ToneDetector {
	ref := make([]float32, blockLen)
	phs := 2 * math.Pi * toneHz / float64(sampleRateHz)
	for i := range ref {
		ref[i] = float32(math.Sin(float64(i) * phs))
	}
	return &ToneDetector{refTone: ref, toneHz: toneHz, sampleRateHz: sampleRateHz}
}

// Process runs one block through the detector, returning the logical signal
// level (1 or 0). blockMs is the wall-clock duration of this block, used to
// drive the 2-second zero-run unlock timer.
func (t *ToneDetector) Process(block []float32, blockMs int) (level int, locked bool) {
	corrResult := correlate(block, t.refTone)
	t.aveCorr = 0.7*corrResult + 0.3*t.aveCorr
	mag := goertzelMag(block, t.toneHz, t.sampleRateHz)
	combined := 10 * t.aveCorr * 100 * float32(mag)

	if combined > 50 {
		level = 1
		t.locked = true
		t.zeroRunMs = 0
	} else {
		level = 0
		t.zeroRunMs += blockMs
		if t.zeroRunMs > cwLockoutMs {
			t.locked = false
		}
	}
	return level, t.locked
}

// decodeState names the 6-state decode machine per spec.md §4.8's table.
type decodeState int

const (
	dsIdle decodeState = iota
	dsTimingMark
	dsClassify
	_ // states 3,4 unused in the distilled machine, names kept for the
	_ // original's numbering (state3/state4 handled char-buffer edge cases
	// not part of the retrieved source excerpt)
	dsEmitChar
	dsEmitBlank
)

// CWDecoder implements the adaptive dit/dah decode state machine, the
// gap/signal histograms, and the clustering adaptive-threshold update.
// Grounded on CWProcessing.cpp's DoCWDecoding/DoGapHistogram/
// DoSignalHistogram/JackClusteredArrayMax/SetDitLength/ResetHistograms.
type CWDecoder struct {
	state          decodeState
	nowMs          int64
	signalStart    int64
	signalEnd      int64
	signalStartOld int64

	ditLength      int64
	dahLength      int64
	aveDitLength   int64
	aveDahLength   int64
	threshold      float64
	dashJump       uint8
	decoderIndex   uint8
	signalElapsed  int64
	charInProgress bool
	blankPrinted   bool

	gapHistogram    [histogramElements]int32
	signalHistogram [histogramElements]int32

	lastHistogramUpdateMs int64
	output                []byte
}

// NewCWDecoder builds a decoder seeded at wpm words-per-minute.
func NewCWDecoder(wpm int) *CWDecoder {
	d := &CWDecoder{}
	d.ResetHistograms()
	d.SetDitLength(wpm)
	return d
}

// ResetHistograms restores the decoder's adaptive state to its initial
// 15wpm estimate, matching ResetHistograms exactly.
func (d *CWDecoder) ResetHistograms() {
	d.ditLength = 80
	d.dahLength = 240
	d.threshold = 160
	d.aveDitLength = d.ditLength
	d.aveDahLength = d.dahLength
	d.dashJump = decoderBufferSize
	for i := range d.gapHistogram {
		d.gapHistogram[i] = 0
	}
	for i := range d.signalHistogram {
		d.signalHistogram[i] = 0
	}
}

// SetDitLength derives ditLength from a words-per-minute figure, matching
// SetDitLength's `1200/wpm` constant exactly (PARIS-standard dit length).
func (d *CWDecoder) SetDitLength(wpm int) {
	if wpm <= 0 {
		wpm = 15
	}
	d.ditLength = 1200 / int64(wpm)
}

// WPM returns the current words-per-minute estimate, `1200/ditLength`.
func (d *CWDecoder) WPM() int64 {
	if d.ditLength == 0 {
		return 0
	}
	return 1200 / d.ditLength
}

// jackClusteredArrayMax finds the cluster-maximum bin: for each index i,
// sums array[i-spread..i+spread] and returns the index of the largest such
// cluster sum, along with that sum and the first non-zero bin seen.
// Grounded on JackClusteredArrayMax exactly.
func jackClusteredArrayMax(array []int32, elements int, spread int32) (maxCount int32, maxIndex int32, firstNonZero int32) {
	for i := 0; i < elements && i < len(array); i++ {
		if array[i] != 0 && firstNonZero == 0 {
			firstNonZero = int32(i)
		}
		var sum int32
		for k := int32(-spread); k <= spread; k++ {
			idx := i + int(k)
			if idx >= 0 && idx < len(array) {
				sum += array[idx]
			}
		}
		if sum > maxCount {
			maxCount = sum
			maxIndex = int32(i)
		}
	}
	return maxCount, maxIndex, firstNonZero
}

// DoGapHistogram records a gap length, per DoGapHistogram's threshold-gated
// bucket increment.
func (d *CWDecoder) DoGapHistogram(gapLen int64) {
	if gapLen > 0 && int(gapLen) < len(d.gapHistogram) {
		d.gapHistogram[gapLen]++
	}
}

// DoSignalHistogram records a signal (mark) duration, per DoSignalHistogram.
func (d *CWDecoder) DoSignalHistogram(val int64) {
	if val > 0 && int(val) < len(d.signalHistogram) {
		d.signalHistogram[val]++
	}
}

// updateAdaptiveThreshold re-evaluates dit/dah length and the geometric-mean
// threshold from the signal histogram's cluster maxima, decaying the
// histogram if either cluster saturates. Grounded on the tail of
// DoSignalHistogram/JackClusteredArrayMax usage.
func (d *CWDecoder) updateAdaptiveThreshold() {
	offset := int(d.threshold)
	if offset <= 0 || offset >= len(d.signalHistogram) {
		return
	}
	tempDit, ditIdx, _ := jackClusteredArrayMax(d.signalHistogram[:offset], offset, 1)
	tempDah, dahIdx, _ := jackClusteredArrayMax(d.signalHistogram[offset:], len(d.signalHistogram)-offset, 3)

	if ditIdx > 0 {
		d.ditLength = int64(ditIdx)
	}
	if dahIdx > 0 {
		d.dahLength = int64(dahIdx) + int64(offset)
	}
	d.threshold = math.Sqrt(float64(d.ditLength) * float64(d.dahLength))

	if tempDit > scaleConstant || tempDah > scaleConstant {
		for k := range d.signalHistogram {
			d.signalHistogram[k] = int32(adaptiveScaleFactor * float64(d.signalHistogram[k]))
		}
	}
}

// Tick advances the decode state machine by one tone-level sample at
// absolute time nowMs, per the 6-state table in spec.md §4.8. Returns any
// character/space emitted this tick (or 0 if none).
func (d *CWDecoder) Tick(level int, nowMs int64) byte {
	d.nowMs = nowMs
	var emitted byte

	switch d.state {
	case dsIdle:
		if level == 1 {
			d.signalStart = nowMs
			gap := d.signalStart - d.signalEnd
			if gap > lowestAtomTimeMs && float64(gap) < d.threshold*3 &&
				nowMs-d.lastHistogramUpdateMs > 5000 {
				d.DoGapHistogram(gap)
				d.lastHistogramUpdateMs = nowMs
			}
			d.state = dsTimingMark
		} else {
			elapsed := nowMs - d.signalEnd
			if float64(elapsed) > 1.95*float64(d.ditLength) && d.charInProgress {
				d.state = dsEmitChar
				return d.Tick(level, nowMs)
			}
			if float64(elapsed) > 4.5*float64(d.ditLength) && !d.blankPrinted && !d.charInProgress {
				d.state = dsEmitBlank
				return d.Tick(level, nowMs)
			}
		}

	case dsTimingMark:
		if level == 0 {
			elapsed := nowMs - d.signalStart
			if elapsed >= lowestAtomTimeMs {
				d.DoSignalHistogram(elapsed)
				d.state = dsClassify
				d.signalElapsed = elapsed
			} else {
				d.state = dsIdle
			}
			d.signalEnd = nowMs
		}
		// level == 1: stay.

	case dsClassify:
		if d.signalElapsed > int64(0.5*float64(d.ditLength)) {
			d.dashJump >>= 1
		}
		if d.signalElapsed < int64(d.threshold) {
			d.decoderIndex++
		} else {
			d.decoderIndex += d.dashJump
		}
		d.charInProgress = true
		d.state = dsIdle
		if nowMs-d.lastHistogramUpdateMs > 5000 {
			d.updateAdaptiveThreshold()
		}

	case dsEmitChar:
		if int(d.decoderIndex) < len(morseTree) {
			emitted = morseTree[d.decoderIndex]
		}
		d.decoderIndex = 0
		d.dashJump = decoderBufferSize
		d.charInProgress = false
		d.blankPrinted = false
		d.state = dsIdle

	case dsEmitBlank:
		emitted = ' '
		d.blankPrinted = true
		d.state = dsIdle
	}

	return emitted
}
