package core

import "math"

// Purpose: the receive pipeline (SPEC_FULL.md §4.10), wiring the filter
// bank, spectrum tap, AGC, noise reduction, and EQ stages into the strict
// per-block order the spec requires. Grounded on the stage list itself and
// on the teacher's "one real-time loop, single block in single block out"
// processing-function style (e.g. demod_9600_process's per-block call
// shape in demod_9600.go).

// RXConfig bundles everything the receive pipeline needs to process one
// block: the owning FilterConfig-equivalent state plus the active band/mode.
type RXConfig struct {
	Band          *Band
	GainDB        float64
	IQCorrection  IQCorrection
	FineTuneHz    float64
	OffsetHz      float64
	RXFilters     *RXFilterChain
	ConvFilter    *ConvolutionFilter
	AudioLowpass  *Biquad
	AGC           *AGC
	NR            *NoiseReducer
	EQ            *Equalizer
	RXInterp      *RXInterpChain
	VolumePct     int
}

// IQCorrection is a single-multiply-for-I, affine-for-Q gain/phase
// correction, matching §4.10 step 3.
type IQCorrection struct {
	GainI, GainQ float64
	PhaseOffset  float64 // added to Q before scaling
}

// Apply performs the IQ correction in place.
func (c IQCorrection) Apply(i, q []float32) {
	for n := range i {
		i[n] = float32(float64(i[n]) * c.GainI)
		q[n] = float32((float64(q[n]) + c.PhaseOffset) * c.GainQ)
	}
}

// dBToLinear converts a dB gain figure to a linear amplitude multiplier,
// per §4.10 step 2's `10^(dB/20)`.
func dBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// VolumeToAmplification implements the user-facing volume law required by
// §8: `volume_to_amplification(0) == 0`, `volume_to_amplification(100) ==
// 5`, monotone increasing.
func VolumeToAmplification(volumePct int) float64 {
	if volumePct <= 0 {
		return 0
	}
	if volumePct >= 100 {
		return 5
	}
	return 5 * float64(volumePct) / 100
}

// RXPipeline runs one receive block through the full chain described by
// §4.10. It mutates block in place, returning the spectrum-tap samples
// (pre-decimation I/Q, for the spectrum engine) alongside the processed
// block.
type RXPipeline struct {
	cfg  *RXConfig
	fs4  bool
	nco  *NCO
}

// NewRXPipeline builds a receive pipeline from cfg. The Fs/4 translation
// step is always enabled; there is no parameter or setter that turns it
// off.
func NewRXPipeline(cfg *RXConfig, sampleRateHz int) *RXPipeline {
	return &RXPipeline{cfg: cfg, fs4: true, nco: NewNCO(sampleRateHz)}
}

// Process runs §4.10 steps 2-14 on block (step 1, pulling from codec input
// queues, and step 15, pushing to codec output queues, are the codec
// collaborator's job per §1 and live in codec/).
func (p *RXPipeline) Process(block *SampleBlock) (spectrumI, spectrumQ []float32) {
	gain := dBToLinear(p.cfg.GainDB)
	for n := 0; n < block.N; n++ {
		block.I[n] = float32(float64(block.I[n]) * gain)
		block.Q[n] = float32(float64(block.Q[n]) * gain)
	}

	p.cfg.IQCorrection.Apply(block.I[:block.N], block.Q[:block.N])

	spectrumI = append([]float32(nil), block.I[:block.N]...)
	spectrumQ = append([]float32(nil), block.Q[:block.N]...)

	decI, decQ := p.cfg.RXFilters.Process(block.I[:block.N], block.Q[:block.N])
	copy(block.I, decI)
	copy(block.Q, decQ)
	block.N = len(decI)
	block.SampleRateHz /= 4

	if p.fs4 {
		FreqShiftFs4(block.I[:block.N], block.Q[:block.N])
	}

	p.nco.ShiftBy(block.I[:block.N], block.Q[:block.N], -(p.cfg.FineTuneHz + p.cfg.OffsetHz))

	if p.cfg.ConvFilter != nil && block.N == ConvFilterBlock {
		outI := make([]float32, block.N)
		outQ := make([]float32, block.N)
		if err := p.cfg.ConvFilter.Process(block.I[:block.N], block.Q[:block.N], outI, outQ); err == nil {
			copy(block.I, outI)
			copy(block.Q, outQ)
		}
	}

	p.demodulate(block)

	if p.cfg.AGC != nil {
		p.cfg.AGC.Process(block.I[:block.N])
	}
	if p.cfg.NR != nil {
		tmp := make([]float32, block.N)
		p.cfg.NR.Process(block.I[:block.N], tmp)
		copy(block.I, tmp)
	}
	if p.cfg.EQ != nil {
		tmp := make([]float32, block.N)
		p.cfg.EQ.Process(block.I[:block.N], tmp)
		copy(block.I, tmp)
	}

	if p.cfg.RXInterp != nil {
		outI, outQ := p.cfg.RXInterp.Process(block.I[:block.N], block.Q[:block.N])
		copy(block.I, outI)
		copy(block.Q, outQ)
		block.N = len(outI)
		block.SampleRateHz *= 8
	}

	vol := VolumeToAmplification(p.cfg.VolumePct)
	for n := 0; n < block.N; n++ {
		block.I[n] = float32(float64(block.I[n]) * vol)
	}

	return spectrumI, spectrumQ
}

// demodulate implements §4.10 step 9 per the active band's mode.
func (p *RXPipeline) demodulate(block *SampleBlock) {
	switch p.cfg.Band.Mode {
	case ModeLSB, ModeUSB:
		copy(block.Q[:block.N], block.I[:block.N])
	case ModeAM, ModeSAM:
		for n := 0; n < block.N; n++ {
			mag := float32(math.Sqrt(float64(block.I[n])*float64(block.I[n]) + float64(block.Q[n])*float64(block.Q[n])))
			block.I[n] = mag
		}
		if p.cfg.AudioLowpass != nil {
			tmp := make([]float32, block.N)
			p.cfg.AudioLowpass.Process(block.I[:block.N], tmp)
			copy(block.I, tmp)
		}
		copy(block.Q[:block.N], block.I[:block.N])
	case ModeCW:
		// CW audio tone already present in I; the AudioLowpass biquad
		// (the AM low-pass InitializeAll builds) is the only CW audio
		// filter applied. There is no set of CW band-pass filters to
		// select from.
		if p.cfg.AudioLowpass != nil {
			tmp := make([]float32, block.N)
			p.cfg.AudioLowpass.Process(block.I[:block.N], tmp)
			copy(block.I, tmp)
		}
	}
}
