package core

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Purpose: the host entry points named by SPEC_FULL.md §6.6
// (initialize_all/step_block/handle_event/shutdown), wiring the filter
// bank, spectrum engine, CW decoder, mode state machine, audio router, and
// CAT server into the single real-time loop the teacher's src/*.go modem
// files each run standalone (e.g. demod_9600.go's per-block call shape,
// generalized here to drive the whole receive/transmit chain instead of
// one modem).

// Config bundles everything Engine needs at startup: the persisted
// configuration plus sample-rate/block-size constants fixed by the
// hardware (§4.1). BlockSamples must be 512: the filter-bank constructors
// below size their internal FIR state for a 512-sample top-level block
// (matching SpectrumRes, which the spectrum tap is read at directly).
type Config struct {
	Persisted    PersistedConfig
	SampleRateHz int
	BlockSamples int
	ConfigPath   string
}

// Engine owns every core subsystem and the mode state machine that gates
// which pipeline runs on a given block.
type Engine struct {
	cfg       Config
	clock     Clock
	telemetry *Telemetry

	modeSM   *ModeStateMachine
	router   *AudioRouter
	spectrum *SpectrumEngine
	cw       *CWDecoder
	toneDet  *ToneDetector
	cat      *CATServer
	catState *CATState

	rx *RXPipeline
	tx *TXPipeline

	cwOutput []byte
}

// NewEngine constructs an Engine without starting it; call InitializeAll
// to run the init sequence.
func NewEngine(cfg Config, clock Clock, reg prometheus.Registerer) *Engine {
	return &Engine{
		cfg:       cfg,
		clock:     clock,
		telemetry: NewTelemetry(reg),
	}
}

// genTaps fills a length-n coefficient slice with a windowed-sinc lowpass
// kernel at cutoff fraction fc, a small helper shared by every filter-bank
// stage InitializeAll wires below.
func genTaps(n int, fc float64) []float32 {
	out := make([]float32, n)
	GenLowpass(fc, out, WindowHamming)
	return out
}

// buildConvMask builds a ConvFilterLength-point frequency-domain mask from
// a windowed-sinc bandpass kernel spanning [f1Hz, f2Hz] at rateHz,
// zero-padded to ConvFilterLength and transformed once, matching
// InitFilterMask's "build the mask once per filter-setting change" shape.
func buildConvMask(f1Hz, f2Hz float64, rateHz int) []complex128 {
	loFrac := f1Hz / float64(rateHz)
	hiFrac := f2Hz / float64(rateHz)
	if loFrac < 0 {
		loFrac = -loFrac
	}
	if hiFrac < loFrac {
		loFrac, hiFrac = hiFrac, loFrac
	}
	kernel := make([]float32, decimNumTaps)
	GenBandpass(loFrac, hiFrac, kernel, WindowHamming)

	padded := make([]complex128, ConvFilterLength)
	for i, k := range kernel {
		padded[i] = complex(float64(k), 0)
	}
	return FFT(padded)
}

// InitializeAll runs the one-time startup sequence (§6.6): build the mode
// state machine, audio router, spectrum engine, CW decoder, CAT server,
// and the RX/TX pipelines for the band/mode the persisted config names,
// wiring every filter-bank/convolution/EQ/interpolation stage with real
// generated coefficients rather than leaving them disabled.
// Returns a non-zero subsystem identifier on unrecoverable failure, per
// spec: "any unrecoverable init failure returns a non-zero value
// identifying the failing subsystem."
func (e *Engine) InitializeAll() (failingSubsystem int, err error) {
	p := e.cfg.Persisted
	if verr := p.Validate(); verr != nil {
		e.telemetry.ConfigInvalid.Inc()
		p = Defaults()
	}

	if e.cfg.BlockSamples != SpectrumRes {
		e.cfg.BlockSamples = SpectrumRes
	}

	bandIdx := p.CurrentBand
	if bandIdx < 0 || bandIdx >= NumBands || bandIdx == BandBypass || DefaultBands[bandIdx].CenterHz == 0 {
		return 1, fmt.Errorf("core: init: no band configured at startup index %d", bandIdx)
	}
	band := DefaultBands[bandIdx]

	e.modeSM = NewModeStateMachine()
	e.router = NewAudioRouter()
	e.spectrum = NewSpectrumEngine()
	e.cw = NewCWDecoder(15)
	// toneDet's reference tone must match the length of the fully
	// demodulated CW audio block: decimate-by-4 through RXFilters, then
	// interpolate-by-8 back through RXInterp, a net x2 of the input block.
	e.toneDet = NewToneDetector(700, e.cfg.SampleRateHz, e.cfg.BlockSamples*2)

	e.catState = &CATState{
		AudioVolumePct: p.AudioVolumePct,
		MicGainPct:     p.MicGainPct,
		NROption:       p.NRSelection,
		SampleRateHz:   e.cfg.SampleRateHz,
	}
	e.catState.CurrentBand[VFOA] = bandIdx
	e.catState.CenterFreqHz[VFOA] = band.CenterHz
	e.cat = NewCATServer(e.catState, &DefaultBands, e.modeSM)

	rxAudioRateHz := float64(e.cfg.SampleRateHz) / 4
	rxFilters := NewRXFilterChain(genTaps(decimNumTaps, 0.22), genTaps(decimNumTaps, 0.20))
	convFilter := NewConvolutionFilter()
	convFilter.SetMask(buildConvMask(float64(band.FLoCutHz), float64(band.FHiCutHz), int(rxAudioRateHz)))
	rxInterp := NewRXInterpChain(genTaps(decimNumTaps, 0.20), genTaps(decimNumTaps, 0.18))
	rxEQ := NewEqualizer(NewDefaultEQBands(rxAudioRateHz), e.cfg.BlockSamples/4)

	e.rx = NewRXPipeline(&RXConfig{
		Band:         &band,
		GainDB:       0,
		IQCorrection: IQCorrection{GainI: 1, GainQ: 1},
		RXFilters:    rxFilters,
		ConvFilter:   convFilter,
		AudioLowpass: NewLowpassBiquad(float64(band.AMCutoffHz()), rxAudioRateHz),
		AGC:          NewAGC(AGCMed, e.cfg.SampleRateHz, e.cfg.BlockSamples),
		NR:           NewNoiseReducer(32, 256, 32),
		EQ:           rxEQ,
		RXInterp:     rxInterp,
		VolumePct:    p.AudioVolumePct,
	}, e.cfg.SampleRateHz)
	e.rx.cfg.NR.SetMode(NRMode(p.NRSelection))

	txAudioRateHz := float64(e.cfg.SampleRateHz) / 8
	micDecimators := NewRXFilterChain(genTaps(decimNumTaps, 0.22), genTaps(decimNumTaps, 0.20))
	micDecim3 := NewFIRDecimator(genTaps(decimNumTaps, 0.20), 2, e.cfg.BlockSamples/4)
	txEQ := NewEqualizer(NewDefaultEQBands(txAudioRateHz), e.cfg.BlockSamples/8)
	pos45, neg45 := GenHilbertSplitter(hilbertNumTaps, WindowHamming)
	hilbert := NewHilbertPair(pos45, neg45, e.cfg.BlockSamples/8)
	txInterp := NewTXFilterChain(
		genTaps(decimNumTaps, 0.18),
		genTaps(decimNumTaps, 0.20),
		genTaps(decimNumTaps, 0.10),
	)

	e.tx = NewTXPipeline(&TXConfig{
		Mode:          band.Mode,
		MicDecimators: micDecimators,
		MicDecim3:     micDecim3,
		EQ:            txEQ,
		Hilbert:       hilbert,
		TXInterp:      txInterp,
		IQCorrection:  IQCorrection{GainI: 1, GainQ: 1},
	})

	e.modeSM.MarkInitComplete()
	return 0, nil
}

// StepBlock runs one receive-pipeline pass over block in place, per
// §6.6's "step_block()" tick. It returns the spectrum-tap samples the
// host can forward to a UI layer; the host owns the codec I/O that
// surrounds this call (§1). While the mode state machine is in
// StateCWReceive, the block's final receive output (after AGC, noise
// reduction, EQ, interpolation and volume) is also run through the tone
// detector and CW decode state machine; the detector does not see the audio
// directly after demodulation.
func (e *Engine) StepBlock(block *SampleBlock) (spectrumI, spectrumQ []float32, err error) {
	if e.rx == nil {
		return nil, nil, fmt.Errorf("core: step_block called before initialize_all")
	}
	if err := block.Require("step_block", e.cfg.BlockSamples, e.cfg.SampleRateHz); err != nil {
		e.telemetry.DeadlineMissed.Inc()
		return nil, nil, err
	}
	spectrumI, spectrumQ = e.rx.Process(block)
	e.spectrum.CalcPSD(spectrumI, spectrumQ)

	if e.modeSM.State() == StateCWReceive && block.N == len(e.toneDet.refTone) {
		blockMs := int(int64(block.N) * 1000 / int64(block.SampleRateHz))
		level, _ := e.toneDet.Process(block.I[:block.N], blockMs)
		if c := e.cw.Tick(level, e.clock.NowMs()); c != 0 {
			e.cwOutput = append(e.cwOutput, c)
		}
	}

	return spectrumI, spectrumQ, nil
}

// StepTXBlock runs one transmit-pipeline pass over block in place, the
// mic-to-RF counterpart of StepBlock, to be called from the real-time loop
// whenever the mode state machine reports an active transmit state.
func (e *Engine) StepTXBlock(block *SampleBlock) error {
	if e.tx == nil {
		return fmt.Errorf("core: step_tx_block called before initialize_all")
	}
	if err := block.Require("step_tx_block", e.cfg.BlockSamples, e.cfg.SampleRateHz); err != nil {
		e.telemetry.DeadlineMissed.Inc()
		return err
	}
	e.tx.Process(block)
	return nil
}

// HandleEvent feeds one mode/state event through the state machine and
// audio router, returning the new state. Matches §6.6's "handle_event
// (event)".
func (e *Engine) HandleEvent(ev EventTag) StateID {
	st := e.modeSM.Handle(ev)
	_, _, _ = e.router.UpdateAudioIOState(st)
	return st
}

// State reports the mode state machine's current state, so the host loop
// can decide whether to route a block through StepBlock or StepTXBlock.
func (e *Engine) State() StateID { return e.modeSM.State() }

// DecodedCW drains and returns any CW characters/spaces decoded so far.
func (e *Engine) DecodedCW() string {
	s := string(e.cwOutput)
	e.cwOutput = e.cwOutput[:0]
	return s
}

// Shutdown persists configuration and returns 0, or a non-zero value if
// persistence failed, per §6.6's "reference shutdown path persists
// configuration and returns 0."
func (e *Engine) Shutdown() int {
	if err := SaveConfig(e.cfg.ConfigPath, e.cfg.Persisted); err != nil {
		return 1
	}
	return 0
}
