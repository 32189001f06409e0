package core

// Purpose: the three selectable noise-reduction algorithms (SPEC_FULL.md
// §4.7): Kim (per-sample LMS), Spectral (FFT magnitude gating), and Xanr
// (adaptive notch/noise, shared core run in two modes). Grounded on the
// general shape of the original firmware's NR chain (a single active
// algorithm selected by an enum, always preserving block length and sample
// rate) and on the teacher's filter/state-vector conventions in dsp.go.

// NRMode selects the active noise-reduction algorithm.
type NRMode int

const (
	NROff NRMode = iota
	NRKim
	NRSpectral
	NRLMS
)

// KimReducer is an adaptive LMS noise reducer: a tap vector that estimates
// a narrow-band component to subtract from the wideband input. The taps are
// updated after every sample, not once per block.
type KimReducer struct {
	taps    []float32
	state   []float32
	muStep  float32
	numTaps int
}

// NewKimReducer builds a Kim-variant LMS reducer with the given tap count
// and adaptation step size.
func NewKimReducer(numTaps int, muStep float32) *KimReducer {
	return &KimReducer{
		taps:    make([]float32, numTaps),
		state:   make([]float32, numTaps),
		muStep:  muStep,
		numTaps: numTaps,
	}
}

// Process runs one block through the LMS estimator, writing the
// noise-reduced result into out (same length as in).
func (k *KimReducer) Process(in, out []float32) {
	for n, x := range in {
		// Shift delay line.
		copy(k.state[1:], k.state[:k.numTaps-1])
		k.state[0] = x

		var estimate float32
		for i := 0; i < k.numTaps; i++ {
			estimate += k.taps[i] * k.state[i]
		}

		err := x - estimate
		out[n] = err

		for i := 0; i < k.numTaps; i++ {
			k.taps[i] += k.muStep * err * k.state[i]
		}
	}
}

// SpectralReducer is frame-by-frame FFT magnitude gating against a running
// noise-floor estimate. Each output block is the first half of the gated
// frame's inverse transform; frames are not windowed and no overlap-add is
// performed.
type SpectralReducer struct {
	frameLen   int
	hop        int
	noiseFloor []float32
	overlap    []float32
	alpha      float32 // noise-floor tracking rate
	threshold  float32 // gain floor below noiseFloor*threshold
}

// NewSpectralReducer builds a spectral-subtraction reducer for the given
// frame length (must be a power of two) with 50% overlap.
func NewSpectralReducer(frameLen int) *SpectralReducer {
	return &SpectralReducer{
		frameLen:   frameLen,
		hop:        frameLen / 2,
		noiseFloor: make([]float32, frameLen),
		overlap:    make([]float32, frameLen),
		alpha:      0.98,
		threshold:  2.0,
	}
}

// Process runs one hop-length block through the spectral reducer. in and
// out are hop-length (frameLen/2); internally a full frame is built from
// the previous half plus the new block.
func (s *SpectralReducer) Process(in, out []float32) {
	frame := make([]complex128, s.frameLen)
	for i := 0; i < s.hop; i++ {
		frame[i] = complex(float64(s.overlap[i]), 0)
		frame[i+s.hop] = complex(float64(in[i]), 0)
	}
	copy(s.overlap, in)

	spec := FFT(frame)
	for i, c := range spec {
		mag := float32(abs(c))
		if mag > s.noiseFloor[i] {
			s.noiseFloor[i] = s.alpha*s.noiseFloor[i] + (1-s.alpha)*mag
		} else {
			s.noiseFloor[i] = s.alpha*s.noiseFloor[i] + (1-s.alpha)*mag*0.5
		}
		gate := float32(1.0)
		if mag < s.noiseFloor[i]*s.threshold {
			gate = mag / (s.noiseFloor[i]*s.threshold + 1e-12)
		}
		spec[i] = c * complex(float64(gate), 0)
	}
	td := IFFT(spec)
	for i := 0; i < s.hop && i < len(out); i++ {
		out[i] = float32(real(td[i]))
	}
}

func abs(c complex128) float64 {
	re, im := real(c), imag(c)
	return (re*re + im*im)
}

// XanrMode selects whether the shared adaptive core produces the estimate
// (auto-noise-reduction) or subtracts it (auto-notch-filter).
type XanrMode int

const (
	XanrModeANR XanrMode = iota // produce the adaptive estimate
	XanrModeANF                 // subtract it (auto-notch)
)

// Xanr is the shared adaptive-line-enhancer core backing both auto-notch
// and auto-noise-reduction, matched to the firmware's single shared adapt
// loop driven by a mode flag.
type Xanr struct {
	mode    XanrMode
	taps    []float32
	delay   []float32
	muStep  float32
	numTaps int
}

// NewXanr builds the adaptive core for the given mode.
func NewXanr(mode XanrMode, numTaps int, muStep float32) *Xanr {
	return &Xanr{
		mode:    mode,
		taps:    make([]float32, numTaps),
		delay:   make([]float32, numTaps),
		muStep:  muStep,
		numTaps: numTaps,
	}
}

// Process runs one block through the adaptive line enhancer.
func (x *Xanr) Process(in, out []float32) {
	for n, s := range in {
		copy(x.delay[1:], x.delay[:x.numTaps-1])
		x.delay[0] = s

		var estimate float32
		for i := 0; i < x.numTaps; i++ {
			estimate += x.taps[i] * x.delay[i]
		}

		err := s - estimate
		if x.mode == XanrModeANR {
			out[n] = estimate
		} else {
			out[n] = err
		}

		for i := 0; i < x.numTaps; i++ {
			x.taps[i] += x.muStep * err * x.delay[i]
		}
	}
}

// NoiseReducer composes the three algorithms behind a single selectable
// front, matching "at most one active at a time" (§4.7).
type NoiseReducer struct {
	mode     NRMode
	kim      *KimReducer
	spectral *SpectralReducer
	xanr     *Xanr
}

// NewNoiseReducer builds a noise reducer with all three backends
// constructed up front (cheap relative to the block-rate loop) and mode
// selectable at runtime without reallocation.
func NewNoiseReducer(kimTaps int, spectralFrameLen int, xanrTaps int) *NoiseReducer {
	return &NoiseReducer{
		mode:     NROff,
		kim:      NewKimReducer(kimTaps, 0.01),
		spectral: NewSpectralReducer(spectralFrameLen),
		xanr:     NewXanr(XanrModeANF, xanrTaps, 0.01),
	}
}

// SetMode switches the active algorithm.
func (n *NoiseReducer) SetMode(m NRMode) { n.mode = m }

// Process runs the currently selected algorithm, or copies input to output
// unchanged when Off.
func (n *NoiseReducer) Process(in, out []float32) {
	switch n.mode {
	case NRKim:
		n.kim.Process(in, out)
	case NRSpectral:
		n.spectral.Process(in, out)
	case NRLMS:
		n.xanr.Process(in, out)
	default:
		copy(out, in)
	}
}
