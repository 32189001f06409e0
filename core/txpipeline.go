package core

// Purpose: the transmit pipeline (SPEC_FULL.md §4.11), grounded on the
// stage list and on DSP_FFT.cpp's TX filter/Hilbert/interpolation chain.
type TXConfig struct {
	Mode           OperatingMode
	MicDecimators  *RXFilterChain // reused: same two decimate-by-2 stages (by 4 overall) as RX
	MicDecim3      *FIRDecimator  // third decimate-by-2 stage (48k -> 24k -> 12k)
	EQ             *Equalizer
	Hilbert        *HilbertPair
	TXInterp       *TXFilterChain
	IQCorrection   IQCorrection
}

// TXPipeline runs one transmit block through §4.11's stage order.
type TXPipeline struct {
	cfg *TXConfig
}

// NewTXPipeline builds a transmit pipeline from cfg.
func NewTXPipeline(cfg *TXConfig) *TXPipeline {
	return &TXPipeline{cfg: cfg}
}

// Process runs §4.11 steps 2-11 on block (mic pull and codec push are the
// codec collaborator's job, matching the RX pipeline's boundary).
func (p *TXPipeline) Process(block *SampleBlock) {
	zero := make([]float32, block.N)
	copy(block.Q[:block.N], zero)

	decI, decQ := p.cfg.MicDecimators.Process(block.I[:block.N], block.Q[:block.N])

	if p.cfg.MicDecim3 != nil {
		out := make([]float32, len(decI)/2)
		p.cfg.MicDecim3.Process(decI, out)
		decI = out
		outQ := make([]float32, len(decQ)/2)
		p.cfg.MicDecim3.Process(decQ, outQ)
		decQ = outQ
	}
	copy(block.I, decI)
	copy(block.Q, decQ)
	block.N = len(decI)
	block.SampleRateHz /= 8

	if p.cfg.EQ != nil {
		tmp := make([]float32, block.N)
		p.cfg.EQ.Process(block.I[:block.N], tmp)
		copy(block.I, tmp)
	}

	if p.cfg.Hilbert != nil {
		copy(block.Q[:block.N], block.I[:block.N])
		p.cfg.Hilbert.Process(block.I[:block.N], block.Q[:block.N])
	}

	SidebandSelect(p.cfg.Mode, block.I[:block.N])

	if p.cfg.TXInterp != nil {
		outI, outQ := p.cfg.TXInterp.Process(block.I[:block.N], block.Q[:block.N])
		copy(block.I, outI)
		copy(block.Q, outQ)
		block.N = len(outI)
		block.SampleRateHz *= 16
	}

	p.cfg.IQCorrection.Apply(block.I[:block.N], block.Q[:block.N])
}
