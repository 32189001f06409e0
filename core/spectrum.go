package core

import "math"

// Purpose: the zoom-FFT power-spectrum engine (SPEC_FULL.md §4.3), grounded
// on DSP_FFT.cpp's CalcPSD512/ZoomFFTExe. SpectrumRes is the bin count the
// original calls SPECTRUM_RES.
const SpectrumRes = 512

// ZoomLevel selects the spectrum zoom factor. Index == spectrum_zoom in the
// original; table follows ZoomFFTExe's doc comment exactly.
type ZoomLevel int

const (
	Zoom1  ZoomLevel = 1
	Zoom2  ZoomLevel = 2
	Zoom4  ZoomLevel = 4
	Zoom8  ZoomLevel = 8
	Zoom16 ZoomLevel = 16
)

// zoomBinWidthHz maps a zoom level to its effective bin width, reproducing
// the table in ZoomFFTExe's doc comment (192k/2048 -> 93.75, etc., scaled by
// SpectrumRes=512 rather than the documented 2048/1024/.../128, since this
// engine fixes SpectrumRes and instead varies the decimation factor M).
var zoomBinWidthHz = map[ZoomLevel]float64{
	Zoom1: 375.0, Zoom2: 187.5, Zoom4: 93.75, Zoom8: 46.875, Zoom16: 23.4375,
}

// zoomMultiplierCoeff compensates for the biquad-then-decimate amplitude
// loss as zoom increases. Carried over verbatim from DSP_FFT.cpp, including
// its observed choice to disable the coefficients (the commented-out
// {1.0, 1.21902468, ...} row is the un-compensated, theoretically "correct"
// set; the active row is all-ones, per spec.md §9 Open Questions: kept as
// observed rather than "fixed").
var zoomMultiplierCoeff = [5]float32{1.0, 1.0, 1.0, 1.0, 1.0}

// SpectrumEngine holds the zoom-FFT ring buffers and the exponential-average
// PSD state across calls. Grounded on DSP_FFT.cpp's file-scope
// FFT_ring_buffer_x/y, FFT_spec, FFT_spec_old globals, turned into
// instance state instead of globals.
type SpectrumEngine struct {
	ringX, ringY   []float32
	ringPtr        int
	psd, psdOld    []float32
	lpfCoeff       float32
	zoomDecimators *zoomDecimPair
}

// NewSpectrumEngine builds a spectrum engine with its ring buffers sized to
// SpectrumRes.
func NewSpectrumEngine() *SpectrumEngine {
	return &SpectrumEngine{
		ringX:    make([]float32, SpectrumRes),
		ringY:    make([]float32, SpectrumRes),
		psd:      make([]float32, SpectrumRes),
		psdOld:   make([]float32, SpectrumRes),
		lpfCoeff: 0.7, // LPFcoeff in CalcPSD512
	}
}

// zoomDecimPair is a placeholder for the biquad-then-decimate prefilter
// ZoomFFTExe applies before zoom levels > 1; the biquad itself lives in
// equalizer.go's Biquad type and is supplied by the caller (the zoom
// spectrum's sample-rate-dependent corner frequency is a UI/config concern
// outside this package per spec.md §1).
type zoomDecimPair struct {
	biquadI, biquadQ *Biquad
	decimFactor      int
}

// SetZoomPrefilter installs the biquad/decimation prefilter for zoom > 1.
func (e *SpectrumEngine) SetZoomPrefilter(biquadI, biquadQ *Biquad, decimFactor int) {
	e.zoomDecimators = &zoomDecimPair{biquadI: biquadI, biquadQ: biquadQ, decimFactor: decimFactor}
}

// CalcPSD computes a windowed, reordered power spectral density from
// SpectrumRes I/Q samples, smoothing into the running PSD with lpfCoeff and
// converting to log10 magnitude as its last step. Grounded on CalcPSD512
// exactly: psdold is shifted from the previous frame's psdnew before this
// frame's raw magnitude² overwrites psdnew, the smoothing loop blends that
// raw value against the shifted psdold, and only then does
// `psdnew[i] = log10f_fast(FFT_spec[i])` turn the smoothed linear power into
// the log magnitude this function stores and returns.
func (e *SpectrumEngine) CalcPSD(i, q []float32) []float32 {
	copy(e.psdOld, e.psd)

	buf := make([]complex128, SpectrumRes)
	for n := 0; n < SpectrumRes; n++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(n)/SpectrumRes)
		buf[n] = complex(float64(i[n])*w, float64(q[n])*w)
	}
	spec := FFT(buf)

	half := SpectrumRes / 2
	for n := 0; n < half; n++ {
		a := spec[n]
		e.psd[n+half] = float32(real(a)*real(a) + imag(a)*imag(a))
		b := spec[n+half]
		e.psd[n] = float32(real(b)*real(b) + imag(b)*imag(b))
	}

	for x := 0; x < SpectrumRes; x++ {
		e.psd[x] = e.lpfCoeff*e.psd[x] + (1-e.lpfCoeff)*e.psdOld[x]
		e.psd[x] = fastLog10(e.psd[x])
	}
	return e.psd
}

// ZoomFFTExe runs one zoom-FFT step. For Zoom1 it calculates a PSD directly
// from the current block (which must already be SpectrumRes samples). For
// higher zoom levels it prefilters and decimates through the ring buffer,
// returning (nil, false) until the ring fills, matching ZoomFFTExe's
// multi-call accumulation behavior exactly.
func (e *SpectrumEngine) ZoomFFTExe(i, q []float32, zoom ZoomLevel) ([]float32, bool) {
	if zoom == Zoom1 {
		return e.CalcPSD(i, q), true
	}
	if e.zoomDecimators == nil {
		return nil, false
	}

	x := make([]float32, len(i))
	y := make([]float32, len(q))
	e.zoomDecimators.biquadI.Process(i, x)
	e.zoomDecimators.biquadQ.Process(q, y)
	x = decimateFloat32(x, e.zoomDecimators.decimFactor)
	y = decimateFloat32(y, e.zoomDecimators.decimFactor)

	nSamples := len(i) / int(zoom)
	if nSamples > SpectrumRes {
		nSamples = SpectrumRes
	}
	mult := zoomMultiplierCoeff[zoomIndex(zoom)]
	for n := 0; n < nSamples && n < len(x); n++ {
		e.ringX[e.ringPtr] = mult * x[n]
		e.ringY[e.ringPtr] = mult * y[n]
		e.ringPtr++
		if e.ringPtr >= SpectrumRes {
			break
		}
	}

	if e.ringPtr < SpectrumRes {
		return nil, false
	}
	e.ringPtr = 0
	return e.CalcPSD(e.ringX, e.ringY), true
}

func zoomIndex(z ZoomLevel) int {
	switch z {
	case Zoom1:
		return 0
	case Zoom2:
		return 1
	case Zoom4:
		return 2
	case Zoom8:
		return 3
	case Zoom16:
		return 4
	default:
		return 0
	}
}

// decimateFloat32 keeps every m-th sample.
func decimateFloat32(in []float32, m int) []float32 {
	out := make([]float32, 0, len(in)/m+1)
	for i := 0; i < len(in); i += m {
		out = append(out, in[i])
	}
	return out
}

// BinWidthHz returns the effective spectrum bin width for a zoom level.
func BinWidthHz(z ZoomLevel) float64 { return zoomBinWidthHz[z] }
