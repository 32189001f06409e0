package core

// Purpose: the per-band configuration table (SPEC_FULL.md §3 "Bands table").
// Grounded on bands[] / BPFBoard.h from original_source.

// OperatingMode is the demodulation/modulation mode assigned to a band.
type OperatingMode int

const (
	ModeLSB OperatingMode = iota
	ModeUSB
	ModeAM
	ModeSAM
	ModeCW
)

func (m OperatingMode) String() string {
	switch m {
	case ModeLSB:
		return "LSB"
	case ModeUSB:
		return "USB"
	case ModeAM:
		return "AM"
	case ModeSAM:
		return "SAM"
	case ModeCW:
		return "CW"
	default:
		return "?"
	}
}

// Band indices match BPFBoard.h's "Band#" column exactly (not a sequential
// band-plan ordering): the relay word is 1<<band#, byte-swapped, so the
// numbering here has to agree with the hardware table bit-for-bit.
const (
	Band60M    = 0
	Band160M   = 1
	Band80M    = 2
	Band40M    = 3
	Band30M    = 4
	Band20M    = 5
	Band17M    = 6
	Band15M    = 7
	Band12M    = 8
	Band10M    = 9
	Band6M     = 10
	BandBypass = 15
	NumBands   = 16
)

// Band is a per-band record: display label, center frequency, pass-band
// edges (signed; negative bounds select LSB), mode, and EQ gains.
//
// Invariant: FHiCutHz >= FLoCutHz. The mask builder uses
// |min(FHiCutHz, -FLoCutHz)| as its effective cutoff for AM (§3).
type Band struct {
	Label      string
	CenterHz   int64
	FLoCutHz   int32
	FHiCutHz   int32
	Mode       OperatingMode
	Gain       int
	RelayWord  uint16
}

// DefaultBands mirrors the firmware's compiled-in band table: voice bands
// default to LSB below 30 m crossover and USB at/above it (per CAT.cpp's MD
// handler, spec.md §9 Open Questions, preserved as observed).
var DefaultBands = [NumBands]Band{
	Band160M:   {Label: "160m", CenterHz: 1900000, FLoCutHz: -2700, FHiCutHz: -200, Mode: ModeLSB},
	Band80M:    {Label: "80m", CenterHz: 3750000, FLoCutHz: -2700, FHiCutHz: -200, Mode: ModeLSB},
	Band60M:    {Label: "60m", CenterHz: 5357000, FLoCutHz: -2700, FHiCutHz: -200, Mode: ModeLSB},
	Band40M:    {Label: "40m", CenterHz: 7150000, FLoCutHz: -2700, FHiCutHz: -200, Mode: ModeLSB},
	Band30M:    {Label: "30m", CenterHz: 10120000, FLoCutHz: 200, FHiCutHz: 2700, Mode: ModeUSB},
	Band20M:    {Label: "20m", CenterHz: 14200000, FLoCutHz: 200, FHiCutHz: 2700, Mode: ModeUSB},
	Band17M:    {Label: "17m", CenterHz: 18100000, FLoCutHz: 200, FHiCutHz: 2700, Mode: ModeUSB},
	Band15M:    {Label: "15m", CenterHz: 21250000, FLoCutHz: 200, FHiCutHz: 2700, Mode: ModeUSB},
	Band12M:    {Label: "12m", CenterHz: 24940000, FLoCutHz: 200, FHiCutHz: 2700, Mode: ModeUSB},
	Band10M:    {Label: "10m", CenterHz: 28400000, FLoCutHz: 200, FHiCutHz: 2700, Mode: ModeUSB},
	Band6M:     {Label: "6m", CenterHz: 50125000, FLoCutHz: 200, FHiCutHz: 2700, Mode: ModeUSB},
	BandBypass: {Label: "gen", CenterHz: 10000000, FLoCutHz: 200, FHiCutHz: 2700, Mode: ModeUSB},
}

// AMCutoffHz returns the effective low-pass cutoff the mask builder uses
// for AM/SAM demodulation: |min(FHiCutHz, -FLoCutHz)| (§3).
func (b *Band) AMCutoffHz() int32 {
	hi := b.FHiCutHz
	neg := -b.FLoCutHz
	if neg < hi {
		return abs32(neg)
	}
	return abs32(hi)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// GetBand maps an absolute RF frequency in Hz to a band index using the
// default band table's center frequencies, choosing the nearest center.
// Grounded on CAT.cpp's GetBand() (declared external, called from set_vfo).
func GetBand(freqHz int64) int {
	best := 0
	bestDelta := int64(1) << 62
	for i := range DefaultBands {
		if i == BandBypass || DefaultBands[i].CenterHz == 0 {
			continue
		}
		d := freqHz - DefaultBands[i].CenterHz
		if d < 0 {
			d = -d
		}
		if d < bestDelta {
			bestDelta = d
			best = i
		}
	}
	return best
}

// BPFRelayWord computes the band-pass-filter relay control word for a band,
// following BPFBoard.h's BPF_WORD bit-packing exactly: set bit `band` in a
// 16-bit word, byte-swap it, then special-case the "bypass" (band 15)
// encoding which collapses to a nibble shift.
func BPFRelayWord(band int) uint16 {
	shifted := uint16(1) << uint(band)
	swapped := (shifted>>8)&0xFF | (shifted&0xFF)<<8
	if swapped == 0x0080 {
		return swapped >> 4
	}
	return swapped
}
