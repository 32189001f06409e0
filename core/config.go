package core

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Purpose: persisted configuration document (SPEC_FULL.md §3, §6.4),
// modeled as a typed struct with yaml tags rather than an untyped map.
// Grounded on the teacher's own use of yaml.v3 for deviceid.go's
// tocalls.yaml, and on Storage.h's EEPROMData field set (the original
// persists JSON; this host build persists YAML for human-editable config
// files, keeping the same field set and documented defaults per §1's
// AMBIENT STACK note).

// PerBandConfig is the persisted slice of a band's user-adjustable fields.
type PerBandConfig struct {
	Mode         OperatingMode `yaml:"mode"`
	FLoCutHz     int32         `yaml:"f_lo_cut_hz"`
	FHiCutHz     int32         `yaml:"f_hi_cut_hz"`
	LastCenterHz int64         `yaml:"last_center_hz"`
	LastFineHz   int64         `yaml:"last_fine_hz"`
}

// PersistedConfig is the on-disk configuration document, matching §6.4's
// field list exactly.
type PersistedConfig struct {
	CenterFreqHz    [NumBands]int64         `yaml:"center_freq_hz"`
	LastFrequencies [NumBands][2]int64      `yaml:"last_frequencies"`
	ActiveVFO       int                     `yaml:"active_vfo"`
	AudioVolumePct  int                     `yaml:"audio_volume_pct"`
	MicGainPct      int                     `yaml:"mic_gain_pct"`
	SidetoneVolPct  int                     `yaml:"sidetone_volume_pct"`
	CWToneIndex     int                     `yaml:"cw_tone_index"`
	CWFilterIndex   int                     `yaml:"cw_filter_index"`
	NRSelection     int                     `yaml:"nr_selection"`
	AGCSelection    int                     `yaml:"agc_selection"`
	DecoderEnabled  bool                    `yaml:"decoder_enabled"`
	SpectrumZoom    int                     `yaml:"spectrum_zoom"`
	CurrentBand     int                     `yaml:"current_band"`
	Bands           [NumBands]PerBandConfig `yaml:"bands"`
}

// Defaults returns a PersistedConfig with every documented default value
// applied (§6.4: "On load, absent fields take documented defaults").
func Defaults() PersistedConfig {
	var c PersistedConfig
	c.AudioVolumePct = 50
	c.MicGainPct = 57 // ~0 dB via MicGainDB(57) == -1, close to unity per the original's scale
	c.SidetoneVolPct = 50
	c.CWToneIndex = 0
	c.CWFilterIndex = 0
	c.NRSelection = int(NROff)
	c.AGCSelection = int(AGCMed)
	c.DecoderEnabled = true
	c.SpectrumZoom = int(Zoom1)
	c.CurrentBand = Band40M
	for i := range c.Bands {
		c.Bands[i] = PerBandConfig{
			Mode:     DefaultBands[i].Mode,
			FLoCutHz: DefaultBands[i].FLoCutHz,
			FHiCutHz: DefaultBands[i].FHiCutHz,
		}
	}
	return c
}

// Validate checks schema-level invariants (§3's Band invariant,
// percent-range fields). On failure the caller should fall back to
// Defaults() and log ErrConfigInvalid, per §7's CONFIG_INVALID policy.
func (c *PersistedConfig) Validate() error {
	if c.AudioVolumePct < 0 || c.AudioVolumePct > 100 {
		return ErrConfigInvalid
	}
	if c.MicGainPct < 0 || c.MicGainPct > 100 {
		return ErrConfigInvalid
	}
	for i := range c.Bands {
		if c.Bands[i].FHiCutHz < c.Bands[i].FLoCutHz {
			return ErrConfigInvalid
		}
	}
	return nil
}

// LoadConfig reads and validates a persisted configuration document from
// path, substituting documented defaults (and returning ErrConfigInvalid)
// on any parse or validation failure rather than refusing to start.
func LoadConfig(path string) (PersistedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), ErrConfigInvalid
	}
	var c PersistedConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Defaults(), ErrConfigInvalid
	}
	if err := c.Validate(); err != nil {
		return Defaults(), err
	}
	return c, nil
}

// SaveConfig writes c to path as YAML, matching the reference shutdown
// path's "persist configuration" step (§6.6).
func SaveConfig(path string, c PersistedConfig) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
