package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBandNearestCenter(t *testing.T) {
	idx := GetBand(DefaultBands[Band40M].CenterHz + 100)
	assert.Equal(t, Band40M, idx)
}

func TestGetBandSkipsBypassAndEmptySlots(t *testing.T) {
	idx := GetBand(0)
	assert.NotEqual(t, BandBypass, idx)
}

func TestBPFRelayWordSpecialCase(t *testing.T) {
	// BPF_WORD's documented special case: the bypass band's byte-swapped
	// word 0x0080 is further right-shifted by 4, giving 0x0008.
	word := BPFRelayWord(BandBypass)
	assert.Equal(t, uint16(0x0008), word)
}

func TestAMCutoffHz(t *testing.T) {
	b := DefaultBands[Band40M]
	assert.Greater(t, b.AMCutoffHz(), int32(0))
}
