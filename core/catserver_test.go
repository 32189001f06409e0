package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestCATServer() *CATServer {
	bands := DefaultBands
	state := &CATState{SampleRateHz: 192000}
	return NewCATServer(state, &bands, NewModeStateMachine())
}

// TestCATAudioGainWriteReadRoundTrip checks AG's 0-255 <-> 0-100 percent
// conversion round-trips through a write then read, matching CAT.cpp's
// AG_write/AG_read pair.
func TestCATAudioGainWriteReadRoundTrip(t *testing.T) {
	s := newTestCATServer()

	reply := s.Dispatch("AG0255;")
	assert.Equal(t, "", reply)
	assert.Equal(t, 100, s.State.AudioVolumePct)

	assert.Equal(t, "AG0255;", s.Dispatch("AG0;"))
}

// TestCATFrequencyWriteReadRoundTrip checks that FA sets the center
// frequency offset by Fs/4 (matching setVFO's `freq + rate/4`) and that a
// subsequent FA read reports that stored center frequency (the written
// value plus Fs/4).
func TestCATFrequencyWriteReadRoundTrip(t *testing.T) {
	s := newTestCATServer()
	s.State.SampleRateHz = 192000

	freq := int64(14200000)
	reply := s.Dispatch("FA00014200000;")
	assert.Equal(t, "FA00014200000;", reply)
	assert.Equal(t, freq+int64(s.State.SampleRateHz)/4, s.State.CenterFreqHz[VFOA])

	readReply := s.Dispatch("FA;")
	assert.Equal(t, "FA00014248000;", readReply)
}

// TestCATFrequencyWriteSelectsBand checks that setVFO looks up the nearest
// band by center frequency, matching CAT.cpp's GetBand call from set_vfo.
func TestCATFrequencyWriteSelectsBand(t *testing.T) {
	s := newTestCATServer()
	s.Dispatch("FA00014200000;") // 20m center per DefaultBands
	assert.Equal(t, Band20M, s.State.CurrentBand[VFOA])
}

// TestCATModeWriteReadRoundTrip checks MD write/read for LSB, USB, and the
// CW crossover case, matching CAT.cpp's MD_write/MD_read.
func TestCATModeWriteReadRoundTrip(t *testing.T) {
	s := newTestCATServer()
	s.State.CurrentBand[VFOA] = Band20M
	s.State.ActiveVFO = VFOA

	assert.Equal(t, "", s.Dispatch("MD2;"))
	assert.Equal(t, "MD2;", s.Dispatch("MD;"))
	assert.Equal(t, ModeUSB, s.Bands[Band20M].Mode)

	assert.Equal(t, "", s.Dispatch("MD1;"))
	assert.Equal(t, "MD1;", s.Dispatch("MD;"))
	assert.Equal(t, ModeLSB, s.Bands[Band20M].Mode)
}

// TestCATModeWriteToCWSwitchesStateMachine checks MD3 only takes effect
// from SSB_RECEIVE and drives the mode state machine into CW_RECEIVE,
// matching MD_write's case 3 guard.
func TestCATModeWriteToCWSwitchesStateMachine(t *testing.T) {
	s := newTestCATServer()
	s.Mode.MarkInitComplete()
	s.State.CurrentBand[VFOA] = Band20M
	s.State.ActiveVFO = VFOA

	assert.Equal(t, "", s.Dispatch("MD3;"))
	assert.Equal(t, StateCWReceive, s.Mode.State())
	assert.Equal(t, "MD3;", s.Dispatch("MD;"))
}

// TestCATMicGainDBConversion checks the documented `pct*70/100 - 40`
// conversion and its inverse agree for the 0/50/100 percent boundaries.
func TestCATMicGainDBConversion(t *testing.T) {
	for _, pct := range []int{0, 50, 100} {
		db := MicGainDB(pct)
		assert.Equal(t, pct, MicGainPercent(db), "pct=%d", pct)
	}
}

// TestCATMicGainWriteReadRoundTrip checks the MG write/read pair reports
// back the same percent value it was given.
func TestCATMicGainWriteReadRoundTrip(t *testing.T) {
	s := newTestCATServer()
	assert.Equal(t, "", s.Dispatch("MG075;"))
	assert.Equal(t, "MG075;", s.Dispatch("MG;"))
}

// TestCATNoiseReductionWriteReadRoundTrip checks NR's write/read pair.
func TestCATNoiseReductionWriteReadRoundTrip(t *testing.T) {
	s := newTestCATServer()
	assert.Equal(t, "", s.Dispatch("NR2;"))
	assert.Equal(t, "NR2;", s.Dispatch("NR;"))
}

// TestCATDispatchUnknownCommand checks any unrecognized or malformed
// command line returns "?;", matching command_parser's fallback.
func TestCATDispatchUnknownCommand(t *testing.T) {
	s := newTestCATServer()
	assert.Equal(t, "?;", s.Dispatch("ZZ;"))
	assert.Equal(t, "?;", s.Dispatch(";"))
	assert.Equal(t, "?;", s.Dispatch("A;"))
}

// TestCATIdentityRead checks ID always reports the fixed rig ID.
func TestCATIdentityRead(t *testing.T) {
	s := newTestCATServer()
	assert.Equal(t, "ID019;", s.Dispatch("ID;"))
}
