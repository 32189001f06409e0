package core

// Purpose: audio I/O routing — mixer channel selection per mode and
// side-tone gating (SPEC_FULL.md §4.9 point 2, §6.1, §6.3). Codec queue
// begin/end is not done here; cmd/phoenixdsp calls the codec device for it. Grounded on MainBoard_AudioIO.cpp's UpdateAudioIOState/
// SelectMixerChannel/MuteMixerChannels and its "previousAudioIOState" dedup
// (GetAudioPreviousState) that skips reconfiguring the mixer graph when the
// mode hasn't actually changed.

// MixerPort names one of the four physical I/O ports, each backed by a
// 4:1 mixer (§6.1).
type MixerPort int

const (
	PortMicInput MixerPort = iota
	PortRXIQInput
	PortTXOutput
	PortSpeakerOutput
)

// MixerSelection is "select channel N with gain 1.0, mute the other three"
// or "mute all four" (channel == -1).
type MixerSelection struct {
	Port    MixerPort
	Channel int // -1 means muted
}

// routingRow is one row of the §6.3 truth table.
type routingRow struct {
	mic, rxIQ, tx, speaker int // -1 = off/muted
	sidetone               bool
}

var routingTable = map[StateID]routingRow{
	StateSSBReceive:          {mic: -1, rxIQ: 0, tx: -1, speaker: 0, sidetone: false},
	StateCWReceive:           {mic: -1, rxIQ: 0, tx: -1, speaker: 0, sidetone: false},
	StateCalibrateRXIQ:       {mic: -1, rxIQ: 0, tx: -1, speaker: 0, sidetone: false},
	StateCalibrateFrequency:  {mic: -1, rxIQ: 0, tx: -1, speaker: 0, sidetone: false},
	StateSSBTransmit:         {mic: 0, rxIQ: -1, tx: 0, speaker: -1, sidetone: false},
	StateCalibrateTXIQMark:   {mic: 1, rxIQ: -1, tx: 0, speaker: -1, sidetone: false},
	StateCalibrateTXIQSpace:  {mic: 1, rxIQ: -1, tx: 0, speaker: -1, sidetone: false},
	StateCWTransmitMark:      {mic: -1, rxIQ: -1, tx: -1, speaker: 2, sidetone: true},
	StateCWTransmitDitMark:   {mic: -1, rxIQ: -1, tx: -1, speaker: 2, sidetone: true},
	StateCWTransmitDahMark:   {mic: -1, rxIQ: -1, tx: -1, speaker: 2, sidetone: true},
	StateInit:                {mic: -1, rxIQ: -1, tx: -1, speaker: -1, sidetone: false},
}

// defaultRow is the "other (INIT, ...)" row: everything off.
var defaultRow = routingRow{mic: -1, rxIQ: -1, tx: -1, speaker: -1, sidetone: false}

// AudioRouter applies the §6.3 mixer routing table for a mode state,
// skipping redundant reconfiguration when the state has not changed since
// the last call.
type AudioRouter struct {
	previousState StateID
	hasPrevious   bool
	micGain       float64
	sidetoneOn    bool
}

// NewAudioRouter builds an audio router with no previous state recorded.
func NewAudioRouter() *AudioRouter {
	return &AudioRouter{}
}

// SetMicGain records the microphone input gain for SSB_TRANSMIT's mic
// channel (UpdateTransmitAudioGain's target). The value is only stored:
// UpdateAudioIOState does not read it and MixerSelection carries no gain.
func (r *AudioRouter) SetMicGain(gain float64) { r.micGain = gain }

// PreviousState reports the last state the router actually reconfigured
// for, matching GetAudioPreviousState.
func (r *AudioRouter) PreviousState() (StateID, bool) { return r.previousState, r.hasPrevious }

// UpdateAudioIOState applies the routing table for state, returning the
// four mixer selections and whether the side-tone oscillator should be
// gated on. Returns changed=false if state equals the previously-applied state
// (dedup per MainBoard_AudioIO.cpp), in which case the mixer graph is left
// untouched and the caller should not re-issue codec writes.
func (r *AudioRouter) UpdateAudioIOState(state StateID) (selections [4]MixerSelection, sidetone bool, changed bool) {
	if r.hasPrevious && r.previousState == state {
		return selections, r.sidetoneOn, false
	}

	row, ok := routingTable[state]
	if !ok {
		row = defaultRow
	}

	selections[PortMicInput] = MixerSelection{Port: PortMicInput, Channel: row.mic}
	selections[PortRXIQInput] = MixerSelection{Port: PortRXIQInput, Channel: row.rxIQ}
	selections[PortTXOutput] = MixerSelection{Port: PortTXOutput, Channel: row.tx}
	selections[PortSpeakerOutput] = MixerSelection{Port: PortSpeakerOutput, Channel: row.speaker}

	r.previousState = state
	r.hasPrevious = true
	r.sidetoneOn = row.sidetone
	return selections, row.sidetone, true
}
