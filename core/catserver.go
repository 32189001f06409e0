package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Purpose: the Kenwood-style CAT command server (SPEC_FULL.md §6.5),
// grounded on CAT.cpp's valid_commands table and handler bodies, including
// the supplemented IF status string, MG gain conversion, and per-VFO
// bookkeeping the distillation dropped (§5 SUPPLEMENTED FEATURES).

// VFO names the two independent VFOs.
type VFO int

const (
	VFOA VFO = iota
	VFOB
	NumVFOs
)

// CATState is the subset of persisted/runtime state the CAT server reads
// and writes. It does not own the mode state machine or bands table; both
// are passed in by reference from the owning process.
type CATState struct {
	AudioVolumePct   int // 0..100
	MicGainPct       int // 0..100, converted to/from -40..30 dB
	NROption         int
	CenterFreqHz     [NumVFOs]int64
	FineTuneFreqHz   [NumVFOs]int64
	CurrentBand      [NumVFOs]int
	ActiveVFO        VFO
	LastFrequencies  [NumBands][2]int64 // [band][0]=center, [1]=fine
	FreqIncrement    int
	SampleRateHz     int
}

// catCommand is one entry of the CAT command table: two-letter name, write
// length, read length, and handlers. A length of 0 means the direction is
// unsupported.
type catCommand struct {
	name     string
	setLen   int
	readLen  int
	write    func(*CATServer, string) string
	read     func(*CATServer, string) string
}

// CATServer dispatches CAT protocol lines against a CATState, a bands
// table, and the mode state machine, matching CAT.cpp's command_parser.
type CATServer struct {
	State *CATState
	Bands *[NumBands]Band
	Mode  *ModeStateMachine
}

// NewCATServer builds a CAT server bound to the given state, bands table,
// and mode state machine.
func NewCATServer(state *CATState, bands *[NumBands]Band, mode *ModeStateMachine) *CATServer {
	return &CATServer{State: state, Bands: bands, Mode: mode}
}

var catTable = []catCommand{
	{"AG", 7, 4, (*CATServer).agWrite, (*CATServer).agRead},
	{"BD", 3, 0, (*CATServer).bdWrite, nil},
	{"BU", 3, 0, (*CATServer).buWrite, nil},
	{"FA", 14, 3, (*CATServer).faWrite, (*CATServer).faRead},
	{"FB", 14, 3, (*CATServer).fbWrite, (*CATServer).fbRead},
	{"FR", 14, 3, (*CATServer).frWrite, (*CATServer).frRead},
	{"FT", 14, 3, (*CATServer).ftWrite, (*CATServer).ftRead},
	{"ID", 0, 3, nil, (*CATServer).idRead},
	{"IF", 0, 3, nil, (*CATServer).ifRead},
	{"MD", 4, 3, (*CATServer).mdWrite, (*CATServer).mdRead},
	{"MG", 6, 3, (*CATServer).mgWrite, (*CATServer).mgRead},
	{"NR", 4, 3, (*CATServer).nrWrite, (*CATServer).nrRead},
	{"NT", 4, 3, (*CATServer).ntWrite, (*CATServer).ntRead},
}

// Dispatch parses one ';'-terminated command line and returns the reply
// line (including its own ';' terminator, or "?;" for anything unknown or
// the wrong length), matching command_parser's contract.
func (s *CATServer) Dispatch(line string) string {
	line = strings.TrimSuffix(line, ";")
	if len(line) < 2 {
		return "?;"
	}
	name := line[:2]
	for _, cmd := range catTable {
		if cmd.name != name {
			continue
		}
		switch {
		case len(line) == cmd.setLen-1 && cmd.write != nil:
			return cmd.write(s, line)
		case len(line) == cmd.readLen-1 && cmd.read != nil:
			return cmd.read(s, line)
		}
		return "?;"
	}
	return "?;"
}

func (s *CATServer) agRead(cmd string) string {
	return fmt.Sprintf("AG%c%03d;", cmd[2], int(float64(s.State.AudioVolumePct)*255.0/100.0))
}

func (s *CATServer) agWrite(cmd string) string {
	v, _ := strconv.Atoi(cmd[3:])
	pct := int(float64(v) * 100.0 / 255.0)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	s.State.AudioVolumePct = pct
	return ""
}

func (s *CATServer) bdWrite(cmd string) string { return "" }
func (s *CATServer) buWrite(cmd string) string { return "" }

// setVFO mirrors CAT.cpp's set_vfo: stash the outgoing VFO's frequencies
// into LastFrequencies for its old band, look up the new band, and update
// center frequency (offset by Fs/4, matching the original's
// `centerFreq_Hz = freq + rate/4`).
func (s *CATServer) setVFO(freqHz int64, vfo VFO) {
	st := s.State
	oldBand := st.CurrentBand[vfo]
	st.LastFrequencies[oldBand][0] = st.CenterFreqHz[vfo]
	st.LastFrequencies[oldBand][1] = st.FineTuneFreqHz[vfo]

	st.CurrentBand[vfo] = GetBand(freqHz)
	st.CenterFreqHz[vfo] = freqHz + int64(st.SampleRateHz)/4
	st.FineTuneFreqHz[vfo] = 0
}

func (s *CATServer) faWrite(cmd string) string {
	freq, _ := strconv.ParseInt(cmd[2:], 10, 64)
	s.setVFO(freq, VFOA)
	return fmt.Sprintf("FA%011d;", freq)
}
func (s *CATServer) faRead(cmd string) string {
	return fmt.Sprintf("FA%011d;", s.State.CenterFreqHz[VFOA])
}
func (s *CATServer) fbWrite(cmd string) string {
	freq, _ := strconv.ParseInt(cmd[2:], 10, 64)
	s.setVFO(freq, VFOB)
	return fmt.Sprintf("FB%011d;", freq)
}
func (s *CATServer) fbRead(cmd string) string {
	return fmt.Sprintf("FB%011d;", s.State.CenterFreqHz[VFOB])
}
func (s *CATServer) ftWrite(cmd string) string {
	freq, _ := strconv.ParseInt(cmd[2:], 10, 64)
	s.setVFO(freq, s.State.ActiveVFO)
	return fmt.Sprintf("FT%011d;", freq)
}
func (s *CATServer) ftRead(cmd string) string {
	return fmt.Sprintf("FT%011d;", s.State.CenterFreqHz[s.State.ActiveVFO])
}
func (s *CATServer) frWrite(cmd string) string {
	freq, _ := strconv.ParseInt(cmd[2:], 10, 64)
	s.setVFO(freq, s.State.ActiveVFO)
	return fmt.Sprintf("FR%011d;", freq)
}
func (s *CATServer) frRead(cmd string) string {
	return fmt.Sprintf("FR%011d;", s.State.CenterFreqHz[s.State.ActiveVFO])
}

func (s *CATServer) idRead(cmd string) string { return "ID019;" }

// isCWState reports whether state is any of the CW-transmit/receive
// substates, matching IF_read/MD_read's repeated state_id disjunction.
func isCWState(st StateID) bool {
	switch st {
	case StateCWReceive, StateCWTransmitDahMark, StateCWTransmitDitMark,
		StateCWTransmitKeyerSpace, StateCWTransmitKeyerWait,
		StateCWTransmitMark, StateCWTransmitSpace:
		return true
	default:
		return false
	}
}

func (s *CATServer) ifRead(cmd string) string {
	mode := 1
	if isCWState(s.Mode.State()) {
		mode = 3
	} else {
		switch s.Bands[s.State.CurrentBand[s.State.ActiveVFO]].Mode {
		case ModeLSB:
			mode = 1
		case ModeUSB:
			mode = 2
		case ModeAM, ModeSAM:
			mode = 5
		default:
			mode = 1
		}
	}
	rxtx := 0
	if s.Mode.State() != StateCWReceive && s.Mode.State() != StateSSBReceive {
		rxtx = 1
	}
	return fmt.Sprintf("IF%011d%04d%+06d%d%d%d%02d%d%d%d%d%d%d%02d%d;",
		s.State.CenterFreqHz[s.State.ActiveVFO], s.State.FreqIncrement,
		0, 0, 0, 0, 0, rxtx, mode, 0, 0, 0, 0, 0, 0)
}

func (s *CATServer) mdWrite(cmd string) string {
	p1, _ := strconv.Atoi(cmd[2:])
	band := s.State.CurrentBand[s.State.ActiveVFO]
	switch p1 {
	case 1:
		s.Bands[band].Mode = ModeLSB
	case 2:
		s.Bands[band].Mode = ModeUSB
	case 3:
		if s.Mode.State() == StateSSBReceive {
			if band < Band30M {
				s.Bands[band].Mode = ModeLSB
			} else {
				s.Bands[band].Mode = ModeUSB
			}
			s.Mode.Handle(EventToCWMode)
		}
	case 5:
		s.Bands[band].Mode = ModeSAM
	}
	return ""
}

func (s *CATServer) mdRead(cmd string) string {
	if isCWState(s.Mode.State()) {
		return "MD3;"
	}
	switch s.Bands[s.State.CurrentBand[s.State.ActiveVFO]].Mode {
	case ModeLSB:
		return "MD1;"
	case ModeUSB:
		return "MD2;"
	case ModeAM, ModeSAM:
		return "MD5;"
	default:
		return "?;"
	}
}

// mgWrite/mgRead store and report the mic gain as the 0..100 percent CAT
// value unchanged; MicGainDB and MicGainPercent below convert between that
// value and the -40..30 dB range (`g = (pct*70/100) - 40` and its inverse).
func (s *CATServer) mgWrite(cmd string) string {
	pct, _ := strconv.Atoi(cmd[2:])
	s.State.MicGainPct = pct
	return ""
}
func (s *CATServer) mgRead(cmd string) string {
	return fmt.Sprintf("MG%03d;", s.State.MicGainPct)
}

// MicGainDB converts the stored 0..100 percent value to -40..30 dB.
func MicGainDB(pct int) int { return pct*70/100 - 40 }

// MicGainPercent converts -40..30 dB back to the stored 0..100 percent.
func MicGainPercent(db int) int { return (db + 40) * 100 / 70 }

func (s *CATServer) nrWrite(cmd string) string {
	if cmd[2] == '0' {
		s.State.NROption = 0
	} else {
		v, _ := strconv.Atoi(cmd[2:])
		s.State.NROption = v
	}
	return ""
}
func (s *CATServer) nrRead(cmd string) string {
	return fmt.Sprintf("NR%d;", s.State.NROption)
}

func (s *CATServer) ntWrite(cmd string) string { return "" }
func (s *CATServer) ntRead(cmd string) string  { return "NT0;" }
