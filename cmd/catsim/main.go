// Command catsim exposes the CAT text-protocol server over a pseudo
// terminal so a real terminal program (or a test harness dialing the slave
// side) can exercise command dispatch without a physical serial port.
// Grounded on the teacher's kisspt_open_pt (src/kiss.go), which opens a
// pseudo terminal with creack/pty for its KISS TNC client interface; here
// the same pty.Open() call backs a line-oriented CAT command loop instead.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/spf13/pflag"

	"github.com/wb8ham/phoenixdsp/core"
)

func main() {
	os.Exit(run())
}

func run() int {
	pflag.Parse()
	logger := log.New(os.Stderr)

	ptmx, pts, err := pty.Open()
	if err != nil {
		logger.Error("failed to open pseudo terminal", "err", err)
		return 1
	}
	defer ptmx.Close()
	defer pts.Close()

	logger.Info("CAT pseudo terminal ready", "slave", pts.Name())
	fmt.Println(pts.Name())

	modeSM := core.NewModeStateMachine()
	modeSM.MarkInitComplete()
	state := &core.CATState{SampleRateHz: 192000}
	state.CenterFreqHz[core.VFOA] = core.DefaultBands[core.Band40M].CenterHz
	state.CurrentBand[core.VFOA] = core.Band40M
	srv := core.NewCATServer(state, &core.DefaultBands, modeSM)

	scanner := bufio.NewScanner(ptmx)
	for scanner.Scan() {
		line := scanner.Text()
		reply := srv.Dispatch(line)
		if _, err := ptmx.WriteString(reply); err != nil {
			logger.Error("write to pty failed", "err", err)
			break
		}
	}
	return 0
}
