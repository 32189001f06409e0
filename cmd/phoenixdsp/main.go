// Command phoenixdsp runs the receive/transmit DSP core as a standalone
// service: open the audio device, run initialize_all(), then loop
// step_block()/handle_event() until interrupted, persisting configuration
// on exit. CLI surface grounded on the teacher's cmd/direwolf flag style
// (pflag.*P with short+long forms); logging grounded on the teacher's
// declared but ecosystem-standard charmbracelet/log dependency.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/wb8ham/phoenixdsp/codec"
	"github.com/wb8ham/phoenixdsp/core"
)

func main() {
	os.Exit(run())
}

func run() int {
	configFile := pflag.StringP("config-file", "c", "phoenixdsp.yaml", "Persisted configuration file name.")
	sampleRate := pflag.IntP("sample-rate", "r", 192000, "Receive-chain sample rate, Hz.")
	blockSamples := pflag.IntP("block-samples", "b", 512, "Samples per processing block (fixed by the filter bank's FIR state sizing).")
	help := pflag.BoolP("help", "h", false, "Display help text.")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - software-defined transceiver DSP core.\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return 0
	}

	logger := log.New(os.Stderr)

	persisted, err := core.LoadConfig(*configFile)
	if err != nil {
		logger.Warn("persisted configuration invalid, using defaults", "path", *configFile, "err", err)
	}

	engine := core.NewEngine(core.Config{
		Persisted:    persisted,
		SampleRateHz: *sampleRate,
		BlockSamples: *blockSamples,
		ConfigPath:   *configFile,
	}, core.NewSystemClock(), prometheus.DefaultRegisterer)

	if fail, err := engine.InitializeAll(); err != nil {
		logger.Error("initialize_all failed", "subsystem", fail, "err", err)
		return fail
	}

	dev, err := codec.OpenPortaudioDevice(*sampleRate, *blockSamples)
	if err != nil {
		logger.Error("failed to open audio device", "err", err)
		return 2
	}
	defer dev.Close()
	_ = dev.Begin(codec.InputRXI)
	_ = dev.Begin(codec.InputRXQ)
	_ = dev.Begin(codec.InputMicL)
	defer dev.End(codec.InputRXI)
	defer dev.End(codec.InputRXQ)
	defer dev.End(codec.InputMicL)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("phoenixdsp core running", "sample_rate_hz", *sampleRate, "block_samples", *blockSamples)

	rxBlock := core.NewSampleBlock(*blockSamples, *sampleRate)
	txBlock := core.NewSampleBlock(*blockSamples, *sampleRate)
	for ctx.Err() == nil {
		if engine.State().IsTransmit() {
			n, err := dev.ReadBlock(ctx, codec.InputMicL, txBlock.I[:*blockSamples])
			if err != nil {
				break
			}
			txBlock.N = n
			txBlock.SampleRateHz = *sampleRate

			if err := engine.StepTXBlock(txBlock); err != nil {
				logger.Warn("step_tx_block error", "err", err)
				continue
			}
			_ = dev.WriteBlock(codec.OutputTXI, txBlock.I[:txBlock.N])
			_ = dev.WriteBlock(codec.OutputTXR, txBlock.Q[:txBlock.N])
			continue
		}

		n, err := dev.ReadBlock(ctx, codec.InputRXI, rxBlock.I[:*blockSamples])
		if err != nil {
			break
		}
		if _, err := dev.ReadBlock(ctx, codec.InputRXQ, rxBlock.Q[:*blockSamples]); err != nil {
			break
		}
		rxBlock.N = n
		rxBlock.SampleRateHz = *sampleRate

		if _, _, err := engine.StepBlock(rxBlock); err != nil {
			logger.Warn("step_block error", "err", err)
			continue
		}

		_ = dev.WriteBlock(codec.OutputSpeakerL, rxBlock.I[:rxBlock.N])
		_ = dev.WriteBlock(codec.OutputSpeakerR, rxBlock.I[:rxBlock.N])

		if cw := engine.DecodedCW(); cw != "" {
			logger.Info("cw decode", "text", cw)
		}
	}

	code := engine.Shutdown()
	logger.Info("phoenixdsp core stopped", "exit_code", code)
	return code
}
