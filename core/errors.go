// Package core implements the receive/transmit DSP chain, the CW decoder,
// and the mode state machine for a software-defined HF transceiver.
//
// Purpose: error taxonomy for the DSP core (see SPEC_FULL.md §7).
package core

import (
	"errors"
	"strconv"
)

// Sentinel errors returned by pipeline stages. Callers compare with errors.Is.
var (
	// ErrShapeMismatch means a stage's preconditions on block N or
	// sample_rate were not met. The stage left the block untouched.
	ErrShapeMismatch = errors.New("core: block shape mismatch")

	// ErrNoInput means the codec input queues were empty at block tick.
	// Not escalated; the scheduler should treat it as one missing block.
	ErrNoInput = errors.New("core: no input block available")

	// ErrBusAbsent means an external I2C/SPI device expected at init did
	// not respond. Sticky for the lifetime of the process for that device.
	ErrBusAbsent = errors.New("core: bus device absent")

	// ErrDeadlineMissed means a block took longer than its period.
	ErrDeadlineMissed = errors.New("core: block deadline missed")

	// ErrConfigInvalid means persisted configuration failed schema
	// validation; defaults were substituted.
	ErrConfigInvalid = errors.New("core: persisted configuration invalid")
)

// ShapeError wraps ErrShapeMismatch with which stage and block it rejected,
// the way a development build would want to panic on (see SPEC_FULL.md §7:
// "A SHAPE_MISMATCH is a bug; development builds should panic").
type ShapeError struct {
	Stage    string
	GotN     int
	GotRate  int
	WantN    int
	WantRate int
}

func (e *ShapeError) Error() string {
	return "core: " + e.Stage + ": shape mismatch (N=" + strconv.Itoa(e.GotN) +
		" want " + strconv.Itoa(e.WantN) + ", rate=" + strconv.Itoa(e.GotRate) +
		" want " + strconv.Itoa(e.WantRate) + ")"
}

func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }
