//go:build linux

package codec

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"
)

// udevWatcher implements HotplugWatcher over a netlink udev monitor,
// replacing the teacher's cgo libudev calls in cm108.go (device inventory
// via libudev enumeration, HID/sound-card correlation) with the pure-Go
// jochenvg/go-udev binding. Only the "sound" subsystem is watched: the CAT
// serial port and radio-control HID are out of DSP-core scope (§1).
type udevWatcher struct {
	mon    *udev.Monitor
	cancel context.CancelFunc
}

// NewUdevWatcher opens a netlink monitor on the "sound" subsystem.
func NewUdevWatcher() (HotplugWatcher, error) {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if mon == nil {
		return nil, fmt.Errorf("codec: failed to open udev netlink monitor")
	}
	if err := mon.FilterAddMatchSubsystem("sound"); err != nil {
		return nil, fmt.Errorf("codec: udev subsystem filter: %w", err)
	}
	return &udevWatcher{mon: mon}, nil
}

// Watch streams add/remove events for sound-subsystem devices.
func (w *udevWatcher) Watch(ctx context.Context) (<-chan HotplugEvent, error) {
	deviceCh, errCh, err := w.mon.DeviceChan(ctx)
	if err != nil {
		return nil, fmt.Errorf("codec: starting udev device channel: %w", err)
	}

	out := make(chan HotplugEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case dev, ok := <-deviceCh:
				if !ok {
					return
				}
				out <- HotplugEvent{
					DeviceName: dev.Sysname(),
					Arrived:    dev.Action() != "remove",
				}
			case <-errCh:
				// Monitor-level errors are non-fatal for the DSP core; the
				// stream simply stops producing events until reopened.
				return
			}
		}
	}()
	return out, nil
}

// Close is a no-op: the monitor's file descriptor is reclaimed when ctx
// passed to Watch is canceled.
func (w *udevWatcher) Close() error {
	return nil
}
