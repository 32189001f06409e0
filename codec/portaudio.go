package codec

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortaudioDevice implements Device over a single full-duplex portaudio
// stream carrying both codec-facing directions, replacing the teacher's ALSA/OSS cgo
// calls in audio.go (audio_open/set_alsa_params/audio_get_real/
// audio_put_real/audio_flush_real/audio_wait/audio_close) with the
// cross-platform gordonklaus/portaudio binding. Input and output channels
// are demultiplexed into per-channel ring queues so ReadBlock/WriteBlock
// can serve one InputChannel/OutputChannel at a time, matching the
// original's adev_s per-direction queue shape.
type PortaudioDevice struct {
	mu       sync.Mutex
	inStream *portaudio.Stream

	inBufs  [NumInputChannels]chan []float32
	started [NumInputChannels]bool

	outMu   sync.Mutex
	outBufs [NumOutputChannels][]float32
}

// OpenPortaudioDevice initializes the portaudio library and opens the
// default full-duplex stream at sampleRateHz with the given block size,
// matching set_alsa_params' fixed-period-size convention.
func OpenPortaudioDevice(sampleRateHz, blockSize int) (*PortaudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("codec: portaudio init: %w", err)
	}

	d := &PortaudioDevice{}
	for c := range d.inBufs {
		d.inBufs[c] = make(chan []float32, 4)
	}

	inChannels := int(NumInputChannels)
	outChannels := int(NumOutputChannels)

	stream, err := portaudio.OpenDefaultStream(inChannels, outChannels, float64(sampleRateHz), blockSize, d.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("codec: opening stream: %w", err)
	}
	d.inStream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("codec: starting stream: %w", err)
	}
	return d, nil
}

// callback is the portaudio real-time audio thread entry point: it
// interleaves NumInputChannels input samples and NumOutputChannels output
// samples per frame, matching audio_get_real/audio_put_real's
// one-sample-at-a-time interface pushed up to block granularity here.
func (d *PortaudioDevice) callback(in, out []float32) {
	frames := len(in) / int(NumInputChannels)

	for ch := 0; ch < int(NumInputChannels); ch++ {
		block := make([]float32, frames)
		for f := 0; f < frames; f++ {
			block[f] = in[f*int(NumInputChannels)+ch]
		}
		select {
		case d.inBufs[ch] <- block:
		default:
			// Queue full: drop the oldest pending block rather than block
			// the real-time thread (audio_wait's blocking-call boundary
			// must never live inside this callback).
			select {
			case <-d.inBufs[ch]:
			default:
			}
			d.inBufs[ch] <- block
		}
	}

	d.outMu.Lock()
	for f := 0; f < frames; f++ {
		for ch := 0; ch < int(NumOutputChannels); ch++ {
			var s float32
			if buf := d.outBufs[ch]; f < len(buf) {
				s = buf[f]
			}
			out[f*int(NumOutputChannels)+ch] = s
		}
	}
	for ch := range d.outBufs {
		if frames < len(d.outBufs[ch]) {
			d.outBufs[ch] = d.outBufs[ch][frames:]
		} else {
			d.outBufs[ch] = nil
		}
	}
	d.outMu.Unlock()
}

// Begin marks ch as actively streamed. The portaudio callback always runs
// once the stream is started, so Begin only records the flag; it does not
// drain or reset that channel's queue.
func (d *PortaudioDevice) Begin(ch InputChannel) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(ch) < 0 || int(ch) >= int(NumInputChannels) {
		return fmt.Errorf("codec: invalid input channel %d", ch)
	}
	d.started[ch] = true
	return nil
}

// End marks ch as no longer streamed. ReadBlock does not consult this flag,
// so blocks queued for ch are still served after End.
func (d *PortaudioDevice) End(ch InputChannel) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started[ch] = false
	return nil
}

// ReadBlock blocks until a queued block is available for ch or ctx ends.
func (d *PortaudioDevice) ReadBlock(ctx context.Context, ch InputChannel, buf []float32) (int, error) {
	if int(ch) < 0 || int(ch) >= int(NumInputChannels) {
		return 0, fmt.Errorf("codec: invalid input channel %d", ch)
	}
	select {
	case block := <-d.inBufs[ch]:
		n := copy(buf, block)
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// WriteBlock appends buf to ch's output queue, consumed by the next
// callback invocations.
func (d *PortaudioDevice) WriteBlock(ch OutputChannel, buf []float32) error {
	if int(ch) < 0 || int(ch) >= int(NumOutputChannels) {
		return fmt.Errorf("codec: invalid output channel %d", ch)
	}
	d.outMu.Lock()
	d.outBufs[ch] = append(d.outBufs[ch], buf...)
	d.outMu.Unlock()
	return nil
}

// Close stops the stream and terminates portaudio, matching audio_close's
// teardown order (stop then release).
func (d *PortaudioDevice) Close() error {
	if d.inStream != nil {
		if err := d.inStream.Stop(); err != nil {
			portaudio.Terminate()
			return fmt.Errorf("codec: stopping stream: %w", err)
		}
		if err := d.inStream.Close(); err != nil {
			portaudio.Terminate()
			return fmt.Errorf("codec: closing stream: %w", err)
		}
	}
	return portaudio.Terminate()
}
