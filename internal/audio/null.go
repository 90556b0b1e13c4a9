package audio

import (
	"log"
	"sync"
	"time"
)

// NullDevice discards audio but keeps playback timing: each clip
// resolves after its natural duration scaled by speed. Used on hosts
// without an output device.
type NullDevice struct {
	mu     sync.Mutex
	active *Playback
}

func NewNullDevice() *NullDevice {
	return &NullDevice{}
}

func (d *NullDevice) Start() error {
	log.Printf("[Audio] Null output device, audio is discarded")
	return nil
}

func (d *NullDevice) Play(pcm []byte, opts PlayOptions) (*Playback, error) {
	d.mu.Lock()
	prev := d.active
	d.mu.Unlock()

	if prev != nil && !prev.Done() {
		prev.Detach()
		prev.Stop()
	}

	duration := Duration(pcm, opts.SampleRate)
	if opts.Speed > 0 {
		duration = time.Duration(float64(duration) / opts.Speed)
	}

	var timer *time.Timer
	playback := newPlayback(func() {
		if timer != nil {
			timer.Stop()
		}
	})
	timer = time.AfterFunc(duration, playback.complete)

	d.mu.Lock()
	d.active = playback
	d.mu.Unlock()
	return playback, nil
}

func (d *NullDevice) Close() error {
	d.mu.Lock()
	active := d.active
	d.mu.Unlock()
	if active != nil && !active.Done() {
		active.Detach()
		active.Stop()
	}
	return nil
}
