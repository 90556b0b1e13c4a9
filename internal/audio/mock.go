package audio

import (
	"sync"
)

// MockDevice records plays and lets tests resolve them manually.
type MockDevice struct {
	mu        sync.Mutex
	playbacks []*Playback
	// PlayedPCM holds the clip bytes in play order.
	PlayedPCM [][]byte
	// LastOpts holds the options of the most recent play.
	LastOpts PlayOptions
}

func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

func (d *MockDevice) Start() error { return nil }

func (d *MockDevice) Play(pcm []byte, opts PlayOptions) (*Playback, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n := len(d.playbacks); n > 0 && !d.playbacks[n-1].Done() {
		prev := d.playbacks[n-1]
		prev.Detach()
		prev.Stop()
	}

	playback := newPlayback(nil)
	d.playbacks = append(d.playbacks, playback)
	d.PlayedPCM = append(d.PlayedPCM, pcm)
	d.LastOpts = opts
	return playback, nil
}

func (d *MockDevice) Close() error { return nil }

// PlayCount returns how many clips have been started.
func (d *MockDevice) PlayCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.playbacks)
}

// FinishCurrent resolves the most recent playback as a natural end.
func (d *MockDevice) FinishCurrent() {
	d.mu.Lock()
	var current *Playback
	if n := len(d.playbacks); n > 0 {
		current = d.playbacks[n-1]
	}
	d.mu.Unlock()
	if current != nil {
		current.complete()
	}
}

// FinishPlayback resolves a specific playback as a natural end.
func (d *MockDevice) FinishPlayback(p *Playback) {
	if p != nil {
		p.complete()
	}
}

// Playback returns the i-th playback handle.
func (d *MockDevice) Playback(i int) *Playback {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.playbacks) {
		return nil
	}
	return d.playbacks[i]
}
