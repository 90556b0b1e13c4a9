// Package audio plays synthesized PCM on an output device.
package audio

import (
	"sync"
)

// PlayOptions controls how a PCM clip is rendered.
type PlayOptions struct {
	SampleRate int
	// Volume scales samples, 0.0 to 1.0.
	Volume float64
	// Speed resamples the clip; 1.0 is natural rate.
	Speed float64
}

// Device renders 16-bit LE mono PCM. A device plays at most one clip at
// a time; starting a new clip stops the previous one.
type Device interface {
	Start() error
	Play(pcm []byte, opts PlayOptions) (*Playback, error)
	Close() error
}

// Playback is a handle on one in-flight clip. It resolves exactly once,
// either when the clip finishes or when it is stopped. A handler
// detached before Stop is never invoked, so a stopped clip cannot
// trigger a completion it no longer owns.
type Playback struct {
	mu      sync.Mutex
	done    bool
	onEnded func()
	cancel  func()
}

func newPlayback(cancel func()) *Playback {
	return &Playback{cancel: cancel}
}

// OnEnded registers the completion handler. Passing nil detaches.
func (p *Playback) OnEnded(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

// Detach clears the completion handler.
func (p *Playback) Detach() {
	p.OnEnded(nil)
}

// Stop cancels output and resolves the playback. Like a natural finish,
// it fires the handler if one is still attached.
func (p *Playback) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.complete()
}

// Done reports whether the playback has resolved.
func (p *Playback) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// complete resolves the playback once and fires the attached handler.
func (p *Playback) complete() {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	p.done = true
	fn := p.onEnded
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}
