package audio

import (
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// PortAudioDevice renders PCM on the default output device.
type PortAudioDevice struct {
	mu          sync.Mutex
	initialized bool
	active      *Playback
}

func NewPortAudioDevice() *PortAudioDevice {
	return &PortAudioDevice{}
}

func (d *PortAudioDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	d.initialized = true
	log.Printf("[Audio] PortAudio output device ready")
	return nil
}

func (d *PortAudioDevice) Play(pcm []byte, opts PlayOptions) (*Playback, error) {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return nil, fmt.Errorf("device not started")
	}
	prev := d.active
	d.mu.Unlock()

	if prev != nil && !prev.Done() {
		prev.Detach()
		prev.Stop()
	}

	samples := resample(decodeSamples(pcm, opts.Volume), opts.Speed)
	rate := float64(opts.SampleRate)

	buffer := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, rate, len(buffer), &buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start stream: %w", err)
	}

	stopCh := make(chan struct{})
	var stopOnce sync.Once
	playback := newPlayback(func() {
		stopOnce.Do(func() { close(stopCh) })
	})

	go func() {
		defer func() {
			stream.Stop()
			stream.Close()
			playback.complete()
		}()
		for offset := 0; offset < len(samples); offset += len(buffer) {
			select {
			case <-stopCh:
				return
			default:
			}
			n := copy(buffer, samples[offset:])
			for i := n; i < len(buffer); i++ {
				buffer[i] = 0
			}
			if err := stream.Write(); err != nil {
				log.Printf("[Audio] Stream write failed: %v", err)
				return
			}
		}
	}()

	d.mu.Lock()
	d.active = playback
	d.mu.Unlock()
	return playback, nil
}

func (d *PortAudioDevice) Close() error {
	d.mu.Lock()
	active := d.active
	initialized := d.initialized
	d.initialized = false
	d.mu.Unlock()

	if active != nil && !active.Done() {
		active.Detach()
		active.Stop()
	}
	if initialized {
		return portaudio.Terminate()
	}
	return nil
}
