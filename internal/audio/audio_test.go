package audio

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		name       string
		bytes      int
		sampleRate int
		want       time.Duration
	}{
		{"one second at 24k", 48000, 24000, time.Second},
		{"half second", 24000, 24000, 500 * time.Millisecond},
		{"empty clip", 0, 24000, 0},
		{"zero rate", 48000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Duration(make([]byte, tt.bytes), tt.sampleRate)
			if got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeSamplesAppliesVolume(t *testing.T) {
	// One full-scale positive sample.
	pcm := []byte{0xff, 0x7f}
	got := decodeSamples(pcm, 0.5)
	if len(got) != 1 {
		t.Fatalf("Expected 1 sample, got %d", len(got))
	}
	if got[0] < 0.49 || got[0] > 0.51 {
		t.Errorf("Sample = %f, want ~0.5", got[0])
	}
}

func TestResample(t *testing.T) {
	samples := make([]float32, 1000)

	t.Run("double speed halves length", func(t *testing.T) {
		if got := len(resample(samples, 2.0)); got != 500 {
			t.Errorf("Length = %d, want 500", got)
		}
	})

	t.Run("half speed doubles length", func(t *testing.T) {
		if got := len(resample(samples, 0.5)); got != 2000 {
			t.Errorf("Length = %d, want 2000", got)
		}
	})

	t.Run("natural speed is unchanged", func(t *testing.T) {
		if got := resample(samples, 1.0); len(got) != len(samples) {
			t.Errorf("Length = %d, want %d", len(got), len(samples))
		}
	})
}

func TestPlaybackResolvesOnce(t *testing.T) {
	fired := 0
	p := newPlayback(nil)
	p.OnEnded(func() { fired++ })

	p.complete()
	p.complete()
	p.Stop()

	if fired != 1 {
		t.Errorf("Handler fired %d times, want 1", fired)
	}
	if !p.Done() {
		t.Error("Playback should be done")
	}
}

func TestDetachedPlaybackDoesNotFire(t *testing.T) {
	fired := false
	p := newPlayback(nil)
	p.OnEnded(func() { fired = true })
	p.Detach()
	p.Stop()

	if fired {
		t.Error("Detached handler must not fire")
	}
}

func TestNullDeviceResolvesAfterDuration(t *testing.T) {
	d := NewNullDevice()
	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer d.Close()

	// 10 ms of audio at 24 kHz.
	pcm := make([]byte, 480)
	done := make(chan struct{})
	p, err := d.Play(pcm, PlayOptions{SampleRate: 24000, Volume: 1.0, Speed: 1.0})
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	p.OnEnded(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Playback did not resolve")
	}
}

func TestNullDeviceStopsPreviousClip(t *testing.T) {
	d := NewNullDevice()
	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer d.Close()

	pcm := make([]byte, 480000) // 10 s, will not finish naturally
	first, err := d.Play(pcm, PlayOptions{SampleRate: 24000, Volume: 1.0, Speed: 1.0})
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if _, err := d.Play(pcm, PlayOptions{SampleRate: 24000, Volume: 1.0, Speed: 1.0}); err != nil {
		t.Fatalf("Second Play() error = %v", err)
	}
	if !first.Done() {
		t.Error("Starting a new clip must stop the previous one")
	}
}

func TestMockDeviceFinishCurrent(t *testing.T) {
	d := NewMockDevice()
	p, err := d.Play([]byte{0, 0}, PlayOptions{SampleRate: 24000, Volume: 1.0, Speed: 1.0})
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	fired := false
	p.OnEnded(func() { fired = true })
	d.FinishCurrent()
	if !fired || !p.Done() {
		t.Errorf("FinishCurrent did not resolve playback (fired=%v done=%v)", fired, p.Done())
	}
}
