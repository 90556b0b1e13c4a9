package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dinaypatil-web/ReadFlow/internal/audio"
	"github.com/dinaypatil-web/ReadFlow/internal/library"
	"github.com/dinaypatil-web/ReadFlow/internal/provider"
	"github.com/dinaypatil-web/ReadFlow/internal/state"
	"github.com/dinaypatil-web/ReadFlow/internal/storage"
	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

type fakeSynth struct {
	mu      sync.Mutex
	errs    map[string]error
	calls   map[string]int
	rate    int
	lastReq provider.SynthesisRequest
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{
		errs:  make(map[string]error),
		calls: make(map[string]int),
		rate:  24000,
	}
}

func (f *fakeSynth) Name() string { return "fake" }

func (f *fakeSynth) Synthesize(ctx context.Context, req provider.SynthesisRequest) (*provider.SynthesisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.Text]++
	f.lastReq = req
	if err := f.errs[req.Text]; err != nil {
		return nil, err
	}
	// One second of audio per segment.
	return &provider.SynthesisResult{PCM: make([]byte, 2*f.rate), SampleRate: f.rate}, nil
}

func (f *fakeSynth) Close() error { return nil }

func (f *fakeSynth) callCount(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[text]
}

type harness struct {
	engine *Engine
	state  *state.Store
	lib    *library.Store
	device *audio.MockDevice
	synth  *fakeSynth
	book   *types.Book
}

func newHarness(t *testing.T, content []string) *harness {
	t.Helper()

	adapter, err := storage.NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}
	lib, err := library.NewStore(context.Background(), adapter)
	if err != nil {
		t.Fatalf("Failed to create library: %v", err)
	}
	book := &types.Book{
		Name:          "Test Book",
		Format:        "text/plain",
		Content:       content,
		IsFullyLoaded: true,
		LoadProgress:  100,
	}
	if err := lib.Add(context.Background(), book); err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}

	st := state.NewStore()
	device := audio.NewMockDevice()
	synth := newFakeSynth()
	engine := NewEngine(lib, st, synth, device, types.PlaybackConfig{
		LookaheadSegments: 5,
		CacheCapacity:     100,
		WordTickMs:        50,
	})
	// Prefetch goroutines would make synthesis call counts racy.
	engine.lookahead = 0
	t.Cleanup(engine.Shutdown)

	if err := engine.Open(book.ID); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return &harness{engine: engine, state: st, lib: lib, device: device, synth: synth, book: book}
}

func TestPlayStartsNarration(t *testing.T) {
	h := newHarness(t, []string{"First segment.", "Second segment."})

	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	got := h.state.Snapshot()
	if !got.IsPlaying || got.CurrentIndex != 0 {
		t.Errorf("State = playing=%v index=%d, want playing at 0", got.IsPlaying, got.CurrentIndex)
	}
	if got.ActiveWordIndex != 0 {
		t.Errorf("ActiveWordIndex = %d, want 0", got.ActiveWordIndex)
	}
	if h.device.PlayCount() != 1 {
		t.Errorf("PlayCount = %d, want 1", h.device.PlayCount())
	}

	book, _ := h.lib.Get(h.book.ID)
	if book.LastPosition != 0 {
		t.Errorf("LastPosition = %d, want 0", book.LastPosition)
	}
}

func TestAutoAdvanceOnClipEnd(t *testing.T) {
	h := newHarness(t, []string{"One.", "Two.", "Three."})

	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	h.device.FinishCurrent()

	got := h.state.Snapshot()
	if got.CurrentIndex != 1 || !got.IsPlaying {
		t.Errorf("State after clip end = playing=%v index=%d, want playing at 1", got.IsPlaying, got.CurrentIndex)
	}
}

func TestPlaybackStopsAtEndOfBook(t *testing.T) {
	h := newHarness(t, []string{"Only.", "Last."})

	if err := h.engine.Play(1); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	h.device.FinishCurrent()

	got := h.state.Snapshot()
	if got.IsPlaying {
		t.Error("Playback should stop after the final segment")
	}
	if got.ActiveWordIndex != -1 {
		t.Errorf("ActiveWordIndex = %d, want -1", got.ActiveWordIndex)
	}
}

func TestStaleCompletionDoesNotAdvance(t *testing.T) {
	h := newHarness(t, []string{"Zero.", "One.", "Two.", "Three."})

	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	first := h.device.Playback(0)

	if err := h.engine.Play(3); err != nil {
		t.Fatalf("Play(3) error = %v", err)
	}

	// The first clip resolving now must not move the reader to 1.
	h.device.FinishPlayback(first)

	got := h.state.Snapshot()
	if got.CurrentIndex != 3 {
		t.Errorf("CurrentIndex = %d, want 3", got.CurrentIndex)
	}
}

func TestPauseHoldsPosition(t *testing.T) {
	h := newHarness(t, []string{"One.", "Two."})

	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	h.engine.Pause()

	got := h.state.Snapshot()
	if got.IsPlaying || got.CurrentIndex != 0 {
		t.Errorf("State after pause = playing=%v index=%d", got.IsPlaying, got.CurrentIndex)
	}

	// The paused clip resolving must not restart playback.
	h.device.FinishCurrent()
	if h.state.Snapshot().IsPlaying {
		t.Error("Stopped clip must not resume playback")
	}
}

// blockingSynth parks in Synthesize until released, so tests can act
// while a synthesis call is suspended.
type blockingSynth struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingSynth() *blockingSynth {
	return &blockingSynth{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingSynth) Name() string { return "blocking" }

func (b *blockingSynth) Synthesize(ctx context.Context, req provider.SynthesisRequest) (*provider.SynthesisResult, error) {
	b.entered <- struct{}{}
	<-b.release
	return &provider.SynthesisResult{PCM: make([]byte, 48000), SampleRate: 24000}, nil
}

func (b *blockingSynth) Close() error { return nil }

func TestPauseDuringSynthesisIsNotOverridden(t *testing.T) {
	h := newHarness(t, []string{"Slow segment.", "Next."})
	synth := newBlockingSynth()
	h.engine.synth = synth

	done := make(chan error, 1)
	go func() { done <- h.engine.Play(0) }()

	<-synth.entered
	h.engine.Pause()
	close(synth.release)

	if err := <-done; err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	got := h.state.Snapshot()
	if got.IsPlaying {
		t.Error("A pause issued while synthesis was in flight must hold")
	}
	if got.CurrentIndex != 0 {
		t.Errorf("CurrentIndex = %d, want 0", got.CurrentIndex)
	}
	if h.device.PlayCount() != 0 {
		t.Errorf("Device played %d clips, want 0", h.device.PlayCount())
	}
}

func TestRateLimitPausesWithNotice(t *testing.T) {
	h := newHarness(t, []string{"A.", "B.", "Limited segment here.", "D.", "E."})
	h.synth.errs["Limited segment here."] = provider.ErrRateLimited

	if err := h.engine.Play(2); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	got := h.state.Snapshot()
	if got.IsPlaying {
		t.Error("Rate limit should pause playback")
	}
	if got.CurrentIndex != 2 {
		t.Errorf("CurrentIndex = %d, want 2 so play resumes there", got.CurrentIndex)
	}
	if got.Notice == "" {
		t.Error("Rate limit should surface a notice")
	}

	h.engine.DismissNotice()
	if h.state.Snapshot().Notice != "" {
		t.Error("DismissNotice should clear the message")
	}

	// Once the limit lifts, resuming plays the same segment.
	delete(h.synth.errs, "Limited segment here.")
	if err := h.engine.TogglePlay(); err != nil {
		t.Fatalf("TogglePlay() error = %v", err)
	}
	got = h.state.Snapshot()
	if !got.IsPlaying || got.CurrentIndex != 2 {
		t.Errorf("Resume = playing=%v index=%d, want playing at 2", got.IsPlaying, got.CurrentIndex)
	}
}

func TestSynthesisFailureSkipsOneSegment(t *testing.T) {
	h := newHarness(t, []string{"Good.", "Broken segment.", "Also good."})
	h.synth.errs["Broken segment."] = errors.New("synthesis exploded")

	if err := h.engine.Play(1); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	got := h.state.Snapshot()
	if !got.IsPlaying || got.CurrentIndex != 2 {
		t.Errorf("State = playing=%v index=%d, want playing at 2", got.IsPlaying, got.CurrentIndex)
	}
}

func TestEmptySegmentsAreSkipped(t *testing.T) {
	h := newHarness(t, []string{"", "   ", "Real content."})

	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	got := h.state.Snapshot()
	if !got.IsPlaying || got.CurrentIndex != 2 {
		t.Errorf("State = playing=%v index=%d, want playing at 2", got.IsPlaying, got.CurrentIndex)
	}
}

func TestRepeatPlayHitsCache(t *testing.T) {
	h := newHarness(t, []string{"Cached segment.", "Other."})

	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	h.engine.Pause()
	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Second Play() error = %v", err)
	}

	if got := h.synth.callCount("Cached segment."); got != 1 {
		t.Errorf("Synthesize called %d times, want 1", got)
	}
}

func TestConfigChangeRestartsInNewVoice(t *testing.T) {
	h := newHarness(t, []string{"Segment zero.", "Segment one."})

	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	cfg := h.state.Snapshot().Config
	cfg.Accent = types.AccentBritish
	if err := h.engine.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	got := h.state.Snapshot()
	if !got.IsPlaying || got.CurrentIndex != 0 {
		t.Errorf("State = playing=%v index=%d, want playing at 0", got.IsPlaying, got.CurrentIndex)
	}
	if got.Config.Accent != types.AccentBritish {
		t.Errorf("Accent = %s, want British", got.Config.Accent)
	}
	if h.synth.callCount("Segment zero.") != 2 {
		t.Errorf("Expected a fresh synthesis for the new voice, calls = %d", h.synth.callCount("Segment zero."))
	}
}

func TestSeekWhilePausedOnlyRepositions(t *testing.T) {
	h := newHarness(t, []string{"A.", "B.", "C.", "D."})

	if err := h.engine.SeekTo(2); err != nil {
		t.Fatalf("SeekTo() error = %v", err)
	}

	got := h.state.Snapshot()
	if got.IsPlaying {
		t.Error("Seek while paused must not start playback")
	}
	if got.CurrentIndex != 2 {
		t.Errorf("CurrentIndex = %d, want 2", got.CurrentIndex)
	}
	book, _ := h.lib.Get(h.book.ID)
	if book.LastPosition != 2 {
		t.Errorf("LastPosition = %d, want 2", book.LastPosition)
	}
	if h.device.PlayCount() != 0 {
		t.Errorf("Device played %d clips, want 0", h.device.PlayCount())
	}
}

func TestOpenResumesAtLastPosition(t *testing.T) {
	h := newHarness(t, []string{"A.", "B.", "C."})

	if err := h.lib.SetLastPosition(context.Background(), h.book.ID, 2); err != nil {
		t.Fatalf("SetLastPosition() error = %v", err)
	}
	if err := h.engine.Open(h.book.ID); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	got := h.state.Snapshot()
	if got.CurrentIndex != 2 || got.IsPlaying {
		t.Errorf("State = playing=%v index=%d, want paused at 2", got.IsPlaying, got.CurrentIndex)
	}
}

func TestPrefetchPrimesLookahead(t *testing.T) {
	h := newHarness(t, []string{"A.", "B.", "C.", "D.", "E."})
	h.engine.lookahead = 2

	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.engine.mu.Lock()
		buf := h.engine.prefetch
		h.engine.mu.Unlock()
		if buf.has(1) && buf.has(2) {
			if buf.has(3) {
				t.Error("Prefetch fetched beyond the lookahead window")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Lookahead segments were not prefetched")
}

func TestCachedClipKeepsSampleRate(t *testing.T) {
	h := newHarness(t, []string{"Same segment.", "Other."})
	h.synth.rate = 16000

	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	h.engine.Pause()
	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Second Play() error = %v", err)
	}

	if h.synth.callCount("Same segment.") != 1 {
		t.Fatalf("Synthesize called %d times, want 1", h.synth.callCount("Same segment."))
	}
	if h.device.LastOpts.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want the rate the clip was synthesized at", h.device.LastOpts.SampleRate)
	}
}

func TestVolumeAndSpeedApplyToNextClip(t *testing.T) {
	h := newHarness(t, []string{"One.", "Two."})

	h.engine.SetVolume(0.3)
	h.engine.SetSpeed(1.5)

	if err := h.engine.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if h.device.LastOpts.Volume != 0.3 {
		t.Errorf("Volume = %f, want 0.3", h.device.LastOpts.Volume)
	}
	if h.device.LastOpts.Speed != 1.5 {
		t.Errorf("Speed = %f, want 1.5", h.device.LastOpts.Speed)
	}
}
