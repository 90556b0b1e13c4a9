package playback

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dinaypatil-web/ReadFlow/internal/audio"
	"github.com/dinaypatil-web/ReadFlow/internal/library"
	"github.com/dinaypatil-web/ReadFlow/internal/provider"
	"github.com/dinaypatil-web/ReadFlow/internal/state"
	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

const rateLimitNotice = "Voice generation hit its rate limit. Playback is paused, press play to resume in a moment."

// Engine narrates the active book segment by segment. It owns the audio
// device, the synthesis cache, and the lookahead prefetch buffer, and
// publishes every observable change through the state store.
type Engine struct {
	library *library.Store
	state   *state.Store
	synth   provider.SpeechSynthesizer
	device  audio.Device
	cache   *Cache

	lookahead int
	wordTick  time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	transitioning bool
	generation    int
	current       *audio.Playback
	tickStop      chan struct{}
	prefetch      *prefetchBuffer
}

func NewEngine(lib *library.Store, st *state.Store, synth provider.SpeechSynthesizer, device audio.Device, cfg types.PlaybackConfig) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	lookahead := cfg.LookaheadSegments
	if lookahead <= 0 {
		lookahead = 5
	}
	wordTick := time.Duration(cfg.WordTickMs) * time.Millisecond
	if wordTick <= 0 {
		wordTick = 50 * time.Millisecond
	}
	return &Engine{
		library:   lib,
		state:     st,
		synth:     synth,
		device:    device,
		cache:     NewCache(cfg.CacheCapacity),
		lookahead: lookahead,
		wordTick:  wordTick,
		ctx:       ctx,
		cancel:    cancel,
		prefetch:  newPrefetchBuffer(),
	}
}

// Open makes a book the active one, positioned at its last read
// position, paused.
func (e *Engine) Open(bookID string) error {
	book, err := e.library.Get(bookID)
	if err != nil {
		return err
	}

	e.stopOutput()
	e.resetPrefetch()

	index := book.LastPosition
	if n := len(book.Content); index >= n && n > 0 {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	e.state.Update(func(st *types.ReaderState) {
		st.ActiveBookID = book.ID
		st.CurrentIndex = index
		st.IsPlaying = false
		st.ActiveWordIndex = -1
		st.Notice = ""
	})
	log.Printf("[Playback] Opened book %s at segment %d", book.ID, index)
	return nil
}

// CloseBook returns to the library view.
func (e *Engine) CloseBook() {
	e.stopOutput()
	e.resetPrefetch()
	e.state.Update(func(st *types.ReaderState) {
		st.ActiveBookID = ""
		st.IsPlaying = false
		st.CurrentIndex = 0
		st.ActiveWordIndex = -1
	})
}

// Play starts narration at the given segment. Calls made while a
// transition is already underway are dropped, not queued.
func (e *Engine) Play(index int) error {
	e.mu.Lock()
	if e.transitioning {
		e.mu.Unlock()
		return nil
	}
	e.transitioning = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.transitioning = false
		e.mu.Unlock()
	}()

	return e.play(index)
}

// play performs one transition. The transitioning flag is held by the
// caller.
func (e *Engine) play(index int) error {
	snapshot := e.state.Snapshot()
	if snapshot.ActiveBookID == "" {
		return fmt.Errorf("no active book")
	}
	book, err := e.library.Get(snapshot.ActiveBookID)
	if err != nil {
		return err
	}

	e.stopOutput()

	e.mu.Lock()
	gen := e.generation
	e.mu.Unlock()

	if index < 0 {
		index = 0
	}

	// Skip empty segments. Reaching the end of loaded content pauses;
	// a fully loaded book is simply finished, a growing one resumes
	// when the user presses play after more content arrives.
	for index < len(book.Content) && strings.TrimSpace(book.Content[index]) == "" {
		index++
	}
	if index >= len(book.Content) {
		e.state.Update(func(st *types.ReaderState) {
			st.IsPlaying = false
			st.ActiveWordIndex = -1
		})
		return nil
	}

	text := strings.TrimSpace(book.Content[index])
	cfg := snapshot.Config

	// The reader lands on the segment before synthesis starts, so a
	// failure pauses exactly where the user expects to resume.
	e.state.Update(func(st *types.ReaderState) {
		st.CurrentIndex = index
	})

	pcm, sampleRate, err := e.fetchClip(index, cfg, text)

	// Synthesis can block for a while. A pause or navigation that
	// arrived in the meantime wins; the result is discarded.
	if e.stale(gen) {
		return nil
	}
	if err != nil {
		if provider.IsRateLimited(err) {
			log.Printf("[Playback] Rate limited at segment %d, pausing", index)
			e.state.Update(func(st *types.ReaderState) {
				st.IsPlaying = false
				st.ActiveWordIndex = -1
				st.Notice = rateLimitNotice
			})
			return nil
		}
		log.Printf("[Playback] Synthesis failed for segment %d, skipping: %v", index, err)
		return e.play(index + 1)
	}

	playback, err := e.device.Play(pcm, audio.PlayOptions{
		SampleRate: sampleRate,
		Volume:     cfg.Volume,
		Speed:      cfg.Speed,
	})
	if err != nil {
		return fmt.Errorf("failed to start audio output: %w", err)
	}

	captured := index
	playback.OnEnded(func() { e.handleEnded(captured) })

	schedule := NewWordSchedule(text, audio.Duration(pcm, sampleRate), cfg.Speed)

	e.mu.Lock()
	e.current = playback
	e.startTickerLocked(schedule)
	buf := e.prefetch
	e.mu.Unlock()

	e.state.Update(func(st *types.ReaderState) {
		st.IsPlaying = true
		st.CurrentIndex = index
		if len(schedule.Words) > 0 {
			st.ActiveWordIndex = 0
		} else {
			st.ActiveWordIndex = -1
		}
		st.Notice = ""
	})

	if err := e.library.SetLastPosition(e.ctx, book.ID, index); err != nil {
		log.Printf("[Playback] Failed to persist position: %v", err)
	}

	e.primePrefetch(buf, book, cfg, index)
	return nil
}

// handleEnded advances after a natural clip end. The advance is guarded
// by the segment index the clip was started for: if the reader has
// moved elsewhere in the meantime, the stale completion is ignored.
func (e *Engine) handleEnded(captured int) {
	snapshot := e.state.Snapshot()
	if !snapshot.IsPlaying || snapshot.CurrentIndex != captured {
		return
	}
	if err := e.Play(captured + 1); err != nil {
		log.Printf("[Playback] Auto-advance failed: %v", err)
	}
}

// Pause stops output and holds the current position.
func (e *Engine) Pause() {
	e.stopOutput()
	e.state.Update(func(st *types.ReaderState) {
		st.IsPlaying = false
		st.ActiveWordIndex = -1
	})
}

// TogglePlay pauses when playing, otherwise resumes at the current
// segment.
func (e *Engine) TogglePlay() error {
	if e.state.Snapshot().IsPlaying {
		e.Pause()
		return nil
	}
	return e.Play(e.state.Snapshot().CurrentIndex)
}

// Next jumps to the following segment.
func (e *Engine) Next() error {
	return e.Play(e.state.Snapshot().CurrentIndex + 1)
}

// Prev jumps to the preceding segment.
func (e *Engine) Prev() error {
	index := e.state.Snapshot().CurrentIndex - 1
	if index < 0 {
		index = 0
	}
	return e.Play(index)
}

// SeekTo moves to a segment. When playing it starts narrating there,
// when paused it only repositions.
func (e *Engine) SeekTo(index int) error {
	snapshot := e.state.Snapshot()
	if snapshot.IsPlaying {
		return e.Play(index)
	}
	if snapshot.ActiveBookID == "" {
		return fmt.Errorf("no active book")
	}
	book, err := e.library.Get(snapshot.ActiveBookID)
	if err != nil {
		return err
	}
	if index < 0 {
		index = 0
	}
	if n := len(book.Content); n > 0 && index >= n {
		index = n - 1
	}
	e.state.Update(func(st *types.ReaderState) {
		st.CurrentIndex = index
		st.ActiveWordIndex = -1
	})
	return e.library.SetLastPosition(e.ctx, book.ID, index)
}

// SetConfig replaces the voice configuration. Prefetched clips for the
// old voice are discarded, and an active narration restarts its current
// segment in the new voice.
func (e *Engine) SetConfig(cfg types.PlaybackConfiguration) error {
	e.resetPrefetch()
	snapshot := e.state.Update(func(st *types.ReaderState) {
		st.Config = cfg
	})
	if snapshot.IsPlaying {
		return e.Play(snapshot.CurrentIndex)
	}
	return nil
}

// SetVolume adjusts output volume. It applies from the next clip.
func (e *Engine) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	e.state.Update(func(st *types.ReaderState) {
		st.Config.Volume = volume
	})
}

// SetSpeed adjusts narration speed. It applies from the next clip.
func (e *Engine) SetSpeed(speed float64) {
	if speed <= 0 {
		speed = 1.0
	}
	e.state.Update(func(st *types.ReaderState) {
		st.Config.Speed = speed
	})
}

// DismissNotice clears the transient message.
func (e *Engine) DismissNotice() {
	e.state.ClearNotice()
}

// Shutdown stops narration and releases the engine.
func (e *Engine) Shutdown() {
	e.stopOutput()
	e.cancel()
}

// stopOutput silences the device without firing the completion
// handler. Detaching before stopping is what prevents a discarded clip
// from advancing the reader.
func (e *Engine) stopOutput() {
	e.mu.Lock()
	current := e.current
	e.current = nil
	e.generation++
	e.stopTickerLocked()
	e.mu.Unlock()

	if current != nil {
		current.Detach()
		current.Stop()
	}
}

// stale reports whether output has been stopped since the generation
// was captured.
func (e *Engine) stale(gen int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation != gen
}

// resetPrefetch replaces the buffer so fetches already in flight land
// in the orphaned one.
func (e *Engine) resetPrefetch() {
	e.mu.Lock()
	e.prefetch = newPrefetchBuffer()
	e.mu.Unlock()
}

// fetchClip resolves a segment's audio: prefetch buffer first, then the
// voice cache, then live synthesis.
func (e *Engine) fetchClip(index int, cfg types.PlaybackConfiguration, text string) ([]byte, int, error) {
	e.mu.Lock()
	buf := e.prefetch
	e.mu.Unlock()

	if pcm, rate, ok := buf.take(index); ok {
		return pcm, rate, nil
	}
	if pcm, rate, ok := e.cache.Get(cfg, text); ok {
		return pcm, rate, nil
	}

	result, err := e.synth.Synthesize(e.ctx, provider.SynthesisRequest{
		Text:   text,
		Accent: cfg.Accent,
		Style:  cfg.Style,
		Gender: cfg.Gender,
	})
	if err != nil {
		return nil, 0, err
	}
	e.cache.Put(cfg, text, result.PCM, result.SampleRate)
	return result.PCM, result.SampleRate, nil
}

// primePrefetch fetches the next segments in the background. Each index
// is claimed atomically so concurrent priming never fetches the same
// segment twice.
func (e *Engine) primePrefetch(buf *prefetchBuffer, book *types.Book, cfg types.PlaybackConfiguration, from int) {
	for i := from + 1; i <= from+e.lookahead && i < len(book.Content); i++ {
		text := strings.TrimSpace(book.Content[i])
		if text == "" {
			continue
		}
		if !buf.tryBegin(i) {
			continue
		}
		go func(index int, text string) {
			if pcm, rate, ok := e.cache.Get(cfg, text); ok {
				buf.store(index, pcm, rate)
				return
			}
			result, err := e.synth.Synthesize(e.ctx, provider.SynthesisRequest{
				Text:   text,
				Accent: cfg.Accent,
				Style:  cfg.Style,
				Gender: cfg.Gender,
			})
			if err != nil {
				buf.fail(index)
				log.Printf("[Playback] Prefetch failed for segment %d: %v", index, err)
				return
			}
			e.cache.Put(cfg, text, result.PCM, result.SampleRate)
			buf.store(index, result.PCM, result.SampleRate)
		}(i, text)
	}
}

// startTickerLocked begins word-highlight tracking for a clip. Called
// with the engine lock held.
func (e *Engine) startTickerLocked(schedule WordSchedule) {
	e.stopTickerLocked()
	if len(schedule.Words) == 0 {
		return
	}
	stop := make(chan struct{})
	e.tickStop = stop
	start := time.Now()

	go func() {
		ticker := time.NewTicker(e.wordTick)
		defer ticker.Stop()
		last := 0
		for {
			select {
			case <-stop:
				return
			case <-e.ctx.Done():
				return
			case <-ticker.C:
				idx := schedule.WordIndexAt(time.Since(start))
				if idx != last {
					last = idx
					e.state.Update(func(st *types.ReaderState) {
						st.ActiveWordIndex = idx
					})
				}
			}
		}
	}()
}

// stopTickerLocked halts word tracking. Called with the engine lock
// held.
func (e *Engine) stopTickerLocked() {
	if e.tickStop != nil {
		close(e.tickStop)
		e.tickStop = nil
	}
}
