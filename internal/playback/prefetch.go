package playback

import (
	"sync"
)

// prefetchBuffer holds clips fetched ahead of playback, keyed by
// segment index. It is scoped to one book and one voice configuration;
// the engine discards it when either changes. A separate in-flight set
// makes the membership check and claim a single atomic step, so an
// index is never fetched twice concurrently.
type prefetchBuffer struct {
	mu       sync.Mutex
	ready    map[int]clip
	inflight map[int]bool
}

func newPrefetchBuffer() *prefetchBuffer {
	return &prefetchBuffer{
		ready:    make(map[int]clip),
		inflight: make(map[int]bool),
	}
}

// tryBegin claims an index for fetching. It returns false when the
// index is already buffered or being fetched.
func (b *prefetchBuffer) tryBegin(index int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inflight[index] {
		return false
	}
	if _, ok := b.ready[index]; ok {
		return false
	}
	b.inflight[index] = true
	return true
}

// store completes a claimed fetch.
func (b *prefetchBuffer) store(index int, pcm []byte, sampleRate int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inflight, index)
	b.ready[index] = clip{pcm: pcm, sampleRate: sampleRate}
}

// fail releases a claimed fetch without storing a clip.
func (b *prefetchBuffer) fail(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inflight, index)
}

// take removes and returns the clip for an index. Entries do not
// outlive their playback.
func (b *prefetchBuffer) take(index int) ([]byte, int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.ready[index]
	if ok {
		delete(b.ready, index)
	}
	return entry.pcm, entry.sampleRate, ok
}

// has reports whether a clip is buffered for the index.
func (b *prefetchBuffer) has(index int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.ready[index]
	return ok
}

// clear drops all buffered and claimed entries.
func (b *prefetchBuffer) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ready = make(map[int]clip)
	b.inflight = make(map[int]bool)
}
