// Package playback drives segment-by-segment narration: synthesis,
// audio output, word highlighting, and lookahead prefetch.
package playback

import (
	"sync"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// clip is one synthesized segment together with the rate it was
// rendered at.
type clip struct {
	pcm        []byte
	sampleRate int
}

// Cache holds synthesized clips keyed by voice settings and text. It is
// bounded; inserting past capacity evicts the oldest entry. Volume and
// speed are not part of the key, they are applied at output time.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]clip
	order    []string
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 100
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]clip),
	}
}

func cacheKey(cfg types.PlaybackConfiguration, text string) string {
	return cfg.VoiceKey() + "_" + text
}

func (c *Cache) Get(cfg types.PlaybackConfiguration, text string) ([]byte, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[cacheKey(cfg, text)]
	return entry.pcm, entry.sampleRate, ok
}

func (c *Cache) Put(cfg types.PlaybackConfiguration, text string, pcm []byte, sampleRate int) {
	key := cacheKey(cfg, text)
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = clip{pcm: pcm, sampleRate: sampleRate}

	if len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len returns the number of cached clips.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
