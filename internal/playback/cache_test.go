package playback

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

func TestCacheEvictsOldest(t *testing.T) {
	cfg := types.DefaultPlaybackConfiguration()
	c := NewCache(3)

	for i := 0; i < 4; i++ {
		c.Put(cfg, fmt.Sprintf("segment %d", i), []byte{byte(i)}, 24000)
	}

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if _, _, ok := c.Get(cfg, "segment 0"); ok {
		t.Error("Oldest entry should have been evicted")
	}
	if _, _, ok := c.Get(cfg, "segment 3"); !ok {
		t.Error("Newest entry missing")
	}
}

func TestCacheKeyedByVoice(t *testing.T) {
	c := NewCache(10)
	american := types.DefaultPlaybackConfiguration()
	british := american
	british.Accent = types.AccentBritish

	c.Put(american, "same text", []byte{1}, 24000)
	if _, _, ok := c.Get(british, "same text"); ok {
		t.Error("A different accent must not hit the cache")
	}

	// Volume and speed do not partition the cache.
	loud := american
	loud.Volume = 0.2
	loud.Speed = 2.0
	if _, _, ok := c.Get(loud, "same text"); !ok {
		t.Error("Volume and speed changes should still hit the cache")
	}
}

func TestCacheOverwriteDoesNotGrow(t *testing.T) {
	cfg := types.DefaultPlaybackConfiguration()
	c := NewCache(5)
	c.Put(cfg, "text", []byte{1}, 24000)
	c.Put(cfg, "text", []byte{2}, 16000)
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	got, rate, _ := c.Get(cfg, "text")
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("Get() = %v, want latest value", got)
	}
	if rate != 16000 {
		t.Errorf("SampleRate = %d, want the rate stored with the clip", rate)
	}
}

func TestPrefetchBufferSingleClaim(t *testing.T) {
	b := newPrefetchBuffer()

	const goroutines = 16
	var wg sync.WaitGroup
	claims := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claims <- b.tryBegin(7)
		}()
	}
	wg.Wait()
	close(claims)

	won := 0
	for ok := range claims {
		if ok {
			won++
		}
	}
	if won != 1 {
		t.Errorf("Expected exactly one successful claim, got %d", won)
	}
}

func TestPrefetchBufferLifecycle(t *testing.T) {
	b := newPrefetchBuffer()

	if !b.tryBegin(1) {
		t.Fatal("First claim should succeed")
	}
	b.store(1, []byte{9}, 24000)

	if b.tryBegin(1) {
		t.Error("Buffered index must not be claimable")
	}

	pcm, rate, ok := b.take(1)
	if !ok || pcm[0] != 9 {
		t.Fatalf("take() = %v, %v", pcm, ok)
	}
	if rate != 24000 {
		t.Errorf("take() rate = %d, want 24000", rate)
	}
	if _, _, ok := b.take(1); ok {
		t.Error("Entries are evicted after being taken")
	}
	if !b.tryBegin(1) {
		t.Error("Taken index should be claimable again")
	}

	b.fail(1)
	if !b.tryBegin(1) {
		t.Error("Failed fetch should release the claim")
	}
}

func TestPrefetchBufferClear(t *testing.T) {
	b := newPrefetchBuffer()
	b.tryBegin(1)
	b.store(1, []byte{1}, 24000)
	b.tryBegin(2)

	b.clear()

	if b.has(1) {
		t.Error("clear() should drop buffered entries")
	}
	if !b.tryBegin(2) {
		t.Error("clear() should drop in-flight claims")
	}
}
