package state

import (
	"testing"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore()
	got := s.Snapshot()

	if got.ActiveWordIndex != -1 {
		t.Errorf("ActiveWordIndex = %d, want -1", got.ActiveWordIndex)
	}
	if got.IsPlaying {
		t.Error("New store should not be playing")
	}
	if got.Config.Accent != types.AccentAmerican {
		t.Errorf("Default accent = %s", got.Config.Accent)
	}
}

func TestUpdateNotifiesSubscribers(t *testing.T) {
	s := NewStore()

	var seen []types.ReaderState
	unsubscribe := s.Subscribe(func(st types.ReaderState) {
		seen = append(seen, st)
	})

	s.Update(func(st *types.ReaderState) {
		st.IsPlaying = true
		st.CurrentIndex = 3
	})

	if len(seen) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(seen))
	}
	if !seen[0].IsPlaying || seen[0].CurrentIndex != 3 {
		t.Errorf("Notification = %+v", seen[0])
	}

	unsubscribe()
	s.Update(func(st *types.ReaderState) { st.CurrentIndex = 4 })
	if len(seen) != 1 {
		t.Errorf("Unsubscribed listener still notified, got %d notifications", len(seen))
	}
}

func TestSubscriberCanReadStore(t *testing.T) {
	// Listeners run outside the lock; a Snapshot inside a listener must
	// not deadlock.
	s := NewStore()
	done := make(chan struct{})
	s.Subscribe(func(types.ReaderState) {
		_ = s.Snapshot()
		close(done)
	})
	s.SetNotice("hello")
	<-done
}

func TestNotice(t *testing.T) {
	s := NewStore()
	s.SetNotice("rate limited")
	if got := s.Snapshot().Notice; got != "rate limited" {
		t.Errorf("Notice = %q", got)
	}
	s.ClearNotice()
	if got := s.Snapshot().Notice; got != "" {
		t.Errorf("Notice after clear = %q", got)
	}
}
