package playback

import (
	"math"
	"testing"
	"time"
)

func TestNewWordSchedule(t *testing.T) {
	t.Run("three word clip", func(t *testing.T) {
		s := NewWordSchedule("Hello world test", 3*time.Second, 1.0)
		if len(s.Words) != 3 {
			t.Fatalf("Expected 3 words, got %d", len(s.Words))
		}

		// Character-proportional onsets: offsets 0, 6, 12 over 17
		// weighted characters of a 3 s clip.
		want := []float64{0, 6.0 / 17.0 * 3.0, 12.0 / 17.0 * 3.0}
		for i, onset := range s.Onsets {
			got := onset.Seconds()
			if math.Abs(got-want[i]) > 0.01 {
				t.Errorf("Onset[%d] = %.4fs, want %.4fs", i, got, want[i])
			}
		}
	})

	t.Run("first onset is always zero", func(t *testing.T) {
		s := NewWordSchedule("  Leading whitespace trimmed first.  ", 2*time.Second, 1.0)
		if s.Onsets[0] != 0 {
			t.Errorf("Onsets[0] = %v, want 0", s.Onsets[0])
		}
	})

	t.Run("onsets strictly increase", func(t *testing.T) {
		s := NewWordSchedule("One two three four five six seven", 5*time.Second, 1.25)
		for i := 1; i < len(s.Onsets); i++ {
			if s.Onsets[i] <= s.Onsets[i-1] {
				t.Errorf("Onsets[%d]=%v not after Onsets[%d]=%v", i, s.Onsets[i], i-1, s.Onsets[i-1])
			}
		}
	})

	t.Run("speed compresses the schedule", func(t *testing.T) {
		normal := NewWordSchedule("Hello world test", 3*time.Second, 1.0)
		fast := NewWordSchedule("Hello world test", 3*time.Second, 2.0)
		for i := range fast.Onsets {
			want := time.Duration(float64(normal.Onsets[i]) / 2.0)
			diff := fast.Onsets[i] - want
			if diff < -time.Millisecond || diff > time.Millisecond {
				t.Errorf("Fast onset[%d] = %v, want %v", i, fast.Onsets[i], want)
			}
		}
	})

	t.Run("empty text has no schedule", func(t *testing.T) {
		s := NewWordSchedule("   ", time.Second, 1.0)
		if len(s.Words) != 0 || len(s.Onsets) != 0 {
			t.Errorf("Expected empty schedule, got %+v", s)
		}
	})
}

func TestWordIndexAt(t *testing.T) {
	s := NewWordSchedule("Hello world test", 3*time.Second, 1.0)

	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 0},
		{500 * time.Millisecond, 0},
		{1100 * time.Millisecond, 1},
		{2200 * time.Millisecond, 2},
		{10 * time.Second, 2},
	}
	for _, tt := range tests {
		if got := s.WordIndexAt(tt.elapsed); got != tt.want {
			t.Errorf("WordIndexAt(%v) = %d, want %d", tt.elapsed, got, tt.want)
		}
	}

	if got := (WordSchedule{}).WordIndexAt(time.Second); got != -1 {
		t.Errorf("Empty schedule WordIndexAt = %d, want -1", got)
	}
}
