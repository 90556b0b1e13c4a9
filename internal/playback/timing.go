package playback

import (
	"strings"
	"time"
)

// WordSchedule maps each word of a segment to its onset within the
// played clip. Onsets are estimated from character position at a
// uniform rate: a word starting at character c of a t-character segment
// begins at c/t of the effective duration. The first word always starts
// at zero, and onsets are strictly increasing.
type WordSchedule struct {
	Words  []string
	Onsets []time.Duration
}

// NewWordSchedule builds the schedule for a segment. duration is the
// clip's natural length; speed scales it to effective play time.
func NewWordSchedule(text string, duration time.Duration, speed float64) WordSchedule {
	trimmed := strings.TrimSpace(text)
	words := strings.Fields(trimmed)
	if len(words) == 0 {
		return WordSchedule{}
	}

	effective := duration
	if speed > 0 {
		effective = time.Duration(float64(duration) / speed)
	}

	totalChars := 0
	for _, word := range words {
		totalChars += len(word) + 1
	}
	onsets := make([]time.Duration, len(words))
	charAcc := 0
	for i, word := range words {
		onsets[i] = time.Duration(float64(charAcc) / float64(totalChars) * float64(effective))
		charAcc += len(word) + 1
	}
	return WordSchedule{Words: words, Onsets: onsets}
}

// WordIndexAt returns the index of the word sounding at the given
// elapsed play time, or -1 for an empty schedule.
func (s WordSchedule) WordIndexAt(elapsed time.Duration) int {
	if len(s.Onsets) == 0 {
		return -1
	}
	idx := 0
	for i, onset := range s.Onsets {
		if elapsed >= onset {
			idx = i
		} else {
			break
		}
	}
	return idx
}
