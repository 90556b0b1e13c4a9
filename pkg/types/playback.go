package types

// Accent selects the regional accent the narrator reads with.
type Accent string

const (
	AccentAmerican      Accent = "American"
	AccentBritish       Accent = "British"
	AccentIndian        Accent = "Indian"
	AccentMiddleEastern Accent = "Middle Eastern"
	AccentAfrican       Accent = "African"
	AccentAustralian    Accent = "Australian"
)

// Accents lists all selectable accents.
func Accents() []Accent {
	return []Accent{
		AccentAmerican, AccentBritish, AccentIndian,
		AccentMiddleEastern, AccentAfrican, AccentAustralian,
	}
}

// VoiceStyle selects the narration register.
type VoiceStyle string

const (
	StyleStorytelling VoiceStyle = "Storytelling"
	StylePodcast      VoiceStyle = "Podcast"
	StyleDramatic     VoiceStyle = "Dramatic"
	StyleEducational  VoiceStyle = "Educational"
)

// VoiceStyles lists all selectable styles.
func VoiceStyles() []VoiceStyle {
	return []VoiceStyle{StyleStorytelling, StylePodcast, StyleDramatic, StyleEducational}
}

// Gender selects the narrator voice.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Genders lists all selectable genders.
func Genders() []Gender {
	return []Gender{GenderMale, GenderFemale}
}

// PlaybackConfiguration is the voice and transport configuration for
// narration. It is a pure value: changing any voice field invalidates prefetch
// entries keyed by the old configuration.
type PlaybackConfiguration struct {
	Accent Accent     `json:"accent"`
	Style  VoiceStyle `json:"style"`
	Gender Gender     `json:"gender"`
	Volume float64    `json:"volume"` // 0..1
	Speed  float64    `json:"speed"`  // multiplier > 0
}

// DefaultPlaybackConfiguration mirrors the app's initial reader settings.
func DefaultPlaybackConfiguration() PlaybackConfiguration {
	return PlaybackConfiguration{
		Accent: AccentAmerican,
		Style:  StyleStorytelling,
		Gender: GenderFemale,
		Volume: 0.8,
		Speed:  1.0,
	}
}

// VoiceKey returns the part of the configuration that affects synthesized
// audio. Volume and speed are applied at playback time and do not participate
// in cache or prefetch keys.
func (c PlaybackConfiguration) VoiceKey() string {
	return string(c.Gender) + "_" + string(c.Accent) + "_" + string(c.Style)
}

// ReaderState is the process-wide reading state. ActiveWordIndex is -1 when no
// word is highlighted (between segments or while synthesizing).
type ReaderState struct {
	ActiveBookID    string                `json:"active_book_id"` // empty when no book is open
	IsPlaying       bool                  `json:"is_playing"`
	CurrentIndex    int                   `json:"current_index"`
	ActiveWordIndex int                   `json:"active_word_index"`
	Config          PlaybackConfiguration `json:"config"`
	Notice          string                `json:"notice,omitempty"` // transient, dismissible
}
