package audio

import (
	"fmt"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// NewDevice builds the configured output device.
func NewDevice(cfg types.AudioConfig) (Device, error) {
	switch cfg.Backend {
	case "portaudio":
		return NewPortAudioDevice(), nil
	case "null":
		return NewNullDevice(), nil
	default:
		return nil, fmt.Errorf("unknown audio backend: %s", cfg.Backend)
	}
}
