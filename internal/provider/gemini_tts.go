package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// Voices matched to the reader's gender presets.
var genderVoices = map[types.Gender]string{
	types.GenderFemale: "Kore",
	types.GenderMale:   "Charon",
}

const ttsSampleRate = 24000

// GeminiTTSProvider synthesizes speech via a Gemini generateContent
// endpoint with audio response modality. Output is 16-bit LE mono PCM
// at 24 kHz.
type GeminiTTSProvider struct {
	client      *geminiClient
	maxAttempts int
}

func NewGeminiTTSProvider(cfg types.ProviderConfig) (*GeminiTTSProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for gemini-tts provider")
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxAttempts := cfg.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &GeminiTTSProvider{
		client:      newGeminiClient("GeminiTTS", cfg.Endpoint, cfg.APIKey, cfg.Model, timeout),
		maxAttempts: maxAttempts,
	}, nil
}

func (p *GeminiTTSProvider) Name() string {
	return "gemini-tts"
}

func (p *GeminiTTSProvider) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("text is required")
	}

	voice := genderVoices[req.Gender]
	if voice == "" {
		voice = genderVoices[types.GenderFemale]
	}

	prompt := fmt.Sprintf("Act as a %s reader. Read the following text with a %s accent in a %s style: %q",
		req.Gender, req.Accent, req.Style, req.Text)

	genReq := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice},
				},
			},
		},
	}

	log.Printf("[GeminiTTS] Synthesizing %d chars (voice: %s)", len(req.Text), voice)

	var resp *generateResponse
	err := withRetry(ctx, "GeminiTTS", p.maxAttempts, func() error {
		var genErr error
		resp, genErr = p.client.generate(ctx, genReq)
		return genErr
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}

	encoded := resp.firstInlineData()
	if encoded == "" {
		return nil, fmt.Errorf("%w: response contained no audio data", ErrSynthesisFailed)
	}

	pcm, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode audio payload: %v", ErrSynthesisFailed, err)
	}

	return &SynthesisResult{PCM: pcm, SampleRate: ttsSampleRate}, nil
}

func (p *GeminiTTSProvider) Close() error {
	return nil
}
