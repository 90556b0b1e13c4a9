package provider

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// Stub providers for development and testing. They produce deterministic
// output without network access.

// StubSynthesizer generates silent PCM sized to the text length, about
// 60 ms of audio per word.
type StubSynthesizer struct{}

func NewStubSynthesizer() *StubSynthesizer {
	log.Printf("[StubTTS] Using stub synthesizer (no API key configured)")
	return &StubSynthesizer{}
}

func (s *StubSynthesizer) Name() string {
	return "stub-tts"
}

func (s *StubSynthesizer) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("text is required")
	}
	words := len(strings.Fields(req.Text))
	if words == 0 {
		words = 1
	}
	samples := words * ttsSampleRate * 60 / 1000
	return &SynthesisResult{
		PCM:        make([]byte, samples*2),
		SampleRate: ttsSampleRate,
	}, nil
}

func (s *StubSynthesizer) Close() error {
	return nil
}

// StubExtractor returns a fixed transcription in one batch.
type StubExtractor struct {
	// Text is returned on the first call. Defaults to a short notice.
	Text string
}

func NewStubExtractor() *StubExtractor {
	log.Printf("[StubExtract] Using stub extractor (no API key configured)")
	return &StubExtractor{}
}

func (s *StubExtractor) Name() string {
	return "stub-extract"
}

func (s *StubExtractor) ExtractBatch(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	if !IsExtractableMimeType(req.Source.MimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Source.MimeType)
	}
	text := s.Text
	if text == "" {
		text = "Document extraction is not configured. Set an extractor API key to read this document."
	}
	return &ExtractResult{Text: text, Done: true}, nil
}

func (s *StubExtractor) Close() error {
	return nil
}

// StubChapterDetector always returns the default single-chapter outline.
type StubChapterDetector struct{}

func (s *StubChapterDetector) Detect(ctx context.Context, segments []string) []types.Chapter {
	return types.DefaultChapters()
}
