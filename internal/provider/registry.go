package provider

import (
	"fmt"
	"log"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// Providers bundles the external collaborators the reader depends on.
type Providers struct {
	Synthesizer SpeechSynthesizer
	Extractor   DocumentExtractor
	Chapters    ChapterDetector
}

// Initialize builds providers from configuration. Providers without an
// API key fall back to stubs so the server stays usable offline.
func Initialize(cfg types.ProvidersConfig) (*Providers, error) {
	p := &Providers{}

	switch {
	case cfg.Synthesizer.APIKey == "":
		p.Synthesizer = NewStubSynthesizer()
	case cfg.Synthesizer.Name == "" || cfg.Synthesizer.Name == "gemini-tts":
		tts, err := NewGeminiTTSProvider(cfg.Synthesizer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize synthesizer: %w", err)
		}
		p.Synthesizer = tts
	default:
		return nil, fmt.Errorf("unknown synthesizer provider: %s", cfg.Synthesizer.Name)
	}

	switch {
	case cfg.Extractor.APIKey == "":
		p.Extractor = NewStubExtractor()
		p.Chapters = &StubChapterDetector{}
	case cfg.Extractor.Name == "" || cfg.Extractor.Name == "gemini-extract":
		ext, err := NewGeminiExtractProvider(cfg.Extractor)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize extractor: %w", err)
		}
		p.Extractor = ext
		det, err := NewGeminiChapterDetector(cfg.Extractor)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize chapter detector: %w", err)
		}
		p.Chapters = det
	default:
		return nil, fmt.Errorf("unknown extractor provider: %s", cfg.Extractor.Name)
	}

	log.Printf("[Providers] Initialized synthesizer=%s extractor=%s", p.Synthesizer.Name(), p.Extractor.Name())
	return p, nil
}

// Close releases all provider resources.
func (p *Providers) Close() {
	if p.Synthesizer != nil {
		if err := p.Synthesizer.Close(); err != nil {
			log.Printf("[Providers] Error closing synthesizer: %v", err)
		}
	}
	if p.Extractor != nil {
		if err := p.Extractor.Close(); err != nil {
			log.Printf("[Providers] Error closing extractor: %v", err)
		}
	}
}
