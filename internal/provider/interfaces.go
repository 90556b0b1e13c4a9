package provider

import (
	"context"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// SpeechSynthesizer converts segment text into raw PCM audio.
type SpeechSynthesizer interface {
	// Name returns the provider name
	Name() string

	// Synthesize converts text to speech. Implementations retry rate-limit
	// failures internally with bounded backoff before returning ErrRateLimited.
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)

	// Close cleans up resources
	Close() error
}

// SynthesisRequest carries the text and voice parameters for one segment.
type SynthesisRequest struct {
	Text   string
	Accent types.Accent
	Style  types.VoiceStyle
	Gender types.Gender
}

// SynthesisResult is raw PCM audio: 16-bit little-endian signed samples, mono.
type SynthesisResult struct {
	PCM        []byte
	SampleRate int
}

// DocumentExtractor transcribes one batch of a source document.
type DocumentExtractor interface {
	// Name returns the provider name
	Name() string

	// ExtractBatch transcribes the next batch. A non-empty ContinuationHint
	// asks the extractor to resume verbatim after the hint text; InitialChunk
	// requests only the opening portion of the document.
	ExtractBatch(ctx context.Context, req ExtractRequest) (*ExtractResult, error)

	// Close cleans up resources
	Close() error
}

// ExtractRequest describes one extraction batch.
type ExtractRequest struct {
	Source           types.SourceDocument
	ContinuationHint string
	InitialChunk     bool
}

// ExtractResult is one batch of verbatim transcription. Done reports that the
// in-band end-of-document marker was present (the marker itself is stripped).
type ExtractResult struct {
	Text string
	Done bool
}

// ChapterDetector infers chapter boundaries from a sample of segments.
// Detection is best-effort: on any failure it returns the single default
// chapter covering the whole book, never an error.
type ChapterDetector interface {
	Detect(ctx context.Context, segments []string) []types.Chapter
}
