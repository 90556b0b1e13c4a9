package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// EndOfDocumentMarker is emitted by the extractor when the source
// document has been fully transcribed. It never appears in returned
// text.
const EndOfDocumentMarker = "<<<END_OF_DOCUMENT>>>"

// Binary document types the extractor accepts. Plain text and EPUB are
// handled locally by the parser package and never reach the extractor.
var extractableMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
	"image/heif":      true,
}

// IsExtractableMimeType reports whether the extractor can transcribe
// documents of the given type.
func IsExtractableMimeType(mimeType string) bool {
	return extractableMimeTypes[mimeType]
}

// GeminiExtractProvider transcribes binary documents batch by batch via
// a multimodal generateContent endpoint.
type GeminiExtractProvider struct {
	client      *geminiClient
	maxAttempts int
}

func NewGeminiExtractProvider(cfg types.ProviderConfig) (*GeminiExtractProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for gemini-extract provider")
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxAttempts := cfg.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &GeminiExtractProvider{
		client:      newGeminiClient("GeminiExtract", cfg.Endpoint, cfg.APIKey, cfg.Model, timeout),
		maxAttempts: maxAttempts,
	}, nil
}

func (p *GeminiExtractProvider) Name() string {
	return "gemini-extract"
}

func (p *GeminiExtractProvider) ExtractBatch(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	if len(req.Source.Bytes) == 0 {
		return nil, fmt.Errorf("%w: source document is empty", ErrExtractionFailed)
	}
	if !IsExtractableMimeType(req.Source.MimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Source.MimeType)
	}

	prompt := p.buildPrompt(req)

	genReq := generateRequest{
		Contents: []content{{Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{
				MimeType: req.Source.MimeType,
				Data:     base64.StdEncoding.EncodeToString(req.Source.Bytes),
			}},
		}}},
	}

	log.Printf("[GeminiExtract] Extracting batch (initial: %v, hint: %d chars)", req.InitialChunk, len(req.ContinuationHint))

	var resp *generateResponse
	err := withRetry(ctx, "GeminiExtract", p.maxAttempts, func() error {
		var genErr error
		resp, genErr = p.client.generate(ctx, genReq)
		return genErr
	})
	if err != nil {
		if IsRateLimited(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	text := resp.firstText()
	done := strings.Contains(text, EndOfDocumentMarker)
	if done {
		text = strings.ReplaceAll(text, EndOfDocumentMarker, "")
	}
	text = strings.TrimSpace(text)

	return &ExtractResult{Text: text, Done: done}, nil
}

func (p *GeminiExtractProvider) buildPrompt(req ExtractRequest) string {
	var sb strings.Builder
	sb.WriteString("TRANSCRIPTION TASK: Transcribe the text content of the attached document exactly as written. ")
	sb.WriteString("Do not summarize, comment, or add any text that is not in the document. ")
	sb.WriteString("Preserve paragraph breaks.\n\n")
	if req.InitialChunk {
		sb.WriteString("Transcribe only the beginning of the document, roughly the first 5% of its content. Stop at a natural sentence boundary.\n")
	} else if req.ContinuationHint != "" {
		sb.WriteString("The document has been partially transcribed. The transcription so far ends with:\n\n")
		sb.WriteString(req.ContinuationHint)
		sb.WriteString("\n\nResume transcribing immediately after that point. Do not repeat text that was already transcribed.\n")
	}
	sb.WriteString("\nWhen you reach the very end of the document, append the marker ")
	sb.WriteString(EndOfDocumentMarker)
	sb.WriteString(" on its own line. Do not emit the marker otherwise.")
	return sb.String()
}

func (p *GeminiExtractProvider) Close() error {
	return nil
}
