// Package ingest turns uploaded documents into books and progressively
// extracts the rest of their content in the background.
package ingest

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dinaypatil-web/ReadFlow/internal/library"
	"github.com/dinaypatil-web/ReadFlow/internal/parser"
	"github.com/dinaypatil-web/ReadFlow/internal/provider"
	"github.com/dinaypatil-web/ReadFlow/internal/segmenter"
	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// Controller owns document ingestion. Uploads of locally parseable
// formats complete synchronously; binary documents get an initial
// extraction batch and then grow in the background, one batch at a
// time, one book at a time.
type Controller struct {
	library   *library.Store
	extractor provider.DocumentExtractor
	chapters  provider.ChapterDetector
	cfg       types.IngestConfig

	mu      sync.Mutex
	loading map[string]bool

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewController(lib *library.Store, extractor provider.DocumentExtractor, chapters provider.ChapterDetector, cfg types.IngestConfig) *Controller {
	if cfg.DriverIntervalMs <= 0 {
		cfg.DriverIntervalMs = 2000
	}
	if cfg.FailureBackoffSec <= 0 {
		cfg.FailureBackoffSec = 10
	}
	if cfg.ProgressIncrement <= 0 {
		cfg.ProgressIncrement = 5
	}
	if cfg.ContinuationTail <= 0 {
		cfg.ContinuationTail = 3
	}
	if cfg.ChapterInterval <= 0 {
		cfg.ChapterInterval = 50
	}
	return &Controller{
		library:   lib,
		extractor: extractor,
		chapters:  chapters,
		cfg:       cfg,
		loading:   make(map[string]bool),
		stop:      make(chan struct{}),
	}
}

// Upload classifies a document and creates its book. Text and EPUB
// documents are parsed locally and arrive complete. Extractable binary
// formats get their opening batch transcribed before the book is
// created, so the reader can start immediately.
func (c *Controller) Upload(ctx context.Context, name, mimeType string, data []byte) (*types.Book, error) {
	if len(data) == 0 {
		return nil, provider.ErrNoContent
	}

	if p, ok := parser.ForMimeType(mimeType); ok {
		text, err := p.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", provider.ErrExtractionFailed, err)
		}
		segments := segmenter.Split(text)
		if len(segments) == 0 {
			return nil, provider.ErrNoContent
		}
		book := &types.Book{
			Name:          name,
			Format:        mimeType,
			Content:       segments,
			IsFullyLoaded: true,
			LoadProgress:  100,
		}
		if err := c.library.Add(ctx, book); err != nil {
			return nil, err
		}
		log.Printf("[Ingest] Parsed %q locally: %d segments", name, len(segments))
		return book, nil
	}

	if !provider.IsExtractableMimeType(mimeType) {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnsupportedFormat, mimeType)
	}

	source := &types.SourceDocument{Bytes: data, MimeType: mimeType}
	result, err := c.extractor.ExtractBatch(ctx, provider.ExtractRequest{
		Source:       *source,
		InitialChunk: true,
	})
	if err != nil {
		return nil, err
	}

	segments := segmenter.Split(stripArtifacts(result.Text))
	if len(segments) == 0 {
		return nil, provider.ErrNoContent
	}

	book := &types.Book{
		Name:          name,
		Format:        mimeType,
		Content:       segments,
		IsFullyLoaded: result.Done,
		LoadProgress:  c.cfg.ProgressIncrement,
		Source:        source,
	}
	if result.Done {
		book.LoadProgress = 100
		book.Source = nil
	}
	if err := c.library.Add(ctx, book); err != nil {
		return nil, err
	}
	log.Printf("[Ingest] Created %q from initial batch: %d segments (done: %v)", name, len(segments), result.Done)

	// A large opening batch can already cross a detection boundary.
	c.maybeRedetectChapters(ctx, book.ID, 0, len(segments))
	if updated, err := c.library.Get(book.ID); err == nil {
		book = updated
	}
	return book, nil
}

// Start launches the background driver.
func (c *Controller) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.run(ctx)
	log.Printf("[Ingest] Background driver started (interval: %dms)", c.cfg.DriverIntervalMs)
}

// Stop halts the driver and waits for an in-flight batch to finish.
func (c *Controller) Stop() {
	close(c.stop)
	c.wg.Wait()
}

func (c *Controller) run(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(time.Duration(c.cfg.DriverIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			book, ok := c.library.NextIngestCandidate()
			if !ok {
				continue
			}
			if !c.tryBeginLoading(book.ID) {
				continue
			}
			err := c.runBatch(ctx, book)
			c.endLoading(book.ID)
			if err != nil {
				log.Printf("[Ingest] Batch failed for %s, backing off: %v", book.ID, err)
				select {
				case <-c.stop:
					return
				case <-ctx.Done():
					return
				case <-time.After(time.Duration(c.cfg.FailureBackoffSec) * time.Second):
				}
			}
		}
	}
}

// IsLoading reports whether a batch is in flight for the book.
func (c *Controller) IsLoading(bookID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[bookID]
}

func (c *Controller) tryBeginLoading(bookID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading[bookID] {
		return false
	}
	c.loading[bookID] = true
	return true
}

func (c *Controller) endLoading(bookID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.loading, bookID)
}

// runBatch extracts one continuation batch and folds it into the book.
func (c *Controller) runBatch(ctx context.Context, book *types.Book) error {
	hint := continuationHint(book.Content, c.cfg.ContinuationTail)

	result, err := c.extractor.ExtractBatch(ctx, provider.ExtractRequest{
		Source:           *book.Source,
		ContinuationHint: hint,
	})
	if err != nil {
		return err
	}

	segments := segmenter.Split(stripArtifacts(result.Text))
	oldCount := len(book.Content)

	if len(segments) > 0 {
		if err := c.library.AppendContent(ctx, book.ID, segments); err != nil {
			return err
		}
	}

	if result.Done {
		if err := c.library.MarkFullyLoaded(ctx, book.ID); err != nil {
			return err
		}
		log.Printf("[Ingest] Book %s fully loaded: %d segments", book.ID, oldCount+len(segments))
	} else {
		if err := c.library.SetProgress(ctx, book.ID, book.LoadProgress+c.cfg.ProgressIncrement); err != nil {
			return err
		}
	}

	c.maybeRedetectChapters(ctx, book.ID, oldCount, oldCount+len(segments))
	return nil
}

// maybeRedetectChapters refreshes the outline when the segment count
// crosses a detection interval boundary. The new outline replaces the
// old one wholesale.
func (c *Controller) maybeRedetectChapters(ctx context.Context, bookID string, oldCount, newCount int) {
	if newCount/c.cfg.ChapterInterval == oldCount/c.cfg.ChapterInterval {
		return
	}
	book, err := c.library.Get(bookID)
	if err != nil {
		return
	}
	chapters := c.chapters.Detect(ctx, book.Content)
	if err := c.library.ReplaceChapters(ctx, bookID, chapters); err != nil {
		log.Printf("[Ingest] Failed to update chapters for %s: %v", bookID, err)
		return
	}
	log.Printf("[Ingest] Redetected chapters for %s: %d chapters over %d segments", bookID, len(chapters), newCount)
}

// continuationHint is the tail of the transcription so far, used to
// tell the extractor where to resume.
func continuationHint(content []string, tail int) string {
	if len(content) == 0 {
		return ""
	}
	start := len(content) - tail
	if start < 0 {
		start = 0
	}
	return strings.Join(content[start:], " ")
}

// continuePrompt matches lines where the model asks whether to keep
// going instead of transcribing.
var continuePrompt = regexp.MustCompile(`(?i)^(?:(?:shall|should) i\s+|(?:would you like|do you want)(?: me)?(?: to)?\s+)?continue\b[^?]*\?$`)

// stripArtifacts removes model chatter that is not document text:
// markdown fences, stray end markers, bare ellipsis placeholders,
// bracketed transcription notes, and "continue?" prompts.
func stripArtifacts(text string) string {
	text = strings.ReplaceAll(text, provider.EndOfDocumentMarker, "")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		if trimmed == "..." || trimmed == "…" {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			continue
		}
		if continuePrompt.MatchString(trimmed) {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
