package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// GeminiChapterDetector derives a chapter outline from segment text via
// the same generateContent endpoint the extractor uses. Detection is
// best-effort: any failure falls back to the default single chapter.
type GeminiChapterDetector struct {
	client *geminiClient
}

func NewGeminiChapterDetector(cfg types.ProviderConfig) (*GeminiChapterDetector, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for gemini chapter detector")
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiChapterDetector{
		client: newGeminiClient("ChapterDetect", cfg.Endpoint, cfg.APIKey, cfg.Model, timeout),
	}, nil
}

func (d *GeminiChapterDetector) Detect(ctx context.Context, segments []string) []types.Chapter {
	if len(segments) == 0 {
		return types.DefaultChapters()
	}

	var sb strings.Builder
	sb.WriteString("Below are the numbered sentences of a book, in order. ")
	sb.WriteString("Identify the chapter or section boundaries and respond with ONLY a JSON array of objects ")
	sb.WriteString(`with fields "title" (string) and "startIndex" (integer sentence number where the chapter begins). `)
	sb.WriteString("The first chapter must start at index 0. If no structure is apparent, return a single chapter.\n\n")
	for i, seg := range segments {
		fmt.Fprintf(&sb, "%d: %s\n", i, seg)
	}

	resp, err := d.client.generate(ctx, generateRequest{
		Contents: []content{{Parts: []part{{Text: sb.String()}}}},
	})
	if err != nil {
		log.Printf("[ChapterDetect] Detection failed, keeping default outline: %v", err)
		return types.DefaultChapters()
	}

	chapters := parseChapterJSON(resp.firstText())
	if chapters == nil {
		log.Printf("[ChapterDetect] Could not parse detection response, keeping default outline")
		return types.DefaultChapters()
	}
	return sanitizeChapters(chapters, len(segments))
}

// parseChapterJSON pulls a chapter array out of a model response,
// tolerating surrounding prose and markdown fences.
func parseChapterJSON(text string) []types.Chapter {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil
	}
	var raw []struct {
		Title      string `json:"title"`
		StartIndex int    `json:"startIndex"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	chapters := make([]types.Chapter, len(raw))
	for i, r := range raw {
		chapters[i] = types.Chapter{Title: r.Title, StartIndex: r.StartIndex}
	}
	return chapters
}

// sanitizeChapters enforces outline invariants: sorted ascending,
// indexes clamped to the segment range, first chapter at 0, no
// duplicate start indexes.
func sanitizeChapters(chapters []types.Chapter, segmentCount int) []types.Chapter {
	out := make([]types.Chapter, 0, len(chapters))
	for _, ch := range chapters {
		if ch.StartIndex < 0 {
			ch.StartIndex = 0
		}
		if ch.StartIndex >= segmentCount {
			continue
		}
		if ch.Title == "" {
			ch.Title = fmt.Sprintf("Section %d", len(out)+1)
		}
		out = append(out, ch)
	}
	if len(out) == 0 {
		return types.DefaultChapters()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartIndex < out[j].StartIndex })
	out[0].StartIndex = 0

	deduped := out[:1]
	for _, ch := range out[1:] {
		if ch.StartIndex == deduped[len(deduped)-1].StartIndex {
			continue
		}
		deduped = append(deduped, ch)
	}
	return deduped
}
