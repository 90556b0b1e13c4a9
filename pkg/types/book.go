package types

import "time"

// Book represents an item in the reading library. Content is the ordered list
// of narration segments and only grows (append-only) until IsFullyLoaded.
type Book struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Format        string          `json:"format"` // mime type of the upload
	Content       []string        `json:"content"`
	Chapters      []Chapter       `json:"chapters"`
	LastPosition  int             `json:"last_position"`
	IsFullyLoaded bool            `json:"is_fully_loaded"`
	LoadProgress  int             `json:"load_progress"` // 0-100
	UploadedAt    time.Time       `json:"uploaded_at"`
	Source        *SourceDocument `json:"source,omitempty"`
}

// SourceDocument holds the raw uploaded bytes kept around for background
// extraction continuation. Absent (nil) for books extracted in one pass.
type SourceDocument struct {
	Bytes    []byte `json:"bytes"`
	MimeType string `json:"mime_type"`
}

// Chapter marks a table-of-contents entry pointing into Book.Content.
// The chapter list is replaced wholesale when detection reruns; it is kept
// sorted by StartIndex and the first entry always starts at 0.
type Chapter struct {
	Title      string `json:"title"`
	StartIndex int    `json:"start_index"`
}

// DefaultChapters returns the single-chapter fallback covering a whole book.
func DefaultChapters() []Chapter {
	return []Chapter{{Title: "Main", StartIndex: 0}}
}
