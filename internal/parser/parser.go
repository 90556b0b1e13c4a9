// Package parser extracts raw text from document formats the server can
// read locally, without calling the document extractor.
package parser

import (
	"strings"
)

// Parser turns a document's bytes into raw text.
type Parser interface {
	// Parse returns the document's text content. Paragraphs are
	// separated by blank lines.
	Parse(data []byte) (string, error)
}

// ForMimeType returns a parser for the given type, or false when the
// format needs the document extractor instead.
func ForMimeType(mimeType string) (Parser, bool) {
	switch {
	case strings.HasPrefix(mimeType, "text/"):
		return &TextParser{}, true
	case mimeType == "application/epub+zip":
		return &EpubParser{}, true
	default:
		return nil, false
	}
}
