package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TextParser handles text/* documents.
type TextParser struct{}

func (p *TextParser) Parse(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text document is not valid UTF-8")
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.TrimSpace(text), nil
}
