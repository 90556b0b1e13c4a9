// Package segmenter turns raw extracted text into the ordered narration
// segments the rest of the system operates on. Splitting is deterministic and
// does no I/O.
package segmenter

import (
	"strings"
	"unicode"
)

// Split breaks raw text into sentence- or paragraph-granularity segments.
// A segment boundary is terminal punctuation followed by whitespace and a
// capital letter or digit, or a blank-line paragraph break. Pieces are
// trimmed and empty results dropped. Re-splitting correctly segmented text
// joined by single spaces reproduces the original segments.
func Split(raw string) []string {
	segments := make([]string, 0)
	for _, para := range splitParagraphs(raw) {
		for _, sentence := range splitSentences(para) {
			sentence = strings.TrimSpace(sentence)
			if sentence != "" {
				segments = append(segments, sentence)
			}
		}
	}
	return segments
}

// splitParagraphs splits on blank lines.
func splitParagraphs(raw string) []string {
	var paras []string
	var current strings.Builder

	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paras = append(paras, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(strings.TrimSpace(line))
	}
	if current.Len() > 0 {
		paras = append(paras, current.String())
	}
	return paras
}

// splitSentences cuts a paragraph at terminal punctuation followed by
// whitespace and an upper-case letter or digit. Closing quotes stay attached
// to the sentence they end.
func splitSentences(para string) []string {
	runes := []rune(para)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}

		// Keep trailing closing quotes with the sentence
		end := i + 1
		for end < len(runes) && isClosingQuote(runes[end]) {
			end++
		}

		// Require whitespace after the sentence end
		ws := end
		for ws < len(runes) && unicode.IsSpace(runes[ws]) {
			ws++
		}
		if ws == end || ws >= len(runes) {
			continue
		}

		// Next sentence must open with a capital letter or digit
		next := runes[ws]
		if !unicode.IsUpper(next) && !unicode.IsDigit(next) && !isOpeningQuote(next) {
			continue
		}

		sentences = append(sentences, string(runes[start:end]))
		start = ws
		i = ws - 1
	}

	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isClosingQuote(r rune) bool {
	return r == '"' || r == '\'' || r == '”' || r == '’'
}

func isOpeningQuote(r rune) bool {
	return r == '"' || r == '“' || r == '‘'
}
