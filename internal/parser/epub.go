package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// EpubParser handles EPUB documents by concatenating the text of each
// XHTML content file in archive order.
type EpubParser struct{}

func (p *EpubParser) Parse(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open epub archive: %w", err)
	}

	var sb strings.Builder
	for _, file := range reader.File {
		if !isContentFile(file.Name) {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		text := stripMarkup(string(content))
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}
	}

	result := strings.TrimSpace(sb.String())
	if result == "" {
		return "", fmt.Errorf("epub contains no readable content")
	}
	return result, nil
}

func isContentFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xhtml") ||
		strings.HasSuffix(lower, ".html") ||
		strings.HasSuffix(lower, ".htm")
}

// stripMarkup removes tags and decodes common entities. Script and
// style bodies are dropped entirely; block-level closers become
// paragraph breaks.
func stripMarkup(html string) string {
	var sb strings.Builder
	inTag := false
	skipUntil := ""
	tagStart := 0

	for i := 0; i < len(html); i++ {
		c := html[i]
		switch {
		case c == '<':
			inTag = true
			tagStart = i + 1
		case c == '>' && inTag:
			inTag = false
			tag := strings.ToLower(strings.TrimSpace(html[tagStart:i]))
			tag = strings.TrimSuffix(tag, "/")
			name := tag
			if idx := strings.IndexAny(name, " \t\n"); idx >= 0 {
				name = name[:idx]
			}
			if skipUntil != "" {
				if name == "/"+skipUntil {
					skipUntil = ""
				}
				continue
			}
			switch name {
			case "script", "style":
				skipUntil = name
			case "/p", "/div", "/h1", "/h2", "/h3", "/h4", "/h5", "/h6", "/li", "br":
				sb.WriteString("\n\n")
			}
		case !inTag && skipUntil == "":
			sb.WriteByte(c)
		}
	}

	text := decodeEntities(sb.String())
	return strings.TrimSpace(collapseBlankLines(text))
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&#39;", "'",
	"&nbsp;", " ",
	"&mdash;", "-",
	"&ndash;", "-",
	"&hellip;", "...",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

// collapseBlankLines limits runs of blank lines to a single paragraph
// break and trims whitespace from each line.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.Join(out, "\n")
}
