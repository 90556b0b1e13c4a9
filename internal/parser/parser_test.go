package parser

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func TestForMimeType(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{"text/plain", true},
		{"text/markdown", true},
		{"application/epub+zip", true},
		{"application/pdf", false},
		{"image/png", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			_, ok := ForMimeType(tt.mimeType)
			if ok != tt.want {
				t.Errorf("ForMimeType(%q) ok = %v, want %v", tt.mimeType, ok, tt.want)
			}
		})
	}
}

func TestTextParser(t *testing.T) {
	t.Run("normalizes line endings and trims", func(t *testing.T) {
		p := &TextParser{}
		got, err := p.Parse([]byte("  First line.\r\nSecond line.\r\n"))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got != "First line.\nSecond line." {
			t.Errorf("Parse() = %q", got)
		}
	})

	t.Run("rejects invalid utf8", func(t *testing.T) {
		p := &TextParser{}
		if _, err := p.Parse([]byte{0xff, 0xfe, 0x00}); err == nil {
			t.Error("Expected error for invalid UTF-8")
		}
	})
}

func buildEpub(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create zip entry: %v", err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("Failed to write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestEpubParser(t *testing.T) {
	t.Run("extracts text from xhtml entries", func(t *testing.T) {
		data := buildEpub(t, map[string]string{
			"mimetype":           "application/epub+zip",
			"OEBPS/chapter1.xhtml": "<html><body><h1>One</h1><p>First sentence.</p><p>Second sentence.</p></body></html>",
			"OEBPS/style.css":    "p { margin: 0 }",
		})

		p := &EpubParser{}
		got, err := p.Parse(data)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		for _, want := range []string{"One", "First sentence.", "Second sentence."} {
			if !strings.Contains(got, want) {
				t.Errorf("Parse() missing %q in %q", want, got)
			}
		}
		if strings.Contains(got, "margin") {
			t.Errorf("Parse() leaked stylesheet content: %q", got)
		}
	})

	t.Run("drops script bodies and decodes entities", func(t *testing.T) {
		data := buildEpub(t, map[string]string{
			"ch.xhtml": "<body><script>alert(1)</script><p>Tom &amp; Jerry.</p></body>",
		})

		p := &EpubParser{}
		got, err := p.Parse(data)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !strings.Contains(got, "Tom & Jerry.") {
			t.Errorf("Parse() = %q, want decoded entity", got)
		}
		if strings.Contains(got, "alert") {
			t.Errorf("Parse() leaked script content: %q", got)
		}
	})

	t.Run("errors on empty archive", func(t *testing.T) {
		data := buildEpub(t, map[string]string{"mimetype": "application/epub+zip"})
		p := &EpubParser{}
		if _, err := p.Parse(data); err == nil {
			t.Error("Expected error for epub with no content files")
		}
	})

	t.Run("errors on non-zip data", func(t *testing.T) {
		p := &EpubParser{}
		if _, err := p.Parse([]byte("not a zip")); err == nil {
			t.Error("Expected error for invalid archive")
		}
	})
}
