// Package format provides output format and operation selectors for the
// transcribe library.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for an operation or output format that is not
// implemented
var ErrUnsupported = errors.New("format: unsupported selection")

// Format represents a supported output document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// DOCX indicates a Microsoft Word (.docx) document.
	DOCX
	// HTML indicates an HTML document.
	HTML
	// Markdown indicates a CommonMark document.
	Markdown
	// Text indicates a plain text document.
	Text
)

// Formats lists the implemented formats in menu order.
var Formats = []Format{DOCX, HTML, Markdown, Text}

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case DOCX:
		return "DOCX"
	case HTML:
		return "HTML"
	case Markdown:
		return "Markdown"
	case Text:
		return "Text"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case DOCX:
		return ".docx"
	case HTML:
		return ".html"
	case Markdown:
		return ".md"
	case Text:
		return ".txt"
	default:
		return ""
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case DOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case HTML:
		return "text/html; charset=utf-8"
	case Markdown:
		return "text/markdown; charset=utf-8"
	case Text:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Detect determines the output format from a filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".docx":
		return DOCX
	case ".html", ".htm":
		return HTML
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return Text
	default:
		return Unknown
	}
}

// Parse resolves a format selector: a menu number ("1" for DOCX), a name
// ("docx", "markdown") or an extension (".md"). Matching is case-insensitive.
func Parse(selector string) (Format, error) {
	s := strings.ToLower(strings.TrimSpace(selector))
	switch s {
	case "1", "docx", ".docx", "word":
		return DOCX, nil
	case "2", "html", ".html", ".htm":
		return HTML, nil
	case "3", "markdown", "md", ".md":
		return Markdown, nil
	case "4", "text", "txt", ".txt", "plain":
		return Text, nil
	}
	return Unknown, fmt.Errorf("%w: output format %q", ErrUnsupported, selector)
}
