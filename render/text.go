package render

import (
	"bytes"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TextWriter renders a plain text document, one paragraph per block
type TextWriter struct {
	width int
	buf   bytes.Buffer
}

// NewTextWriter creates a plain text sink wrapping at width display
// columns (0 = no wrap)
func NewTextWriter(width int) *TextWriter {
	return &TextWriter{width: width}
}

// Paragraph appends text followed by a newline
func (w *TextWriter) Paragraph(text string) {
	for _, line := range strings.Split(text, "\n") {
		for _, wrapped := range wrap(line, w.width) {
			w.buf.WriteString(wrapped)
			w.buf.WriteByte('\n')
		}
	}
}

// Picture appends an image marker
func (w *TextWriter) Picture(path, alt string) error {
	w.buf.WriteString("[IMAGE: " + alt + "]\n")
	return nil
}

// WriteTo writes the accumulated text
func (w *TextWriter) WriteTo(out io.Writer) (int64, error) {
	n, err := out.Write(w.buf.Bytes())
	return int64(n), err
}

// wrap breaks line at spaces so no piece exceeds width display columns.
// A single word wider than width is cut at the column boundary.
func wrap(line string, width int) []string {
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return []string{line}
	}

	var lines []string
	var cur strings.Builder
	curWidth := 0

	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curWidth = 0
	}

	for _, word := range strings.Fields(line) {
		ww := runewidth.StringWidth(word)
		for ww > width {
			if curWidth > 0 {
				flush()
			}
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				// a single rune wider than width
				head = string([]rune(word)[:1])
			}
			lines = append(lines, head)
			word = word[len(head):]
			ww = runewidth.StringWidth(word)
		}
		if ww == 0 {
			continue
		}

		if curWidth > 0 && curWidth+1+ww > width {
			flush()
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(word)
		curWidth += ww
	}
	if curWidth > 0 {
		flush()
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
