package render

import (
	"bytes"
	"io"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/tsawler/transcribe/htmldoc"
)

// MarkdownWriter renders through the HTML writer and converts the result
// to CommonMark. Pictures are kept inline as data URIs.
type MarkdownWriter struct {
	html *htmldoc.Writer
	conv *converter.Converter
}

// NewMarkdownWriter creates a Markdown sink
func NewMarkdownWriter(title string) *MarkdownWriter {
	return &MarkdownWriter{
		html: htmldoc.NewWriter(title),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Paragraph appends a paragraph
func (w *MarkdownWriter) Paragraph(text string) {
	w.html.Paragraph(text)
}

// Row appends a table row
func (w *MarkdownWriter) Row(text string) {
	w.html.Row(text)
}

// Picture appends an inline image
func (w *MarkdownWriter) Picture(path, alt string) error {
	return w.html.Picture(path, alt)
}

// WriteTo converts the document to Markdown and writes it to out
func (w *MarkdownWriter) WriteTo(out io.Writer) (int64, error) {
	var buf bytes.Buffer
	if _, err := w.html.WriteTo(&buf); err != nil {
		return 0, err
	}

	md, err := w.conv.ConvertString(buf.String())
	if err != nil {
		return 0, err
	}

	n, err := io.WriteString(out, md+"\n")
	return int64(n), err
}
