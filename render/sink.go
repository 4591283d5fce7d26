package render

import (
	"errors"
	"io"
)

var (
	// ErrImageIO is returned when an image cannot be read, stored or
	// embedded. The renderer recovers from it with a placeholder.
	ErrImageIO = errors.New("render: image I/O failure")

	// ErrInvalidOutputTarget is returned when the output path is empty, is a
	// directory, or lives in a directory that does not exist.
	ErrInvalidOutputTarget = errors.New("render: invalid output target")
)

// Sink receives rendered content in document order and encodes it.
type Sink interface {
	// Paragraph appends a paragraph of text.
	Paragraph(text string)

	// Picture appends the image stored at path. The file is removed after
	// Picture returns, so implementations must read it before returning.
	// alt is a short description of the image.
	Picture(path, alt string) error

	// WriteTo encodes the finished document.
	WriteTo(w io.Writer) (int64, error)
}

// RowSink is implemented by sinks that mark table rows differently from
// ordinary paragraphs. Other sinks receive rows through Paragraph.
type RowSink interface {
	Row(text string)
}
