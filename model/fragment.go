package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Container identifies the kind of page object a fragment came from.
type Container int

const (
	// ContainerUnknown is the zero value, used when the parser could not
	// tell what held the fragment.
	ContainerUnknown Container = iota
	// ContainerTextLine is a horizontally flowing, line-level text container.
	ContainerTextLine
	// ContainerTextBlock is any other text container: rotated or vertical
	// text, isolated blocks.
	ContainerTextBlock
	// ContainerImage is an image object.
	ContainerImage
)

// String returns a string representation of the container
func (c Container) String() string {
	switch c {
	case ContainerTextLine:
		return "text-line"
	case ContainerTextBlock:
		return "text-block"
	case ContainerImage:
		return "image"
	default:
		return "unknown"
	}
}

// Fragment is one positioned unit of page content as reported by the page
// parser. Text fragments carry Text; image fragments carry Image.
type Fragment struct {
	BBox      BBox
	Container Container
	Text      string
	Image     *ImagePayload
}

// ErrNoImageData is returned by ImagePayload.Open when the payload has no
// bytes and no recorded read failure.
var ErrNoImageData = errors.New("model: image has no data")

// ImagePayload is the opaque byte stream of an image plus the name the
// parser suggests for it.
type ImagePayload struct {
	// Name is the suggested file name, e.g. "Im1.png".
	Name string

	data []byte
	err  error
}

// NewImagePayload returns a payload backed by data.
func NewImagePayload(name string, data []byte) *ImagePayload {
	return &ImagePayload{Name: name, data: data}
}

// NewFailedImagePayload returns a payload whose stream could not be read.
// Open reports err.
func NewFailedImagePayload(name string, err error) *ImagePayload {
	return &ImagePayload{Name: name, err: err}
}

// Open returns a reader over the image bytes, or the failure recorded when
// the parser tried to read them.
func (p *ImagePayload) Open() (io.Reader, error) {
	if p == nil {
		return nil, ErrNoImageData
	}
	if p.err != nil {
		return nil, fmt.Errorf("image %q: %w", p.Name, p.err)
	}
	if len(p.data) == 0 {
		return nil, fmt.Errorf("image %q: %w", p.Name, ErrNoImageData)
	}
	return bytes.NewReader(p.data), nil
}

// Size returns the payload length in bytes (0 for failed payloads).
func (p *ImagePayload) Size() int {
	if p == nil {
		return 0
	}
	return len(p.data)
}
