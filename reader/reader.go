package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tsawler/transcribe/model"
)

// ErrNotFound is returned when the source file is missing or cannot be opened
var ErrNotFound = errors.New("reader: source not found")

var disableConfigDir sync.Once

// Reader represents an opened PDF document
type Reader struct {
	file *os.File
	ctx  *pdfmodel.Context
}

// Open opens a PDF file and returns a Reader
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, filename)
	}

	reader, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.file = file

	return reader, nil
}

// NewReader parses a PDF from rs. The caller keeps ownership of rs.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := pdfmodel.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	return &Reader{ctx: ctx}, nil
}

// Close closes the underlying file when the Reader was created by Open
func (r *Reader) Close() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// PageCount returns the number of pages in the PDF
func (r *Reader) PageCount() int {
	return r.ctx.PageCount
}

// PageFragments returns the fragments of the page at index (0-based) in
// content-stream order.
func (r *Reader) PageFragments(ctx context.Context, index int) ([]model.Fragment, error) {
	if index < 0 || index >= r.PageCount() {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, r.PageCount())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageNr := index + 1
	content, err := pdfcpu.ExtractPageContent(r.ctx, pageNr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	var data []byte
	if content != nil {
		data, err = io.ReadAll(content)
		if err != nil {
			return nil, fmt.Errorf("failed to read content: %w", err)
		}
	}

	images, imageErr := r.pageImages(pageNr)
	return newInterpreter(r.pageFonts(pageNr), images, imageErr).run(parseContent(data)), nil
}

// pageImages extracts the page's image XObjects keyed by resource name.
// Images whose bytes cannot be read get a failed payload.
func (r *Reader) pageImages(pageNr int) (map[string]*model.ImagePayload, error) {
	extracted, err := pdfcpu.ExtractPageImages(r.ctx, pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	images := make(map[string]*model.ImagePayload, len(extracted))
	for _, img := range extracted {
		name := img.Name
		if img.FileType != "" {
			name += "." + img.FileType
		}

		if img.Reader == nil {
			images[img.Name] = model.NewFailedImagePayload(name, model.ErrNoImageData)
			continue
		}
		data, err := io.ReadAll(img.Reader)
		if err != nil {
			images[img.Name] = model.NewFailedImagePayload(name, err)
			continue
		}
		images[img.Name] = model.NewImagePayload(name, data)
	}

	return images, nil
}
