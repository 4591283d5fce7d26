package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tsawler/transcribe/model"
)

// ErrPageOutOfRange is returned when a selected page does not exist
var ErrPageOutOfRange = errors.New("layout: page out of range")

// PageSource enumerates the positioned fragments of a paginated source.
// Page indexes are 0-based.
type PageSource interface {
	PageCount() int
	PageFragments(ctx context.Context, index int) ([]model.Fragment, error)
}

// Assembler concatenates per-page element lists into a Document
type Assembler struct {
	pages  *PageReconstructor
	logger *slog.Logger
}

// NewAssembler creates an assembler. A nil reconstructor uses the defaults;
// a nil logger uses slog.Default().
func NewAssembler(pages *PageReconstructor, logger *slog.Logger) *Assembler {
	if pages == nil {
		pages = NewPageReconstructor()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{pages: pages, logger: logger}
}

// Assemble reads the selected pages (1-indexed, nil for all) in order and
// appends their elements. Any page failure aborts the read and no document
// is returned.
func (a *Assembler) Assemble(ctx context.Context, source string, src PageSource, pages []int) (*model.Document, error) {
	indexes, err := resolvePages(pages, src.PageCount())
	if err != nil {
		return nil, err
	}

	doc := model.NewDocument(source)
	for _, idx := range indexes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frags, err := src.PageFragments(ctx, idx)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", idx+1, err)
		}

		elems := a.pages.Reconstruct(idx+1, frags)
		doc.Append(elems...)
		doc.PageCount++

		a.logger.Debug("page reconstructed",
			"source", source,
			"page", idx+1,
			"fragments", len(frags),
			"elements", len(elems))
	}

	return doc, nil
}

// resolvePages converts 1-indexed page numbers to 0-based indexes.
// nil or empty selects every page.
func resolvePages(pages []int, count int) ([]int, error) {
	if len(pages) == 0 {
		indexes := make([]int, count)
		for i := range indexes {
			indexes[i] = i
		}
		return indexes, nil
	}

	indexes := make([]int, 0, len(pages))
	for _, p := range pages {
		if p < 1 || p > count {
			return nil, fmt.Errorf("%w: %d (document has %d pages)", ErrPageOutOfRange, p, count)
		}
		indexes = append(indexes, p-1)
	}
	return indexes, nil
}
