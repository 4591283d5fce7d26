package transcribe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/tsawler/transcribe/format"
	"github.com/tsawler/transcribe/layout"
	"github.com/tsawler/transcribe/model"
	"github.com/tsawler/transcribe/reader"
	"github.com/tsawler/transcribe/render"
)

// MaxPrecision is the largest row key precision accepted by Precision
const MaxPrecision = 10

// Extractor provides a fluent interface for transcribing a PDF.
// Each configuration method returns a new Extractor instance, making it
// safe for concurrent use and allowing method chaining.
type Extractor struct {
	// Source
	filename string
	reader   *reader.Reader

	// Lifecycle
	ownsReader   bool // true if we opened the reader and should close it
	readerOpened bool // true if reader has been opened

	// Configuration
	options ExtractOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename:     e.filename,
		reader:       e.reader,
		ownsReader:   e.ownsReader,
		readerOpened: e.readerOpened,
		options:      e.options.clone(),
		err:          e.err,
	}
}

// ensureReader opens the reader if not already open.
func (e *Extractor) ensureReader() error {
	if e.readerOpened {
		return nil
	}
	if e.filename == "" {
		return fmt.Errorf("%w: no filename specified", ErrSourceNotFound)
	}

	r, err := reader.Open(e.filename)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	e.reader = r
	e.ownsReader = true
	e.readerOpened = true
	return nil
}

// Close releases resources associated with the Extractor.
// It is safe to call Close multiple times.
func (e *Extractor) Close() error {
	if e.ownsReader && e.reader != nil {
		err := e.reader.Close()
		e.reader = nil
		e.ownsReader = false
		e.readerOpened = false
		return err
	}
	return nil
}

func (e *Extractor) logger() *slog.Logger {
	if e.options.logger != nil {
		return e.options.logger
	}
	return slog.Default()
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Pages specifies which pages to transcribe (1-indexed), in output order.
// Multiple calls are cumulative.
//
// Example:
//
//	doc, err := transcribe.Open("doc.pdf").Pages(1, 3, 5).Document(ctx)
func (e *Extractor) Pages(pages ...int) *Extractor {
	newExt := e.clone()
	newExt.options.pages = append(newExt.options.pages, pages...)
	return newExt
}

// PageRange specifies a range of pages to transcribe (1-indexed, inclusive).
//
// Example:
//
//	doc, err := transcribe.Open("doc.pdf").PageRange(5, 10).Document(ctx)
func (e *Extractor) PageRange(start, end int) *Extractor {
	newExt := e.clone()
	if end < start && newExt.err == nil {
		newExt.err = fmt.Errorf("%w: range %d-%d", ErrPageOutOfRange, start, end)
		return newExt
	}
	for i := start; i <= end; i++ {
		newExt.options.pages = append(newExt.options.pages, i)
	}
	return newExt
}

// Precision sets the number of decimal digits a fragment's bottom edge is
// rounded to before rows are matched (default 2, at most MaxPrecision).
//
// Example:
//
//	doc, err := transcribe.Open("doc.pdf").Precision(0).Document(ctx)
func (e *Extractor) Precision(digits int) *Extractor {
	newExt := e.clone()
	if digits < 0 || digits > MaxPrecision {
		if newExt.err == nil {
			newExt.err = fmt.Errorf("%w: precision %d outside [0, %d]", ErrInvalidOption, digits, MaxPrecision)
		}
		return newExt
	}
	newExt.options.rows.Precision = digits
	return newExt
}

// Tolerance enables band matching: fragments whose rounded bottom edges
// lie within t of a row's first key join that row. 0 restores exact
// matching.
//
// Example:
//
//	doc, err := transcribe.Open("scan.pdf").Tolerance(1.5).Document(ctx)
func (e *Extractor) Tolerance(t float64) *Extractor {
	newExt := e.clone()
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		if newExt.err == nil {
			newExt.err = fmt.Errorf("%w: tolerance %v", ErrInvalidOption, t)
		}
		return newExt
	}
	newExt.options.rows.Tolerance = t
	return newExt
}

// SuppressEmptyRows drops rows whose text is blank instead of emitting
// empty table rows.
func (e *Extractor) SuppressEmptyRows() *Extractor {
	newExt := e.clone()
	newExt.options.rows.SuppressEmptyRows = true
	return newExt
}

// Logger sets the logger used for page progress and image degradation.
// A nil logger uses slog.Default().
func (e *Extractor) Logger(logger *slog.Logger) *Extractor {
	newExt := e.clone()
	newExt.options.logger = logger
	return newExt
}

// Placeholder sets the paragraph written in place of images that cannot be
// displayed.
func (e *Extractor) Placeholder(text string) *Extractor {
	newExt := e.clone()
	newExt.options.render.PlaceholderText = text
	return newExt
}

// ImageWidth sets the display width of DOCX pictures in inches.
func (e *Extractor) ImageWidth(inches float64) *Extractor {
	newExt := e.clone()
	newExt.options.render.ImageWidthInches = inches
	return newExt
}

// TempDir sets the directory image temp files are created in.
func (e *Extractor) TempDir(dir string) *Extractor {
	newExt := e.clone()
	newExt.options.render.TempDir = dir
	return newExt
}

// TextWrap sets the column plain text output is wrapped at (0 = no wrap).
func (e *Extractor) TextWrap(width int) *Extractor {
	newExt := e.clone()
	newExt.options.render.TextWrap = width
	return newExt
}

// Title sets the title carried by formats that have one. By default the
// source file name without its extension is used.
func (e *Extractor) Title(title string) *Extractor {
	newExt := e.clone()
	newExt.options.render.Title = title
	return newExt
}

// AltText describes every embedded picture using the given AltTexter, e.g.
// an ocr.Client.
func (e *Extractor) AltText(a render.AltTexter) *Extractor {
	newExt := e.clone()
	newExt.options.alt = a
	return newExt
}

// withConfig applies the layout and rendering settings of cfg
func (e *Extractor) withConfig(cfg Config) *Extractor {
	newExt := e.Precision(cfg.RowPrecision()).Tolerance(cfg.Tolerance)
	newExt.options.rows.SuppressEmptyRows = cfg.SuppressEmptyRows
	newExt.options.render = cfg.RenderConfig()
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// PageCount returns the number of pages in the source.
// This is a terminal operation that closes the underlying reader.
func (e *Extractor) PageCount() (int, error) {
	if e.err != nil {
		return 0, e.err
	}

	if err := e.ensureReader(); err != nil {
		return 0, err
	}
	defer e.Close()

	return e.reader.PageCount(), nil
}

// Document reads the selected pages and returns the assembled document.
// Any page failure aborts the read and no document is returned.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	doc, err := transcribe.Open("document.pdf").Document(ctx)
//	for _, el := range doc.Elements {
//	    fmt.Println(el.Type(), el.PageNumber())
//	}
func (e *Extractor) Document(ctx context.Context) (*model.Document, error) {
	if e.err != nil {
		return nil, e.err
	}

	if err := e.ensureReader(); err != nil {
		return nil, err
	}
	defer e.Close()

	return e.assemble(ctx)
}

// Text returns the text of every paragraph and table row, one per line.
// Images are skipped.
// This is a terminal operation that closes the underlying reader.
func (e *Extractor) Text(ctx context.Context) (string, error) {
	doc, err := e.Document(ctx)
	if err != nil {
		return "", err
	}
	return doc.PlainText(), nil
}

// WriteFile transcribes the source and writes it to path in format f,
// replacing any existing file. The output target is checked before the
// source is read. The returned Result carries the absolute output path.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	res, err := transcribe.Open("in.pdf").WriteFile(ctx, "out.docx", format.DOCX)
func (e *Extractor) WriteFile(ctx context.Context, path string, f format.Format) (render.Result, error) {
	if e.err != nil {
		return render.Result{}, e.err
	}
	if _, err := render.ValidateTarget(path); err != nil {
		return render.Result{}, err
	}

	doc, err := e.Document(ctx)
	if err != nil {
		return render.Result{}, err
	}
	return e.renderer().WriteFile(ctx, doc, path, f)
}

// Write transcribes the source and encodes it to w in format f.
// This is a terminal operation that closes the underlying reader.
func (e *Extractor) Write(ctx context.Context, w io.Writer, f format.Format) (render.Result, error) {
	if e.err != nil {
		return render.Result{}, e.err
	}
	if _, err := e.renderer().NewSink(f); err != nil {
		return render.Result{}, err
	}

	doc, err := e.Document(ctx)
	if err != nil {
		return render.Result{}, err
	}
	return e.renderer().Write(ctx, doc, w, f)
}

// ============================================================================
// Internal Helpers
// ============================================================================

func (e *Extractor) assemble(ctx context.Context) (*model.Document, error) {
	rows := layout.NewRowClustererWithConfig(e.options.rows)
	asm := layout.NewAssembler(layout.NewPageReconstructorWithClusterer(rows), e.logger())

	doc, err := asm.Assemble(ctx, e.filename, e.reader, e.options.pages)
	if err != nil {
		return nil, err
	}

	stats := doc.Stats()
	e.logger().Debug("document assembled",
		"source", e.filename,
		"pages", doc.PageCount,
		"text", stats.Text,
		"rows", stats.TableRows,
		"images", stats.Images)
	return doc, nil
}

func (e *Extractor) renderer() *render.Renderer {
	cfg := e.options.render
	if cfg.Title == "" && e.filename != "" {
		base := filepath.Base(e.filename)
		cfg.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	r := render.NewRenderer(cfg, e.logger())
	if e.options.alt != nil {
		r = r.WithAltText(e.options.alt)
	}
	return r
}
