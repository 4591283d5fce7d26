package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tsawler/transcribe/model"
)

// DefaultPlaceholder replaces an image that could not be displayed
const DefaultPlaceholder = "Image not displayed."

// AltTexter describes an image file, e.g. by recognizing the text in it
type AltTexter interface {
	AltText(ctx context.Context, path string) (string, error)
}

// Config holds configuration for rendering
type Config struct {
	// PlaceholderText is written in place of an image that failed
	// (default: DefaultPlaceholder)
	PlaceholderText string

	// TempDir is where image temp files are created ("" = OS temp dir)
	TempDir string

	// ImageWidthInches is the display width of DOCX pictures (default: 4)
	ImageWidthInches float64

	// TextWrap is the display width plain text is wrapped at (0 = no wrap)
	TextWrap int

	// Title is used by formats that carry a document title
	Title string
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		PlaceholderText:  DefaultPlaceholder,
		ImageWidthInches: 4,
	}
}

// Result summarizes a render pass
type Result struct {
	// Path is the written file, set by WriteFile
	Path string

	Paragraphs   int
	Pictures     int
	Placeholders int
}

// Renderer feeds document elements to a Sink
type Renderer struct {
	config Config
	temp   *TempStore
	alt    AltTexter
	logger *slog.Logger
}

// NewRenderer creates a renderer. A nil logger uses slog.Default().
func NewRenderer(cfg Config, logger *slog.Logger) *Renderer {
	if cfg.PlaceholderText == "" {
		cfg.PlaceholderText = DefaultPlaceholder
	}
	if cfg.ImageWidthInches <= 0 {
		cfg.ImageWidthInches = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		config: cfg,
		temp:   NewTempStore(cfg.TempDir),
		logger: logger,
	}
}

// WithAltText returns a copy of the renderer that describes pictures using
// the given AltTexter
func (r *Renderer) WithAltText(a AltTexter) *Renderer {
	clone := *r
	clone.alt = a
	return &clone
}

// Config returns the renderer configuration
func (r *Renderer) Config() Config {
	return r.config
}

// Render writes every element of doc to sink in order. Image failures are
// logged and replaced by a placeholder paragraph; only cancellation stops
// the pass early.
func (r *Renderer) Render(ctx context.Context, doc *model.Document, sink Sink) (Result, error) {
	var res Result

	for _, elem := range doc.Elements {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		switch el := elem.(type) {
		case *model.Text:
			sink.Paragraph(strings.TrimRight(el.Content, "\n"))
			res.Paragraphs++
		case *model.TableRow:
			text := strings.TrimRight(el.Content, "\n")
			if rs, ok := sink.(RowSink); ok {
				rs.Row(text)
			} else {
				sink.Paragraph(text)
			}
			res.Paragraphs++
		case *model.Image:
			if err := r.picture(ctx, el, sink); err != nil {
				r.logger.Warn("image not displayed",
					"page", el.Page,
					"image", el.Name(),
					"error", err)
				sink.Paragraph(r.config.PlaceholderText)
				res.Placeholders++
				continue
			}
			res.Pictures++
		default:
			return res, fmt.Errorf("render: unexpected element %T", elem)
		}
	}

	return res, nil
}

func (r *Renderer) picture(ctx context.Context, img *model.Image, sink Sink) error {
	if img.Name() == "" {
		return fmt.Errorf("%w: image has no name", ErrImageIO)
	}

	src, err := img.Payload.Open()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrImageIO, err)
	}

	return r.temp.With(img.Name(), src, func(path string) error {
		alt := img.Name()
		if r.alt != nil {
			text, err := r.alt.AltText(ctx, path)
			switch {
			case err != nil:
				r.logger.Debug("alt text unavailable", "image", img.Name(), "error", err)
			case text != "":
				alt = text
			}
		}

		if err := sink.Picture(path, alt); err != nil {
			return fmt.Errorf("%w: %w", ErrImageIO, err)
		}
		return nil
	})
}
