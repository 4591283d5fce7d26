package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tsawler/transcribe/docx"
	"github.com/tsawler/transcribe/format"
	"github.com/tsawler/transcribe/htmldoc"
	"github.com/tsawler/transcribe/model"
)

// NewSink creates the writer for output format f
func (r *Renderer) NewSink(f format.Format) (Sink, error) {
	switch f {
	case format.DOCX:
		w := docx.NewWriter(r.config.ImageWidthInches)
		w.SetTitle(r.config.Title)
		return w, nil
	case format.HTML:
		return htmldoc.NewWriter(r.config.Title), nil
	case format.Markdown:
		return NewMarkdownWriter(r.config.Title), nil
	case format.Text:
		return NewTextWriter(r.config.TextWrap), nil
	}
	return nil, fmt.Errorf("%w: output format %v", format.ErrUnsupported, f)
}

// Write renders doc in format f and encodes it to w
func (r *Renderer) Write(ctx context.Context, doc *model.Document, w io.Writer, f format.Format) (Result, error) {
	sink, err := r.NewSink(f)
	if err != nil {
		return Result{}, err
	}

	res, err := r.Render(ctx, doc, sink)
	if err != nil {
		return res, err
	}

	if _, err := sink.WriteTo(w); err != nil {
		return res, fmt.Errorf("failed to encode %v: %w", f, err)
	}
	return res, nil
}

// WriteFile renders doc in format f to path, replacing any existing file.
// The target is validated before anything is rendered, and the document is
// written to a temporary file in the same directory and renamed into place.
// The returned Result carries the absolute output path.
func (r *Renderer) WriteFile(ctx context.Context, doc *model.Document, path string, f format.Format) (Result, error) {
	target, err := ValidateTarget(path)
	if err != nil {
		return Result{}, err
	}

	sink, err := r.NewSink(f)
	if err != nil {
		return Result{}, err
	}

	res, err := r.Render(ctx, doc, sink)
	if err != nil {
		return res, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".transcribe-*.tmp")
	if err != nil {
		return res, fmt.Errorf("failed to create output: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := sink.WriteTo(tmp); err != nil {
		tmp.Close()
		return res, fmt.Errorf("failed to encode %v: %w", f, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return res, fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return res, fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return res, fmt.Errorf("failed to replace %s: %w", target, err)
	}

	res.Path = target
	return res, nil
}

// ValidateTarget checks that path can receive an output document and
// returns it in absolute form. An empty path, an existing directory or a
// missing parent directory yields ErrInvalidOutputTarget.
func ValidateTarget(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: output name is empty", ErrInvalidOutputTarget)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidOutputTarget, err)
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidOutputTarget, path)
	}

	parent, err := os.Stat(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidOutputTarget, err)
	}
	if !parent.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidOutputTarget, filepath.Dir(abs))
	}

	return abs, nil
}
