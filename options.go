package transcribe

import (
	"log/slog"

	"github.com/tsawler/transcribe/layout"
	"github.com/tsawler/transcribe/render"
)

// ExtractOptions holds configuration for a transcription.
type ExtractOptions struct {
	// Page selection (1-indexed, nil means all pages)
	pages []int

	// Row clustering
	rows layout.RowConfig

	// Output rendering
	render render.Config
	alt    render.AltTexter

	logger *slog.Logger
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		pages:  nil, // nil means all pages
		rows:   layout.DefaultRowConfig(),
		render: render.DefaultConfig(),
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := ExtractOptions{
		rows:   o.rows,
		render: o.render,
		alt:    o.alt,
		logger: o.logger,
	}

	// Deep copy pages slice
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}

	return newOpts
}
