package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/tsawler/transcribe/format"
	"github.com/tsawler/transcribe/history"
	"github.com/tsawler/transcribe/model"
	"github.com/tsawler/transcribe/reader"
	"github.com/tsawler/transcribe/render"
)

// Request origins recorded in the run history
const (
	OriginCLI  = "cli"
	OriginHTTP = "http"
	OriginMCP  = "mcp"
)

// Request describes one conversion.
type Request struct {
	// Source is the PDF path, or a display name for ConvertReader
	Source string

	// Output is the target file. Empty uses Config.Output, with its
	// extension switched to match Format.
	Output string

	// Format and Operation are selectors as accepted by format.Parse and
	// format.ParseOperation. Empty means the configured format and
	// transcription.
	Format    string
	Operation string

	// Pages overrides Config.Pages when non-empty
	Pages []int

	// Origin is recorded in the run history (OriginCLI, ...)
	Origin string
}

// Result summarizes a finished conversion.
type Result struct {
	RunID   string        `json:"run_id,omitempty"`
	Source  string        `json:"source"`
	Output  string        `json:"output,omitempty"`
	Format  string        `json:"format"`
	Pages   int           `json:"pages"`
	Stats   model.Stats   `json:"elements"`
	Render  render.Result `json:"render"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Pipeline runs conversions with a fixed configuration. It is safe for
// concurrent use.
type Pipeline struct {
	cfg     Config
	logger  *slog.Logger
	history *history.Store
	alt     render.AltTexter
	now     func() time.Time
}

// NewPipeline creates a Pipeline. Zero config values take their defaults;
// a nil logger uses slog.Default().
func NewPipeline(cfg Config, logger *slog.Logger) *Pipeline {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithHistory returns a copy of the pipeline that records every run in s
func (p *Pipeline) WithHistory(s *history.Store) *Pipeline {
	clone := *p
	clone.history = s
	return &clone
}

// WithAltText returns a copy of the pipeline that describes pictures using
// the given AltTexter
func (p *Pipeline) WithAltText(a render.AltTexter) *Pipeline {
	clone := *p
	clone.alt = a
	return &clone
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() Config {
	return p.cfg
}

// History returns the run log, or nil when history is disabled
func (p *Pipeline) History() *history.Store {
	return p.history
}

// plan is a request with its selections resolved
type plan struct {
	op     format.Operation
	format format.Format
	output string
	pages  []int
}

// resolve checks the selections of req. Unimplemented operations and
// unknown selectors yield ErrUnsupportedSelection.
func (p *Pipeline) resolve(req Request) (plan, error) {
	var pl plan

	op := format.Transcription
	if req.Operation != "" {
		var err error
		if op, err = format.ParseOperation(req.Operation); err != nil {
			return pl, err
		}
	}
	pl.op = op
	if err := pl.op.Check(); err != nil {
		return pl, err
	}

	switch {
	case req.Format != "":
		f, err := format.Parse(req.Format)
		if err != nil {
			return pl, err
		}
		pl.format = f
	case format.Detect(req.Output) != format.Unknown:
		pl.format = format.Detect(req.Output)
	default:
		f, err := p.cfg.OutputFormat()
		if err != nil {
			return pl, err
		}
		pl.format = f
	}

	pl.output = req.Output
	if pl.output == "" {
		pl.output = p.cfg.Output
		if format.Detect(pl.output) != pl.format {
			pl.output = strings.TrimSuffix(pl.output, filepath.Ext(pl.output)) + pl.format.Extension()
		}
	}

	pl.pages = req.Pages
	if len(pl.pages) == 0 {
		pl.pages = p.cfg.Pages
	}
	return pl, nil
}

func (p *Pipeline) extractor(ext *Extractor, pages []int) *Extractor {
	ext = ext.withConfig(p.cfg).Logger(p.logger)
	if p.alt != nil {
		ext = ext.AltText(p.alt)
	}
	if len(pages) > 0 {
		ext = ext.Pages(pages...)
	}
	return ext
}

// Convert transcribes req.Source to a file. The output target is checked
// before the source is read; an existing file is replaced.
func (p *Pipeline) Convert(ctx context.Context, req Request) (*Result, error) {
	started := p.now()
	res := &Result{Source: req.Source}

	pl, err := p.resolve(req)
	if err == nil {
		res.Format = pl.format.String()
		var target string
		target, err = render.ValidateTarget(pl.output)
		if err == nil {
			res.Output = target
			ext := p.extractor(Open(req.Source), pl.pages)
			err = p.run(ctx, ext, res, func(r *render.Renderer, doc *model.Document) (render.Result, error) {
				return r.WriteFile(ctx, doc, target, pl.format)
			})
		}
	}

	p.finish(ctx, req, pl, res, started, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ConvertReader transcribes an opened PDF and encodes the output to w.
// Nothing is written to w when the selections are invalid or the document
// cannot be read. The caller keeps ownership of r.
func (p *Pipeline) ConvertReader(ctx context.Context, r *reader.Reader, req Request, w io.Writer) (*Result, error) {
	started := p.now()
	res := &Result{Source: req.Source}

	pl, err := p.resolve(req)
	if err == nil {
		res.Format = pl.format.String()
		ext := FromReader(r)
		ext.filename = req.Source
		ext = p.extractor(ext, pl.pages)
		err = p.run(ctx, ext, res, func(rd *render.Renderer, doc *model.Document) (render.Result, error) {
			return rd.Write(ctx, doc, w, pl.format)
		})
	}

	p.finish(ctx, req, pl, res, started, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Preview assembles the document without rendering it
func (p *Pipeline) Preview(ctx context.Context, source string, pages []int) (*model.Document, error) {
	if len(pages) == 0 {
		pages = p.cfg.Pages
	}
	return p.extractor(Open(source), pages).Document(ctx)
}

func (p *Pipeline) run(ctx context.Context, ext *Extractor, res *Result,
	write func(*render.Renderer, *model.Document) (render.Result, error)) error {
	doc, err := ext.Document(ctx)
	if err != nil {
		return err
	}
	res.Pages = doc.PageCount
	res.Stats = doc.Stats()

	out, err := write(ext.renderer(), doc)
	if err != nil {
		return err
	}
	res.Render = out
	if out.Path != "" {
		res.Output = out.Path
	}
	return nil
}

// finish logs the outcome and records it in the history
func (p *Pipeline) finish(ctx context.Context, req Request, pl plan, res *Result, started time.Time, err error) {
	res.Elapsed = p.now().Sub(started)

	if err != nil {
		p.logger.Error("transcription failed",
			"source", req.Source,
			"origin", req.Origin,
			"error", err)
	} else {
		p.logger.Info("transcription complete",
			"source", res.Source,
			"output", res.Output,
			"format", res.Format,
			"pages", res.Pages,
			"elements", res.Stats.Total(),
			"placeholders", res.Render.Placeholders,
			"elapsed", res.Elapsed)
	}

	if p.history == nil {
		return
	}
	run := &history.Run{
		Source:       req.Source,
		Output:       res.Output,
		Format:       res.Format,
		Operation:    operationName(req, pl),
		Origin:       req.Origin,
		Pages:        res.Pages,
		Elements:     res.Stats.Total(),
		Pictures:     res.Render.Pictures,
		Placeholders: res.Render.Placeholders,
		StartedAt:    started,
		Duration:     res.Elapsed,
	}
	if err != nil {
		run.Error = err.Error()
	}
	// a cancelled request still gets its run recorded
	if rerr := p.history.Record(context.WithoutCancel(ctx), run); rerr != nil {
		p.logger.Warn("failed to record run", "source", req.Source, "error", rerr)
		return
	}
	res.RunID = run.ID
}

func operationName(req Request, pl plan) string {
	if pl.op != 0 {
		return pl.op.String()
	}
	return req.Operation
}

// IsSelectionError reports whether err was caused by the caller's
// selections (operation, format, pages or options) rather than the source
// or the output.
func IsSelectionError(err error) bool {
	return errors.Is(err, ErrUnsupportedSelection) ||
		errors.Is(err, ErrPageOutOfRange) ||
		errors.Is(err, ErrInvalidOption)
}

// String formats the result as a one-line summary
func (r *Result) String() string {
	return fmt.Sprintf("%s: %d pages, %d paragraphs, %d pictures, %d placeholders",
		r.Output, r.Pages, r.Render.Paragraphs, r.Render.Pictures, r.Render.Placeholders)
}
