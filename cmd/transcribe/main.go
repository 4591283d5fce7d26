// Command transcribe converts a PDF into a DOCX, HTML, Markdown or plain
// text document, rebuilding table rows from the page geometry.
//
// Usage:
//
//	transcribe                                   # interactive prompts
//	transcribe -in report.pdf -out report.docx   # one-shot conversion
//	transcribe -config transcribe.yaml -in report.pdf -format markdown
//	transcribe serve -addr :8080                 # HTTP API
//	transcribe mcp                               # MCP tools over stdio
//	transcribe history -limit 10                 # recent runs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tsawler/transcribe"
	"github.com/tsawler/transcribe/format"
	"github.com/tsawler/transcribe/history"
	"github.com/tsawler/transcribe/ocr"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := app.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "transcribe:", err)
		os.Exit(1)
	}
}

// app holds the process streams so the commands can be driven from tests
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// now is replaced in tests for a stable elapsed time
	now func() time.Time
}

func (a *app) run(ctx context.Context, args []string) error {
	if a.now == nil {
		a.now = time.Now
	}
	if len(args) > 0 {
		switch args[0] {
		case "serve":
			return a.serve(ctx, args[1:])
		case "mcp":
			return a.mcp(ctx, args[1:])
		case "history":
			return a.history(ctx, args[1:])
		case "version":
			fmt.Fprintln(a.stdout, "transcribe", version)
			return nil
		}
	}
	return a.convert(ctx, args)
}

// commonFlags are accepted by every command
type commonFlags struct {
	config    string
	logLevel  string
	logFormat string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "path to transcribe.yaml config file")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&c.logFormat, "log-format", "", "log format: text or json")
}

// load reads the config file (if any) and applies the logging flags
func (c *commonFlags) load() (transcribe.Config, error) {
	cfg := transcribe.DefaultConfig()
	if c.config != "" {
		loaded, err := transcribe.LoadConfigFile(c.config)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.logFormat != "" {
		cfg.LogFormat = c.logFormat
	}
	return cfg, nil
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// newLogger builds the process logger. Logs go to stderr so that stdout
// stays free for prompts and the MCP stdio transport.
func (a *app) newLogger(cfg transcribe.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var logger *slog.Logger
	if strings.EqualFold(cfg.LogFormat, "json") {
		logger = slog.New(slog.NewJSONHandler(a.stderr, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(a.stderr, opts))
	}
	slog.SetDefault(logger)
	return logger, nil
}

// newPipeline wires the optional history store and OCR client into a
// pipeline. The returned cleanup releases them.
func (a *app) newPipeline(cfg transcribe.Config, logger *slog.Logger) (*transcribe.Pipeline, func(), error) {
	pipe := transcribe.NewPipeline(cfg, logger)
	var closers []func() error

	if cfg.History.DBPath != "" {
		store, err := history.Open(cfg.History.DBPath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, store.Close)
		pipe = pipe.WithHistory(store)
	}

	if cfg.OCR.Enabled {
		client, err := ocr.New(cfg.OCR.Language)
		if err != nil {
			// alt text is optional; pictures fall back to their names
			logger.Warn("ocr unavailable", "error", err)
		} else {
			closers = append(closers, client.Close)
			pipe = pipe.WithAltText(client)
		}
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("cleanup failed", "error", err)
			}
		}
	}
	return pipe, cleanup, nil
}

// convert runs a one-shot conversion, or the interactive flow when no
// source is given
func (a *app) convert(ctx context.Context, args []string) error {
	var (
		common    commonFlags
		in        string
		out       string
		formatSel string
		opSel     string
		precision int
		tolerance float64
		pages     string
		suppress  bool
	)
	fs := a.newFlagSet("transcribe")
	common.register(fs)
	fs.StringVar(&in, "in", "", "source PDF (omit for interactive prompts)")
	fs.StringVar(&out, "out", "", "output file (default output.docx)")
	fs.StringVar(&formatSel, "format", "", "output format: docx, html, markdown, text (or 1-4)")
	fs.StringVar(&opSel, "op", "", "operation: transcription (or 1)")
	fs.IntVar(&precision, "precision", 2, "decimal digits row coordinates are rounded to")
	fs.Float64Var(&tolerance, "tolerance", 0, "join rows whose rounded coordinates differ by at most this much")
	fs.StringVar(&pages, "pages", "", "pages to transcribe, e.g. 1,3,5-7 (default all)")
	fs.BoolVar(&suppress, "suppress-empty-rows", false, "drop table rows with no text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}

	// explicitly set flags override the config file
	var pageErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			cfg.Output = out
		case "format":
			cfg.Format = formatSel
		case "precision":
			cfg.Precision = transcribe.IntPtr(precision)
		case "tolerance":
			cfg.Tolerance = tolerance
		case "suppress-empty-rows":
			cfg.SuppressEmptyRows = suppress
		case "pages":
			cfg.Pages, pageErr = transcribe.ParsePages(pages)
		}
	})
	if pageErr != nil {
		return pageErr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := a.newLogger(cfg)
	if err != nil {
		return err
	}
	pipe, cleanup, err := a.newPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	req := transcribe.Request{
		Source:    in,
		Output:    out,
		Format:    formatSel,
		Operation: opSel,
		Origin:    transcribe.OriginCLI,
	}
	if in == "" {
		var ok bool
		req, ok, err = newPrompter(a.stdin, a.stdout).collect(cfg)
		if err != nil || !ok {
			return err
		}
	} else if ok, err := a.checkOperation(req.Operation); err != nil || !ok {
		return err
	}

	started := a.now()
	res, err := pipe.Convert(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Document saved as %s\n", res.Output)
	if res.Render.Placeholders > 0 {
		fmt.Fprintf(a.stdout, "%d image(s) could not be displayed\n", res.Render.Placeholders)
	}
	fmt.Fprintf(a.stdout, "Elapsed time: %.2f seconds\n", a.now().Sub(started).Seconds())
	return nil
}

// checkOperation reports an unimplemented operation to the user. ok is
// false when there is nothing to run.
func (a *app) checkOperation(sel string) (ok bool, err error) {
	if sel == "" {
		return true, nil
	}
	op, err := format.ParseOperation(sel)
	if err != nil {
		return false, err
	}
	if !op.Supported() {
		fmt.Fprintf(a.stdout, "%s is not implemented yet.\n", menuLabel(op))
		return false, nil
	}
	return true, nil
}
