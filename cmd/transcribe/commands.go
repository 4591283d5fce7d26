package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsawler/transcribe/history"
	"github.com/tsawler/transcribe/httpapi"
)

// serve runs the HTTP API until the context is cancelled
func (a *app) serve(ctx context.Context, args []string) error {
	var (
		common commonFlags
		addr   string
		dbPath string
	)
	fs := a.newFlagSet("transcribe serve")
	common.register(fs)
	fs.StringVar(&addr, "addr", "", "listen address (default :8080)")
	fs.StringVar(&dbPath, "db", "", "sqlite database recording runs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.HTTP.Addr = addr
	}
	if dbPath != "" {
		cfg.History.DBPath = dbPath
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

	err = httpapi.New(pipe, logger).ListenAndServe(ctx, cfg.HTTP.Addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// mcp serves the transcribe tools over stdio
func (a *app) mcp(ctx context.Context, args []string) error {
	var common commonFlags
	fs := a.newFlagSet("transcribe mcp")
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
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

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "transcribe",
		Version: version,
	}, nil)
	pipe.RegisterMCP(srv)

	logger.Info("mcp server starting", "transport", "stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

// history prints the most recent runs
func (a *app) history(ctx context.Context, args []string) error {
	var (
		common commonFlags
		dbPath string
		limit  int
	)
	fs := a.newFlagSet("transcribe history")
	common.register(fs)
	fs.StringVar(&dbPath, "db", "", "sqlite database recording runs")
	fs.IntVar(&limit, "limit", history.DefaultLimit, "number of runs to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.History.DBPath = dbPath
	}
	if cfg.History.DBPath == "" {
		return errors.New("history is disabled: set history.db_path or pass -db")
	}

	store, err := history.Open(cfg.History.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	return printRuns(a.stdout, runs)
}

func printRuns(w io.Writer, runs []history.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tORIGIN\tFORMAT\tPAGES\tSOURCE\tOUTPUT")
	for _, r := range runs {
		output := r.Output
		if r.Status == history.StatusError {
			output = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.Status, r.Origin, r.Format, r.Pages, r.Source, output)
	}
	return tw.Flush()
}
