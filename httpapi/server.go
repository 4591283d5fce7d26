// Package httpapi serves transcriptions over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /v1/formats
//	POST /v1/transcribe?format=docx&op=transcription&pages=1,2
//	GET  /v1/runs?limit=N
//	GET  /v1/runs/{id}
//
// POST /v1/transcribe takes the PDF as the multipart field "file" and
// responds with the rendered document.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tsawler/transcribe"
	"github.com/tsawler/transcribe/format"
	"github.com/tsawler/transcribe/history"
	"github.com/tsawler/transcribe/reader"
)

// Server is the HTTP API
type Server struct {
	pipe   *transcribe.Pipeline
	logger *slog.Logger
}

// New creates a Server. A nil logger uses slog.Default().
func New(pipe *transcribe.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{pipe: pipe, logger: logger}
}

// Handler returns the chi router serving every route
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/formats", s.handleFormats)
		r.Post("/transcribe", s.handleTranscribe)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{id}", s.handleRun)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed", time.Since(start))
	})
}

func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, transcribe.SupportedSelections())
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := transcribe.Request{
		Format:    q.Get("format"),
		Operation: q.Get("op"),
		Origin:    transcribe.OriginHTTP,
	}
	if req.Format == "" {
		req.Format = format.DOCX.String()
	}
	pages, err := transcribe.ParsePages(q.Get("pages"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Pages = pages

	// selections are checked before the upload is read
	f, err := format.Parse(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Operation != "" {
		op, err := format.ParseOperation(req.Operation)
		if err == nil {
			err = op.Check()
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	maxBytes := s.pipe.Config().HTTP.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", maxBytes))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("multipart field \"file\": %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	req.Source = uploadName(header.Filename)

	rd, err := reader.NewReader(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	defer rd.Close()

	// render fully before the status line is committed
	var buf bytes.Buffer
	res, err := s.pipe.ConvertReader(r.Context(), rd, req, &buf)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	name := strings.TrimSuffix(req.Source, filepath.Ext(req.Source)) + f.Extension()
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Transcribe-Pages", strconv.Itoa(res.Pages))
	w.Header().Set("X-Transcribe-Placeholders", strconv.Itoa(res.Render.Placeholders))
	if res.RunID != "" {
		w.Header().Set("X-Transcribe-Run", res.RunID)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("failed to send document", "source", req.Source, "error", err)
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	store := s.pipe.History()
	if store == nil {
		writeError(w, http.StatusNotFound, errors.New("history is disabled"))
		return
	}

	runs, err := store.List(r.Context(), queryInt(r, "limit", history.DefaultLimit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	store := s.pipe.History()
	if store == nil {
		writeError(w, http.StatusNotFound, errors.New("history is disabled"))
		return
	}

	run, err := store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// statusFor maps pipeline errors to HTTP status codes
// uploadName is the display name of an uploaded file. Names with no stem,
// such as "." or "/", become "document".
func uploadName(filename string) string {
	name := filepath.Base(filename)
	if strings.Trim(strings.TrimSuffix(name, filepath.Ext(name)), `./\`) == "" {
		return "document"
	}
	return name
}

func statusFor(err error) int {
	switch {
	case transcribe.IsSelectionError(err):
		return http.StatusBadRequest
	case errors.Is(err, transcribe.ErrSourceNotFound), errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
