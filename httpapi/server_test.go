package httpapi

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tsawler/transcribe"
	"github.com/tsawler/transcribe/history"
	"github.com/tsawler/transcribe/internal/testpdf"
)

const pageTable = "BT /F1 12 Tf 72 720 Td (Heading) Tj ET " +
	"BT /F1 10 Tf 72 600 Td (Name) Tj 200 0 Td (Total) Tj ET"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, cfg transcribe.Config, withHistory bool) http.Handler {
	t.Helper()
	pipe := transcribe.NewPipeline(cfg, quietLogger())
	if withHistory {
		store, err := history.Open(":memory:")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { store.Close() })
		pipe = pipe.WithHistory(store)
	}
	return New(pipe, quietLogger()).Handler()
}

// uploadRequest builds a multipart POST with data in field
func uploadRequest(t *testing.T, target, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, transcribe.Config{}, false)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body)
	}
}

func TestFormats(t *testing.T) {
	h := newTestServer(t, transcribe.Config{}, false)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/v1/formats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp transcribe.Catalog
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Formats) != 4 || len(resp.Operations) != 4 {
		t.Errorf("catalog = %+v", resp)
	}
}

func TestTranscribe_DOCX(t *testing.T) {
	h := newTestServer(t, transcribe.Config{}, true)

	w := serve(h, uploadRequest(t, "/v1/transcribe", "file", "report.pdf", testpdf.Build(pageTable)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/vnd.openxmlformats") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "report.docx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if w.Header().Get("X-Transcribe-Run") == "" {
		t.Error("missing run id header")
	}

	body := w.Body.Bytes()
	if _, err := zip.NewReader(bytes.NewReader(body), int64(len(body))); err != nil {
		t.Errorf("response is not a DOCX package: %v", err)
	}

	// the run is listed
	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/runs?limit=5", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("runs status = %d", w.Code)
	}
	var runs struct {
		Runs []history.Run `json:"runs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs.Runs) != 1 || runs.Runs[0].Origin != transcribe.OriginHTTP || runs.Runs[0].Source != "report.pdf" {
		t.Fatalf("runs = %+v", runs.Runs)
	}

	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runs.Runs[0].ID, nil))
	if w.Code != http.StatusOK {
		t.Errorf("run status = %d", w.Code)
	}
}

func TestTranscribe_Text(t *testing.T) {
	h := newTestServer(t, transcribe.Config{}, false)

	w := serve(h, uploadRequest(t, "/v1/transcribe?format=text&op=1", "file", "a.pdf", testpdf.Build(pageTable)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if w.Body.String() != "Heading\nName Total\n" {
		t.Errorf("body = %q", w.Body)
	}
}

func TestTranscribe_NamelessUpload(t *testing.T) {
	h := newTestServer(t, transcribe.Config{}, false)

	for _, filename := range []string{".", "/", ".pdf", "dir/.."} {
		w := serve(h, uploadRequest(t, "/v1/transcribe", "file", filename, testpdf.Build(pageTable)))
		if w.Code != http.StatusOK {
			t.Fatalf("%q: status = %d, body = %s", filename, w.Code, w.Body)
		}
		_, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
		if err != nil || params["filename"] != "document.docx" {
			t.Errorf("%q: Content-Disposition = %q", filename, w.Header().Get("Content-Disposition"))
		}
	}
}

func TestUploadName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"report.pdf", "report.pdf"},
		{`C:/scans/q3.pdf`, "q3.pdf"},
		{"", "document"},
		{".", "document"},
		{"/", "document"},
		{"..", "document"},
		{".pdf", "document"},
	}

	for _, tt := range tests {
		if got := uploadName(tt.filename); got != tt.want {
			t.Errorf("uploadName(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestTranscribe_Errors(t *testing.T) {
	pdf := testpdf.Build(pageTable)

	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
	}{
		{"unsupported operation", func(t *testing.T) *http.Request {
			return uploadRequest(t, "/v1/transcribe?op=translation", "file", "a.pdf", pdf)
		}, http.StatusBadRequest},
		{"unknown format", func(t *testing.T) *http.Request {
			return uploadRequest(t, "/v1/transcribe?format=rtf", "file", "a.pdf", pdf)
		}, http.StatusBadRequest},
		{"bad pages", func(t *testing.T) *http.Request {
			return uploadRequest(t, "/v1/transcribe?pages=x", "file", "a.pdf", pdf)
		}, http.StatusBadRequest},
		{"page out of range", func(t *testing.T) *http.Request {
			return uploadRequest(t, "/v1/transcribe?pages=9", "file", "a.pdf", pdf)
		}, http.StatusBadRequest},
		{"missing file field", func(t *testing.T) *http.Request {
			return uploadRequest(t, "/v1/transcribe", "upload", "a.pdf", pdf)
		}, http.StatusBadRequest},
		{"not a pdf", func(t *testing.T) *http.Request {
			return uploadRequest(t, "/v1/transcribe", "file", "a.pdf", []byte("plain text"))
		}, http.StatusUnprocessableEntity},
	}

	h := newTestServer(t, transcribe.Config{}, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, tt.req(t))
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body)
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp["error"] == "" {
				t.Errorf("expected JSON error body, got %s", w.Body)
			}
		})
	}
}

func TestTranscribe_UploadTooLarge(t *testing.T) {
	cfg := transcribe.Config{HTTP: transcribe.HTTPConfig{MaxUploadBytes: 64}}
	h := newTestServer(t, cfg, false)

	w := serve(h, uploadRequest(t, "/v1/transcribe", "file", "a.pdf", testpdf.Build(pageTable)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestRuns_HistoryDisabled(t *testing.T) {
	h := newTestServer(t, transcribe.Config{}, false)

	for _, path := range []string{"/v1/runs", "/v1/runs/abc"} {
		w := serve(h, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, w.Code)
		}
	}
}

func TestRuns_UnknownID(t *testing.T) {
	h := newTestServer(t, transcribe.Config{}, true)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/v1/runs/does-not-exist", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
