package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tsawler/transcribe"
	"github.com/tsawler/transcribe/format"
	"github.com/tsawler/transcribe/internal/testpdf"
)

const pageTable = "BT /F1 12 Tf 72 720 Td (Heading) Tj ET " +
	"BT /F1 10 Tf 72 600 Td (Name) Tj 200 0 Td (Total) Tj ET"

func newTestApp(stdin string) (*app, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &app{
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
		now: func() time.Time {
			clock = clock.Add(1500 * time.Millisecond)
			return clock
		},
	}, &stdout, &stderr
}

func TestPrompter_Collect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cfg   transcribe.Config
		want  transcribe.Request
	}{
		{
			name:  "defaults",
			input: "in.pdf\n1\n\n\n",
			cfg:   transcribe.DefaultConfig(),
			want:  transcribe.Request{Source: "in.pdf", Operation: "transcription", Format: "DOCX", Output: "output.docx"},
		},
		{
			name:  "markdown swaps the default extension",
			input: "in.pdf\n1\n3\n\n",
			cfg:   transcribe.DefaultConfig(),
			want:  transcribe.Request{Source: "in.pdf", Operation: "transcription", Format: "Markdown", Output: "output.md"},
		},
		{
			name:  "output name without extension",
			input: "\nin.pdf\ntranscription\nhtml\nreport\n",
			cfg:   transcribe.DefaultConfig(),
			want:  transcribe.Request{Source: "in.pdf", Operation: "transcription", Format: "HTML", Output: "report.html"},
		},
		{
			name:  "invalid selections are asked again",
			input: "in.pdf\n9\n1\npdf\n4\nnotes.log\n",
			cfg:   transcribe.DefaultConfig(),
			want:  transcribe.Request{Source: "in.pdf", Operation: "transcription", Format: "Text", Output: "notes.log"},
		},
		{
			name:  "configured format is the default",
			input: "in.pdf\n1\n\n\n",
			cfg:   transcribe.Config{Output: "out.txt"},
			want:  transcribe.Request{Source: "in.pdf", Operation: "transcription", Format: "Text", Output: "out.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			req, ok, err := newPrompter(strings.NewReader(tt.input), &out).collect(tt.cfg)
			if err != nil {
				t.Fatalf("collect() error = %v", err)
			}
			if !ok {
				t.Fatal("collect() ok = false")
			}
			tt.want.Origin = transcribe.OriginCLI
			if req.Source != tt.want.Source || req.Operation != tt.want.Operation ||
				req.Format != tt.want.Format || req.Output != tt.want.Output || req.Origin != tt.want.Origin {
				t.Errorf("collect() = %+v, want %+v", req, tt.want)
			}
		})
	}
}

func TestPrompter_Unimplemented(t *testing.T) {
	tests := []struct {
		sel  string
		want string
	}{
		{"2", "Translation is not implemented yet."},
		{"3", "Summary is not implemented yet."},
		{"4", "New features is not implemented yet."},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		_, ok, err := newPrompter(strings.NewReader("in.pdf\n"+tt.sel+"\n"), &out).collect(transcribe.DefaultConfig())
		if err != nil || ok {
			t.Errorf("selection %s: ok = %v, err = %v", tt.sel, ok, err)
		}
		if !strings.Contains(out.String(), tt.want) {
			t.Errorf("selection %s: output %q missing %q", tt.sel, out.String(), tt.want)
		}
	}
}

func TestPrompter_MenuListsReservedOperations(t *testing.T) {
	var out bytes.Buffer
	newPrompter(strings.NewReader("in.pdf\n2\n"), &out).collect(transcribe.DefaultConfig())

	for _, want := range []string{"1. Transcription\n", "2. Translation (TBD)", "3. Summary (TBD)", "4. New features (TBD)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("menu missing %q:\n%s", want, out.String())
		}
	}
}

func TestPrompter_EOF(t *testing.T) {
	var out bytes.Buffer
	_, _, err := newPrompter(strings.NewReader("in.pdf\n"), &out).collect(transcribe.DefaultConfig())
	if !errors.Is(err, errNoInput) {
		t.Errorf("error = %v, want errNoInput", err)
	}
}

func TestRun_OneShot(t *testing.T) {
	src := testpdf.WriteFile(t, pageTable)
	out := filepath.Join(t.TempDir(), "result.txt")

	a, stdout, _ := newTestApp("")
	if err := a.run(context.Background(), []string{"-in", src, "-out", out, "-log-level", "error"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Heading\nName Total\n" {
		t.Errorf("output = %q", data)
	}
	if !strings.Contains(stdout.String(), "Document saved as "+out) {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stdout.String(), "Elapsed time: 1.50 seconds") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRun_Interactive(t *testing.T) {
	src := testpdf.WriteFile(t, pageTable)
	out := filepath.Join(t.TempDir(), "page")

	a, stdout, _ := newTestApp(src + "\n1\n3\n" + out + "\n")
	if err := a.run(context.Background(), []string{"-log-level", "error"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if _, err := os.Stat(out + ".md"); err != nil {
		t.Fatalf("markdown output missing: %v", err)
	}
	if !strings.Contains(stdout.String(), "Document saved as "+out+".md") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRun_UnimplementedOperation(t *testing.T) {
	a, stdout, _ := newTestApp("")
	err := a.run(context.Background(), []string{"-in", "missing.pdf", "-op", "summary"})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Summary is not implemented yet.") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRun_Errors(t *testing.T) {
	src := testpdf.WriteFile(t, pageTable)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"stray argument", []string{"-in", src, "extra"}},
		{"bad pages", []string{"-in", src, "-pages", "x"}},
		{"bad precision", []string{"-in", src, "-precision", "11"}},
		{"bad format", []string{"-in", src, "-format", "rtf"}},
		{"bad log level", []string{"-in", src, "-log-level", "loud"}},
		{"missing source", []string{"-in", filepath.Join(t.TempDir(), "none.pdf")}},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "none.yaml"), "-in", src}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, _ := newTestApp("")
			if err := a.run(context.Background(), tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRun_History(t *testing.T) {
	dir := t.TempDir()
	src := testpdf.WriteFile(t, pageTable)
	cfgPath := filepath.Join(dir, "transcribe.yaml")
	cfgYAML := "log_level: error\nhistory:\n  db_path: " + filepath.Join(dir, "runs.db") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	a, _, _ := newTestApp("")
	out := filepath.Join(dir, "out.html")
	if err := a.run(context.Background(), []string{"-config", cfgPath, "-in", src, "-out", out}); err != nil {
		t.Fatalf("convert error = %v", err)
	}

	a, stdout, _ := newTestApp("")
	if err := a.run(context.Background(), []string{"history", "-config", cfgPath, "-limit", "5"}); err != nil {
		t.Fatalf("history error = %v", err)
	}
	for _, want := range []string{"STATUS", "success", "cli", "HTML", out} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("history output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRun_HistoryDisabled(t *testing.T) {
	a, _, _ := newTestApp("")
	if err := a.run(context.Background(), []string{"history"}); err == nil {
		t.Error("expected error without a database")
	}
}

func TestRun_HistoryEmpty(t *testing.T) {
	a, stdout, _ := newTestApp("")
	db := filepath.Join(t.TempDir(), "runs.db")
	if err := a.run(context.Background(), []string{"history", "-db", db}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "No runs recorded.") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRun_Version(t *testing.T) {
	a, stdout, _ := newTestApp("")
	if err := a.run(context.Background(), []string{"version"}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(stdout.String()) != "transcribe "+version {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestDefaultOutput(t *testing.T) {
	tests := []struct {
		configured string
		sel        string
		want       string
	}{
		{"", "docx", "output.docx"},
		{"output.docx", "text", "output.txt"},
		{"notes.md", "markdown", "notes.md"},
		{"dir/report", "html", "dir/report.html"},
	}

	for _, tt := range tests {
		f, err := format.Parse(tt.sel)
		if err != nil {
			t.Fatal(err)
		}
		if got := defaultOutput(tt.configured, f); got != tt.want {
			t.Errorf("defaultOutput(%q, %s) = %q, want %q", tt.configured, f, got, tt.want)
		}
	}
}
