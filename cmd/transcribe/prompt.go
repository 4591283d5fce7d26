package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tsawler/transcribe"
	"github.com/tsawler/transcribe/format"
)

// errNoInput is returned when stdin closes before a prompt is answered
var errNoInput = errors.New("no input")

// prompter runs the interactive flow on a pair of streams
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(r), out: w}
}

// collect asks for the source, operation, format and output name. ok is
// false when the chosen operation is not implemented; the user has been
// told and there is nothing to run.
func (p *prompter) collect(cfg transcribe.Config) (req transcribe.Request, ok bool, err error) {
	req.Origin = transcribe.OriginCLI

	for req.Source == "" {
		if req.Source, err = p.ask("Enter the path of the PDF file: "); err != nil {
			return req, false, err
		}
	}

	op, err := p.chooseOperation()
	if err != nil {
		return req, false, err
	}
	if !op.Supported() {
		fmt.Fprintf(p.out, "%s is not implemented yet.\n", menuLabel(op))
		return req, false, nil
	}
	req.Operation = op.String()

	f, err := p.chooseFormat(cfg)
	if err != nil {
		return req, false, err
	}
	req.Format = f.String()

	def := defaultOutput(cfg.Output, f)
	name, err := p.ask(fmt.Sprintf("Output file name [%s]: ", def))
	if err != nil {
		return req, false, err
	}
	if name == "" {
		name = def
	} else if filepath.Ext(name) == "" {
		name += f.Extension()
	}
	req.Output = name
	return req, true, nil
}

func (p *prompter) chooseOperation() (format.Operation, error) {
	fmt.Fprintln(p.out, "Choose an operation:")
	for i, op := range format.Operations {
		label := menuLabel(op)
		if !op.Supported() {
			label += " (TBD)"
		}
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, label)
	}
	for {
		sel, err := p.ask("Selection: ")
		if err != nil {
			return 0, err
		}
		op, err := format.ParseOperation(sel)
		if err == nil {
			return op, nil
		}
		fmt.Fprintf(p.out, "Invalid selection %q.\n", sel)
	}
}

// chooseFormat offers the output formats; an empty answer keeps the
// configured format, or DOCX
func (p *prompter) chooseFormat(cfg transcribe.Config) (format.Format, error) {
	def, err := cfg.OutputFormat()
	if err != nil {
		def = format.DOCX
	}

	fmt.Fprintln(p.out, "Choose an output format:")
	for i, f := range format.Formats {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, f)
	}
	for {
		sel, err := p.ask(fmt.Sprintf("Selection [%s]: ", def))
		if err != nil {
			return 0, err
		}
		if sel == "" {
			return def, nil
		}
		f, err := format.Parse(sel)
		if err == nil {
			return f, nil
		}
		fmt.Fprintf(p.out, "Invalid selection %q.\n", sel)
	}
}

// ask prints label and returns the trimmed answer
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		fmt.Fprintln(p.out)
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func menuLabel(op format.Operation) string {
	switch op {
	case format.Transcription:
		return "Transcription"
	case format.Translation:
		return "Translation"
	case format.Summary:
		return "Summary"
	default:
		return "New features"
	}
}

func defaultOutput(configured string, f format.Format) string {
	if configured == "" {
		configured = transcribe.DefaultOutput
	}
	if format.Detect(configured) == f {
		return configured
	}
	return strings.TrimSuffix(configured, filepath.Ext(configured)) + f.Extension()
}
