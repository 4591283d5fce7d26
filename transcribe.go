// Package transcribe rebuilds a linear, typed document from the positioned
// content of a PDF and renders it as DOCX, HTML, Markdown or plain text.
//
// Basic usage:
//
//	res, err := transcribe.Open("report.pdf").
//	    WriteFile(ctx, "report.docx", format.DOCX)
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println("wrote", res.Path)
//
// With options:
//
//	doc, err := transcribe.Open("report.pdf").
//	    Pages(1, 2).
//	    Precision(1).
//	    Tolerance(0.5).
//	    Document(ctx)
//
// Text fragments are grouped into rows by their rounded bottom edge; rows
// become TableRow elements ordered top to bottom, after the page's free text
// and images. For conversions driven by a Config (the CLI, the HTTP API and
// the MCP tools) use Pipeline.
package transcribe

import (
	"github.com/tsawler/transcribe/reader"
)

// Open returns an Extractor for the PDF at filename. The file is opened by
// the first terminal operation (Document, Text, WriteFile, ...) and closed
// when it returns.
//
// Example:
//
//	doc, err := transcribe.Open("document.pdf").Document(ctx)
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromReader creates an Extractor from an already-opened reader.Reader.
// The caller is responsible for closing the reader.
//
// Example:
//
//	r, err := reader.NewReader(bytes.NewReader(data))
//	if err != nil {
//	    // handle error
//	}
//	defer r.Close()
//	doc, err := transcribe.FromReader(r).Document(ctx)
func FromReader(r *reader.Reader) *Extractor {
	return &Extractor{
		reader:       r,
		ownsReader:   false,
		readerOpened: true,
		options:      defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := transcribe.Must(transcribe.Open("document.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
