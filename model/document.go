package model

import "strings"

// Document is the ordered element list for a whole source file
type Document struct {
	// Source is the path the document was read from, if any
	Source string

	// PageCount is the number of pages that were scanned
	PageCount int

	// Elements in rendering order
	Elements []Element
}

// NewDocument creates a new empty document
func NewDocument(source string) *Document {
	return &Document{
		Source:   source,
		Elements: make([]Element, 0),
	}
}

// Append adds a page's elements to the end of the document
func (d *Document) Append(elems ...Element) {
	d.Elements = append(d.Elements, elems...)
}

// Len returns the number of elements
func (d *Document) Len() int {
	return len(d.Elements)
}

// Stats counts elements by type
type Stats struct {
	Text      int
	TableRows int
	Images    int
}

// Total returns the total number of counted elements
func (s Stats) Total() int {
	return s.Text + s.TableRows + s.Images
}

// Stats returns the element counts for the document
func (d *Document) Stats() Stats {
	var s Stats
	for _, e := range d.Elements {
		switch e.(type) {
		case *Text:
			s.Text++
		case *TableRow:
			s.TableRows++
		case *Image:
			s.Images++
		}
	}
	return s
}

// PlainText returns the text of all Text and TableRow elements, one per line.
// Images are skipped.
func (d *Document) PlainText() string {
	var sb strings.Builder
	for _, e := range d.Elements {
		switch el := e.(type) {
		case *Text:
			sb.WriteString(strings.TrimRight(el.Content, "\n"))
			sb.WriteByte('\n')
		case *TableRow:
			sb.WriteString(el.Content)
			sb.WriteByte('\n')
		case *Image:
		}
	}
	return sb.String()
}
