// Package htmldoc writes HTML documents.
package htmldoc

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Writer builds an HTML document as a node tree
type Writer struct {
	doc  *html.Node
	body *html.Node
}

// NewWriter creates a writer for a document titled title ("" = untitled)
func NewWriter(title string) *Writer {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	if title != "" {
		t := element(atom.Title)
		t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
		head.AppendChild(t)
	}
	root.AppendChild(head)

	body := element(atom.Body)
	root.AppendChild(body)

	return &Writer{doc: doc, body: body}
}

// Paragraph appends a <p>. Newlines become <br> elements.
func (w *Writer) Paragraph(text string) {
	w.body.AppendChild(paragraph(text))
}

// Row appends a table row as <p class="row">
func (w *Writer) Row(text string) {
	p := paragraph(text)
	p.Attr = append(p.Attr, html.Attribute{Key: "class", Val: "row"})
	w.body.AppendChild(p)
}

// Picture inlines the image at path as a data URI. The file is read before
// Picture returns.
func (w *Writer) Picture(path, alt string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return fmt.Errorf("not an image: %s", mime)
	}

	src := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	p := element(atom.P)
	p.AppendChild(element(atom.Img,
		html.Attribute{Key: "src", Val: src},
		html.Attribute{Key: "alt", Val: alt},
	))
	w.body.AppendChild(p)
	return nil
}

// WriteTo renders the document
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	cw := &countingWriter{w: out}
	if err := html.Render(cw, w.doc); err != nil {
		return cw.n, err
	}
	_, err := io.WriteString(cw, "\n")
	return cw.n, err
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func paragraph(text string) *html.Node {
	p := element(atom.P)
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			p.AppendChild(element(atom.Br))
		}
		if line != "" {
			p.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		}
	}
	return p
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
