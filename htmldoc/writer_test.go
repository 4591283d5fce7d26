package htmldoc

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// render encodes w and parses the result back into a node tree
func render(t *testing.T, w *Writer) (string, *html.Node) {
	t.Helper()

	var buf bytes.Buffer
	n, err := w.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo() = %d, buffer has %d", n, buf.Len())
	}

	doc, err := html.Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	return buf.String(), doc
}

// findAll collects elements with the given tag in document order
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func TestWriter_Structure(t *testing.T) {
	w := NewWriter("Quarterly <Report>")
	w.Paragraph("Hello & welcome")
	w.Row("Name  Total")

	out, doc := render(t, w)
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("missing doctype: %q", out[:20])
	}

	titles := findAll(doc, "title")
	if len(titles) != 1 || textOf(titles[0]) != "Quarterly <Report>" {
		t.Errorf("title not preserved")
	}

	paras := findAll(doc, "p")
	if len(paras) != 2 {
		t.Fatalf("got %d paragraphs, want 2", len(paras))
	}
	if textOf(paras[0]) != "Hello & welcome" {
		t.Errorf("paragraph = %q", textOf(paras[0]))
	}
	if getAttr(paras[1], "class") != "row" || textOf(paras[1]) != "Name  Total" {
		t.Errorf("row = %q class=%q", textOf(paras[1]), getAttr(paras[1], "class"))
	}
}

func TestWriter_LineBreaks(t *testing.T) {
	w := NewWriter("")
	w.Paragraph("a\nb")

	_, doc := render(t, w)
	if got := len(findAll(doc, "br")); got != 1 {
		t.Errorf("br count = %d, want 1", got)
	}
	if got := len(findAll(doc, "title")); got != 0 {
		t.Errorf("untitled document has %d title elements", got)
	}
}

func TestWriter_Picture(t *testing.T) {
	var buf bytes.Buffer
	png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2)))
	path := filepath.Join(t.TempDir(), "img.png")
	os.WriteFile(path, buf.Bytes(), 0644)

	w := NewWriter("")
	if err := w.Picture(path, "diagram"); err != nil {
		t.Fatalf("Picture() error = %v", err)
	}

	_, doc := render(t, w)
	imgs := findAll(doc, "img")
	if len(imgs) != 1 {
		t.Fatalf("got %d images", len(imgs))
	}
	if !strings.HasPrefix(getAttr(imgs[0], "src"), "data:image/png;base64,") {
		t.Errorf("src = %.40q", getAttr(imgs[0], "src"))
	}
	if getAttr(imgs[0], "alt") != "diagram" {
		t.Errorf("alt = %q", getAttr(imgs[0], "alt"))
	}
}

func TestWriter_PictureErrors(t *testing.T) {
	w := NewWriter("")
	if err := w.Picture(filepath.Join(t.TempDir(), "missing"), ""); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "text.png")
	os.WriteFile(path, []byte("plain text, not pixels"), 0644)
	if err := w.Picture(path, ""); err == nil {
		t.Error("expected error for non-image data")
	}
}
