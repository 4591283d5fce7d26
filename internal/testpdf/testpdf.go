// Package testpdf builds minimal PDF files for tests.
//
// Usage:
//
//	data := testpdf.Build("BT /F1 12 Tf 72 720 Td (Hello) Tj ET")
//	path := testpdf.WriteFile(t, "BT /F1 12 Tf 72 720 Td (Hello) Tj ET")
//
// Documents that need more than the shared Helvetica font describe their
// extra objects with a Doc:
//
//	doc := testpdf.Doc{Pages: []string{"q 10 0 0 10 0 0 cm /Im1 Do Q"}}
//	doc.Objects = []testpdf.Object{{Dict: "/Type /XObject ...", Stream: pixels}}
//	doc.XObjects = map[string]int{"Im1": 0}
//	data := doc.Bytes()
package testpdf

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
)

// Object is an extra indirect object. When Stream is set the object is a
// stream and Dict must not carry /Length.
type Object struct {
	Dict   string // dictionary body without the << >> delimiters
	Stream []byte
}

// Doc is a PDF with one Letter-sized page per content stream. Every page
// shares a Helvetica font resource /F1 plus the Fonts and XObjects entries,
// which name Objects by index.
type Doc struct {
	Pages    []string
	Objects  []Object
	Fonts    map[string]int
	XObjects map[string]int
}

// Ref returns an indirect reference to Objects[i]
func (d Doc) Ref(i int) string {
	return strconv.Itoa(d.objectNumber(i)) + " 0 R"
}

// objectNumber numbers the catalog 1, the page tree 2, the page and content
// pairs next, then /F1 and the extra objects
func (d Doc) objectNumber(i int) int {
	return 4 + 2*len(d.Pages) + i
}

// resourceDict renders "/Name ref" pairs in name order
func (d Doc) resourceDict(entries map[string]int) string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(" /" + name + " " + d.Ref(entries[name]))
	}
	return b.String()
}

// Bytes assembles the PDF
func (d Doc) Bytes() []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	pageCount := len(d.Pages)
	fontObj := 3 + 2*pageCount
	lastObj := fontObj + len(d.Objects)
	offsets := make([]int, lastObj+1)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, pageCount)
	for i := range d.Pages {
		kids[i] = strconv.Itoa(3+2*i) + " 0 R"
	}
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [" + strings.Join(kids, " ") +
		"] /Count " + strconv.Itoa(pageCount) + " >>\nendobj\n")

	resources := "/Font << /F1 " + strconv.Itoa(fontObj) + " 0 R" + d.resourceDict(d.Fonts) + " >>"
	if len(d.XObjects) > 0 {
		resources += " /XObject <<" + d.resourceDict(d.XObjects) + " >>"
	}

	for i, content := range d.Pages {
		pageNum, contentNum := 3+2*i, 4+2*i

		offsets[pageNum] = b.Len()
		b.WriteString(strconv.Itoa(pageNum) + " 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents " +
			strconv.Itoa(contentNum) + " 0 R /Resources << " + resources + " >> >>\nendobj\n")

		offsets[contentNum] = b.Len()
		writeStream(&b, contentNum, "", []byte(content))
	}

	offsets[fontObj] = b.Len()
	b.WriteString(strconv.Itoa(fontObj) + " 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i, obj := range d.Objects {
		num := d.objectNumber(i)
		offsets[num] = b.Len()
		if obj.Stream != nil {
			writeStream(&b, num, obj.Dict, obj.Stream)
			continue
		}
		b.WriteString(strconv.Itoa(num) + " 0 obj\n<< " + obj.Dict + " >>\nendobj\n")
	}

	xref := b.Len()
	b.WriteString("xref\n0 " + strconv.Itoa(lastObj+1) + "\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= lastObj; i++ {
		off := strconv.Itoa(offsets[i])
		b.WriteString(strings.Repeat("0", 10-len(off)) + off + " 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size " + strconv.Itoa(lastObj+1) + " /Root 1 0 R >>\nstartxref\n")
	b.WriteString(strconv.Itoa(xref))
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}

func writeStream(b *strings.Builder, num int, dict string, data []byte) {
	if dict != "" {
		dict += " "
	}
	b.WriteString(strconv.Itoa(num) + " 0 obj\n<< " + dict + "/Length " + strconv.Itoa(len(data)) + " >>\nstream\n")
	b.Write(data)
	b.WriteString("\nendstream\nendobj\n")
}

// Build assembles a PDF with one Letter-sized page per content stream.
// Every page shares a Helvetica font resource /F1.
func Build(contents ...string) []byte {
	return Doc{Pages: contents}.Bytes()
}

// WriteFile builds a PDF from contents in a test temp directory and
// returns its path
func WriteFile(t testing.TB, contents ...string) string {
	t.Helper()
	return WriteBytes(t, Build(contents...))
}

// WriteBytes writes data as test.pdf in a test temp directory
func WriteBytes(t testing.TB, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.pdf")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write temp PDF: %v", err)
	}
	return path
}
