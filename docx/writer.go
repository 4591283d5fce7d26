package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrUnsupportedImage is returned by Picture for data that is not a
// decodable image
var ErrUnsupportedImage = errors.New("docx: unsupported image")

// DefaultImageWidth is the picture display width in inches
const DefaultImageWidth = 4.0

type mediaPart struct {
	name  string // file name under word/media
	relID string
	data  []byte
}

// Writer builds a DOCX document in memory
type Writer struct {
	widthEMU int64
	title    string
	created  time.Time

	body  bytes.Buffer
	media []mediaPart
}

// NewWriter creates a writer placing pictures at widthInches
// (<= 0 uses DefaultImageWidth)
func NewWriter(widthInches float64) *Writer {
	if widthInches <= 0 {
		widthInches = DefaultImageWidth
	}
	return &Writer{
		widthEMU: int64(widthInches * emuPerInch),
		created:  time.Now().UTC(),
	}
}

// SetTitle sets the document title stored in the core properties
func (w *Writer) SetTitle(title string) {
	w.title = title
}

// Paragraph appends a paragraph. Newlines become line breaks and tabs
// become tab stops.
func (w *Writer) Paragraph(text string) {
	w.body.WriteString("<w:p>")
	if text != "" {
		w.body.WriteString("<w:r>")
		for i, line := range strings.Split(text, "\n") {
			if i > 0 {
				w.body.WriteString("<w:br/>")
			}
			for j, part := range strings.Split(line, "\t") {
				if j > 0 {
					w.body.WriteString("<w:tab/>")
				}
				if part == "" {
					continue
				}
				w.body.WriteString(`<w:t xml:space="preserve">`)
				escape(&w.body, part)
				w.body.WriteString("</w:t>")
			}
		}
		w.body.WriteString("</w:r>")
	}
	w.body.WriteString("</w:p>")
}

// Picture embeds the image at path in its own paragraph. The file is read
// before Picture returns.
func (w *Writer) Picture(path, alt string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	return w.PictureBytes(data, alt)
}

// PictureBytes embeds an encoded image in its own paragraph
func (w *Writer) PictureBytes(data []byte, alt string) error {
	cfg, kind, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: empty image %dx%d", ErrUnsupportedImage, cfg.Width, cfg.Height)
	}

	if kind == "webp" {
		data, err = webpToPNG(data)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
		}
		kind = "png"
	}
	if _, ok := mediaTypes[kind]; !ok {
		return fmt.Errorf("%w: format %s", ErrUnsupportedImage, kind)
	}

	n := len(w.media) + 1
	part := mediaPart{
		name:  fmt.Sprintf("image%d.%s", n, kind),
		relID: fmt.Sprintf("rIdImage%d", n),
		data:  data,
	}
	w.media = append(w.media, part)

	cx := w.widthEMU
	cy := cx * int64(cfg.Height) / int64(cfg.Width)
	w.writeDrawing(n, part, alt, cx, cy)
	return nil
}

func (w *Writer) writeDrawing(id int, part mediaPart, alt string, cx, cy int64) {
	b := &w.body
	fmt.Fprintf(b, `<w:p><w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/><wp:docPr id="%d" name="Picture %d" descr="`, cx, cy, id, id)
	escape(b, alt)
	b.WriteString(`"/><wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`)
	fmt.Fprintf(b, `<a:graphic><a:graphicData uri="%s"><pic:pic>`, nsPic)
	fmt.Fprintf(b, `<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`, id, part.name)
	fmt.Fprintf(b, `<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, part.relID)
	fmt.Fprintf(b, `<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, cx, cy)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr></pic:pic></a:graphicData></a:graphic>`)
	b.WriteString(`</wp:inline></w:drawing></w:r></w:p>`)
}

// WriteTo encodes the package as a ZIP archive
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	cw := &countingWriter{w: out}
	zw := zip.NewWriter(cw)

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", w.contentTypes()},
		{"_rels/.rels", packageRels()},
		{"docProps/core.xml", w.coreProperties()},
		{"word/document.xml", w.document()},
		{"word/_rels/document.xml.rels", w.documentRels()},
	}
	for _, p := range parts {
		if err := writePart(zw, p.name, p.data, zip.Deflate); err != nil {
			return cw.n, err
		}
	}
	for _, m := range w.media {
		// media is already compressed
		if err := writePart(zw, "word/media/"+m.name, m.data, zip.Store); err != nil {
			return cw.n, err
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finish archive: %w", err)
	}
	return cw.n, nil
}

func writePart(zw *zip.Writer, name string, data []byte, method uint16) error {
	f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (w *Writer) document() []byte {
	var b bytes.Buffer
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<w:document xmlns:w="%s" xmlns:r="%s" xmlns:wp="%s" xmlns:a="%s" xmlns:pic="%s"><w:body>`,
		nsW, nsR, nsWP, nsA, nsPic)
	b.Write(w.body.Bytes())
	b.WriteString(sectionProperties)
	b.WriteString(`</w:body></w:document>`)
	return b.Bytes()
}

func (w *Writer) contentTypes() []byte {
	used := map[string]bool{}
	for _, m := range w.media {
		used[m.name[strings.LastIndexByte(m.name, '.')+1:]] = true
	}
	exts := make([]string, 0, len(used))
	for ext := range used {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	var b bytes.Buffer
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<Types xmlns="%s">`, nsContentTypes)
	fmt.Fprintf(&b, `<Default Extension="rels" ContentType="%s"/>`, ctRels)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	for _, ext := range exts {
		fmt.Fprintf(&b, `<Default Extension="%s" ContentType="%s"/>`, ext, mediaTypes[ext])
	}
	fmt.Fprintf(&b, `<Override PartName="/word/document.xml" ContentType="%s"/>`, ctDocument)
	fmt.Fprintf(&b, `<Override PartName="/docProps/core.xml" ContentType="%s"/>`, ctCore)
	b.WriteString(`</Types>`)
	return b.Bytes()
}

func packageRels() []byte {
	var b bytes.Buffer
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<Relationships xmlns="%s">`, nsRelationships)
	fmt.Fprintf(&b, `<Relationship Id="rId1" Type="%s" Target="word/document.xml"/>`, relOfficeDocument)
	fmt.Fprintf(&b, `<Relationship Id="rId2" Type="%s" Target="docProps/core.xml"/>`, relCoreProperties)
	b.WriteString(`</Relationships>`)
	return b.Bytes()
}

func (w *Writer) documentRels() []byte {
	var b bytes.Buffer
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<Relationships xmlns="%s">`, nsRelationships)
	for _, m := range w.media {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="media/%s"/>`, m.relID, relImage, m.name)
	}
	b.WriteString(`</Relationships>`)
	return b.Bytes()
}

func (w *Writer) coreProperties() []byte {
	var b bytes.Buffer
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<cp:coreProperties xmlns:cp="%s" xmlns:dc="%s" xmlns:dcterms="%s" xmlns:xsi="%s">`,
		nsCP, nsDC, nsDCT, nsXSI)
	if w.title != "" {
		b.WriteString("<dc:title>")
		escape(&b, w.title)
		b.WriteString("</dc:title>")
	}
	b.WriteString("<dc:creator>transcribe</dc:creator>")
	fmt.Fprintf(&b, `<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`,
		w.created.Format(time.RFC3339))
	b.WriteString(`</cp:coreProperties>`)
	return b.Bytes()
}

func webpToPNG(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// escape writes s with XML special characters escaped. Characters that are
// not allowed in XML are replaced with U+FFFD.
func escape(b *bytes.Buffer, s string) {
	_ = xml.EscapeText(b, []byte(s))
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
