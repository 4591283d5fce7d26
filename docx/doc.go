// Package docx writes Microsoft Word (.docx) documents.
//
// A [Writer] collects paragraphs and pictures in order and encodes them as
// a WordprocessingML package: a ZIP archive holding word/document.xml, the
// embedded media and the relationship and content-type parts Word needs to
// open it.
//
//	w := docx.NewWriter(4) // pictures 4 inches wide
//	w.Paragraph("Hello")
//	if err := w.Picture("chart.png", "Quarterly chart"); err != nil {
//	    // the image could not be decoded
//	}
//	w.WriteTo(f)
//
// Pictures keep their aspect ratio. PNG, JPEG, GIF, BMP and TIFF images are
// embedded as-is; WebP images are converted to PNG.
package docx
