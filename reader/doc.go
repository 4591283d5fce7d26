// Package reader turns PDF pages into positioned fragments.
//
// Parsing, decryption, cross-reference handling and stream decoding are
// delegated to pdfcpu. This package interprets each page's content stream
// and reports what was drawn where: text runs with the box they occupy and
// images with the area they cover.
//
// # Opening PDF Files
//
//	r, err := reader.Open("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
// A missing or unreadable file is reported as [ErrNotFound].
//
// # Fragments
//
// [Reader.PageFragments] returns the fragments of one page (0-based) in
// content-stream order. Each text fragment covers one line segment of a text
// object: a new fragment starts whenever the text position moves to a new
// line. Upright text is reported as [model.ContainerTextLine]; rotated or
// sheared text as [model.ContainerTextBlock].
//
// # Limitations
//
// Glyph widths are estimated from the font size rather than font metrics,
// ToUnicode maps are not applied, and form XObjects are not descended into.
package reader
