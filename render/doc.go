// Package render turns a reconstructed [model.Document] into an output
// document.
//
// A [Renderer] walks the document's elements in order and feeds them to a
// [Sink], the format-specific writer. Text and table rows become paragraphs.
// Each image is copied to a scoped temporary file, handed to the sink and
// removed again. An image that cannot be read, stored or embedded is
// replaced by a placeholder paragraph; it never aborts the document.
//
// # Writing Files
//
//	r := render.NewRenderer(render.DefaultConfig(), nil)
//	res, err := r.WriteFile(ctx, doc, "output.docx", format.DOCX)
//
// [Renderer.WriteFile] validates the target before rendering and replaces
// the target atomically, so a failed run never leaves a partial file.
package render
