// Package model provides the document model produced by layout
// reconstruction and consumed by the renderers.
//
// # Geometry
//
// [BBox] describes an axis-aligned rectangle in PDF page space (origin at
// the bottom-left corner, Y growing upwards). [Matrix] is the 2D affine
// transform used by content-stream interpretation.
//
// # Fragments
//
// A [Fragment] is one positioned unit reported by the page parser: a run of
// text or an image. Its [Container] records what kind of page object held it,
// which drives classification in the layout package.
//
// # Elements
//
// [Element] is a closed sum type with exactly three implementations:
//
//   - [Text]: free-flowing text emitted in encounter order
//   - [TableRow]: a reconstructed row of horizontally aligned fragments
//   - [Image]: an embedded picture with its payload
//
// Consumers switch on the concrete type; the unexported marker method keeps
// other packages from adding variants.
//
// # Documents
//
// A [Document] is the ordered element list for a whole source file.
// Insertion order is rendering order.
package model
