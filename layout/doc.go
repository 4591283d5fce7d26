// Package layout rebuilds reading order and row structure from positioned
// page fragments.
//
// The pipeline runs one page at a time:
//
//	frags := source.PageFragments(ctx, i)   // unordered, positioned
//	elems := layout.NewPageReconstructor().Reconstruct(i+1, frags)
//
// # Classification
//
// [Classify] tags every fragment as free text, row candidate or image.
// Horizontal line-level text is a row candidate; images are images;
// everything else, including containers the parser could not identify, is
// free text. No fragment is ever dropped.
//
// # Row clustering
//
// [RowClusterer] groups row candidates by [RowKey], the fragment's y0 rounded
// to a fixed number of decimal digits (2 by default). Grouping is exact
// equality on the rounded value, so fragments straddling a rounding boundary
// (100.004 vs 100.006) land in different rows. A tolerance band can be
// configured with [RowConfig].Tolerance; it is off by default.
//
// Within a row, fragments are ordered by x0 and joined with single spaces.
// Rows are emitted top of page first (descending RowKey).
//
// # Page order
//
// [PageReconstructor] emits free text and images in encounter order, then
// every row of the page. Rows are only known once the whole page has been
// scanned, so they never interleave with free content.
//
// # Documents
//
// [Assembler] concatenates page element lists in page order. A failing page
// aborts the whole read; no partial document is returned.
package layout
