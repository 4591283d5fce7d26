package layout

import "github.com/tsawler/transcribe/model"

// PageReconstructor turns one page's fragments into its ordered element list
type PageReconstructor struct {
	rows *RowClusterer
}

// NewPageReconstructor creates a reconstructor with the default row clusterer
func NewPageReconstructor() *PageReconstructor {
	return &PageReconstructor{rows: NewRowClusterer()}
}

// NewPageReconstructorWithClusterer creates a reconstructor using rows
func NewPageReconstructorWithClusterer(rows *RowClusterer) *PageReconstructor {
	if rows == nil {
		rows = NewRowClusterer()
	}
	return &PageReconstructor{rows: rows}
}

// Reconstruct scans a page once and returns its elements: free text and
// images in their combined encounter order, followed by every clustered row
// from the top of the page down. page is the 1-indexed page number recorded
// on each element. An empty page yields an empty slice.
func (p *PageReconstructor) Reconstruct(page int, fragments []model.Fragment) []model.Element {
	elems := make([]model.Element, 0, len(fragments))
	if len(fragments) == 0 {
		return elems
	}

	var candidates []Classified
	for _, cf := range ClassifyPage(fragments) {
		switch cf.Kind {
		case KindFreeText:
			elems = append(elems, &model.Text{
				Content: cf.Text,
				Page:    page,
				BBox:    cf.BBox,
			})
		case KindImage:
			elems = append(elems, &model.Image{
				Payload: cf.Image,
				Page:    page,
				BBox:    cf.BBox,
			})
		case KindRowCandidate:
			candidates = append(candidates, cf)
		}
	}

	for _, row := range p.rows.Cluster(candidates) {
		elems = append(elems, &model.TableRow{
			Content: row.Text(),
			Page:    page,
			BBox:    row.BBox,
			Cells:   len(row.Fragments),
		})
	}

	return elems
}
