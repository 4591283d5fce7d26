package model

// ElementType represents the type of document element
type ElementType int

const (
	ElementTypeText ElementType = iota
	ElementTypeTableRow
	ElementTypeImage
)

func (et ElementType) String() string {
	switch et {
	case ElementTypeText:
		return "Text"
	case ElementTypeTableRow:
		return "TableRow"
	case ElementTypeImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// Element is the interface for all document elements. The set of
// implementations is closed: *Text, *TableRow and *Image.
type Element interface {
	Type() ElementType
	BoundingBox() BBox
	PageNumber() int
	element()
}

// Text is a free-text element, emitted in encounter order.
type Text struct {
	Content string
	Page    int
	BBox    BBox
}

func (t *Text) Type() ElementType { return ElementTypeText }
func (t *Text) BoundingBox() BBox { return t.BBox }
func (t *Text) PageNumber() int   { return t.Page }
func (t *Text) element()          {}

// TableRow is a single reconstructed row: the trimmed text of horizontally
// aligned fragments joined left to right.
type TableRow struct {
	Content string
	Page    int
	BBox    BBox
	// Cells is the number of fragments joined into Content.
	Cells int
}

func (r *TableRow) Type() ElementType { return ElementTypeTableRow }
func (r *TableRow) BoundingBox() BBox { return r.BBox }
func (r *TableRow) PageNumber() int   { return r.Page }
func (r *TableRow) element()          {}

// Image is an embedded picture.
type Image struct {
	Payload *ImagePayload
	Page    int
	BBox    BBox
}

func (i *Image) Type() ElementType { return ElementTypeImage }
func (i *Image) BoundingBox() BBox { return i.BBox }
func (i *Image) PageNumber() int   { return i.Page }
func (i *Image) element()          {}

// Name returns the payload's suggested name, or "" when there is none.
func (i *Image) Name() string {
	if i.Payload == nil {
		return ""
	}
	return i.Payload.Name
}
