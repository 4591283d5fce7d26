package model

import (
	"errors"
	"io"
	"math"
	"testing"
)

// ============================================================================
// BBox Tests
// ============================================================================

func TestNewBBoxFromCorners(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 float64
		want           BBox
	}{
		{"normal", 10, 20, 50, 70, BBox{10, 20, 40, 50}},
		{"reversed", 50, 70, 10, 20, BBox{10, 20, 40, 50}},
		{"degenerate", 10, 10, 10, 10, BBox{10, 10, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewBBoxFromCorners(tt.x0, tt.y0, tt.x1, tt.y1)
			if got != tt.want {
				t.Errorf("NewBBoxFromCorners() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBBoxEdges(t *testing.T) {
	bbox := NewBBox(10, 20, 100, 50)

	if bbox.Left() != 10 {
		t.Errorf("Left() = %v, want 10", bbox.Left())
	}
	if bbox.Right() != 110 {
		t.Errorf("Right() = %v, want 110", bbox.Right())
	}
	if bbox.Bottom() != 20 {
		t.Errorf("Bottom() = %v, want 20", bbox.Bottom())
	}
	if bbox.Top() != 70 {
		t.Errorf("Top() = %v, want 70", bbox.Top())
	}
}

func TestBBoxUnion(t *testing.T) {
	a := NewBBox(0, 0, 10, 10)
	b := NewBBox(5, -5, 20, 5)

	got := a.Union(b)
	want := BBox{0, -5, 25, 15}
	if got != want {
		t.Errorf("Union() = %+v, want %+v", got, want)
	}
}

// ============================================================================
// Matrix Tests
// ============================================================================

func TestMatrixTransform(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		p    Point
		want Point
	}{
		{"identity", Identity(), Point{3, 4}, Point{3, 4}},
		{"translate", Translate(10, 20), Point{1, 1}, Point{11, 21}},
		{"scale", Matrix{2, 0, 0, 3, 0, 0}, Point{1, 1}, Point{2, 3}},
		{"rotate 90", Matrix{0, 1, -1, 0, 0, 0}, Point{1, 0}, Point{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Transform(tt.p)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("Transform() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMatrixMultiply(t *testing.T) {
	// Scale then translate: the translation is not scaled
	m := Matrix{2, 0, 0, 2, 0, 0}.Multiply(Translate(10, 10))
	got := m.Transform(Point{1, 1})
	if got.X != 12 || got.Y != 12 {
		t.Errorf("Multiply() point = %+v, want {12 12}", got)
	}
}

func TestMatrixIsUpright(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		want bool
	}{
		{"identity", Identity(), true},
		{"scaled", Matrix{12, 0, 0, 12, 72, 700}, true},
		{"rotated", Matrix{0, 1, -1, 0, 0, 0}, false},
		{"mirrored", Matrix{-1, 0, 0, 1, 0, 0}, false},
		{"sheared", Matrix{1, 0, 0.3, 1, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.IsUpright(); got != tt.want {
				t.Errorf("IsUpright() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatrixScales(t *testing.T) {
	m := Matrix{0, 12, -12, 0, 0, 0}
	if got := m.VerticalScale(); math.Abs(got-12) > 1e-9 {
		t.Errorf("VerticalScale() = %v, want 12", got)
	}
	if got := m.HorizontalScale(); math.Abs(got-12) > 1e-9 {
		t.Errorf("HorizontalScale() = %v, want 12", got)
	}
}

func TestBBoxOfUnitSquare(t *testing.T) {
	m := Matrix{100, 0, 0, 50, 72, 600}
	got := m.BBoxOfUnitSquare()
	want := BBox{72, 600, 100, 50}
	if got != want {
		t.Errorf("BBoxOfUnitSquare() = %+v, want %+v", got, want)
	}
}

// ============================================================================
// Fragment Tests
// ============================================================================

func TestContainerString(t *testing.T) {
	tests := []struct {
		c    Container
		want string
	}{
		{ContainerUnknown, "unknown"},
		{ContainerTextLine, "text-line"},
		{ContainerTextBlock, "text-block"},
		{ContainerImage, "image"},
		{Container(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Container(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestImagePayloadOpen(t *testing.T) {
	p := NewImagePayload("Im1.png", []byte{1, 2, 3})
	r, err := p.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, _ := io.ReadAll(r)
	if len(data) != 3 {
		t.Errorf("read %d bytes, want 3", len(data))
	}
	if p.Size() != 3 {
		t.Errorf("Size() = %d, want 3", p.Size())
	}
}

func TestImagePayloadOpenFailures(t *testing.T) {
	readErr := errors.New("corrupt stream")

	tests := []struct {
		name    string
		payload *ImagePayload
		target  error
	}{
		{"nil payload", nil, ErrNoImageData},
		{"empty data", NewImagePayload("Im1", nil), ErrNoImageData},
		{"read failure", NewFailedImagePayload("Im2", readErr), readErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.payload.Open()
			if !errors.Is(err, tt.target) {
				t.Errorf("Open() error = %v, want %v", err, tt.target)
			}
		})
	}
}

// ============================================================================
// Document Tests
// ============================================================================

func TestDocumentAppendAndStats(t *testing.T) {
	doc := NewDocument("in.pdf")
	doc.Append(&Text{Content: "Hello"}, &Image{Payload: NewImagePayload("a.png", []byte{1})})
	doc.Append(&TableRow{Content: "A B", Cells: 2})

	if doc.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", doc.Len())
	}
	stats := doc.Stats()
	if stats.Text != 1 || stats.TableRows != 1 || stats.Images != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if stats.Total() != 3 {
		t.Errorf("Total() = %d, want 3", stats.Total())
	}
}

func TestDocumentPlainText(t *testing.T) {
	doc := NewDocument("")
	doc.Append(&Text{Content: "Hello\n"}, &Image{}, &TableRow{Content: "Total 42"})

	want := "Hello\nTotal 42\n"
	if got := doc.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

func TestElementTypes(t *testing.T) {
	elems := []struct {
		e    Element
		want ElementType
		name string
	}{
		{&Text{Page: 1}, ElementTypeText, "Text"},
		{&TableRow{Page: 2}, ElementTypeTableRow, "TableRow"},
		{&Image{Page: 3}, ElementTypeImage, "Image"},
	}
	for i, tt := range elems {
		if tt.e.Type() != tt.want {
			t.Errorf("Type() = %v, want %v", tt.e.Type(), tt.want)
		}
		if tt.e.Type().String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.e.Type().String(), tt.name)
		}
		if tt.e.PageNumber() != i+1 {
			t.Errorf("PageNumber() = %d, want %d", tt.e.PageNumber(), i+1)
		}
	}
}

func TestImageName(t *testing.T) {
	if got := (&Image{}).Name(); got != "" {
		t.Errorf("Name() = %q, want empty", got)
	}
	img := &Image{Payload: NewImagePayload("Im7.jpg", []byte{1})}
	if got := img.Name(); got != "Im7.jpg" {
		t.Errorf("Name() = %q, want Im7.jpg", got)
	}
}
