package model

import "math"

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// BBox represents a bounding box (rectangle)
type BBox struct {
	X      float64 // Left (x0)
	Y      float64 // Bottom (y0, PDF coordinate system)
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from its origin and size
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// NewBBoxFromCorners creates a bounding box from the (x0, y0, x1, y1)
// quadruple used by page parsers. Reversed corners are normalized.
func NewBBoxFromCorners(x0, y0, x1, y1 float64) BBox {
	return NewBBoxFromPoints(Point{X: x0, Y: y0}, Point{X: x1, Y: y1})
}

// NewBBoxFromPoints creates a bounding box from two points
func NewBBoxFromPoints(p1, p2 Point) BBox {
	x := math.Min(p1.X, p2.X)
	y := math.Min(p1.Y, p2.Y)
	width := math.Abs(p2.X - p1.X)
	height := math.Abs(p2.Y - p1.Y)
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate (x0)
func (b BBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate (x1)
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Bottom returns the bottom edge Y coordinate (y0)
func (b BBox) Bottom() float64 {
	return b.Y
}

// Top returns the top edge Y coordinate (y1)
func (b BBox) Top() float64 {
	return b.Y + b.Height
}

// Union returns the union of two bounding boxes
func (b BBox) Union(other BBox) BBox {
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Bottom(), other.Bottom())
	right := math.Max(b.Right(), other.Right())
	top := math.Max(b.Top(), other.Top())

	return BBox{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: top - y,
	}
}

// Matrix represents a 2D affine transformation matrix [a b c d e f]
type Matrix [6]float64

// Identity returns an identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Transform applies the matrix transformation to a point
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Multiply multiplies two matrices (m applied first, then other)
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// Translate creates a translation matrix
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// IsUpright reports whether the matrix maps the X axis onto the page's
// X axis without rotation, shear or mirroring.
func (m Matrix) IsUpright() bool {
	const eps = 1e-6
	return m[0] > 0 && m[3] > 0 && math.Abs(m[1]) < eps && math.Abs(m[2]) < eps
}

// VerticalScale returns the length of the transformed unit Y vector.
func (m Matrix) VerticalScale() float64 {
	return math.Hypot(m[2], m[3])
}

// HorizontalScale returns the length of the transformed unit X vector.
func (m Matrix) HorizontalScale() float64 {
	return math.Hypot(m[0], m[1])
}

// BBoxOfUnitSquare returns the page-space bounds of the unit square under m.
// Image XObjects are painted into the unit square.
func (m Matrix) BBoxOfUnitSquare() BBox {
	corners := [4]Point{
		m.Transform(Point{0, 0}),
		m.Transform(Point{1, 0}),
		m.Transform(Point{0, 1}),
		m.Transform(Point{1, 1}),
	}
	minX, minY := corners[0].X, corners[0].Y
	maxX, maxY := minX, minY
	for _, c := range corners[1:] {
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X)
		maxY = math.Max(maxY, c.Y)
	}
	return NewBBoxFromCorners(minX, minY, maxX, maxY)
}
