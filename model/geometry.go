package model

import "math"

// PointsPerMM is the number of PDF points in one millimetre.
const PointsPerMM = 72.0 / 25.4

// MMToPoints converts millimetres to PDF points.
func MMToPoints(mm float64) float64 {
	return mm * PointsPerMM
}

// PointsToMM converts PDF points to millimetres.
func PointsToMM(pt float64) float64 {
	return pt / PointsPerMM
}

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// BBox represents a bounding box (rectangle)
type BBox struct {
	X      float64 // Left
	Y      float64 // Bottom (PDF coordinate system)
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from coordinates
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// NewBBoxFromCorners creates a bounding box from its lower-left (x0, y0) and
// upper-right (x1, y1) corners. Swapped corners are normalised.
func NewBBoxFromCorners(x0, y0, x1, y1 float64) BBox {
	return BBox{
		X:      math.Min(x0, x1),
		Y:      math.Min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

// Left returns the left edge X coordinate
func (b BBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Bottom returns the bottom edge Y coordinate
func (b BBox) Bottom() float64 {
	return b.Y
}

// Top returns the top edge Y coordinate
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

// IsEmpty returns true if the bounding box has zero area
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// PageBox is the visible area of a page in default user space.
// Width and Height are the dimensions of the box, Origin its lower-left
// corner (non-zero for pages whose CropBox or MediaBox does not start at 0,0).
type PageBox struct {
	Origin Point
	Width  float64
	Height float64
}

// BottomBand returns the rectangle covering the full box width from the
// bottom edge up to height points.
func (p PageBox) BottomBand(height float64) BBox {
	return BBox{
		X:      p.Origin.X,
		Y:      p.Origin.Y,
		Width:  p.Width,
		Height: height,
	}
}
