package geometry

import "math"

// LayoutScale is the upper bound of the model's layout coordinate space.
// Boxes are rescaled into [0,LayoutScale] independent of pixel resolution.
const LayoutScale = 1000

// Box represents an axis-aligned rectangle. Coordinates are pixels for OCR
// boxes and layout units for normalized boxes; x1,y1 is the top-left corner.
type Box struct {
	X1, Y1, X2, Y2 int
}

// NewBox creates a box from corner coordinates.
func NewBox(x1, y1, x2, y2 int) Box {
	return Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the box width.
func (b Box) Width() int {
	return b.X2 - b.X1
}

// Height returns the box height.
func (b Box) Height() int {
	return b.Y2 - b.Y1
}

// Valid reports whether the box has positive extent on both axes.
func (b Box) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// InBounds reports whether the box lies within a width x height page.
func (b Box) InBounds(width, height int) bool {
	return b.X1 >= 0 && b.Y1 >= 0 && b.X2 <= width && b.Y2 <= height
}

// Union returns the minimal enclosing rectangle of b and other.
func (b Box) Union(other Box) Box {
	return Box{
		X1: min(b.X1, other.X1),
		Y1: min(b.Y1, other.Y1),
		X2: max(b.X2, other.X2),
		Y2: max(b.Y2, other.Y2),
	}
}

// HGap returns the horizontal distance between b and a box to its right,
// or 0 when they touch or overlap.
func (b Box) HGap(other Box) int {
	if other.X1 > b.X2 {
		return other.X1 - b.X2
	}
	if b.X1 > other.X2 {
		return b.X1 - other.X2
	}
	return 0
}

// VGap returns the vertical distance between b and other, or 0 when their
// vertical extents overlap.
func (b Box) VGap(other Box) int {
	if other.Y1 > b.Y2 {
		return other.Y1 - b.Y2
	}
	if b.Y1 > other.Y2 {
		return b.Y1 - other.Y2
	}
	return 0
}

// Normalize rescales a pixel box into layout space: each coordinate maps to
// round(v * LayoutScale / dim), clamped to [0,LayoutScale]. Rounding is half
// away from zero on both directions of the round trip. A box narrower than
// one pixel may collapse to zero extent; callers must tolerate that.
func Normalize(b Box, width, height int) Box {
	return Box{
		X1: rescale(b.X1, LayoutScale, width),
		Y1: rescale(b.Y1, LayoutScale, height),
		X2: rescale(b.X2, LayoutScale, width),
		Y2: rescale(b.Y2, LayoutScale, height),
	}
}

// Denormalize is the inverse of Normalize: layout space back to pixels.
func Denormalize(b Box, width, height int) Box {
	return Box{
		X1: rescale(b.X1, width, LayoutScale),
		Y1: rescale(b.Y1, height, LayoutScale),
		X2: rescale(b.X2, width, LayoutScale),
		Y2: rescale(b.Y2, height, LayoutScale),
	}
}

// rescale maps v from a [0,den] range to [0,num], rounding half away from
// zero and clamping to the target range.
func rescale(v, num, den int) int {
	scaled := int(math.Round(float64(v) * float64(num) / float64(den)))
	if scaled < 0 {
		return 0
	}
	if scaled > num {
		return num
	}
	return scaled
}
