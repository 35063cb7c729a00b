/*
DESCRIPTION
  rect.go provides a rectangle with sub-pixel coordinates used for vehicle
  bounding boxes, and the geometry used when comparing and searching for them.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package track

import (
	"image"
	"math"
)

// Rect is an axis aligned rectangle with floating point coordinates. X and Y
// give the top left corner.
type Rect struct {
	X, Y, W, H float64
}

// RectFrom converts an integer rectangle into a Rect.
func RectFrom(r image.Rectangle) Rect {
	return Rect{
		X: float64(r.Min.X),
		Y: float64(r.Min.Y),
		W: float64(r.Dx()),
		H: float64(r.Dy()),
	}
}

// Bottom returns the y coordinate of the lower edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Area returns the area of r.
func (r Rect) Area() float64 { return r.W * r.H }

// Center returns the centre point of r.
func (r Rect) Center() (x, y float64) { return r.X + r.W/2, r.Y + r.H/2 }

// Contains reports whether the point (x, y) lies inside r. The right and
// bottom edges are exclusive.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Scale returns r with its width and height multiplied by m. The origin is
// unchanged.
func (r Rect) Scale(m float64) Rect {
	r.W *= m
	r.H *= m
	return r
}

// Image truncates r to an integer rectangle, the way a crop of the frame
// would be taken.
func (r Rect) Image() image.Rectangle {
	x, y := int(r.X), int(r.Y)
	return image.Rect(x, y, x+int(r.W), y+int(r.H))
}

// Size returns the integer template size for r.
func (r Rect) Size() image.Point {
	return image.Pt(int(r.W), int(r.H))
}

// SearchWindow returns the region of the frame that is searched for a vehicle
// last seen at box. The window starts margin pixels above and to the left of
// the box and extends margin pixels past the box on the far side, all clamped
// to bounds. The window includes its far edge pixel, matching the inclusive
// bounds used when cropping templates.
func SearchWindow(box Rect, margin float64, bounds image.Rectangle) image.Rectangle {
	minX, maxX := float64(bounds.Min.X), float64(bounds.Max.X)
	minY, maxY := float64(bounds.Min.Y), float64(bounds.Max.Y)

	x0 := math.Round(clamp(box.X-margin, minX, maxX))
	y0 := math.Round(clamp(box.Y-margin, minY, maxY))
	x1 := math.Round(clamp(x0+box.W+2*margin, minX, maxX))
	y1 := math.Round(clamp(y0+box.H+2*margin, minY, maxY))

	w := math.Abs(x1-x0) + 1
	h := math.Abs(y1-y0) + 1

	win := image.Rect(int(x0), int(y0), int(x0+w), int(y0+h))
	return win.Intersect(bounds)
}

// SameVehicle reports whether a and b describe the same vehicle. Two boxes
// match when their top left corners, or their bottom right corners, are
// both within near pixels in x and y. When containment is true they also
// match when the centre of the smaller box lies inside the larger box.
func SameVehicle(a, b Rect, near float64, containment bool) bool {
	if math.Abs(a.X-b.X) < near && math.Abs(a.Y-b.Y) < near {
		return true
	}
	if math.Abs(a.Right()-b.Right()) < near && math.Abs(a.Bottom()-b.Bottom()) < near {
		return true
	}
	if !containment {
		return false
	}
	small, large := a, b
	if small.Area() > large.Area() {
		small, large = large, small
	}
	return large.Contains(small.Center())
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
