//go:build withcv
// +build withcv

/*
DESCRIPTION
  lane.go defines a lane of the road and the helpers shared by the lane
  detector and tracker.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package lane finds vehicles entering each lane of the road and follows them
// from frame to frame until they leave or are lost.
package lane

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/track"
)

// Registry holds the tracks of every lane. Templates are colour crops of the
// frame owned by the registry.
type Registry = track.Registry[*gocv.Mat]

// NewRegistry returns a registry for n lanes.
func NewRegistry(n int) *Registry { return track.NewRegistry[*gocv.Mat](n) }

// Lane is one lane of the road.
type Lane struct {
	Index     int             // Index of the lane in the registry.
	Mask      gocv.Mat        // Binary mask of the lane, the size of the frame.
	Direction track.Direction // Direction of travel.
}

// Close frees the lane mask.
func (l *Lane) Close() error { return l.Mask.Close() }

// bounds returns the rectangle covered by m.
func bounds(m gocv.Mat) image.Rectangle {
	return image.Rect(0, 0, m.Cols(), m.Rows())
}

// crop returns an owned copy of the part of m inside r, or nil if r does not
// overlap m.
func crop(m gocv.Mat, r image.Rectangle) *gocv.Mat {
	r = r.Intersect(bounds(m))
	if r.Empty() {
		return nil
	}
	view := m.Region(r)
	defer view.Close()
	c := view.Clone()
	return &c
}

// binarize writes a 0/255 single channel mask of src to dst using Otsu's
// method to pick the threshold.
func binarize(src gocv.Mat, dst *gocv.Mat) {
	if src.Channels() == 3 {
		gocv.CvtColor(src, dst, gocv.ColorBGRToGray)
		gocv.Threshold(*dst, dst, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
		return
	}
	gocv.Threshold(src, dst, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
}

// component is a connected component of a binary mask.
type component struct {
	box  image.Rectangle
	area float64
}

// components labels mask with the given connectivity and returns every
// component except the background. labels, stats and cent are scratch.
func components(mask gocv.Mat, conn int, labels, stats, cent *gocv.Mat) []component {
	n := gocv.ConnectedComponentsWithStatsWithParams(mask, labels, stats, cent, conn, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)
	cs := make([]component, 0, n)
	for i := 1; i < n; i++ {
		x := int(stats.GetIntAt(i, int(gocv.CC_STAT_LEFT)))
		y := int(stats.GetIntAt(i, int(gocv.CC_STAT_TOP)))
		w := int(stats.GetIntAt(i, int(gocv.CC_STAT_WIDTH)))
		h := int(stats.GetIntAt(i, int(gocv.CC_STAT_HEIGHT)))
		cs = append(cs, component{
			box:  image.Rect(x, y, x+w, y+h),
			area: float64(stats.GetIntAt(i, int(gocv.CC_STAT_AREA))),
		})
	}
	return cs
}

// fillRatio is the fraction of c's bounding box covered by c.
func (c component) fillRatio() float64 {
	return c.area / float64(c.box.Dx()*c.box.Dy())
}
