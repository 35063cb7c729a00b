//go:build withcv
// +build withcv

/*
DESCRIPTION
  refine.go tightens the coarse box of a detected vehicle by comparing the
  frame with the background estimate around it, and optionally trims the box
  to its strongest edges.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lane

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/pipeline/config"
	"github.com/ausocean/trafficcam/track"
)

const (
	defaultRefinePad  = 4
	defaultKernelSize = 3
)

// Refiner re-derives the boxes of vehicles from the difference between the
// frame and the background.
type Refiner struct {
	zone     track.Zone
	minArea  float64
	persp    float64
	ratio    float64
	pad      int
	edgeCrop bool
	kernel   gocv.Mat
	closeN   int

	diff   gocv.Mat
	mask   gocv.Mat
	labels gocv.Mat
	stats  gocv.Mat
	cent   gocv.Mat

	// Edge crop scratch.
	gray gocv.Mat
	grad gocv.Mat
	part gocv.Mat
	abs  gocv.Mat
	sum  gocv.Mat
}

// NewRefiner returns a new Refiner.
func NewRefiner(c config.Config) *Refiner {

	// Validate parameters.
	if c.KernelSize == 0 {
		c.LogInvalidField("KernelSize", defaultKernelSize)
		c.KernelSize = defaultKernelSize
	}
	if c.DetectPerspective <= 0 {
		c.LogInvalidField("DetectPerspective", defaultDetectPerspective)
		c.DetectPerspective = defaultDetectPerspective
	}
	if c.MinAreaRatio <= 0 || c.MinAreaRatio > 1 {
		c.LogInvalidField("MinAreaRatio", defaultMinAreaRatio)
		c.MinAreaRatio = defaultMinAreaRatio
	}

	k := int(c.KernelSize)
	return &Refiner{
		zone:     c.Zone(),
		minArea:  c.DetectMinArea,
		persp:    c.DetectPerspective,
		ratio:    c.MinAreaRatio,
		pad:      int(c.RefinePad),
		edgeCrop: c.EdgeCrop,
		kernel:   gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k)),
		closeN:   int(c.CloseCount),
		diff:     gocv.NewMat(),
		mask:     gocv.NewMat(),
		labels:   gocv.NewMat(),
		stats:    gocv.NewMat(),
		cent:     gocv.NewMat(),
		gray:     gocv.NewMat(),
		grad:     gocv.NewMat(),
		part:     gocv.NewMat(),
		abs:      gocv.NewMat(),
		sum:      gocv.NewMat(),
	}
}

// Refine returns the vehicle boxes found inside box. The area around box,
// padded on every side, is compared with the same area of background; the
// difference is thresholded, closed and labelled again. Each component large
// enough for its distance from the camera and solid enough becomes a box in
// frame coordinates. There may be none.
func (r *Refiner) Refine(frame, background gocv.Mat, box image.Rectangle) []track.Rect {
	roi := box.Inset(-r.pad).Intersect(bounds(frame))
	if roi.Empty() {
		return nil
	}

	f := frame.Region(roi)
	defer f.Close()
	b := background.Region(roi)
	defer b.Close()

	gocv.AbsDiff(f, b, &r.diff)
	binarize(r.diff, &r.mask)
	for i := 0; i < r.closeN; i++ {
		gocv.Dilate(r.mask, &r.mask, r.kernel)
	}
	for i := 0; i < r.closeN; i++ {
		gocv.Erode(r.mask, &r.mask, r.kernel)
	}

	minArea := r.zone.AreaThreshold(float64(box.Min.Y), r.persp, r.minArea)
	var boxes []track.Rect
	for _, c := range components(r.mask, 8, &r.labels, &r.stats, &r.cent) {
		if c.area < minArea || c.fillRatio() < r.ratio {
			continue
		}
		rb := c.box.Add(roi.Min)
		if r.edgeCrop {
			rb = r.cropToEdges(frame, rb)
		}
		boxes = append(boxes, track.RectFrom(rb))
	}
	return boxes
}

// Crops keeping less than this fraction of the box height or width are
// taken to be stray edges and ignored.
const minEdgeCrop = 0.35

// cropToEdges trims box to the strongest edges of the vehicle inside it. The
// bottom is moved to the lowest horizontal edge and the sides to the outer
// vertical edges. Sides without a clear edge are left alone.
func (r *Refiner) cropToEdges(frame gocv.Mat, box image.Rectangle) image.Rectangle {
	v := frame.Region(box)
	defer v.Close()
	gocv.CvtColor(v, &r.gray, gocv.ColorBGRToGray)
	w, h := box.Dx(), box.Dy()

	// Horizontal edges where the image gets darker going down.
	gocv.Sobel(r.gray, &r.grad, gocv.MatTypeCV32F, 0, 1, 3, 1, 0, gocv.BorderDefault)
	falling := r.profile(true, 1)
	if bottom, ok := edgeBottom(SplitPeaks(falling)); ok && float64(bottom) > minEdgeCrop*float64(h) {
		box.Max.Y = box.Min.Y + bottom + 1
	}

	// Vertical edges, split by sign.
	gocv.Sobel(r.gray, &r.grad, gocv.MatTypeCV32F, 1, 0, 3, 1, 0, gocv.BorderDefault)
	rising := SplitPeaks(r.profile(false, 0))
	fallingX := SplitPeaks(r.profile(true, 0))
	if left, right, ok := edgeSpan(rising, fallingX); ok && float64(right-left+1) >= minEdgeCrop*float64(w) {
		box.Max.X = box.Min.X + right + 1
		box.Min.X += left
	}
	return box
}

// profile projects the edges of one sign in r.grad onto a row (dim 0) or a
// column (dim 1) and returns the count of edge pixels per position.
func (r *Refiner) profile(negative bool, dim int) []int {
	if negative {
		gocv.Threshold(r.grad, &r.part, 0, 0, gocv.ThresholdToZeroInv)
		gocv.ConvertScaleAbs(r.part, &r.abs, 1, 0)
	} else {
		gocv.Threshold(r.grad, &r.part, 0, 0, gocv.ThresholdToZero)
		gocv.ConvertScaleAbs(r.part, &r.abs, 1, 0)
	}
	gocv.Threshold(r.abs, &r.abs, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	gocv.Reduce(r.abs, &r.sum, dim, gocv.ReduceSum, gocv.MatTypeCV32F)

	n := r.sum.Cols()
	if dim == 1 {
		n = r.sum.Rows()
	}
	p := make([]int, n)
	for i := range p {
		if dim == 1 {
			p[i] = int(r.sum.GetFloatAt(i, 0) / 255)
		} else {
			p[i] = int(r.sum.GetFloatAt(0, i) / 255)
		}
	}
	return p
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (r *Refiner) Close() error {
	for _, m := range []*gocv.Mat{
		&r.kernel, &r.diff, &r.mask, &r.labels, &r.stats, &r.cent,
		&r.gray, &r.grad, &r.part, &r.abs, &r.sum,
	} {
		m.Close()
	}
	return nil
}
