//go:build withcv
// +build withcv

/*
DESCRIPTION
  Turns the motion mask of a frame into a mask of vehicle pixels by removing
  everything off the road and the cast shadows of vehicles.

AUTHORS
  Scott Barnard <scott@ausocean.org>
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filter

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/pipeline/config"
	"github.com/ausocean/trafficcam/track"
	"github.com/ausocean/utils/logging"
)

const (
	defaultShadowL           = 10
	defaultShadowB           = 5
	defaultShadowMinArea     = 5
	defaultShadowPerspective = 12
	defaultShadowAspect      = 1.6
	defaultKernelSize        = 3

	// Sum of the mean a and b channels of an 8 bit Lab image at or below which
	// the scene is treated as desaturated. Neutral grey has a = b = 128.
	neutralChroma = 256
)

// Foreground extracts the vehicle mask of each frame.
type Foreground struct {
	log    logging.Logger
	zone   track.Zone
	road   gocv.Mat // Binary mask of the drivable area.
	kernel gocv.Mat // Structuring element for closing.
	closeN int      // Closing iterations.

	thrL    float64
	thrB    float64
	minArea float64
	persp   float64
	aspect  float64

	subtracted gocv.Mat // Motion on the road.
	shadow     gocv.Mat // Shadow coloured pixels in subtracted.
	reshadow   gocv.Mat // Shadow pixels that belong to vehicle shadows.
	cars       gocv.Mat // Vehicle pixels.

	// Scratch buffers reused between frames.
	lab      gocv.Mat
	dark     gocv.Mat
	darkB    gocv.Mat
	excluded gocv.Mat
	labels   gocv.Mat
	stats    gocv.Mat
	cent     gocv.Mat
	comp     gocv.Mat
	mean     gocv.Mat
	std      gocv.Mat

	windows debugWindows
}

// NewForeground returns a foreground extractor for frames of the road
// described by road, a single channel binary mask. The mask is copied.
func NewForeground(road gocv.Mat, c config.Config) *Foreground {

	// Validate parameters.
	if c.ShadowL < 0 {
		c.LogInvalidField("ShadowL", defaultShadowL)
		c.ShadowL = defaultShadowL
	}
	if c.ShadowB < 0 {
		c.LogInvalidField("ShadowB", defaultShadowB)
		c.ShadowB = defaultShadowB
	}
	if c.ShadowMinArea < 0 {
		c.LogInvalidField("ShadowMinArea", defaultShadowMinArea)
		c.ShadowMinArea = defaultShadowMinArea
	}
	if c.ShadowPerspective <= 0 {
		c.LogInvalidField("ShadowPerspective", defaultShadowPerspective)
		c.ShadowPerspective = defaultShadowPerspective
	}
	if c.ShadowAspect <= 0 {
		c.LogInvalidField("ShadowAspect", defaultShadowAspect)
		c.ShadowAspect = defaultShadowAspect
	}
	if c.KernelSize == 0 {
		c.LogInvalidField("KernelSize", defaultKernelSize)
		c.KernelSize = defaultKernelSize
	}

	k := int(c.KernelSize)
	return &Foreground{
		log:        c.Logger,
		zone:       c.Zone(),
		road:       road.Clone(),
		kernel:     gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k)),
		closeN:     int(c.CloseCount),
		thrL:       c.ShadowL,
		thrB:       c.ShadowB,
		minArea:    c.ShadowMinArea,
		persp:      c.ShadowPerspective,
		aspect:     c.ShadowAspect,
		subtracted: gocv.NewMat(),
		shadow:     gocv.NewMat(),
		reshadow:   gocv.NewMat(),
		cars:       gocv.NewMat(),
		lab:        gocv.NewMat(),
		dark:       gocv.NewMat(),
		darkB:      gocv.NewMat(),
		excluded:   gocv.NewMat(),
		labels:     gocv.NewMat(),
		stats:      gocv.NewMat(),
		cent:       gocv.NewMat(),
		comp:       gocv.NewMat(),
		mean:       gocv.NewMat(),
		std:        gocv.NewMat(),
		windows:    newWindows("Foreground"),
	}
}

// Extract computes the vehicle mask of frame given its motion mask, as
// produced by Background.Update. The result is available from Cars until the
// next call.
func (f *Foreground) Extract(frame, motion gocv.Mat) error {
	if frame.Empty() || frame.Channels() != 3 {
		return ErrBadFrame
	}
	if motion.Rows() != f.road.Rows() || motion.Cols() != f.road.Cols() ||
		frame.Rows() != f.road.Rows() || frame.Cols() != f.road.Cols() {
		return fmt.Errorf("%w: road mask is %dx%d", ErrSizeMatch, f.road.Cols(), f.road.Rows())
	}

	// Subtract.
	gocv.BitwiseAnd(motion, f.road, &f.subtracted)

	// Shadow detect.
	f.detectShadow(frame)
	gocv.BitwiseAnd(f.dark, f.subtracted, &f.shadow)

	// Shadow reject.
	f.rejectShadow()

	// Vehicle mask.
	gocv.Subtract(f.subtracted, f.reshadow, &f.cars)
	closeMask(&f.cars, f.kernel, f.closeN)
	gocv.BitwiseAnd(f.cars, f.road, &f.cars)

	f.windows.show(frame, []gocv.Mat{f.subtracted, f.shadow, f.reshadow, f.cars})
	return nil
}

// detectShadow writes the pixels of frame that are coloured like shadow to
// f.dark. The rule is chosen once per frame from the saturation of the whole
// scene.
func (f *Foreground) detectShadow(frame gocv.Mat) {
	gocv.CvtColor(frame, &f.lab, gocv.ColorBGRToLab)
	ch := gocv.Split(f.lab)
	defer func() {
		for i := range ch {
			ch[i].Close()
		}
	}()

	gocv.MeanStdDev(ch[0], &f.mean, &f.std)
	meanL := f.mean.GetDoubleAt(0, 0)
	stdL := f.std.GetDoubleAt(0, 0)
	meanA := ch[1].Mean().Val1
	meanB := ch[2].Mean().Val1

	if meanA+meanB <= neutralChroma {
		gocv.Threshold(ch[0], &f.dark, float32(meanL-stdL/3), 255, gocv.ThresholdBinaryInv)
		return
	}
	gocv.Threshold(ch[0], &f.dark, float32(f.thrL), 255, gocv.ThresholdBinaryInv)
	gocv.Threshold(ch[2], &f.darkB, float32(f.thrB), 255, gocv.ThresholdBinaryInv)
	gocv.BitwiseAnd(f.dark, f.darkB, &f.dark)
}

// rejectShadow keeps the shadow blobs shaped like a vehicle's cast shadow in
// f.reshadow. Blobs that are too small for their distance from the camera, or
// too wide for their height, are left in the vehicle mask.
func (f *Foreground) rejectShadow() {
	f.shadow.CopyTo(&f.excluded)
	f.excluded.SetTo(gocv.NewScalar(0, 0, 0, 0))

	n := gocv.ConnectedComponentsWithStatsWithParams(f.shadow, &f.labels, &f.stats, &f.cent, 4, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)
	for i := 1; i < n; i++ {
		left := int(f.stats.GetIntAt(i, int(gocv.CC_STAT_LEFT)))
		top := int(f.stats.GetIntAt(i, int(gocv.CC_STAT_TOP)))
		w := int(f.stats.GetIntAt(i, int(gocv.CC_STAT_WIDTH)))
		h := int(f.stats.GetIntAt(i, int(gocv.CC_STAT_HEIGHT)))
		area := float64(f.stats.GetIntAt(i, int(gocv.CC_STAT_AREA)))

		if area >= f.zone.AreaThreshold(float64(top), f.persp, f.minArea) && float64(w)/float64(h) <= f.aspect {
			continue
		}

		r := image.Rect(left, top, left+w, top+h)
		lbl := f.labels.Region(r)
		ex := f.excluded.Region(r)
		v := float64(i)
		gocv.InRangeWithScalar(lbl, gocv.NewScalar(v, v, v, v), gocv.NewScalar(v, v, v, v), &f.comp)
		gocv.BitwiseOr(ex, f.comp, &ex)
		lbl.Close()
		ex.Close()
	}

	gocv.BitwiseXor(f.excluded, f.shadow, &f.reshadow)
}

// Subtracted returns the motion mask limited to the road.
func (f *Foreground) Subtracted() gocv.Mat { return f.subtracted }

// Shadow returns the shadow coloured pixels of the motion mask.
func (f *Foreground) Shadow() gocv.Mat { return f.shadow }

// Reshadow returns the shadow pixels removed from the vehicle mask.
func (f *Foreground) Reshadow() gocv.Mat { return f.reshadow }

// Cars returns the vehicle mask of the last frame.
func (f *Foreground) Cars() gocv.Mat { return f.cars }

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (f *Foreground) Close() error {
	for _, m := range []*gocv.Mat{
		&f.road, &f.kernel, &f.subtracted, &f.shadow, &f.reshadow, &f.cars,
		&f.lab, &f.dark, &f.darkB, &f.excluded, &f.labels, &f.stats, &f.cent,
		&f.comp, &f.mean, &f.std,
	} {
		m.Close()
	}
	return f.windows.close()
}
