//go:build withcv
// +build withcv

/*
DESCRIPTION
  A segmenter that labels pixels as moving when they differ from the same
  pixel in the previous frame.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filter

import (
	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/pipeline/config"
)

const (
	defaultDiffThreshold = 25
	defaultDiffHistory   = 100
)

// NewDiff returns a pointer to a new difference segmenter.
func NewDiff(c config.Config) *Diff {

	// Validate parameters.
	if c.SegmenterThreshold <= 0 {
		c.LogInvalidField("SegmenterThreshold", defaultDiffThreshold)
		c.SegmenterThreshold = defaultDiffThreshold
	}
	if c.History == 0 {
		c.LogInvalidField("History", defaultDiffHistory)
		c.History = defaultDiffHistory
	}

	return &Diff{
		thresh:  float32(c.SegmenterThreshold),
		history: int(c.History),
		prev:    gocv.NewMat(),
	}
}

// Diff is a segmenter. It calculates the absolute difference for each pixel
// between two frames; pixels whose grey level difference is above a given
// threshold are foreground.
type Diff struct {
	thresh  float32
	history int
	prev    gocv.Mat
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (d *Diff) Close() error {
	return d.prev.Close()
}

// History implements Segmenter.
func (d *Diff) History() int { return d.history }

// Segment implements Segmenter. The first frame has no predecessor so it is
// all background.
func (d *Diff) Segment(img gocv.Mat, fg *gocv.Mat) {
	if d.prev.Empty() {
		img.CopyTo(&d.prev)
		zeros := gocv.NewMatWithSize(img.Rows(), img.Cols(), gocv.MatTypeCV8U)
		defer zeros.Close()
		zeros.CopyTo(fg)
		return
	}

	gocv.AbsDiff(img, d.prev, fg)
	if fg.Channels() == 3 {
		gocv.CvtColor(*fg, fg, gocv.ColorBGRToGray)
	}
	gocv.Threshold(*fg, fg, d.thresh, 255, gocv.ThresholdBinary)

	// Update history.
	img.CopyTo(&d.prev)
}
