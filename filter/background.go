//go:build withcv
// +build withcv

/*
DESCRIPTION
  An adaptive estimate of the empty road. The estimate is bootstrapped from
  the first frames of the stream with a segmenter, then refreshed every frame
  wherever two consecutive frames agree that a pixel is background.

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
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/pipeline/config"
	"github.com/ausocean/utils/logging"
)

const defaultBlendRate = 0.025

// Background is the background model. It owns a floating point accumulator
// and the 8 bit estimate derived from it.
type Background struct {
	log     logging.Logger
	seg     Segmenter // Labels motion while bootstrapping; nil when loaded from a plate.
	alpha   float64   // Weight of the current frame when blending.
	history int       // Frames needed to bootstrap.
	n       int       // Frames bootstrapped so far.

	acc  gocv.Mat // CV32FC3 running average of background pixels.
	est  gocv.Mat // CV8UC3 view of acc.
	prev gocv.Mat // Background candidate mask of the previous frame.

	// Scratch buffers reused between frames.
	fg     gocv.Mat
	diff   gocv.Mat
	cand   gocv.Mat
	agreed gocv.Mat
}

// NewBackground returns a background model that bootstraps from the stream
// using seg. The model takes ownership of seg.
func NewBackground(seg Segmenter, c config.Config) *Background {

	// Validate parameters.
	if c.BlendRate <= 0 || c.BlendRate > 1 {
		c.LogInvalidField("BlendRate", defaultBlendRate)
		c.BlendRate = defaultBlendRate
	}

	return &Background{
		log:     c.Logger,
		seg:     seg,
		alpha:   c.BlendRate,
		history: seg.History(),
		acc:     gocv.NewMat(),
		est:     gocv.NewMat(),
		prev:    gocv.NewMat(),
		fg:      gocv.NewMat(),
		diff:    gocv.NewMat(),
		cand:    gocv.NewMat(),
		agreed:  gocv.NewMat(),
	}
}

// NewBackgroundFromImage returns a background model that starts from plate,
// an image of the empty scene. No bootstrapping is needed.
func NewBackgroundFromImage(plate gocv.Mat, c config.Config) (*Background, error) {
	if plate.Empty() || plate.Channels() != 3 {
		return nil, ErrBadFrame
	}

	if c.BlendRate <= 0 || c.BlendRate > 1 {
		c.LogInvalidField("BlendRate", defaultBlendRate)
		c.BlendRate = defaultBlendRate
	}

	b := &Background{
		log:    c.Logger,
		alpha:  c.BlendRate,
		acc:    gocv.NewMat(),
		est:    plate.Clone(),
		prev:   gocv.NewMat(),
		fg:     gocv.NewMat(),
		diff:   gocv.NewMat(),
		cand:   gocv.NewMat(),
		agreed: gocv.NewMat(),
	}
	plate.ConvertTo(&b.acc, gocv.MatTypeCV32FC3)
	return b, nil
}

// History returns the number of frames Bootstrap needs.
func (b *Background) History() int { return b.history }

// Ready reports whether the estimate is complete.
func (b *Background) Ready() bool { return b.n >= b.history }

// Estimate returns the current estimate of the empty scene. The returned Mat
// is owned by the model and is only valid until the next Update.
func (b *Background) Estimate() gocv.Mat { return b.est }

// Bootstrap feeds one of the first frames of the stream to the model. It
// returns true once enough frames have been seen for the estimate to be used.
func (b *Background) Bootstrap(frame gocv.Mat) (bool, error) {
	if b.Ready() {
		return true, nil
	}
	err := b.check(frame)
	if err != nil {
		return false, err
	}

	if b.acc.Empty() {
		frame.ConvertTo(&b.acc, gocv.MatTypeCV32FC3)
	}

	b.seg.Segment(frame, &b.fg)
	b.blend(frame, b.fg)
	b.n++

	if b.Ready() {
		b.acc.ConvertTo(&b.est, gocv.MatTypeCV8UC3)
		b.log.Info("background bootstrapped", "frames", b.n)
		return true, nil
	}
	return false, nil
}

// Update compares frame with the estimate, writes the binary foreground mask
// to motion and blends the pixels that have been background for two frames
// into the estimate.
func (b *Background) Update(frame gocv.Mat, motion *gocv.Mat) error {
	if !b.Ready() {
		return ErrNotReady
	}
	err := b.check(frame)
	if err != nil {
		return err
	}

	gocv.AbsDiff(frame, b.est, &b.diff)
	binarize(b.diff, motion)
	b.blend(frame, *motion)
	b.acc.ConvertTo(&b.est, gocv.MatTypeCV8UC3)
	return nil
}

// blend inverts fg into a background candidate mask, keeps only the pixels
// that were also candidates in the previous frame, and blends frame into the
// accumulator there.
func (b *Background) blend(frame, fg gocv.Mat) {
	if fg.Channels() == 3 {
		gocv.CvtColor(fg, &b.cand, gocv.ColorBGRToGray)
		gocv.Threshold(b.cand, &b.cand, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)
	} else {
		gocv.Threshold(fg, &b.cand, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)
	}

	if b.prev.Empty() {
		b.cand.CopyTo(&b.agreed)
	} else {
		gocv.BitwiseAnd(b.cand, b.prev, &b.agreed)
	}
	b.cand.CopyTo(&b.prev)

	gocv.AccumulatedWeightedWithMask(frame, &b.acc, b.alpha, b.agreed)
}

func (b *Background) check(frame gocv.Mat) error {
	if frame.Empty() || frame.Channels() != 3 {
		return ErrBadFrame
	}
	if !b.acc.Empty() && (frame.Rows() != b.acc.Rows() || frame.Cols() != b.acc.Cols()) {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrSizeMatch, frame.Cols(), frame.Rows(), b.acc.Cols(), b.acc.Rows())
	}
	return nil
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (b *Background) Close() error {
	for _, m := range []*gocv.Mat{&b.acc, &b.est, &b.prev, &b.fg, &b.diff, &b.cand, &b.agreed} {
		m.Close()
	}
	if b.seg != nil {
		return b.seg.Close()
	}
	return nil
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

// closeMask applies morphological closing to mask in place: n dilations
// followed by n erosions with kernel.
func closeMask(mask *gocv.Mat, kernel gocv.Mat, n int) {
	for i := 0; i < n; i++ {
		gocv.Dilate(*mask, mask, kernel)
	}
	for i := 0; i < n; i++ {
		gocv.Erode(*mask, mask, kernel)
	}
}
