//go:build withcv
// +build withcv

/*
DESCRIPTION
  A segmenter that labels moving pixels while the background is bootstrapped.
  The algorithm uses a K-Nearest Neighbours method (KNN) to determine what is
  background and what is foreground.

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
	defaultKNNThreshold = 400
	defaultKNNHistory   = 500
)

// NewKNN returns a pointer to a new KNN segmenter.
func NewKNN(c config.Config) *KNN {

	// Validate parameters.
	if c.SegmenterThreshold <= 0 {
		c.LogInvalidField("SegmenterThreshold", defaultKNNThreshold)
		c.SegmenterThreshold = defaultKNNThreshold
	}
	if c.History == 0 {
		c.LogInvalidField("History", defaultKNNHistory)
		c.History = defaultKNNHistory
	}

	bs := gocv.NewBackgroundSubtractorKNNWithParams(int(c.History), c.SegmenterThreshold, false)
	return &KNN{
		bs:      &bs,
		history: int(c.History),
	}
}

// KNN is a segmenter. KNN is short for K-Nearest Neighbours method.
type KNN struct {
	bs      *gocv.BackgroundSubtractorKNN // Uses the KNN algorithm to find the difference between the current and background frame.
	history int
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (k *KNN) Close() error {
	return k.bs.Close()
}

// History implements Segmenter.
func (k *KNN) History() int { return k.history }

// Segment implements Segmenter.
func (k *KNN) Segment(img gocv.Mat, fg *gocv.Mat) {
	k.bs.Apply(img, fg)
}
