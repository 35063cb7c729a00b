//go:build withcv
// +build withcv

/*
DESCRIPTION
  A segmenter that labels moving pixels while the background is bootstrapped.
  The algorithm uses a Mixture of Gaussians method (MoG) to determine what is
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
	defaultMOGThreshold = 16.0
	defaultMOGHistory   = 500
)

// Segmenter labels the pixels of each frame as moving foreground (255) or
// background (0), learning the scene as it goes.
type Segmenter interface {
	// Segment writes the foreground mask for img to fg.
	Segment(img gocv.Mat, fg *gocv.Mat)

	// History is the number of frames the segmenter needs to learn the scene.
	History() int

	Close() error
}

// NewSegmenter returns the segmenter selected by c.Segmenter.
func NewSegmenter(c config.Config) Segmenter {
	switch c.Segmenter {
	case config.SegmenterKNN:
		return NewKNN(c)
	case config.SegmenterDiff:
		return NewDiff(c)
	default:
		return NewMOG(c)
	}
}

// NewMOG returns a pointer to a new MOG segmenter.
func NewMOG(c config.Config) *MOG {

	// Validate parameters.
	if c.SegmenterThreshold <= 0 {
		c.LogInvalidField("SegmenterThreshold", defaultMOGThreshold)
		c.SegmenterThreshold = defaultMOGThreshold
	}
	if c.History == 0 {
		c.LogInvalidField("History", defaultMOGHistory)
		c.History = defaultMOGHistory
	}

	bs := gocv.NewBackgroundSubtractorMOG2WithParams(int(c.History), c.SegmenterThreshold, false)
	return &MOG{
		bs:      &bs,
		history: int(c.History),
	}
}

// MOG is a segmenter. MoG is short for Mixture of Gaussians method.
type MOG struct {
	bs      *gocv.BackgroundSubtractorMOG2 // Uses the MOG algorithm to find the difference between the current and background frame.
	history int
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (m *MOG) Close() error {
	return m.bs.Close()
}

// History implements Segmenter.
func (m *MOG) History() int { return m.history }

// Segment implements Segmenter.
func (m *MOG) Segment(img gocv.Mat, fg *gocv.Mat) {
	m.bs.Apply(img, fg)
}
