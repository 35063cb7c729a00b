/*
NAME
  filter.go

AUTHORS
  Ella Pietraroia <ella@ausocean.org>
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package filter separates moving vehicles from a fixed camera's view of the
// road. It maintains an adaptive estimate of the empty scene (Background),
// and turns each frame into a binary mask of vehicle pixels with cast
// shadows removed (Foreground).
//
// Everything that touches OpenCV requires the withcv build tag.
package filter

import "errors"

// Errors returned by the background model.
var (
	ErrNotReady  = errors.New("background has not been bootstrapped")
	ErrBadFrame  = errors.New("frame is empty or not 3 channel")
	ErrSizeMatch = errors.New("frame size does not match background")
)

// Names of the masks produced by the foreground extractor, in pipeline
// order. They label the debug windows.
var stageNames = []string{"Subtracted", "Shadow", "Reshadow", "Cars"}
