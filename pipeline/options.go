/*
DESCRIPTION
  options.go provides the options, statistics and errors shared by every
  build of the pipeline.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipeline provides an API for detecting, tracking and counting the
// vehicles of a traffic camera stream.
package pipeline

import (
	"errors"
	"time"
)

const pkg = "pipeline: "

// Pipeline errors.
var (
	ErrIncompleteBootstrap = errors.New("stream ended before the background was bootstrapped")
	ErrNotBootstrapped     = errors.New("background has not been bootstrapped")
)

// Option is a functional option that can be passed to New.
type Option func(*Pipeline) error

// WithRunID tags the log lines and track reports of the pipeline with id.
func WithRunID(id string) Option {
	return func(p *Pipeline) error {
		p.runID = id
		return nil
	}
}

// Stats holds the counters of a run.
type Stats struct {
	Frames  uint64        // Frames processed since bootstrapping.
	Active  int           // Live tracks after the last frame.
	Created uint64        // Tracks created.
	Lost    uint64        // Tracks deleted because their template stopped matching.
	Exited  uint64        // Tracks deleted because they left the zone.
	Elapsed time.Duration // Processing time of the last frame.
}
