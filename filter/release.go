//go:build !debug && withcv
// +build !debug,withcv

/*
DESCRIPTION
  Stands in for the extractor's debug windows in release builds.

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

import "gocv.io/x/gocv"

// debugWindows is used for displaying debug information for the extractor.
type debugWindows struct{}

// close frees resources used by gocv.
func (d *debugWindows) close() error { return nil }

// newWindows creates debugging windows for the extractor.
func newWindows(name string) debugWindows { return debugWindows{} }

// show displays debug information for the extractor.
func (d *debugWindows) show(frame gocv.Mat, masks []gocv.Mat, text ...string) {}
