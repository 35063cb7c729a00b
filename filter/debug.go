//go:build debug && withcv
// +build debug,withcv

/*
DESCRIPTION
  Displays the intermediate masks of the foreground extractor.

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
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// debugWindows is used for displaying debug information for the extractor.
type debugWindows struct {
	windows []*gocv.Window
}

// close frees resources used by gocv.
func (d *debugWindows) close() error {
	for _, window := range d.windows {
		err := window.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// newWindows creates a window for the frame and one for each stage mask.
func newWindows(name string) debugWindows {
	w := []*gocv.Window{gocv.NewWindow(name + ": Video")}
	for _, s := range stageNames {
		w = append(w, gocv.NewWindow(name+": "+s))
	}
	return debugWindows{windows: w}
}

// show displays frame and the stage masks, in stageNames order.
func (d *debugWindows) show(frame gocv.Mat, masks []gocv.Mat, text ...string) {
	var drkRed = color.RGBA{191, 0, 0, 0}

	im := frame.Clone()
	defer im.Close()

	// Draw debugging text.
	for i, str := range text {
		gocv.PutText(&im, str, image.Pt(32, 32*(i+1)), gocv.FontHersheyPlain, 2.0, drkRed, 2)
	}

	// Display windows.
	d.windows[0].IMShow(im)
	for i, m := range masks {
		if i+1 < len(d.windows) {
			d.windows[i+1].IMShow(m)
		}
	}
	d.windows[0].WaitKey(1)
}
