/*
DESCRIPTION
  plot.go draws the cumulative count of vehicles in each lane over a run.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package report

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plot size.
const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// ErrNoFrames is returned when there is nothing to plot.
var ErrNoFrames = errors.New("no frames recorded")

// Plot saves a line chart of the cumulative vehicle count of each lane
// against frame number to path. The image format follows the extension of
// path.
func (r *Recorder) Plot(path string) error {
	if r.frames == 0 {
		return ErrNoFrames
	}

	p := plot.New()
	p.Title.Text = "Vehicles per lane"
	if r.run != "" {
		p.Title.Text += " (" + r.run + ")"
	}
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Vehicles"

	for l, counts := range r.counts {
		pts := make(plotter.XYs, len(counts))
		for i, c := range counts {
			pts[i] = plotter.XY{X: r.numbers[i], Y: c}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "could not plot lane %d", l)
		}
		line.Color = plotutil.Color(l)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("lane %d", l), line)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return errors.Wrap(p.Save(plotWidth, plotHeight, path), "could not save plot")
}
