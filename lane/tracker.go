//go:build withcv
// +build withcv

/*
DESCRIPTION
  tracker.go follows the vehicles of a lane from one frame to the next by
  matching their templates inside a window around their last position.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lane

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/pipeline/config"
	"github.com/ausocean/trafficcam/track"
	"github.com/ausocean/utils/logging"
)

const (
	defaultMinMatchScore = 0.5
	defaultMagnification = 1.0015
	defaultSearchMargin  = 6
)

// Outcome describes what happened to the tracks of a lane in one frame.
type Outcome struct {
	Tracked []track.ID // Tracks found in the frame.
	Lost    []track.ID // Tracks whose template no longer matched.
	Exited  []track.ID // Tracks that left the zone.
}

// Tracker advances the tracks of each lane by one frame.
type Tracker struct {
	log      logging.Logger
	zone     track.Zone
	minScore float64
	mag      float64
	margin   float64
	refresh  uint64
	m        *matcher
}

// NewTracker returns a new Tracker.
func NewTracker(c config.Config) *Tracker {

	// Validate parameters.
	if c.MinMatchScore <= 0 || c.MinMatchScore > 1 {
		c.LogInvalidField("MinMatchScore", defaultMinMatchScore)
		c.MinMatchScore = defaultMinMatchScore
	}
	if c.Magnification < 1 {
		c.LogInvalidField("Magnification", defaultMagnification)
		c.Magnification = defaultMagnification
	}
	if c.SearchMargin <= 0 {
		c.LogInvalidField("SearchMargin", defaultSearchMargin)
		c.SearchMargin = defaultSearchMargin
	}

	return &Tracker{
		log:      c.Logger,
		zone:     c.Zone(),
		minScore: c.MinMatchScore,
		mag:      c.Magnification,
		margin:   c.SearchMargin,
		refresh:  uint64(c.TemplateRefresh),
		m:        newMatcher(c.EdgeMatching),
	}
}

// Track moves every track of lane ln to its position in frame, the n'th frame
// of the run. Tracks that are lost or have left the zone are deleted from reg
// before Track returns.
func (t *Tracker) Track(reg *Registry, ln Lane, frame gocv.Mat, n uint64) Outcome {
	var out Outcome
	l := ln.Index
	fb := bounds(frame)
	m := ln.Direction.Magnification(t.mag)

	for _, id := range reg.IDs(l) {
		box, _ := reg.Box(l, id)
		tpl, _ := reg.Template(l, id)

		// Grow or shrink the vehicle for the change in distance from the camera.
		if m != 1 {
			box = box.Scale(m)
			if sz := box.Size(); sz.X > 0 && sz.Y > 0 && sz != image.Pt(tpl.Cols(), tpl.Rows()) {
				scaled := gocv.NewMat()
				gocv.Resize(*tpl, &scaled, sz, 0, 0, gocv.InterpolationLinear)
				reg.SetTemplate(l, id, &scaled)
				tpl = &scaled
			}
		}

		win := track.SearchWindow(box, t.margin, fb)
		if win.Dx() < tpl.Cols() || win.Dy() < tpl.Rows() {
			t.lose(reg, l, id, &out, "window smaller than template", 0)
			continue
		}

		search := frame.Region(win)
		score, loc := t.m.match(search, *tpl)
		search.Close()
		if math.IsNaN(score) || math.IsInf(score, 0) || score < t.minScore {
			t.lose(reg, l, id, &out, "match below threshold", score)
			continue
		}

		box.X = float64(win.Min.X + loc.X)
		box.Y = float64(win.Min.Y + loc.Y)
		reg.Update(l, id, box)
		out.Tracked = append(out.Tracked, id)

		if ln.Direction.Exited(t.zone, box) {
			reg.MarkForDeletion(l, id)
			out.Exited = append(out.Exited, id)
			t.log.Debug("vehicle exited", "lane", l, "id", id, "box", box)
			continue
		}
		if reg.InBoundary(l, id) && ln.Direction.Clear(t.zone, box) {
			reg.LeaveBoundary(l, id)
		}

		if t.refresh > 0 && n%t.refresh == 0 {
			fresh := crop(frame, box.Image())
			switch {
			case fresh == nil:
			case fresh.Cols() == tpl.Cols() && fresh.Rows() == tpl.Rows():
				reg.SetTemplate(l, id, fresh)
			default:
				fresh.Close()
			}
		}
	}

	reg.Flush()
	return out
}

func (t *Tracker) lose(reg *Registry, l int, id track.ID, out *Outcome, why string, score float64) {
	reg.MarkForDeletion(l, id)
	out.Lost = append(out.Lost, id)
	t.log.Debug("vehicle lost", "lane", l, "id", id, "reason", why, "score", score)
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (t *Tracker) Close() error {
	return t.m.close()
}
