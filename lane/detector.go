//go:build withcv
// +build withcv

/*
DESCRIPTION
  detector.go finds vehicles entering a lane and creates tracks for them.

AUTHORS
  Scott Barnard <scott@ausocean.org>
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lane

import (
	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/pipeline/config"
	"github.com/ausocean/trafficcam/track"
	"github.com/ausocean/utils/logging"
)

const (
	defaultDetectMinArea     = 30
	defaultDetectPerspective = 4
	defaultMinAreaRatio      = 0.3
)

// Detector finds new vehicles in a lane.
type Detector struct {
	log         logging.Logger
	zone        track.Zone
	minArea     float64
	persp       float64
	ratio       float64
	containment bool
	refiner     *Refiner

	masked gocv.Mat
	labels gocv.Mat
	stats  gocv.Mat
	cent   gocv.Mat
}

// NewDetector returns a new Detector.
func NewDetector(c config.Config) *Detector {

	// Validate parameters.
	if c.DetectMinArea < 0 {
		c.LogInvalidField("DetectMinArea", defaultDetectMinArea)
		c.DetectMinArea = defaultDetectMinArea
	}
	if c.DetectPerspective <= 0 {
		c.LogInvalidField("DetectPerspective", defaultDetectPerspective)
		c.DetectPerspective = defaultDetectPerspective
	}
	if c.MinAreaRatio <= 0 || c.MinAreaRatio > 1 {
		c.LogInvalidField("MinAreaRatio", defaultMinAreaRatio)
		c.MinAreaRatio = defaultMinAreaRatio
	}

	return &Detector{
		log:         c.Logger,
		zone:        c.Zone(),
		minArea:     c.DetectMinArea,
		persp:       c.DetectPerspective,
		ratio:       c.MinAreaRatio,
		containment: c.Dedup != config.DedupOffset,
		refiner:     NewRefiner(c),
		masked:      gocv.NewMat(),
		labels:      gocv.NewMat(),
		stats:       gocv.NewMat(),
		cent:        gocv.NewMat(),
	}
}

// Detect looks for vehicles in lane ln of the vehicle mask cars and creates a
// track in reg for each one that is not already tracked. On the first frame
// of a run, vehicles anywhere inside the zone interior are accepted; after
// that only vehicles in the lane's admission band are. The ids of the new
// tracks are returned.
func (d *Detector) Detect(reg *Registry, ln Lane, frame, background, cars gocv.Mat, first bool) []track.ID {
	gocv.BitwiseAnd(cars, ln.Mask, &d.masked)

	var created []track.ID
	for _, c := range components(d.masked, 8, &d.labels, &d.stats, &d.cent) {
		if c.fillRatio() < d.ratio {
			continue
		}
		if c.area < d.zone.AreaThreshold(float64(c.box.Min.Y), d.persp, d.minArea) {
			continue
		}

		box := track.RectFrom(c.box)
		if first && !d.zone.Interior(box) || !first && !ln.Direction.Admits(d.zone, box) {
			continue
		}

		for _, rb := range d.refiner.Refine(frame, background, c.box) {
			if d.merge(reg, ln.Index, frame, rb) {
				continue
			}
			tpl := crop(frame, rb.Image())
			if tpl == nil {
				continue
			}
			id := reg.Create(ln.Index, rb, tpl)
			d.log.Debug("vehicle detected", "lane", ln.Index, "id", id, "box", rb)
			created = append(created, id)
		}
	}
	return created
}

// merge reports whether box is a vehicle that lane l already tracks. If the
// stored box of that vehicle is smaller than box, the stored box and
// template are replaced with the new ones.
func (d *Detector) merge(reg *Registry, l int, frame gocv.Mat, box track.Rect) bool {
	for _, id := range reg.Boundary(l) {
		old, _ := reg.Box(l, id)
		if !track.SameVehicle(box, old, float64(d.zone.NearOffset), d.containment) {
			continue
		}
		if old.Area() < box.Area() {
			tpl := crop(frame, box.Image())
			if tpl == nil {
				return true
			}
			reg.Replace(l, id, box, tpl)
			d.log.Debug("vehicle box replaced", "lane", l, "id", id, "box", box)
		}
		return true
	}
	return false
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (d *Detector) Close() error {
	for _, m := range []*gocv.Mat{&d.masked, &d.labels, &d.stats, &d.cent} {
		m.Close()
	}
	return d.refiner.Close()
}
