//go:build withcv
// +build withcv

/*
DESCRIPTION
  masks.go loads the road mask, the lane masks and the background plate that
  describe a camera's scene.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"image"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/lane"
	"github.com/ausocean/trafficcam/pipeline/config"
)

// Mask loading errors.
var (
	ErrNoLanes    = errors.New("no lane masks")
	ErrMaskSize   = errors.New("mask size does not match frame")
	ErrEmptyImage = errors.New("image is empty or unreadable")
)

// loadMask reads the image at path as a binary mask the size of the frame.
// Any non-zero pixel is part of the mask.
func loadMask(path string, size image.Point) (gocv.Mat, error) {
	m := gocv.IMRead(path, gocv.IMReadGrayScale)
	if m.Empty() {
		m.Close()
		return gocv.NewMat(), errors.Wrapf(ErrEmptyImage, "could not read mask %s", path)
	}
	if m.Cols() != size.X || m.Rows() != size.Y {
		m.Close()
		return gocv.NewMat(), errors.Wrapf(ErrMaskSize, "mask %s is %dx%d", path, m.Cols(), m.Rows())
	}
	gocv.Threshold(m, &m, 0, 255, gocv.ThresholdBinary)
	return m, nil
}

// fullMask returns a mask covering the whole frame.
func fullMask(size image.Point) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), size.Y, size.X, gocv.MatTypeCV8U)
}

// loadRoad returns the road mask, or a mask of the whole frame if no path is
// configured.
func loadRoad(c config.Config, size image.Point) (gocv.Mat, error) {
	if c.RoadMaskPath == "" {
		c.Logger.Info(pkg+"no road mask, using whole frame")
		return fullMask(size), nil
	}
	return loadMask(c.RoadMaskPath, size)
}

// loadLanes reads lane masks LaneMaskBase0.png, LaneMaskBase1.png and so on
// until a file is missing. The first lane must exist. If no base is
// configured the whole frame is a single lane.
func loadLanes(c config.Config, size image.Point) ([]lane.Lane, error) {
	if c.LaneMaskBase == "" {
		c.Logger.Info(pkg+"no lane masks, using whole frame as one lane")
		return []lane.Lane{{Index: 0, Mask: fullMask(size), Direction: c.Direction(0)}}, nil
	}

	var lanes []lane.Lane
	for i := 0; ; i++ {
		path := c.LaneMaskBase + strconv.Itoa(i) + ".png"
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			break
		}
		m, err := loadMask(path, size)
		if err != nil {
			closeLanes(lanes)
			return nil, errors.Wrapf(err, "could not load lane %d", i)
		}
		lanes = append(lanes, lane.Lane{Index: i, Mask: m, Direction: c.Direction(i)})
		c.Logger.Debug(pkg+"loaded lane mask", "lane", i, "path", path, "direction", c.Direction(i).String())
	}
	if len(lanes) == 0 {
		return nil, errors.Wrapf(ErrNoLanes, "%s0.png does not exist", c.LaneMaskBase)
	}
	return lanes, nil
}

// loadPlate reads the background plate, a colour image of the empty scene.
func loadPlate(path string, size image.Point) (gocv.Mat, error) {
	m := gocv.IMRead(path, gocv.IMReadColor)
	if m.Empty() {
		m.Close()
		return gocv.NewMat(), errors.Wrapf(ErrEmptyImage, "could not read background %s", path)
	}
	if m.Cols() != size.X || m.Rows() != size.Y {
		m.Close()
		return gocv.NewMat(), errors.Wrapf(ErrMaskSize, "background %s is %dx%d", path, m.Cols(), m.Rows())
	}
	return m, nil
}

func closeLanes(lanes []lane.Lane) {
	for i := range lanes {
		lanes[i].Close()
	}
}
