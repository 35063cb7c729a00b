//go:build withcv
// +build withcv

/*
DESCRIPTION
  sinks.go provides the destinations of annotated frames: a video file and a
  directory of numbered PNG images.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
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
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/lane"
	"github.com/ausocean/trafficcam/track"
	"github.com/ausocean/utils/logging"
)

// Annotation colours.
var (
	tracked = color.RGBA{0, 0, 255, 0}
	created = color.RGBA{255, 0, 0, 0}
	label   = color.RGBA{255, 255, 255, 0}
)

const defaultOutputFPS = 25

// sink receives annotated frames.
type sink interface {
	write(n uint64, img gocv.Mat) error
	close() error
}

// videoSink writes frames to a video file. The codec follows the file
// extension; anything other than .mp4 is written as motion JPEG.
type videoSink struct {
	path string
	fps  float64
	vw   *gocv.VideoWriter
	log  logging.Logger
}

func newVideoSink(l logging.Logger, path string, fps float64) *videoSink {
	if fps <= 0 {
		fps = defaultOutputFPS
	}
	return &videoSink{path: path, fps: fps, log: l}
}

// write opens the writer on the first frame, when the frame size is known.
func (s *videoSink) write(n uint64, img gocv.Mat) error {
	if s.vw == nil {
		codec := "MJPG"
		if strings.EqualFold(filepath.Ext(s.path), ".mp4") {
			codec = "mp4v"
		}
		vw, err := gocv.VideoWriterFile(s.path, codec, s.fps, img.Cols(), img.Rows(), true)
		if err != nil {
			return fmt.Errorf("could not open video writer: %w", err)
		}
		if !vw.IsOpened() {
			vw.Close()
			return fmt.Errorf("could not open video writer for %s", s.path)
		}
		s.vw = vw
		s.log.Info(pkg+"writing annotated video", "path", s.path, "codec", codec, "fps", s.fps)
	}
	err := s.vw.Write(img)
	if err != nil {
		return fmt.Errorf("could not write frame %d: %w", n, err)
	}
	return nil
}

func (s *videoSink) close() error {
	if s.vw == nil {
		return nil
	}
	err := s.vw.Close()
	s.vw = nil
	return err
}

// frameSink writes each frame to dir as frame_<n>.png.
type frameSink struct {
	dir string
}

func newFrameSink(dir string) (*frameSink, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("could not create frame directory: %w", err)
	}
	return &frameSink{dir: dir}, nil
}

func (s *frameSink) write(n uint64, img gocv.Mat) error {
	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.png", n))
	if !gocv.IMWrite(path, img) {
		return fmt.Errorf("could not write %s", path)
	}
	return nil
}

func (s *frameSink) close() error { return nil }

// annotate draws the live tracks of reg on dst, which holds a copy of the
// frame. Tracks created in this frame are drawn in a different colour.
func annotate(dst *gocv.Mat, reg *lane.Registry, fresh map[track.ID]bool) {
	for _, t := range reg.Tracks() {
		c := tracked
		if fresh[t.ID] {
			c = created
		}
		r := t.Box.Image()
		gocv.Rectangle(dst, r, c, 1)
		gocv.PutText(dst, strconv.FormatUint(uint64(t.ID), 10), image.Pt(r.Min.X, r.Min.Y-2), gocv.FontHersheyPlain, 1, label, 1)
	}
}
