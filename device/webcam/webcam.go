//go:build withcv
// +build withcv

/*
DESCRIPTION
  webcam.go provides an implementation of FrameSource for webcams.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package webcam provides an implementation of FrameSource for webcams.
package webcam

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/device"
	"github.com/ausocean/trafficcam/pipeline/config"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "webcam: "

// Configuration defaults.
const defaultInputPath = "/dev/video0"

// Configuration field errors.
var errBadInputPath = errors.New("input path bad or unset, defaulting")

// Webcam is an implementation of the FrameSource interface for a Webcam.
// Webcam uses OpenCV to capture frames from the camera.
type Webcam struct {
	cap       *gocv.VideoCapture
	log       logging.Logger
	path      string
	isRunning bool
	mu        sync.Mutex
}

// New returns a new Webcam.
func New(l logging.Logger) *Webcam {
	return &Webcam{log: l}
}

// Name returns the name of the device.
func (w *Webcam) Name() string {
	return "Webcam"
}

// Set will validate the relevant fields of the given Config struct. The
// InputPath is either a device path or a device index. If fields are not
// valid, an error is added to the MultiError and a default value is used.
func (w *Webcam) Set(c config.Config) error {
	var errs device.MultiError
	if c.InputPath == "" {
		errs = append(errs, errBadInputPath)
		c.InputPath = defaultInputPath
	}
	w.path = c.InputPath
	if len(errs) != 0 {
		return errs
	}
	return nil
}

// Start opens the camera.
func (w *Webcam) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var (
		vc  *gocv.VideoCapture
		err error
	)
	if id, convErr := strconv.Atoi(w.path); convErr == nil {
		vc, err = gocv.VideoCaptureDevice(id)
	} else {
		vc, err = gocv.OpenVideoCapture(w.path)
	}
	if err != nil {
		return fmt.Errorf("could not open camera: %w", err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("could not open camera: %s", w.path)
	}
	w.cap = vc
	w.isRunning = true
	w.log.Info(pkg+"webcam started", "path", w.path)
	return nil
}

// Stop releases the camera.
func (w *Webcam) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.isRunning {
		return nil
	}
	w.isRunning = false
	err := w.cap.Close()
	w.cap = nil
	if err != nil {
		return fmt.Errorf("could not close camera: %w", err)
	}
	return nil
}

// Read implements FrameSource. A camera that stops giving frames has ended
// its stream, so io.EOF is returned.
func (w *Webcam) Read(dst *gocv.Mat) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cap == nil {
		return errors.New("webcam not streaming")
	}
	if !w.cap.Read(dst) || dst.Empty() {
		w.log.Warning(pkg+"no frame from camera", "path", w.path)
		return io.EOF
	}
	return nil
}

// IsRunning is used to determine if the webcam is running.
func (w *Webcam) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}
