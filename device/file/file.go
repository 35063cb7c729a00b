//go:build withcv
// +build withcv

/*
DESCRIPTION
  file.go provides an implementation of the FrameSource interface for video
  files.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file provides an implementation of FrameSource for video files.
package file

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/pipeline/config"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "file: "

// VideoFile is an implementation of the FrameSource interface for a file
// containing video that OpenCV can decode.
type VideoFile struct {
	cap       *gocv.VideoCapture
	path      string
	isRunning bool
	log       logging.Logger
	set       bool
	frames    uint64
	mu        sync.Mutex
}

// New returns a new VideoFile.
func New(l logging.Logger) *VideoFile { return &VideoFile{log: l} }

// NewWith returns a new VideoFile with required params provided i.e. the Set
// method does not need to be called.
func NewWith(l logging.Logger, path string) *VideoFile {
	return &VideoFile{log: l, path: path, set: true}
}

// Name returns the name of the device.
func (m *VideoFile) Name() string {
	return "File"
}

// Set takes the path of the video from the InputPath field of c.
func (m *VideoFile) Set(c config.Config) error {
	if c.InputPath == "" {
		return errors.New("no input path for video file")
	}
	m.path = c.InputPath
	m.set = true
	return nil
}

// Start will open the video file.
func (m *VideoFile) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return errors.New("VideoFile has not been set with config")
	}
	vc, err := gocv.VideoCaptureFile(m.path)
	if err != nil {
		return fmt.Errorf("could not open video file: %w", err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("could not open video file: %s", m.path)
	}
	m.cap = vc
	m.frames = 0
	m.isRunning = true
	m.log.Info(pkg+"opened video", "path", m.path, "fps", vc.Get(gocv.VideoCaptureFPS), "frames", vc.Get(gocv.VideoCaptureFrameCount))
	return nil
}

// Stop will close the file such that any further reads will fail.
func (m *VideoFile) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cap == nil {
		return nil
	}
	err := m.cap.Close()
	if err != nil {
		return err
	}
	m.cap = nil
	m.isRunning = false
	return nil
}

// Read implements FrameSource. If Start has not been called, or Start has
// been called and Stop has since been called, an error is returned. io.EOF
// is returned once the last frame has been read.
func (m *VideoFile) Read(dst *gocv.Mat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cap == nil {
		return errors.New("video file is closed, VideoFile not started")
	}

	if !m.cap.Read(dst) || dst.Empty() {
		m.log.Info(pkg+"end of video", "frames", m.frames)
		return io.EOF
	}
	m.frames++
	return nil
}

// IsRunning is used to determine if the VideoFile device is running.
func (m *VideoFile) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cap != nil && m.isRunning
}
