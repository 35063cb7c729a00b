//go:build withcv
// +build withcv

/*
DESCRIPTION
  device.go provides FrameSource, an interface that describes a configurable
  video source that can be started and stopped from which frames may be
  obtained.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package device

import (
	"errors"
	"io"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/pipeline/config"
)

// FrameSource describes a configurable video source from which frames can be
// obtained one at a time.
type FrameSource interface {
	// Name returns the name of the FrameSource.
	Name() string

	// Set allows for configuration of the FrameSource using a Config struct.
	// All, some or none of the fields of the Config struct may be used for
	// configuration by an implementation. An implementation should specify
	// what fields are considered.
	Set(c config.Config) error

	// Start will start the FrameSource capturing frames; after which the Read
	// method may be called to obtain them.
	Start() error

	// Stop will stop the FrameSource from capturing frames. From this point
	// Reads will no longer be successful.
	Stop() error

	// IsRunning is used to determine if the source is running.
	IsRunning() bool

	// Read reads the next frame, a BGR image, into dst. It returns io.EOF when
	// the stream has ended.
	Read(dst *gocv.Mat) error
}

const defaultManualQueue = 8

// Manual is an implementation of the FrameSource interface that represents
// a manual input mechanism, i.e. frames are written to this source through
// software. Written frames are queued; once the queue is full Write blocks
// until a frame is read. End marks the end of the stream, after which Read
// returns the queued frames and then io.EOF.
type Manual struct {
	mu        sync.Mutex
	isRunning bool
	ended     bool
	size      int
	frames    chan gocv.Mat
}

// NewManual provides a new Manual source that queues up to n frames.
func NewManual(n int) *Manual {
	if n <= 0 {
		n = defaultManualQueue
	}
	return &Manual{size: n}
}

// Name returns the name of Manual i.e. "Manual".
func (m *Manual) Name() string { return "Manual" }

// Set is a stub to satisfy the FrameSource interface; no configuration fields
// are required by Manual.
func (m *Manual) Set(c config.Config) error { return nil }

// Start sets the Manual isRunning flag to true and creates the frame queue.
// Starting a running source does nothing, so frames may be written before
// the source is handed to a pipeline.
func (m *Manual) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isRunning {
		return nil
	}
	m.frames = make(chan gocv.Mat, m.size)
	m.ended = false
	m.isRunning = true
	return nil
}

// Stop sets the isRunning flag to false and frees any queued frames.
func (m *Manual) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isRunning {
		return nil
	}
	m.isRunning = false
	if !m.ended {
		close(m.frames)
		m.ended = true
	}
	for f := range m.frames {
		f.Close()
	}
	return nil
}

// IsRunning returns the value of the isRunning flag to indicate if Start has
// been called (and Stop has not been called after).
func (m *Manual) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}

// Write queues a copy of frame.
func (m *Manual) Write(frame gocv.Mat) error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return errors.New("manual source has not been started, can't write")
	}
	if m.ended {
		m.mu.Unlock()
		return errors.New("manual source has ended, can't write")
	}
	frames := m.frames
	m.mu.Unlock()

	frames <- frame.Clone()
	return nil
}

// End marks the end of the stream.
func (m *Manual) End() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isRunning && !m.ended {
		close(m.frames)
		m.ended = true
	}
}

// Read implements FrameSource. It blocks until a frame is written or the
// stream ends.
func (m *Manual) Read(dst *gocv.Mat) error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return errors.New("manual source has not been started, can't read")
	}
	frames := m.frames
	m.mu.Unlock()

	f, ok := <-frames
	if !ok {
		return io.EOF
	}
	defer f.Close()
	f.CopyTo(dst)
	return nil
}
