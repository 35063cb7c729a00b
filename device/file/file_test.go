//go:build withcv
// +build withcv

/*
DESCRIPTION
  file_test.go tests the file FrameSource.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package file

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/pipeline/config"
	"github.com/ausocean/utils/logging"
)

const testFrames = 5

// writeVideo writes a short video to dir and returns its path.
func writeVideo(t *testing.T, dir string) string {
	path := filepath.Join(dir, "test.avi")
	w, err := gocv.VideoWriterFile(path, "MJPG", 25, 64, 48, true)
	if err != nil {
		t.Skipf("could not create video writer: %v", err)
	}
	defer w.Close()
	if !w.IsOpened() {
		t.Skip("video writer not available")
	}

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 80, 120, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	for i := 0; i < testFrames; i++ {
		err = w.Write(frame)
		if err != nil {
			t.Fatalf("could not write frame: %v", err)
		}
	}
	return path
}

func TestIsRunning(t *testing.T) {
	path := writeVideo(t, t.TempDir())

	d := New((*logging.TestLogger)(t))

	err := d.Set(config.Config{
		InputPath: path,
	})
	if err != nil {
		t.Skipf("could not set device: %v", err)
	}

	err = d.Start()
	if err != nil {
		t.Fatalf("could not start device %v", err)
	}

	if !d.IsRunning() {
		t.Error("device isn't running, when it should be")
	}

	err = d.Stop()
	if err != nil {
		t.Error(err.Error())
	}

	if d.IsRunning() {
		t.Error("device is running, when it should not be")
	}
}

func TestRead(t *testing.T) {
	path := writeVideo(t, t.TempDir())

	d := NewWith((*logging.TestLogger)(t), path)
	err := d.Start()
	if err != nil {
		t.Fatalf("could not start device %v", err)
	}
	defer d.Stop()

	frame := gocv.NewMat()
	defer frame.Close()

	var n int
	for {
		err = d.Read(&frame)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("could not read frame: %v", err)
		}
		if frame.Cols() != 64 || frame.Rows() != 48 || frame.Channels() != 3 {
			t.Fatalf("unexpected frame: %dx%d with %d channels", frame.Cols(), frame.Rows(), frame.Channels())
		}
		n++
	}
	if n != testFrames {
		t.Errorf("unexpected frame count: want %d, got %d", testFrames, n)
	}
}

func TestNotStarted(t *testing.T) {
	d := New((*logging.TestLogger)(t))
	frame := gocv.NewMat()
	defer frame.Close()
	if err := d.Read(&frame); err == nil {
		t.Error("expected error reading from a device that was not started")
	}
	if err := d.Start(); err == nil {
		t.Error("expected error starting a device that was not set")
	}
}
