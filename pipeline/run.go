//go:build withcv
// +build withcv

/*
DESCRIPTION
  run.go provides the set up of a run's input and the routine that reads
  frames from it.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Alan Noble <alan@ausocean.org>
  Dan Kortschak <dan@ausocean.org>
  Trek Hopton <trek@ausocean.org>
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
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ausocean/trafficcam/device"
	"github.com/ausocean/trafficcam/device/file"
	"github.com/ausocean/trafficcam/device/webcam"
	"github.com/ausocean/trafficcam/pipeline/config"
)

// TODO(Scott): distinguish errors that should stop the run from those that
// only lose a frame.
func (p *Pipeline) handleErrors() {
	defer close(p.errDone)
	for err := range p.err {
		if err != nil {
			p.Config().Logger.Error(pkg+"async error", "error", err.Error())
		}
	}
}

// setConfig validates c and makes it the current config.
func (p *Pipeline) setConfig(c config.Config) error {
	c.Logger.Debug(pkg + "validating config")
	err := c.Validate()
	if err != nil {
		return fmt.Errorf("config struct is bad: %w", err)
	}
	c.Logger.Info(pkg + "config validated")
	c.Logger.SetLevel(c.LogLevel)
	p.mu.Lock()
	p.cfg = c
	p.mu.Unlock()
	return nil
}

// reset starts the input, skips to the start frame and bootstraps the
// background.
func (p *Pipeline) reset() error {
	err := p.setupInput()
	if err != nil {
		return fmt.Errorf("could not set up input: %w", err)
	}

	p.cfg.Logger.Debug(pkg+"starting input", "input", p.input.Name())
	err = p.input.Start()
	if err != nil {
		return fmt.Errorf("could not start input device: %w", err)
	}
	p.cfg.Logger.Info(pkg+"input started", "input", p.input.Name())

	for p.n+1 < uint64(p.cfg.StartFrame) {
		err = p.input.Read(&p.frame)
		if err != nil {
			return fmt.Errorf("could not skip to start frame %d: %w", p.cfg.StartFrame, err)
		}
		p.n++
	}

	p.cfg.Logger.Debug(pkg+"bootstrapping background", "frame", p.n+1)
	for {
		err = p.input.Read(&p.frame)
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: stream ended at frame %d", ErrIncompleteBootstrap, p.n)
		}
		if err != nil {
			return fmt.Errorf("could not read frame: %w", err)
		}

		before := p.n
		ready, err := p.Bootstrap(p.frame)
		if err != nil {
			return err
		}
		if !ready {
			continue
		}
		p.cfg.Logger.Info(pkg+"background ready", "frame", p.n)

		// A background loaded from an image does not use the frame.
		if p.n == before {
			err = p.Step(p.frame)
			if err != nil {
				return err
			}
		}
		return nil
	}
}

// setupInput creates the frame source described by the config, unless one
// was provided.
func (p *Pipeline) setupInput() error {
	if p.input == nil {
		switch p.cfg.Input {
		case config.InputFile:
			p.input = file.New(p.cfg.Logger)
		case config.InputWebcam:
			p.input = webcam.New(p.cfg.Logger)
		case config.InputManual:
			return errors.New("manual input requires a source, see WithSource")
		default:
			return fmt.Errorf("unrecognised input type: %v", p.cfg.Input)
		}
	}

	err := p.input.Set(p.cfg)
	var multiErr device.MultiError
	if errors.As(err, &multiErr) {
		p.cfg.Logger.Warning(pkg+"errors from configuring input", "input", p.input.Name(), "errors", multiErr.Error())
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not configure input: %w", err)
	}
	return nil
}

func (p *Pipeline) stopInput() {
	if p.input == nil || !p.input.IsRunning() {
		return
	}
	p.cfg.Logger.Debug(pkg + "stopping input")
	err := p.input.Stop()
	if err != nil {
		p.cfg.Logger.Error(pkg+"could not stop input", "error", err.Error())
		return
	}
	p.cfg.Logger.Info(pkg + "input stopped")
}

// processFrom reads frames from the input and processes them until the
// stream ends, the end frame is reached or Stop is called. delay is the
// minimum time between frames.
func (p *Pipeline) processFrom(delay time.Duration) {
	defer p.wg.Done()
	defer p.finish()

	p.cfg.Logger.Debug(pkg + "processing")
	for {
		select {
		case <-p.stop:
			p.cfg.Logger.Info(pkg+"stop requested", "frame", p.n)
			return
		default:
		}

		p.applyUpdates()

		if p.cfg.EndFrame != 0 && p.n >= uint64(p.cfg.EndFrame) {
			p.cfg.Logger.Info(pkg+"reached end frame", "frame", p.n)
			return
		}

		err := p.input.Read(&p.frame)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			p.cfg.Logger.Info(pkg+"end of stream", "frame", p.n)
			return
		default:
			p.err <- fmt.Errorf("could not read frame: %w", err)
			return
		}

		err = p.Step(p.frame)
		if err != nil {
			p.err <- err
		}

		if delay != 0 {
			time.Sleep(delay)
		}
	}
}
