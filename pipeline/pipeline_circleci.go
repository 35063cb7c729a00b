//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the pipeline when OpenCV is not available, such as on CI builds.
  The pipeline can be configured, but not started.

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
	"errors"
	"fmt"

	"github.com/ausocean/trafficcam/pipeline/config"
)

// ErrNoOpenCV is returned by Start when built without the withcv tag.
var ErrNoOpenCV = errors.New("built without OpenCV, rebuild with -tags withcv")

// Pipeline is a stand in that holds a config.
type Pipeline struct {
	cfg   config.Config
	runID string
}

// New returns a new Pipeline with a validated config.
func New(c config.Config, opts ...Option) (*Pipeline, error) {
	err := c.Validate()
	if err != nil {
		return nil, fmt.Errorf("could not set config: %w", err)
	}
	p := &Pipeline{cfg: c}
	for i, opt := range opts {
		err = opt(p)
		if err != nil {
			return nil, fmt.Errorf("could not apply option %d: %w", i, err)
		}
	}
	return p, nil
}

// Config returns a copy of the current config.
func (p *Pipeline) Config() config.Config { return p.cfg }

// Start returns ErrNoOpenCV.
func (p *Pipeline) Start() error { return ErrNoOpenCV }

func (p *Pipeline) Stop()         {}
func (p *Pipeline) Wait()         {}
func (p *Pipeline) Running() bool { return false }
func (p *Pipeline) Stats() Stats  { return Stats{} }
func (p *Pipeline) Close() error  { return nil }

// Update applies vars to the config.
func (p *Pipeline) Update(vars map[string]string) error {
	c := p.cfg
	c.Update(vars)
	err := c.Validate()
	if err != nil {
		return fmt.Errorf("could not update config: %w", err)
	}
	p.cfg = c
	return nil
}
