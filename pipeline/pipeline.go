//go:build withcv
// +build withcv

/*
NAME
  pipeline.go

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
	"image"
	"io"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ausocean/trafficcam/device"
	"github.com/ausocean/trafficcam/filter"
	"github.com/ausocean/trafficcam/lane"
	"github.com/ausocean/trafficcam/pipeline/config"
	"github.com/ausocean/trafficcam/report"
	"github.com/ausocean/trafficcam/track"
)

// WithSource provides the frame source, in place of the one described by the
// config Input. This is how frames are supplied to a manual pipeline.
func WithSource(src device.FrameSource) Option {
	return func(p *Pipeline) error {
		if src == nil {
			return errors.New("nil frame source")
		}
		p.input = src
		p.ownSource = false
		return nil
	}
}

// Pipeline provides methods to control a tracking session; providing methods
// to start, stop and change the state of an instance using the Config struct.
type Pipeline struct {
	// cfg holds the pipeline configuration, including the logger.
	cfg config.Config

	// runID tags the log lines and reports of a run.
	runID string

	// input is the source of frames.
	input device.FrameSource

	// ownSource is true if input was created from the config, and so is
	// replaced when the config changes.
	ownSource bool

	// Scene masks, loaded from the first frame of a run.
	road  gocv.Mat
	lanes []lane.Lane

	// Processing stages.
	bg  *filter.Background
	fg  *filter.Foreground
	reg *lane.Registry
	det *lane.Detector
	trk *lane.Tracker

	// Results.
	rec    *report.Recorder
	tracks *os.File
	sinks  []sink

	// Frame buffers.
	frame     gocv.Mat
	motion    gocv.Mat
	annotated gocv.Mat

	// n is the number of the last frame handed to the pipeline.
	n uint64

	// first is true until the first frame after bootstrapping is processed.
	first bool

	// finished is true once the results of a run have been written.
	finished bool

	// mu guards stats, updates, starting and running, and writes to cfg
	// once the pipeline has been created.
	mu    sync.Mutex
	stats Stats

	// updates holds config variables waiting to be applied between frames.
	updates map[string]string

	// starting is true while Start bootstraps the background. Updates are
	// queued from then on.
	starting bool

	// running is used to keep track of the pipeline's running state between
	// methods.
	running bool

	// wg will be used to wait for the processing routine to finish.
	wg sync.WaitGroup

	// err will channel errors from the processing routine to the handle
	// errors routine. It is closed by Close, and errDone closed once the
	// handler has returned.
	err     chan error
	errDone chan struct{}
	closed  bool

	// stop is used to signal stopping to the processing routine.
	stop chan struct{}
}

// New returns a pointer to a new Pipeline with the desired configuration,
// and/or an error if construction of the new instance was not successful.
func New(c config.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		err:       make(chan error),
		errDone:   make(chan struct{}),
		ownSource: true,
		frame:     gocv.NewMat(),
		motion:    gocv.NewMat(),
		annotated: gocv.NewMat(),
	}
	err := p.setConfig(c)
	if err != nil {
		p.closeBuffers()
		return nil, fmt.Errorf("could not set config: %w", err)
	}
	for i, opt := range opts {
		err = opt(p)
		if err != nil {
			p.closeBuffers()
			return nil, fmt.Errorf("could not apply option %d: %w", i, err)
		}
	}
	go p.handleErrors()
	return p, nil
}

// Config returns a copy of the pipeline's current config.
func (p *Pipeline) Config() config.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Stats returns the counters of the current run.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Running reports whether the processing routine has been started and not
// yet stopped.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pipeline) setRunning(b bool) {
	p.mu.Lock()
	p.running = b
	p.mu.Unlock()
}

// Start starts the input, loads the scene masks and bootstraps the
// background, then starts a routine that processes the rest of the stream.
// Errors in any of the start up steps, including a stream that ends before
// the background is bootstrapped, are returned.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	if p.running || p.starting {
		l := p.cfg.Logger
		p.mu.Unlock()
		l.Warning(pkg + "start called, but pipeline already running")
		return nil
	}
	p.starting = true
	p.mu.Unlock()

	p.stop = make(chan struct{})

	p.cfg.Logger.Debug(pkg+"resetting pipeline", "run", p.runID)
	err := p.reset()
	if err != nil {
		p.stopInput()
		p.release()

		// Updates queued while starting apply to the next attempt.
		p.mu.Lock()
		p.starting = false
		vars := p.updates
		p.updates = nil
		p.mu.Unlock()
		if len(vars) != 0 {
			uerr := p.reconfig(vars)
			if uerr != nil {
				p.cfg.Logger.Error(pkg+"discarding config update", "error", uerr.Error(), "vars", vars)
			}
		}
		return err
	}
	p.cfg.Logger.Info(pkg+"pipeline reset", "run", p.runID, "lanes", len(p.lanes), "frame", p.n)

	// Calculate delay between frames if the FileFPS != 0. Otherwise use no delay.
	d := time.Duration(0)
	if p.cfg.FileFPS != 0 {
		d = time.Duration(1000/p.cfg.FileFPS) * time.Millisecond
	}

	p.cfg.Logger.Debug(pkg + "starting processing routine")
	p.wg.Add(1)
	p.mu.Lock()
	p.starting = false
	p.running = true
	p.mu.Unlock()
	go p.processFrom(d)
	return nil
}

// Stop stops the processing routine, stops the input and frees the state of
// the run.
func (p *Pipeline) Stop() {
	l := p.Config().Logger
	if !p.Running() {
		l.Warning(pkg + "stop called but pipeline isn't running")
		return
	}

	close(p.stop)

	// A manual source blocks until written to, so end its stream.
	if m, ok := p.input.(*device.Manual); ok {
		m.End()
	}

	l.Debug(pkg + "waiting for routines to finish")
	p.wg.Wait()
	p.cfg.Logger.Info(pkg + "routines finished")

	p.stopInput()
	p.release()
	p.setRunning(false)
}

// Wait blocks until the processing routine has finished, either because the
// stream ended or because Stop was called.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Close stops the pipeline if it is running, writes the results of any run
// driven through Bootstrap and Step, and frees the pipeline's buffers. The
// pipeline can not be used after Close.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	if p.Running() {
		p.Stop()
	}
	if p.rec != nil && !p.finished {
		p.finish()
	}
	p.release()
	p.closed = true
	close(p.err)
	<-p.errDone
	return p.closeBuffers()
}

// Update takes a map of variables and their values and edits the current
// config if the variables are recognised as valid parameters. While starting
// or running, the variables are applied between frames, and only take effect on the
// stages that can be rebuilt between frames: detection, tracking, shadow rejection
// and lane directions. Input, mask, background and results settings take
// effect on the next Start.
func (p *Pipeline) Update(vars map[string]string) error {
	p.mu.Lock()
	if p.running || p.starting {
		if p.updates == nil {
			p.updates = make(map[string]string)
		}
		for k, v := range vars {
			p.updates[k] = v
		}
		l := p.cfg.Logger
		p.mu.Unlock()
		l.Info(pkg+"config update queued", "vars", vars)
		return nil
	}
	p.mu.Unlock()
	return p.reconfig(vars)
}

// reconfig applies vars to the config of a pipeline that is not running. An
// owned input is dropped so the next Start creates it from the new config.
func (p *Pipeline) reconfig(vars map[string]string) error {
	p.cfg.Logger.Debug(pkg+"checking vars", "vars", vars)
	c := p.cfg
	c.Update(vars)
	err := p.setConfig(c)
	if err != nil {
		return fmt.Errorf("could not update config: %w", err)
	}
	if p.ownSource {
		p.stopInput()
		p.input = nil
	}
	p.cfg.Logger.Info(pkg + "finished reconfig")
	return nil
}

// Bootstrap feeds frame to the background model. The scene masks are loaded,
// and the background created, on the first call. It returns true once the
// model is ready and frames may be given to Step. If the model was already
// ready, as it is when loaded from a background image, the frame is not used
// and should be given to Step.
func (p *Pipeline) Bootstrap(frame gocv.Mat) (bool, error) {
	if frame.Empty() {
		return false, filter.ErrBadFrame
	}
	if p.bg == nil {
		err := p.setupScene(frame)
		if err != nil {
			return false, err
		}
	}

	if !p.bg.Ready() {
		p.n++
		ready, err := p.bg.Bootstrap(frame)
		if err != nil {
			return false, fmt.Errorf("could not bootstrap background: %w", err)
		}
		if !ready {
			return false, nil
		}
	}

	if p.reg == nil {
		err := p.setupTracking()
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// Step processes one frame: the background is updated, vehicles are
// extracted, the tracks of each lane are advanced and new vehicles are
// detected. The results are written to the configured sinks.
func (p *Pipeline) Step(frame gocv.Mat) error {
	if p.reg == nil {
		return ErrNotBootstrapped
	}
	start := time.Now()
	p.n++

	err := p.bg.Update(frame, &p.motion)
	if err != nil {
		return fmt.Errorf("could not update background at frame %d: %w", p.n, err)
	}
	err = p.fg.Extract(frame, p.motion)
	if err != nil {
		return fmt.Errorf("could not extract vehicles at frame %d: %w", p.n, err)
	}

	p.reg.BeginFrame()
	var lost, exited []track.ID
	fresh := make(map[track.ID]bool)
	for _, ln := range p.lanes {
		if !p.first {
			out := p.trk.Track(p.reg, ln, frame, p.n)
			lost = append(lost, out.Lost...)
			exited = append(exited, out.Exited...)
		}
		for _, id := range p.det.Detect(p.reg, ln, frame, p.bg.Estimate(), p.fg.Cars(), p.first) {
			fresh[id] = true
		}
	}
	p.first = false

	err = p.rec.Record(p.n, p.reg.Tracks(), lost, exited)
	if err != nil {
		return fmt.Errorf("could not record frame: %w", err)
	}

	if len(p.sinks) != 0 {
		frame.CopyTo(&p.annotated)
		annotate(&p.annotated, p.reg, fresh)
		for _, s := range p.sinks {
			err = s.write(p.n, p.annotated)
			if err != nil {
				return fmt.Errorf("could not write annotated frame: %w", err)
			}
		}
	}

	elapsed := time.Since(start)
	p.mu.Lock()
	p.stats.Frames++
	p.stats.Active = p.reg.Len()
	p.stats.Created += uint64(len(fresh))
	p.stats.Lost += uint64(len(lost))
	p.stats.Exited += uint64(len(exited))
	p.stats.Elapsed = elapsed
	p.mu.Unlock()

	p.cfg.Logger.Debug(pkg+"frame processed", "frame", p.n, "tracks", p.reg.Len(), "created", len(fresh), "lost", len(lost), "exited", len(exited), "took", elapsed.String())
	return nil
}

// setupScene loads the scene masks to fit frame and creates the background
// model.
func (p *Pipeline) setupScene(frame gocv.Mat) error {
	size := image.Pt(frame.Cols(), frame.Rows())

	road, err := loadRoad(p.cfg, size)
	if err != nil {
		return fmt.Errorf("could not load road mask: %w", err)
	}
	lanes, err := loadLanes(p.cfg, size)
	if err != nil {
		road.Close()
		return fmt.Errorf("could not load lane masks: %w", err)
	}

	if p.cfg.BackgroundPath == "" {
		p.bg = filter.NewBackground(filter.NewSegmenter(p.cfg), p.cfg)
	} else {
		plate, err := loadPlate(p.cfg.BackgroundPath, size)
		if err != nil {
			road.Close()
			closeLanes(lanes)
			return fmt.Errorf("could not load background: %w", err)
		}
		p.bg, err = filter.NewBackgroundFromImage(plate, p.cfg)
		plate.Close()
		if err != nil {
			road.Close()
			closeLanes(lanes)
			return fmt.Errorf("could not create background: %w", err)
		}
	}

	p.road, p.lanes = road, lanes
	p.cfg.Logger.Info(pkg+"scene loaded", "width", size.X, "height", size.Y, "lanes", len(lanes), "history", p.bg.History())
	return nil
}

// setupTracking creates the stages that follow bootstrapping, and the
// results sinks.
func (p *Pipeline) setupTracking() error {
	var w io.Writer
	if p.cfg.TracksPath != "" {
		f, err := os.Create(p.cfg.TracksPath)
		if err != nil {
			return fmt.Errorf("could not create tracks file: %w", err)
		}
		p.tracks = f
		w = f
	}
	p.rec = report.NewRecorder(p.runID, len(p.lanes), w)

	if p.cfg.OutputPath != "" {
		p.sinks = append(p.sinks, newVideoSink(p.cfg.Logger, p.cfg.OutputPath, float64(p.cfg.FileFPS)))
	}
	if p.cfg.FramesDir != "" {
		s, err := newFrameSink(p.cfg.FramesDir)
		if err != nil {
			return err
		}
		p.sinks = append(p.sinks, s)
	}

	p.buildStages()
	p.reg = lane.NewRegistry(len(p.lanes))
	p.first = true
	p.finished = false
	p.stats = Stats{}
	return nil
}

// buildStages creates the stages that depend only on the config, closing any
// previous ones.
func (p *Pipeline) buildStages() {
	if p.fg != nil {
		p.fg.Close()
		p.det.Close()
		p.trk.Close()
	}
	p.fg = filter.NewForeground(p.road, p.cfg)
	p.det = lane.NewDetector(p.cfg)
	p.trk = lane.NewTracker(p.cfg)
	for i := range p.lanes {
		p.lanes[i].Direction = p.cfg.Direction(i)
	}
}

// applyUpdates applies queued config variables. An update that leaves the
// config invalid is discarded.
func (p *Pipeline) applyUpdates() {
	p.mu.Lock()
	vars := p.updates
	p.updates = nil
	p.mu.Unlock()
	if len(vars) == 0 {
		return
	}

	c := p.cfg
	c.Update(vars)
	err := c.Validate()
	if err != nil {
		p.cfg.Logger.Error(pkg+"discarding config update", "error", err.Error(), "vars", vars)
		return
	}
	p.mu.Lock()
	p.cfg = c
	p.mu.Unlock()
	p.cfg.Logger.SetLevel(p.cfg.LogLevel)
	p.buildStages()
	p.cfg.Logger.Info(pkg+"config updated", "frame", p.n)
}

// finish logs the summary of the run and writes the plot.
func (p *Pipeline) finish() {
	p.finished = true
	s := p.rec.Summary()
	p.cfg.Logger.Info(pkg+"run finished",
		"run", p.runID,
		"frames", s.Frames,
		"vehicles", s.Vehicles,
		"perLane", s.PerLane,
		"lost", s.Lost,
		"exited", s.Exited,
		"meanActive", s.MeanActive,
		"stdActive", s.StdActive,
		"meanLifetime", s.MeanLifetime,
		"stdLifetime", s.StdLifetime,
	)

	if p.cfg.PlotPath != "" {
		err := p.rec.Plot(p.cfg.PlotPath)
		if err != nil {
			p.cfg.Logger.Error(pkg+"could not plot counts", "error", err.Error())
		}
	}
	p.closeSinks()
}

func (p *Pipeline) closeSinks() {
	for _, s := range p.sinks {
		err := s.close()
		if err != nil {
			p.cfg.Logger.Error(pkg+"could not close sink", "error", err.Error())
		}
	}
	p.sinks = nil
	if p.tracks != nil {
		err := p.tracks.Close()
		if err != nil {
			p.cfg.Logger.Error(pkg+"could not close tracks file", "error", err.Error())
		}
		p.tracks = nil
	}
}

// release frees the state of a run.
func (p *Pipeline) release() {
	p.closeSinks()
	if p.reg != nil {
		p.reg.Close()
		p.reg = nil
	}
	if p.fg != nil {
		p.fg.Close()
		p.det.Close()
		p.trk.Close()
		p.fg, p.det, p.trk = nil, nil, nil
	}
	if p.bg != nil {
		p.bg.Close()
		p.bg = nil
		p.road.Close()
		closeLanes(p.lanes)
		p.lanes = nil
	}
	p.rec = nil
	p.n = 0
}

func (p *Pipeline) closeBuffers() error {
	for _, m := range []*gocv.Mat{&p.frame, &p.motion, &p.annotated} {
		err := m.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
