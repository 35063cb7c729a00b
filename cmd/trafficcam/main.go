/*
DESCRIPTION
  trafficcam counts the vehicles in each lane of a traffic camera stream. It
  is configured with a TOML file of pipeline variables, overlaid by command
  line flags, and reconfigures itself when the file changes.

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

// Package trafficcam is a vehicle tracking and counting client.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/trafficcam/pipeline"
	"github.com/ausocean/trafficcam/pipeline/config"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
)

// Misc constants.
const (
	profilePath = "trafficcam.prof"
	pkg         = "trafficcam: "
)

// startProfile is set if the 'profile' build tag is provided on build. It
// returns a function that ends profiling.
var startProfile func(logging.Logger) func()

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version")
		configPath  = flag.String("config", "", "TOML file of pipeline variables")
		watch       = flag.Bool("watch", true, "reload the config file when it changes")
		logPath     = flag.String("log", "/var/log/trafficcam/trafficcam.log", "log file path")
		verbosity   = flag.String("verbosity", "Info", "log level: Debug, Info, Warning, Error or Fatal")
		suppress    = flag.Bool("suppress", false, "suppress repeated log messages")
		vars        = varFlags{}
	)
	vars.register(flag.CommandLine)
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	defer fileLog.Close()

	level, ok := levels[*verbosity]
	if !ok {
		level = logging.Info
	}
	log := logging.New(level, io.MultiWriter(os.Stderr, fileLog), *suppress)

	runID := uuid.New().String()
	log.Info(pkg+"starting trafficcam", "version", version, "run", runID)

	if startProfile != nil {
		defer startProfile(log)()
	}

	overrides := vars.values()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verbosity":
			overrides[config.KeyLogging] = *verbosity
		case "suppress":
			overrides[config.KeySuppress] = fmt.Sprint(*suppress)
		}
	})
	settings, err := load(*configPath, overrides)
	if err != nil {
		log.Fatal(pkg+"could not load config", "error", err.Error())
	}

	c := config.Config{Logger: log, LogLevel: level, Suppress: *suppress}
	c.Update(settings)

	log.Debug(pkg + "initialising pipeline")
	p, err := pipeline.New(c, pipeline.WithRunID(runID))
	if err != nil {
		log.Fatal(pkg+"could not initialise pipeline", "error", err.Error())
	}
	defer p.Close()

	if *watch && *configPath != "" {
		w, err := newWatcher(*configPath, log, func() {
			settings, err := load(*configPath, overrides)
			if err != nil {
				log.Error(pkg+"could not reload config", "error", err.Error())
				return
			}
			err = p.Update(settings)
			if err != nil {
				log.Warning(pkg+"couldn't update pipeline", "error", err.Error())
			}
		})
		if err != nil {
			log.Error(pkg+"could not watch config file", "error", err.Error())
		} else {
			defer w.close()
		}
	}

	log.Debug(pkg + "starting pipeline")
	err = p.Start()
	if err != nil {
		log.Fatal(pkg+"could not start pipeline", "error", err.Error())
	}
	notify(log, daemon.SdNotifyReady)

	run(p, log)
	notify(log, daemon.SdNotifyStopping)

	s := p.Stats()
	log.Info(pkg+"finished", "run", runID, "frames", s.Frames, "vehicles", s.Created, "lost", s.Lost, "exited", s.Exited)
}

// run waits for the pipeline to reach the end of its stream, or for an
// interrupt, and then stops it.
func run(p *pipeline.Pipeline, l logging.Logger) {
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-done:
		l.Info(pkg + "stream finished")
	case s := <-sig:
		l.Info(pkg+"received signal, stopping", "signal", s.String())
	}
	p.Stop()
}

// notify tells systemd about a change of state. It does nothing when not run
// as a systemd service.
func notify(l logging.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		l.Warning(pkg+"could not notify systemd", "state", state, "error", err.Error())
		return
	}
	if sent {
		l.Debug(pkg+"notified systemd", "state", state)
	}
}

var levels = map[string]int8{
	"Debug":   logging.Debug,
	"Info":    logging.Info,
	"Warning": logging.Warning,
	"Error":   logging.Error,
	"Fatal":   logging.Fatal,
}
