//go:build profile
// +build profile

/*
DESCRIPTION
  profile.go writes a CPU profile of a run when trafficcam is built with the
  profile tag.

AUTHORS
  Dan Kortschak <dan@ausocean.org>
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"os"
	"runtime/pprof"

	"github.com/ausocean/utils/logging"
)

func init() {
	startProfile = cpuProfile
}

// cpuProfile starts writing a CPU profile to profilePath. The returned
// function stops the profiler and closes the file.
func cpuProfile(l logging.Logger) func() {
	f, err := os.Create(profilePath)
	if err != nil {
		l.Fatal(pkg+"could not create CPU profile", "error", err.Error())
	}
	err = pprof.StartCPUProfile(f)
	if err != nil {
		f.Close()
		l.Fatal(pkg+"could not start CPU profile", "error", err.Error())
	}
	l.Info(pkg+"profiling started", "path", profilePath)

	return func() {
		pprof.StopCPUProfile()
		err := f.Close()
		if err != nil {
			l.Error(pkg+"could not close CPU profile", "error", err.Error())
		}
	}
}
