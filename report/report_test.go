/*
DESCRIPTION
  report_test.go tests the Recorder.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/trafficcam/track"
)

func tr(id track.ID, lane int, y float64) track.Track {
	return track.Track{ID: id, Lane: lane, Box: track.Rect{X: 10, Y: y, W: 40, H: 20}}
}

// run records a short run: track 0 in lane 0 lives for frames 1 to 3 and
// exits, track 1 in lane 1 lives for frames 2 to 3 and is lost.
func run(t *testing.T, r *Recorder) {
	steps := []struct {
		tracks []track.Track
		lost   []track.ID
		exited []track.ID
	}{
		{tracks: []track.Track{tr(0, 0, 100)}},
		{tracks: []track.Track{tr(0, 0, 105), tr(1, 1, 100)}},
		{tracks: []track.Track{tr(0, 0, 110), tr(1, 1, 104)}},
		{lost: []track.ID{1}, exited: []track.ID{0}},
	}
	for i, s := range steps {
		err := r.Record(uint64(i+1), s.tracks, s.lost, s.exited)
		if err != nil {
			t.Fatalf("could not record frame %d: %v", i+1, err)
		}
	}
}

func TestRecorderLog(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder("run", 2, &buf)
	run(t, r)

	var got []Frame
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var f Frame
		err := json.Unmarshal(sc.Bytes(), &f)
		if err != nil {
			t.Fatalf("could not decode line %q: %v", sc.Text(), err)
		}
		got = append(got, f)
	}

	want := []Frame{
		{Run: "run", Number: 1, Tracks: []Box{{ID: 0, Lane: 0, X: 10, Y: 100, W: 40, H: 20}}, Created: []uint64{0}},
		{Run: "run", Number: 2, Tracks: []Box{{ID: 0, Lane: 0, X: 10, Y: 105, W: 40, H: 20}, {ID: 1, Lane: 1, X: 10, Y: 100, W: 40, H: 20}}, Created: []uint64{1}},
		{Run: "run", Number: 3, Tracks: []Box{{ID: 0, Lane: 0, X: 10, Y: 110, W: 40, H: 20}, {ID: 1, Lane: 1, X: 10, Y: 104, W: 40, H: 20}}},
		{Run: "run", Number: 4, Tracks: []Box{}, Lost: []uint64{1}, Exited: []uint64{0}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected log (-want +got):\n%s", diff)
	}
}

func TestSummary(t *testing.T) {
	r := NewRecorder("", 2, nil)
	run(t, r)

	got := r.Summary()
	want := Summary{
		Frames:       4,
		Vehicles:     2,
		PerLane:      []uint64{1, 1},
		Lost:         1,
		Exited:       1,
		MeanActive:   1.25,
		StdActive:    math.Sqrt(0.9166666666666666),
		MeanLifetime: 3.5,
		StdLifetime:  math.Sqrt(0.5),
	}
	opt := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("unexpected summary (-want +got):\n%s", diff)
	}
}

func TestPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts.png")

	r := NewRecorder("", 2, nil)
	err := r.Plot(path)
	if !errors.Is(err, ErrNoFrames) {
		t.Errorf("did not get expected error\nwant: %v\ngot: %v", ErrNoFrames, err)
	}

	run(t, r)
	err = r.Plot(path)
	if err != nil {
		t.Fatalf("could not plot: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot is empty")
	}
}
