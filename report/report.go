/*
DESCRIPTION
  report.go records the tracks of every processed frame, writes them as JSON
  lines and summarises the run.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package report keeps the results of a tracking run: a per-frame log of the
// live tracks, counts of vehicles per lane and summary statistics.
package report

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/trafficcam/track"
)

// Box is a track's bounding box as written to the log.
type Box struct {
	ID   uint64  `json:"id"`
	Lane int     `json:"lane"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
}

// Frame is the record of one processed frame.
type Frame struct {
	Run     string   `json:"run,omitempty"`
	Number  uint64   `json:"frame"`
	Tracks  []Box    `json:"tracks"`
	Created []uint64 `json:"created,omitempty"`
	Lost    []uint64 `json:"lost,omitempty"`
	Exited  []uint64 `json:"exited,omitempty"`
}

// Summary describes a whole run.
type Summary struct {
	Frames       uint64
	Vehicles     uint64   // Tracks created.
	PerLane      []uint64 // Tracks created in each lane.
	Lost         uint64   // Tracks whose template stopped matching.
	Exited       uint64   // Tracks that left the zone.
	MeanActive   float64  // Mean live tracks per frame.
	StdActive    float64
	MeanLifetime float64 // Mean frames from creation to deletion.
	StdLifetime  float64
}

// Recorder collects the frames of a run.
type Recorder struct {
	run   string
	enc   *json.Encoder
	lanes int

	frames    uint64
	seen      map[uint64]uint64 // Frame each live id was first seen.
	perLane   []uint64
	lost      uint64
	exited    uint64
	active    []float64
	lifetimes []float64
	counts    [][]float64 // Cumulative vehicles per lane, per frame.
	numbers   []float64
}

// NewRecorder returns a recorder for a run over n lanes. If w is not nil
// each frame is written to it as a line of JSON.
func NewRecorder(run string, n int, w io.Writer) *Recorder {
	r := &Recorder{
		run:     run,
		lanes:   n,
		seen:    make(map[uint64]uint64),
		perLane: make([]uint64, n),
		counts:  make([][]float64, n),
	}
	if w != nil {
		r.enc = json.NewEncoder(w)
	}
	return r
}

// Record adds frame n to the run. tracks are the live tracks at the end of
// the frame; lost and exited are the tracks deleted during it.
func (r *Recorder) Record(n uint64, tracks []track.Track, lost, exited []track.ID) error {
	f := Frame{Run: r.run, Number: n, Tracks: make([]Box, 0, len(tracks))}
	for _, t := range tracks {
		id := uint64(t.ID)
		f.Tracks = append(f.Tracks, Box{ID: id, Lane: t.Lane, X: t.Box.X, Y: t.Box.Y, W: t.Box.W, H: t.Box.H})
		if _, ok := r.seen[id]; ok {
			continue
		}
		r.seen[id] = n
		f.Created = append(f.Created, id)
		if t.Lane >= 0 && t.Lane < r.lanes {
			r.perLane[t.Lane]++
		}
	}
	f.Lost = r.retire(n, lost)
	f.Exited = r.retire(n, exited)
	r.lost += uint64(len(lost))
	r.exited += uint64(len(exited))

	r.frames++
	r.active = append(r.active, float64(len(tracks)))
	r.numbers = append(r.numbers, float64(n))
	for l := range r.counts {
		r.counts[l] = append(r.counts[l], float64(r.perLane[l]))
	}

	if r.enc == nil {
		return nil
	}
	return errors.Wrapf(r.enc.Encode(f), "could not write frame %d", n)
}

// retire records the lifetimes of ids deleted in frame n.
func (r *Recorder) retire(n uint64, ids []track.ID) []uint64 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		out = append(out, uint64(id))
		first, ok := r.seen[uint64(id)]
		if !ok {
			continue
		}
		r.lifetimes = append(r.lifetimes, float64(n-first+1))
		delete(r.seen, uint64(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Summary returns the statistics of the run so far.
func (r *Recorder) Summary() Summary {
	s := Summary{
		Frames:  r.frames,
		PerLane: append([]uint64(nil), r.perLane...),
		Lost:    r.lost,
		Exited:  r.exited,
	}
	for _, c := range r.perLane {
		s.Vehicles += c
	}
	if len(r.active) > 0 {
		s.MeanActive, s.StdActive = meanStd(r.active)
	}
	if len(r.lifetimes) > 0 {
		s.MeanLifetime, s.StdLifetime = meanStd(r.lifetimes)
	}
	return s
}

// meanStd returns the mean and the sample standard deviation of x. The
// deviation of a single value is zero.
func meanStd(x []float64) (mean, std float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}
