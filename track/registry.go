/*
DESCRIPTION
  registry.go provides the Registry, which owns every vehicle track along with
  the id counters and the per-lane boundary sets used for duplicate detection.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package track provides bookkeeping and geometry for vehicle tracks: the
// track registry, bounding boxes, the detection zone and lane directions.
// It has no image processing dependencies.
package track

import (
	"fmt"
	"sort"
)

// ID identifies a track. IDs are allocated in increasing order and are never
// reused.
type ID uint64

// Template is the appearance model stored with a track. Templates usually
// hold memory outside the Go heap, so the registry closes them when they are
// replaced or their track is deleted.
type Template interface {
	Close() error
}

// Track is a snapshot of an active track.
type Track struct {
	ID   ID
	Lane int
	Box  Rect
}

type lane[T Template] struct {
	boxes     map[ID]Rect
	templates map[ID]T
	boundary  map[ID]struct{}
}

type deletion struct {
	lane int
	id   ID
}

// Registry holds the tracks of every lane. It is not safe for concurrent use.
type Registry[T Template] struct {
	lanes   []lane[T]
	next    ID // Id given to the next track created.
	front   ID // Oldest id that may still be alive.
	inFrame uint64
	total   uint64
	pending []deletion
}

// NewRegistry returns a registry for n lanes.
func NewRegistry[T Template](n int) *Registry[T] {
	r := &Registry[T]{lanes: make([]lane[T], n)}
	for i := range r.lanes {
		r.lanes[i] = lane[T]{
			boxes:     make(map[ID]Rect),
			templates: make(map[ID]T),
			boundary:  make(map[ID]struct{}),
		}
	}
	return r
}

// Lanes returns the number of lanes.
func (r *Registry[T]) Lanes() int { return len(r.lanes) }

// Create adds a new track to lane l and returns its id. The track starts in
// the lane's boundary set.
func (r *Registry[T]) Create(l int, box Rect, tpl T) ID {
	id := r.next
	r.next++
	ln := &r.lanes[l]
	ln.boxes[id] = box
	ln.templates[id] = tpl
	ln.boundary[id] = struct{}{}
	r.inFrame++
	r.total++
	return id
}

// Update sets the box of track id in lane l. The track must exist.
func (r *Registry[T]) Update(l int, id ID, box Rect) {
	ln := &r.lanes[l]
	if _, ok := ln.boxes[id]; !ok {
		panic(fmt.Sprintf("track: update of unknown track %d in lane %d", id, l))
	}
	ln.boxes[id] = box
}

// SetTemplate replaces the template of track id in lane l, closing the old
// one. The track must exist.
func (r *Registry[T]) SetTemplate(l int, id ID, tpl T) {
	ln := &r.lanes[l]
	old, ok := ln.templates[id]
	if !ok {
		panic(fmt.Sprintf("track: template update of unknown track %d in lane %d", id, l))
	}
	old.Close()
	ln.templates[id] = tpl
}

// Replace sets both the box and template of track id in lane l.
func (r *Registry[T]) Replace(l int, id ID, box Rect, tpl T) {
	r.Update(l, id, box)
	r.SetTemplate(l, id, tpl)
}

// Box returns the box of track id in lane l.
func (r *Registry[T]) Box(l int, id ID) (Rect, bool) {
	b, ok := r.lanes[l].boxes[id]
	return b, ok
}

// Template returns the template of track id in lane l.
func (r *Registry[T]) Template(l int, id ID) (T, bool) {
	t, ok := r.lanes[l].templates[id]
	return t, ok
}

// IDs returns the ids of the live tracks in lane l in ascending order.
func (r *Registry[T]) IDs(l int) []ID {
	ln := r.lanes[l]
	ids := make([]ID, 0, len(ln.boxes))
	for id := r.front; id < r.next; id++ {
		if _, ok := ln.boxes[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Boundary returns the ids in lane l's boundary set in ascending order.
func (r *Registry[T]) Boundary(l int) []ID {
	ids := make([]ID, 0, len(r.lanes[l].boundary))
	for id := range r.lanes[l].boundary {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// InBoundary reports whether track id is in lane l's boundary set.
func (r *Registry[T]) InBoundary(l int, id ID) bool {
	_, ok := r.lanes[l].boundary[id]
	return ok
}

// LeaveBoundary removes track id from lane l's boundary set.
func (r *Registry[T]) LeaveBoundary(l int, id ID) {
	delete(r.lanes[l].boundary, id)
}

// MarkForDeletion queues track id in lane l for removal at the next Flush.
// Marking does not change what the registry reports, so callers may mark
// tracks while iterating over IDs.
func (r *Registry[T]) MarkForDeletion(l int, id ID) {
	r.pending = append(r.pending, deletion{lane: l, id: id})
}

// Flush removes every track marked for deletion and returns their ids. Each
// removed track leaves its lane's boxes, templates and boundary set together,
// and its template is closed. The front id then advances past ids that no
// lane holds.
func (r *Registry[T]) Flush() []ID {
	if len(r.pending) == 0 {
		return nil
	}
	var gone []ID
	for _, d := range r.pending {
		ln := &r.lanes[d.lane]
		if _, ok := ln.boxes[d.id]; !ok {
			continue
		}
		if tpl, ok := ln.templates[d.id]; ok {
			tpl.Close()
		}
		delete(ln.boxes, d.id)
		delete(ln.templates, d.id)
		delete(ln.boundary, d.id)
		gone = append(gone, d.id)
	}
	r.pending = r.pending[:0]

	for r.front < r.next && !r.alive(r.front) {
		r.front++
	}
	return gone
}

func (r *Registry[T]) alive(id ID) bool {
	for _, ln := range r.lanes {
		if _, ok := ln.boxes[id]; ok {
			return true
		}
	}
	return false
}

// Tracks returns a snapshot of every live track ordered by lane then id.
func (r *Registry[T]) Tracks() []Track {
	var ts []Track
	for l := range r.lanes {
		for _, id := range r.IDs(l) {
			ts = append(ts, Track{ID: id, Lane: l, Box: r.lanes[l].boxes[id]})
		}
	}
	return ts
}

// Len returns the number of live tracks.
func (r *Registry[T]) Len() int {
	var n int
	for _, ln := range r.lanes {
		n += len(ln.boxes)
	}
	return n
}

// BeginFrame resets the count of tracks created in the current frame.
func (r *Registry[T]) BeginFrame() { r.inFrame = 0 }

// Front returns the oldest id that may still be alive.
func (r *Registry[T]) Front() ID { return r.front }

// Next returns the id that the next created track will receive.
func (r *Registry[T]) Next() ID { return r.next }

// CountThisFrame returns the number of tracks created since BeginFrame.
func (r *Registry[T]) CountThisFrame() uint64 { return r.inFrame }

// Total returns the number of tracks ever created.
func (r *Registry[T]) Total() uint64 { return r.total }

// Close closes every stored template and empties the registry. Counters are
// kept so ids are still not reused.
func (r *Registry[T]) Close() error {
	var first error
	for i := range r.lanes {
		ln := &r.lanes[i]
		for id, tpl := range ln.templates {
			if err := tpl.Close(); err != nil && first == nil {
				first = err
			}
			delete(ln.templates, id)
			delete(ln.boxes, id)
			delete(ln.boundary, id)
		}
	}
	r.pending = r.pending[:0]
	r.front = r.next
	return first
}
