/*
DESCRIPTION
  registry_test.go tests track creation, deletion and id bookkeeping in the
  Registry.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package track

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeTemplate records whether it has been closed.
type fakeTemplate struct {
	name   string
	closed bool
}

func (f *fakeTemplate) Close() error {
	f.closed = true
	return nil
}

func TestCreateAllocatesIncreasingIDs(t *testing.T) {
	r := NewRegistry[*fakeTemplate](3)

	var got []ID
	for i := 0; i < 6; i++ {
		got = append(got, r.Create(i%3, Rect{Y: float64(i)}, &fakeTemplate{}))
	}

	want := []ID{0, 1, 2, 3, 4, 5}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected ids\nwant: %v\ngot: %v", want, got)
	}
	if r.Next() != 6 {
		t.Errorf("unexpected next id: want 6, got %d", r.Next())
	}
	if r.Total() != 6 || r.CountThisFrame() != 6 {
		t.Errorf("unexpected counts: total %d, frame %d", r.Total(), r.CountThisFrame())
	}

	r.BeginFrame()
	if r.CountThisFrame() != 0 {
		t.Errorf("frame count not reset: %d", r.CountThisFrame())
	}

	wantLane1 := []ID{1, 4}
	if got := r.IDs(1); !cmp.Equal(got, wantLane1) {
		t.Errorf("unexpected lane ids\nwant: %v\ngot: %v", wantLane1, got)
	}
	if got := r.Boundary(1); !cmp.Equal(got, wantLane1) {
		t.Errorf("new tracks should start in the boundary set\nwant: %v\ngot: %v", wantLane1, got)
	}
}

func TestFlushIsAtomic(t *testing.T) {
	r := NewRegistry[*fakeTemplate](1)
	tpl := &fakeTemplate{name: "a"}
	id := r.Create(0, Rect{X: 1, Y: 2, W: 3, H: 4}, tpl)

	r.MarkForDeletion(0, id)

	// Marked tracks are still visible until the flush.
	if _, ok := r.Box(0, id); !ok {
		t.Fatal("marked track removed before flush")
	}

	gone := r.Flush()
	if !cmp.Equal(gone, []ID{id}) {
		t.Errorf("unexpected flushed ids: %v", gone)
	}
	if _, ok := r.Box(0, id); ok {
		t.Error("box still present after flush")
	}
	if _, ok := r.Template(0, id); ok {
		t.Error("template still present after flush")
	}
	if r.InBoundary(0, id) {
		t.Error("id still in boundary set after flush")
	}
	if !tpl.closed {
		t.Error("template not closed on deletion")
	}

	// The same blob turning up again is a new vehicle.
	again := r.Create(0, Rect{X: 1, Y: 2, W: 3, H: 4}, &fakeTemplate{})
	if again <= id {
		t.Errorf("id reused or decreased: first %d, second %d", id, again)
	}
}

func TestFrontAdvancesPastDeletedIDs(t *testing.T) {
	tests := []struct {
		name      string
		lanes     []int // Lane of each created track.
		del       []ID
		wantFront ID
	}{
		{
			name:      "nothing deleted",
			lanes:     []int{0, 1, 0},
			del:       nil,
			wantFront: 0,
		},
		{
			name:      "oldest deleted",
			lanes:     []int{0, 1, 0},
			del:       []ID{0},
			wantFront: 1,
		},
		{
			name:      "gap kept by live track",
			lanes:     []int{0, 1, 0, 1},
			del:       []ID{1, 2},
			wantFront: 0,
		},
		{
			name:      "run of deleted ids across lanes",
			lanes:     []int{0, 1, 0, 1},
			del:       []ID{0, 1, 2},
			wantFront: 3,
		},
		{
			name:      "everything deleted",
			lanes:     []int{1, 1},
			del:       []ID{0, 1},
			wantFront: 2,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := NewRegistry[*fakeTemplate](2)
			for _, l := range test.lanes {
				r.Create(l, Rect{}, &fakeTemplate{})
			}
			for _, id := range test.del {
				r.MarkForDeletion(test.lanes[id], id)
			}
			r.Flush()

			if r.Front() != test.wantFront {
				t.Errorf("unexpected front: want %d, got %d", test.wantFront, r.Front())
			}
			for _, tr := range r.Tracks() {
				if tr.ID < r.Front() {
					t.Errorf("live id %d below front %d", tr.ID, r.Front())
				}
			}
		})
	}
}

func TestDoubleMarkDeletesOnce(t *testing.T) {
	r := NewRegistry[*fakeTemplate](1)
	id := r.Create(0, Rect{}, &fakeTemplate{})
	r.MarkForDeletion(0, id)
	r.MarkForDeletion(0, id)

	gone := r.Flush()
	if len(gone) != 1 {
		t.Errorf("expected one deletion, got %v", gone)
	}
	if r.Flush() != nil {
		t.Error("second flush should have nothing to do")
	}
}

func TestReplaceClosesOldTemplate(t *testing.T) {
	r := NewRegistry[*fakeTemplate](1)
	old := &fakeTemplate{name: "old"}
	id := r.Create(0, Rect{W: 10, H: 10}, old)

	nu := &fakeTemplate{name: "new"}
	r.Replace(0, id, Rect{W: 20, H: 20}, nu)

	if !old.closed {
		t.Error("old template not closed")
	}
	got, _ := r.Template(0, id)
	if got != nu {
		t.Errorf("template not replaced, got %q", got.name)
	}
	box, _ := r.Box(0, id)
	if !cmp.Equal(box, Rect{W: 20, H: 20}) {
		t.Errorf("box not replaced: %+v", box)
	}
}

func TestUpdateUnknownPanics(t *testing.T) {
	r := NewRegistry[*fakeTemplate](1)
	defer func() {
		if recover() == nil {
			t.Error("expected panic updating unknown track")
		}
	}()
	r.Update(0, 42, Rect{})
}

func TestLeaveBoundary(t *testing.T) {
	r := NewRegistry[*fakeTemplate](1)
	a := r.Create(0, Rect{}, &fakeTemplate{})
	b := r.Create(0, Rect{}, &fakeTemplate{})

	r.LeaveBoundary(0, a)
	if r.InBoundary(0, a) {
		t.Error("a still in boundary set")
	}
	if !r.InBoundary(0, b) {
		t.Error("b should be in boundary set")
	}
	if _, ok := r.Box(0, a); !ok {
		t.Error("leaving the boundary set should not delete the track")
	}
}

func TestClose(t *testing.T) {
	r := NewRegistry[*fakeTemplate](2)
	tpls := []*fakeTemplate{{}, {}, {}}
	for i, tpl := range tpls {
		r.Create(i%2, Rect{}, tpl)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	for i, tpl := range tpls {
		if !tpl.closed {
			t.Errorf("template %d not closed", i)
		}
	}
	if r.Len() != 0 {
		t.Errorf("registry not empty: %d", r.Len())
	}
	if id := r.Create(0, Rect{}, &fakeTemplate{}); id != 3 {
		t.Errorf("ids must not be reused after close, got %d", id)
	}
}
