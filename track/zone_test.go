/*
DESCRIPTION
  zone_test.go tests zone validation, the direction rules, the perspective
  area threshold and the box geometry helpers.

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
	"errors"
	"image"
	"testing"
)

var testZone = Zone{Top: 100, Bottom: 400, Margin: 10, MarginPad: 5, NearOffset: 4}

func TestZoneValidate(t *testing.T) {
	tests := []struct {
		zone Zone
		want error
	}{
		{zone: testZone, want: nil},
		{zone: Zone{Top: 400, Bottom: 100}, want: ErrZoneInverted},
		{zone: Zone{Top: 100, Bottom: 100}, want: ErrZoneInverted},
		{zone: Zone{Top: 100, Bottom: 400, Margin: -1}, want: ErrZoneNegative},
		{zone: Zone{Top: 100, Bottom: 400, NearOffset: -4}, want: ErrZoneNegative},
		{zone: Zone{Top: 100, Bottom: 200, Margin: 40, MarginPad: 10}, want: ErrZoneNoInterior},
	}

	for i, test := range tests {
		err := test.zone.Validate()
		if !errors.Is(err, test.want) {
			t.Errorf("did not get expected error for test %d\nwant: %v\ngot: %v", i, test.want, err)
		}
	}
}

func TestAdmission(t *testing.T) {
	tests := []struct {
		dir  Direction
		box  Rect
		want bool
	}{
		{dir: Inbound, box: Rect{Y: 100, W: 40, H: 20}, want: true},
		{dir: Inbound, box: Rect{Y: 110, W: 40, H: 20}, want: true},
		{dir: Inbound, box: Rect{Y: 111, W: 40, H: 20}, want: false},
		{dir: Inbound, box: Rect{Y: 99, W: 40, H: 20}, want: false},
		{dir: Outbound, box: Rect{Y: 380, W: 40, H: 20}, want: true},
		{dir: Outbound, box: Rect{Y: 370, W: 40, H: 20}, want: true},
		{dir: Outbound, box: Rect{Y: 369, W: 40, H: 20}, want: false},
		{dir: Outbound, box: Rect{Y: 381, W: 40, H: 20}, want: false},
	}

	for i, test := range tests {
		if got := test.dir.Admits(testZone, test.box); got != test.want {
			t.Errorf("test %d: %v admits %+v: want %v, got %v", i, test.dir, test.box, test.want, got)
		}
	}
}

func TestExitAndClear(t *testing.T) {
	tests := []struct {
		dir        Direction
		box        Rect
		wantExited bool
		wantClear  bool
	}{
		{dir: Inbound, box: Rect{Y: 100, H: 20}, wantExited: false, wantClear: false},
		{dir: Inbound, box: Rect{Y: 115, H: 20}, wantExited: false, wantClear: false},
		{dir: Inbound, box: Rect{Y: 116, H: 20}, wantExited: false, wantClear: true},
		{dir: Inbound, box: Rect{Y: 380, H: 20}, wantExited: false, wantClear: true},
		{dir: Inbound, box: Rect{Y: 381, H: 20}, wantExited: true, wantClear: true},
		{dir: Outbound, box: Rect{Y: 380, H: 20}, wantExited: false, wantClear: false},
		{dir: Outbound, box: Rect{Y: 364, H: 20}, wantExited: false, wantClear: true},
		{dir: Outbound, box: Rect{Y: 79, H: 20}, wantExited: true, wantClear: true},
	}

	for i, test := range tests {
		if got := test.dir.Exited(testZone, test.box); got != test.wantExited {
			t.Errorf("test %d: unexpected exit for %v %+v: want %v, got %v", i, test.dir, test.box, test.wantExited, got)
		}
		if got := test.dir.Clear(testZone, test.box); got != test.wantClear {
			t.Errorf("test %d: unexpected clear for %v %+v: want %v, got %v", i, test.dir, test.box, test.wantClear, got)
		}
	}
}

func TestMagnification(t *testing.T) {
	const m = 1.0015
	if got := Inbound.Magnification(m); got <= 1 {
		t.Errorf("inbound templates should grow, got %v", got)
	}
	if got := Outbound.Magnification(m); got >= 1 {
		t.Errorf("outbound templates should shrink, got %v", got)
	}
	if got := Inbound.Magnification(m) * Outbound.Magnification(m); got < 0.999999 || got > 1.000001 {
		t.Errorf("directions should be reciprocal, product %v", got)
	}
}

func TestInterior(t *testing.T) {
	tests := []struct {
		box  Rect
		want bool
	}{
		{box: Rect{Y: 115, H: 20}, want: true},
		{box: Rect{Y: 114, H: 20}, want: false},
		{box: Rect{Y: 365, H: 20}, want: true},
		{box: Rect{Y: 366, H: 20}, want: false},
	}
	for i, test := range tests {
		if got := testZone.Interior(test.box); got != test.want {
			t.Errorf("test %d: interior %+v: want %v, got %v", i, test.box, test.want, got)
		}
	}
}

// Two objects of identical area at different heights: the one further from
// the camera must face the lower threshold.
func TestAreaThresholdMonotonic(t *testing.T) {
	const (
		k    = 4.0
		base = 20.0
	)
	far := testZone.AreaThreshold(120, k, base)
	near := testZone.AreaThreshold(300, k, base)
	if far >= near {
		t.Errorf("far threshold %v should be below near threshold %v", far, near)
	}

	const area = 50
	if area < far {
		t.Errorf("area %d should pass the far threshold %v", area, far)
	}
	if area >= near {
		t.Errorf("area %d should fail the near threshold %v", area, near)
	}
	if got := testZone.AreaThreshold(100, k, base); got != base {
		t.Errorf("threshold at zone top should be the base: got %v", got)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{in: "inbound", want: Inbound},
		{in: "Approach", want: Inbound},
		{in: " out ", want: Outbound},
		{in: "LEAVE", want: Outbound},
		{in: "sideways", wantErr: true},
	}
	for _, test := range tests {
		got, err := ParseDirection(test.in)
		if (err != nil) != test.wantErr {
			t.Errorf("unexpected error for %q: %v", test.in, err)
			continue
		}
		if err == nil && got != test.want {
			t.Errorf("unexpected direction for %q: want %v, got %v", test.in, test.want, got)
		}
	}
}

func TestSearchWindow(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 480)
	tests := []struct {
		name   string
		box    Rect
		margin float64
		want   image.Rectangle
	}{
		{
			name:   "interior",
			box:    Rect{X: 50, Y: 100, W: 40, H: 20},
			margin: 6,
			want:   image.Rect(44, 94, 97, 127),
		},
		{
			name:   "clamped at origin",
			box:    Rect{X: 2, Y: 3, W: 40, H: 20},
			margin: 6,
			want:   image.Rect(0, 0, 53, 33),
		},
		{
			name:   "clamped at far edge",
			box:    Rect{X: 170, Y: 460, W: 40, H: 20},
			margin: 6,
			want:   image.Rect(164, 454, 200, 480),
		},
		{
			name:   "fractional origin rounds",
			box:    Rect{X: 50.6, Y: 100.4, W: 40, H: 20},
			margin: 6,
			want:   image.Rect(45, 94, 98, 127),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := SearchWindow(test.box, test.margin, bounds)
			if got != test.want {
				t.Errorf("unexpected window\nwant: %v\ngot: %v", test.want, got)
			}
		})
	}
}

func TestSameVehicle(t *testing.T) {
	base := Rect{X: 50, Y: 100, W: 40, H: 20}
	tests := []struct {
		name        string
		a           Rect
		containment bool
		want        bool
	}{
		{name: "identical", a: base, want: true},
		{name: "top left near", a: Rect{X: 53, Y: 97, W: 30, H: 30}, want: true},
		{name: "bottom right near", a: Rect{X: 60, Y: 110, W: 32, H: 12}, want: true},
		{name: "offset equals tolerance", a: Rect{X: 54, Y: 100, W: 50, H: 20}, want: false},
		{name: "inside without containment", a: Rect{X: 60, Y: 104, W: 10, H: 8}, want: false},
		{name: "inside with containment", a: Rect{X: 60, Y: 104, W: 10, H: 8}, containment: true, want: true},
		{name: "far away", a: Rect{X: 150, Y: 300, W: 40, H: 20}, containment: true, want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := SameVehicle(test.a, base, 4, test.containment); got != test.want {
				t.Errorf("want %v, got %v", test.want, got)
			}
			if got := SameVehicle(base, test.a, 4, test.containment); got != test.want {
				t.Errorf("not symmetric: want %v, got %v", test.want, got)
			}
		})
	}
}
