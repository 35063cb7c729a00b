/*
DESCRIPTION
  zone.go provides the detection zone shared by all lanes and the lane travel
  directions that decide where vehicles are admitted and where they leave.

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
	"fmt"
	"strings"
)

// Zone errors.
var (
	ErrZoneInverted   = errors.New("zone top must be above zone bottom")
	ErrZoneNegative   = errors.New("zone margins must not be negative")
	ErrZoneNoInterior = errors.New("zone admission bands leave no interior")
)

// Zone describes the vertical extent of the frame in which vehicles are
// detected and tracked. Vehicles are admitted within Margin pixels of the
// entry boundary, and tracks stop protecting that band from duplicates once
// they are a further MarginPad pixels inside. NearOffset is the corner
// tolerance used when deciding two boxes are the same vehicle.
type Zone struct {
	Top        int
	Bottom     int
	Margin     int
	MarginPad  int
	NearOffset int
}

// Validate checks that z describes a usable zone.
func (z Zone) Validate() error {
	if z.Top >= z.Bottom {
		return fmt.Errorf("%w: top %d, bottom %d", ErrZoneInverted, z.Top, z.Bottom)
	}
	if z.Margin < 0 || z.MarginPad < 0 || z.NearOffset < 0 {
		return ErrZoneNegative
	}
	if z.innerTop() >= z.innerBottom() {
		return fmt.Errorf("%w: inner band [%d, %d]", ErrZoneNoInterior, z.innerTop(), z.innerBottom())
	}
	return nil
}

func (z Zone) innerTop() int    { return z.Top + z.Margin + z.MarginPad }
func (z Zone) innerBottom() int { return z.Bottom - z.Margin - z.MarginPad }

// Interior reports whether r lies entirely within the zone, clear of both
// admission bands. Vehicles already in view when tracking starts are only
// admitted if they are in the interior.
func (z Zone) Interior(r Rect) bool {
	return r.Y >= float64(z.innerTop()) && r.Bottom() <= float64(z.innerBottom())
}

// AreaThreshold returns the minimum pixel area for an object whose top edge
// is at y. Objects higher in the frame are further from the camera, so the
// threshold grows linearly by one pixel every k rows below the zone top.
func (z Zone) AreaThreshold(y, k, base float64) float64 {
	return (y-float64(z.Top))/k + base
}

// Direction is the direction vehicles travel in a lane relative to the
// camera.
type Direction int

// Lane directions.
const (
	// Inbound vehicles enter at the top of the zone and leave at the bottom.
	Inbound Direction = iota

	// Outbound vehicles enter at the bottom of the zone and leave at the top.
	Outbound
)

// behaviour holds the direction specific rules.
type behaviour struct {
	name string

	// admit reports whether r is inside the entry side admission band.
	admit func(z Zone, r Rect) bool

	// exited reports whether r has crossed the exit boundary.
	exited func(z Zone, r Rect) bool

	// clear reports whether r has moved far enough from the admission band
	// that it no longer needs duplicate protection.
	clear func(z Zone, r Rect) bool

	// magnify converts the configured per-frame magnification into the
	// factor applied to this direction's templates.
	magnify func(m float64) float64
}

var behaviours = [...]behaviour{
	Inbound: {
		name: "inbound",
		admit: func(z Zone, r Rect) bool {
			return r.Y >= float64(z.Top) && r.Y <= float64(z.Top+z.Margin)
		},
		exited: func(z Zone, r Rect) bool { return r.Bottom() > float64(z.Bottom) },
		clear:  func(z Zone, r Rect) bool { return r.Y > float64(z.innerTop()) },
		magnify: func(m float64) float64 {
			return m
		},
	},
	Outbound: {
		name: "outbound",
		admit: func(z Zone, r Rect) bool {
			return r.Bottom() >= float64(z.Bottom-z.Margin) && r.Bottom() <= float64(z.Bottom)
		},
		exited: func(z Zone, r Rect) bool { return r.Bottom() < float64(z.Top) },
		clear:  func(z Zone, r Rect) bool { return r.Bottom() < float64(z.innerBottom()) },
		magnify: func(m float64) float64 {
			return 1 / m
		},
	},
}

func (d Direction) behaviour() behaviour {
	if d < Inbound || int(d) >= len(behaviours) {
		panic(fmt.Sprintf("track: invalid direction %d", int(d)))
	}
	return behaviours[d]
}

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool { return d >= Inbound && int(d) < len(behaviours) }

// String implements fmt.Stringer.
func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return behaviours[d].name
}

// Admits reports whether r lies in the admission band at this direction's
// entry boundary.
func (d Direction) Admits(z Zone, r Rect) bool { return d.behaviour().admit(z, r) }

// Exited reports whether r has crossed this direction's exit boundary.
func (d Direction) Exited(z Zone, r Rect) bool { return d.behaviour().exited(z, r) }

// Clear reports whether r is far enough past the admission band to leave the
// boundary set.
func (d Direction) Clear(z Zone, r Rect) bool { return d.behaviour().clear(z, r) }

// Magnification returns the per-frame scale factor for templates in this
// direction given the configured factor m. Inbound vehicles grow as they
// approach, outbound vehicles shrink.
func (d Direction) Magnification(m float64) float64 { return d.behaviour().magnify(m) }

// ParseDirection parses a direction name. Accepted names are "inbound", "in",
// "approach", "outbound", "out" and "leave", in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inbound", "in", "approach":
		return Inbound, nil
	case "outbound", "out", "leave":
		return Outbound, nil
	default:
		return 0, fmt.Errorf("track: unknown direction %q", s)
	}
}
