/*
DESCRIPTION
  errors.go provides MultiError, used to collect the configuration problems
  found when a frame source is set up.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides an interface and implementations for video sources
// that can be started and stopped from which frames can be obtained.
package device

import "fmt"

// MultiError implements the built in error interface. MultiError is used here
// to collect multiple errors during validation of configuration parameters
// for frame sources.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("device: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}

// Unwrap returns the collected errors so that errors.Is and errors.As can
// inspect them.
func (me MultiError) Unwrap() []error { return me }
