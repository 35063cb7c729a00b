/*
NAME
  config.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for the vehicle tracking
// pipeline.
package config

import (
	"fmt"

	"github.com/ausocean/trafficcam/track"
	"github.com/ausocean/utils/logging"
)

// Enums to define inputs.
const (
	// Indicates no option has been set.
	NothingDefined = iota

	InputFile   // A video file read with OpenCV.
	InputWebcam // A camera device read with OpenCV.
	InputManual // Frames supplied in software.
)

// The segmenters that can be used to bootstrap the background.
const (
	SegmenterMOG = iota
	SegmenterKNN
	SegmenterDiff
)

// The rules for deciding that a new detection is an existing vehicle.
const (
	// DedupContainment matches on corner offsets or on the centre of the
	// smaller box lying inside the larger.
	DedupContainment = iota + 1

	// DedupOffset matches on corner offsets only.
	DedupOffset
)

// Config provides parameters relevant to a pipeline instance. A new config
// must be passed to the constructor. Default values for these fields are
// defined as consts in variables.go.
type Config struct {
	// Logger holds the logger used by every stage of the pipeline.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	Suppress bool // Holds logger suppression state.

	// Input defines the frame source. Valid values are defined by the Input
	// enums above.
	Input uint8

	// InputPath is the path of a video file for file input, or the device
	// index or path for webcam input.
	InputPath string

	FileFPS uint // Defines the rate at which frames from a file source are processed; 0 means as fast as possible.

	// StartFrame and EndFrame bound the frames that are processed. Frames
	// before StartFrame are read and discarded. An EndFrame of 0 means run to
	// the end of the stream. Frame numbers start at 1.
	StartFrame uint
	EndFrame   uint

	// BackgroundPath, if set, is an image of the empty scene used as the
	// initial background in place of bootstrapping from the stream.
	BackgroundPath string

	RoadMaskPath string // Binary image of the whole drivable area.

	// LaneMaskBase is the path prefix of the per-lane masks. Lane i is read
	// from LaneMaskBase + i + ".png", starting at 0, until a file is missing.
	LaneMaskBase string

	// Directions gives the travel direction of each lane by index. Lanes
	// without an entry are inbound.
	Directions []track.Direction

	Segmenter          uint8   // Segmenter used for bootstrapping, one of the Segmenter enums.
	History            uint    // Number of frames used to bootstrap the background.
	SegmenterThreshold float64 // Threshold passed to the segmenter; its meaning depends on the segmenter.

	// BlendRate is the weight of the current frame when it is blended into the
	// background estimate.
	BlendRate float64

	// Detection zone.
	ZoneTop        int
	ZoneBottom     int
	ZoneMargin     int
	ZoneMarginPad  int
	ZoneNearOffset int

	// Shadow detection and rejection.
	ShadowL           float64 // Luminance at or below which a pixel may be shadow in a saturated scene.
	ShadowB           float64 // Yellow-blue chrominance at or below which a pixel may be shadow in a saturated scene.
	ShadowMinArea     float64 // Base area below which a shadow blob is not a vehicle shadow.
	ShadowPerspective float64 // Rows per pixel of growth of the shadow area threshold.
	ShadowAspect      float64 // Width to height ratio above which a shadow blob is not a vehicle shadow.

	KernelSize uint // Side of the square morphological kernel.
	CloseCount uint // Iterations of morphological closing. At least one; zero selects the default of 2.

	// Detection.
	DetectMinArea     float64 // Base minimum area of a vehicle blob.
	DetectPerspective float64 // Rows per pixel of growth of the vehicle area threshold.
	MinAreaRatio      float64 // Minimum ratio of blob area to bounding box area.
	RefinePad         uint    // Pixels added around a candidate box when refining it.
	EdgeCrop          bool    // Trim candidate boxes to their strongest edges when refining.
	Dedup             uint8   // Duplicate detection rule, one of the Dedup enums.

	// Tracking.
	MinMatchScore   float64 // Template match scores below this terminate the track.
	Magnification   float64 // Per-frame growth of inbound templates; outbound use the reciprocal.
	SearchMargin    float64 // Pixels searched on each side of a track's last box.
	EdgeMatching    bool    // Also match on gradient images and keep the better score.
	TemplateRefresh uint    // Re-crop templates every this many frames; 0 never re-crops.

	// Results.
	OutputPath string // Annotated video file, if set.
	FramesDir  string // Directory for annotated per-frame PNGs, if set.
	TracksPath string // JSON lines file of per-frame tracks, if set.
	PlotPath   string // PNG plot of cumulative vehicle counts per lane, if set.
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined. An error is returned only
// for settings that cannot be defaulted, such as a degenerate detection zone.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	err := c.Zone().Validate()
	if err != nil {
		return fmt.Errorf("invalid detection zone: %w", err)
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

// Zone returns the detection zone described by the config.
func (c *Config) Zone() track.Zone {
	return track.Zone{
		Top:        c.ZoneTop,
		Bottom:     c.ZoneBottom,
		Margin:     c.ZoneMargin,
		MarginPad:  c.ZoneMarginPad,
		NearOffset: c.ZoneNearOffset,
	}
}

// Direction returns the direction of lane i.
func (c *Config) Direction(i int) track.Direction {
	if i < len(c.Directions) {
		return c.Directions[i]
	}
	return track.Inbound
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
