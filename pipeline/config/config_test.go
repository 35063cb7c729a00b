/*
DESCRIPTION
  config_test.go provides testing for the Config struct methods (Validate and Update).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/trafficcam/track"
	"github.com/ausocean/utils/logging"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

func TestValidate(t *testing.T) {
	dl := &dumbLogger{}

	want := Config{
		Logger:            dl,
		LogLevel:          defaultVerbosity,
		Input:             defaultInput,
		Segmenter:         defaultSegmenter,
		History:           defaultHistory,
		BlendRate:         defaultBlendRate,
		ZoneTop:           defaultZoneTop,
		ZoneBottom:        defaultZoneBottom,
		ZoneMargin:        defaultZoneMargin,
		ZoneMarginPad:     defaultZoneMarginPad,
		ZoneNearOffset:    defaultZoneNearOffset,
		ShadowL:           defaultShadowL,
		ShadowB:           defaultShadowB,
		ShadowMinArea:     defaultShadowMinArea,
		ShadowPerspective: defaultShadowPerspective,
		ShadowAspect:      defaultShadowAspect,
		KernelSize:        defaultKernelSize,
		CloseCount:        defaultCloseCount,
		DetectMinArea:     defaultDetectMinArea,
		DetectPerspective: defaultDetectPerspective,
		MinAreaRatio:      defaultMinAreaRatio,
		RefinePad:         defaultRefinePad,
		Dedup:             defaultDedup,
		MinMatchScore:     defaultMinMatchScore,
		Magnification:     defaultMagnification,
		SearchMargin:      defaultSearchMargin,
	}

	got := Config{Logger: dl, LogLevel: -10}
	err := (&got).Validate()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	if !cmp.Equal(got, want) {
		t.Errorf("configs not equal\nwant: %v\ngot: %v", want, got)
	}
}

func TestValidateZone(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr error
	}{
		{
			name:    "valid",
			vars:    map[string]string{"ZoneTop": "100", "ZoneBottom": "400", "ZoneMargin": "10", "ZoneMarginPad": "5", "ZoneNearOffset": "4"},
			wantErr: nil,
		},
		{
			name:    "inverted",
			vars:    map[string]string{"ZoneTop": "400", "ZoneBottom": "100"},
			wantErr: track.ErrZoneInverted,
		},
		{
			name:    "negative margin",
			vars:    map[string]string{"ZoneTop": "100", "ZoneBottom": "400", "ZoneMargin": "-3"},
			wantErr: track.ErrZoneNegative,
		},
		{
			name:    "bands overlap",
			vars:    map[string]string{"ZoneTop": "100", "ZoneBottom": "140", "ZoneMargin": "15", "ZoneMarginPad": "5"},
			wantErr: track.ErrZoneNoInterior,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := Config{Logger: &dumbLogger{}}
			c.Update(test.vars)
			err := c.Validate()
			if !errors.Is(err, test.wantErr) {
				t.Errorf("did not get expected error\nwant: %v\ngot: %v", test.wantErr, err)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	updateMap := map[string]string{
		"BackgroundPath":     "/back.png",
		"BlendRate":          "0.05",
		"CloseCount":         "3",
		"Dedup":              "offset",
		"DetectMinArea":      "20",
		"DetectPerspective":  "6",
		"Directions":         "outbound, inbound,out,in",
		"EdgeCrop":           "true",
		"EdgeMatching":       "true",
		"EndFrame":           "345",
		"FileFPS":            "25",
		"FramesDir":          "/frames",
		"History":            "120",
		"Input":              "webcam",
		"InputPath":          "0",
		"KernelSize":         "5",
		"LaneMaskBase":       "/masks/lane",
		"logging":            "Debug",
		"Magnification":      "1.001",
		"MinAreaRatio":       "0.5",
		"MinMatchScore":      "0.7",
		"OutputPath":         "/out.mp4",
		"PlotPath":           "/counts.png",
		"RefinePad":          "2",
		"RoadMaskPath":       "/masks/road.png",
		"SearchMargin":       "8",
		"Segmenter":          "KNN",
		"SegmenterThreshold": "400",
		"ShadowAspect":       "2",
		"ShadowB":            "6",
		"ShadowL":            "12",
		"ShadowMinArea":      "7",
		"ShadowPerspective":  "10",
		"StartFrame":         "338",
		"Suppress":           "true",
		"TemplateRefresh":    "15",
		"TracksPath":         "/tracks.jsonl",
		"ZoneBottom":         "530",
		"ZoneMargin":         "0",
		"ZoneMarginPad":      "10",
		"ZoneNearOffset":     "4",
		"ZoneTop":            "235",
	}

	dl := &dumbLogger{}

	want := Config{
		Logger:             dl,
		BackgroundPath:     "/back.png",
		BlendRate:          0.05,
		CloseCount:         3,
		Dedup:              DedupOffset,
		DetectMinArea:      20,
		DetectPerspective:  6,
		Directions:         []track.Direction{track.Outbound, track.Inbound, track.Outbound, track.Inbound},
		EdgeCrop:           true,
		EdgeMatching:       true,
		EndFrame:           345,
		FileFPS:            25,
		FramesDir:          "/frames",
		History:            120,
		Input:              InputWebcam,
		InputPath:          "0",
		KernelSize:         5,
		LaneMaskBase:       "/masks/lane",
		LogLevel:           logging.Debug,
		Magnification:      1.001,
		MinAreaRatio:       0.5,
		MinMatchScore:      0.7,
		OutputPath:         "/out.mp4",
		PlotPath:           "/counts.png",
		RefinePad:          2,
		RoadMaskPath:       "/masks/road.png",
		SearchMargin:       8,
		Segmenter:          SegmenterKNN,
		SegmenterThreshold: 400,
		ShadowAspect:       2,
		ShadowB:            6,
		ShadowL:            12,
		ShadowMinArea:      7,
		ShadowPerspective:  10,
		StartFrame:         338,
		Suppress:           true,
		TemplateRefresh:    15,
		TracksPath:         "/tracks.jsonl",
		ZoneBottom:         530,
		ZoneMargin:         0,
		ZoneMarginPad:      10,
		ZoneNearOffset:     4,
		ZoneTop:            235,
	}

	got := Config{Logger: dl}
	got.Update(updateMap)
	if !cmp.Equal(want, got) {
		t.Errorf("configs not equal\nwant: %v\ngot: %v", want, got)
	}
}

func TestDirection(t *testing.T) {
	c := Config{Directions: []track.Direction{track.Outbound, track.Inbound}}
	tests := []struct {
		lane int
		want track.Direction
	}{
		{lane: 0, want: track.Outbound},
		{lane: 1, want: track.Inbound},
		{lane: 5, want: track.Inbound},
	}
	for _, test := range tests {
		if got := c.Direction(test.lane); got != test.want {
			t.Errorf("unexpected direction for lane %d: want %v, got %v", test.lane, test.want, got)
		}
	}
}
