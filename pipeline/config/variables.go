/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

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
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/trafficcam/track"
	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyBackgroundPath     = "BackgroundPath"
	KeyBlendRate          = "BlendRate"
	KeyCloseCount         = "CloseCount"
	KeyDedup              = "Dedup"
	KeyDetectMinArea      = "DetectMinArea"
	KeyDetectPerspective  = "DetectPerspective"
	KeyDirections         = "Directions"
	KeyEdgeCrop           = "EdgeCrop"
	KeyEdgeMatching       = "EdgeMatching"
	KeyEndFrame           = "EndFrame"
	KeyFileFPS            = "FileFPS"
	KeyFramesDir          = "FramesDir"
	KeyHistory            = "History"
	KeyInput              = "Input"
	KeyInputPath          = "InputPath"
	KeyKernelSize         = "KernelSize"
	KeyLaneMaskBase       = "LaneMaskBase"
	KeyLogging            = "logging"
	KeyMagnification      = "Magnification"
	KeyMinAreaRatio       = "MinAreaRatio"
	KeyMinMatchScore      = "MinMatchScore"
	KeyOutputPath         = "OutputPath"
	KeyPlotPath           = "PlotPath"
	KeyRefinePad          = "RefinePad"
	KeyRoadMaskPath       = "RoadMaskPath"
	KeySearchMargin       = "SearchMargin"
	KeySegmenter          = "Segmenter"
	KeySegmenterThreshold = "SegmenterThreshold"
	KeyShadowAspect       = "ShadowAspect"
	KeyShadowB            = "ShadowB"
	KeyShadowL            = "ShadowL"
	KeyShadowMinArea      = "ShadowMinArea"
	KeyShadowPerspective  = "ShadowPerspective"
	KeyStartFrame         = "StartFrame"
	KeySuppress           = "Suppress"
	KeyTemplateRefresh    = "TemplateRefresh"
	KeyTracksPath         = "TracksPath"
	KeyZoneBottom         = "ZoneBottom"
	KeyZoneMargin         = "ZoneMargin"
	KeyZoneMarginPad      = "ZoneMarginPad"
	KeyZoneNearOffset     = "ZoneNearOffset"
	KeyZoneTop            = "ZoneTop"
)

// Config map parameter types.
const (
	typeString = "string"
	typeInt    = "int"
	typeUint   = "uint"
	typeBool   = "bool"
	typeFloat  = "float"
)

// Default variable values.
const (
	// General defaults.
	defaultInput     = InputFile
	defaultVerbosity = logging.Info
	defaultFileFPS   = 0

	// Background defaults.
	defaultSegmenter = SegmenterMOG
	defaultHistory   = 500
	defaultBlendRate = 0.025

	// Detection zone defaults, used when no part of the zone is set.
	defaultZoneTop        = 230
	defaultZoneBottom     = 535
	defaultZoneMargin     = 5
	defaultZoneMarginPad  = 10
	defaultZoneNearOffset = 8

	// Foreground defaults.
	defaultShadowL           = 10
	defaultShadowB           = 5
	defaultShadowMinArea     = 5
	defaultShadowPerspective = 12
	defaultShadowAspect      = 1.6
	defaultKernelSize        = 3
	defaultCloseCount        = 2

	// Detection defaults.
	defaultDetectMinArea     = 30
	defaultDetectPerspective = 4
	defaultMinAreaRatio      = 0.3
	defaultRefinePad         = 4
	defaultDedup             = DedupContainment

	// Tracking defaults.
	defaultMinMatchScore = 0.5
	defaultMagnification = 1.0015
	defaultSearchMargin  = 6
)

// Variables describes the variables that can be used for pipeline control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyBackgroundPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.BackgroundPath = v },
	},
	{
		Name:   KeyBlendRate,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.BlendRate = parseFloat(KeyBlendRate, v, c) },
		Validate: func(c *Config) {
			if c.BlendRate <= 0 || c.BlendRate > 1 {
				c.LogInvalidField(KeyBlendRate, defaultBlendRate)
				c.BlendRate = defaultBlendRate
			}
		},
	},
	{
		Name:     KeyCloseCount,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.CloseCount = parseUint(KeyCloseCount, v, c) },
		Validate: func(c *Config) { c.CloseCount = lessThanOrEqual(KeyCloseCount, c.CloseCount, 0, c, defaultCloseCount) },
	},
	{
		Name: KeyDedup,
		Type: "enum:containment,offset",
		Update: func(c *Config, v string) {
			c.Dedup = parseEnum(
				KeyDedup,
				v,
				map[string]uint8{
					"containment": DedupContainment,
					"offset":      DedupOffset,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Dedup {
			case DedupContainment, DedupOffset:
			default:
				c.LogInvalidField(KeyDedup, defaultDedup)
				c.Dedup = defaultDedup
			}
		},
	},
	{
		Name:     KeyDetectMinArea,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.DetectMinArea = parseFloat(KeyDetectMinArea, v, c) },
		Validate: func(c *Config) { c.DetectMinArea = positive(KeyDetectMinArea, c.DetectMinArea, c, defaultDetectMinArea) },
	},
	{
		Name:     KeyDetectPerspective,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.DetectPerspective = parseFloat(KeyDetectPerspective, v, c) },
		Validate: func(c *Config) { c.DetectPerspective = positive(KeyDetectPerspective, c.DetectPerspective, c, defaultDetectPerspective) },
	},
	{
		Name: KeyDirections,
		Type: "enums:inbound,outbound",
		Update: func(c *Config, v string) {
			v = strings.Replace(v, " ", "", -1)
			if v == "" {
				c.Directions = nil
				return
			}
			elements := strings.Split(v, ",")
			c.Directions = make([]track.Direction, 0, len(elements))
			for _, e := range elements {
				d, err := track.ParseDirection(e)
				if err != nil {
					c.Logger.Warning("invalid Directions param, using inbound", "value", e)
				}
				c.Directions = append(c.Directions, d)
			}
		},
	},
	{
		Name:   KeyEdgeCrop,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.EdgeCrop = parseBool(KeyEdgeCrop, v, c) },
	},
	{
		Name:   KeyEdgeMatching,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.EdgeMatching = parseBool(KeyEdgeMatching, v, c) },
	},
	{
		Name:   KeyEndFrame,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.EndFrame = parseUint(KeyEndFrame, v, c) },
		Validate: func(c *Config) {
			if c.EndFrame != 0 && c.EndFrame < c.StartFrame {
				c.LogInvalidField(KeyEndFrame, 0)
				c.EndFrame = 0
			}
		},
	},
	{
		Name:   KeyFileFPS,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FileFPS = parseUint(KeyFileFPS, v, c) },
		Validate: func(c *Config) {
			if c.FileFPS > 0 && c.Input != InputFile && c.Input != NothingDefined {
				c.LogInvalidField(KeyFileFPS, defaultFileFPS)
				c.FileFPS = defaultFileFPS
			}
		},
	},
	{
		Name:   KeyFramesDir,
		Type:   typeString,
		Update: func(c *Config, v string) { c.FramesDir = v },
	},
	{
		Name:     KeyHistory,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.History = parseUint(KeyHistory, v, c) },
		Validate: func(c *Config) { c.History = lessThanOrEqual(KeyHistory, c.History, 0, c, defaultHistory) },
	},
	{
		Name: KeyInput,
		Type: "enum:file,webcam,manual",
		Update: func(c *Config, v string) {
			c.Input = parseEnum(
				KeyInput,
				v,
				map[string]uint8{
					"file":   InputFile,
					"webcam": InputWebcam,
					"manual": InputManual,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Input {
			case InputFile, InputWebcam, InputManual:
			default:
				c.LogInvalidField(KeyInput, defaultInput)
				c.Input = defaultInput
			}
		},
	},
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
	},
	{
		Name:   KeyKernelSize,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.KernelSize = parseUint(KeyKernelSize, v, c) },
		Validate: func(c *Config) {
			c.KernelSize = lessThanOrEqual(KeyKernelSize, c.KernelSize, 0, c, defaultKernelSize)
		},
	},
	{
		Name:   KeyLaneMaskBase,
		Type:   typeString,
		Update: func(c *Config, v string) { c.LaneMaskBase = v },
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name:   KeyMagnification,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.Magnification = parseFloat(KeyMagnification, v, c) },
		Validate: func(c *Config) {
			if c.Magnification < 1 {
				c.LogInvalidField(KeyMagnification, defaultMagnification)
				c.Magnification = defaultMagnification
			}
		},
	},
	{
		Name:   KeyMinAreaRatio,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.MinAreaRatio = parseFloat(KeyMinAreaRatio, v, c) },
		Validate: func(c *Config) {
			if c.MinAreaRatio <= 0 || c.MinAreaRatio > 1 {
				c.LogInvalidField(KeyMinAreaRatio, defaultMinAreaRatio)
				c.MinAreaRatio = defaultMinAreaRatio
			}
		},
	},
	{
		Name:   KeyMinMatchScore,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.MinMatchScore = parseFloat(KeyMinMatchScore, v, c) },
		Validate: func(c *Config) {
			if c.MinMatchScore <= 0 || c.MinMatchScore > 1 {
				c.LogInvalidField(KeyMinMatchScore, defaultMinMatchScore)
				c.MinMatchScore = defaultMinMatchScore
			}
		},
	},
	{
		Name:   KeyOutputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputPath = v },
	},
	{
		Name:   KeyPlotPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.PlotPath = v },
	},
	{
		Name: KeyRefinePad,
		Type: typeUint,
		Update: func(c *Config, v string) {
			c.RefinePad = parseUint(KeyRefinePad, v, c)
		},
		Validate: func(c *Config) {
			c.RefinePad = lessThanOrEqual(KeyRefinePad, c.RefinePad, 0, c, defaultRefinePad)
		},
	},
	{
		Name:   KeyRoadMaskPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.RoadMaskPath = v },
	},
	{
		Name:     KeySearchMargin,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.SearchMargin = parseFloat(KeySearchMargin, v, c) },
		Validate: func(c *Config) { c.SearchMargin = positive(KeySearchMargin, c.SearchMargin, c, defaultSearchMargin) },
	},
	{
		Name: KeySegmenter,
		Type: "enum:MOG,KNN,Difference",
		Update: func(c *Config, v string) {
			c.Segmenter = parseEnum(
				KeySegmenter,
				v,
				map[string]uint8{
					"mog":        SegmenterMOG,
					"knn":        SegmenterKNN,
					"difference": SegmenterDiff,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Segmenter {
			case SegmenterMOG, SegmenterKNN, SegmenterDiff:
			default:
				c.LogInvalidField(KeySegmenter, defaultSegmenter)
				c.Segmenter = defaultSegmenter
			}
		},
	},
	{
		Name:   KeySegmenterThreshold,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.SegmenterThreshold = parseFloat(KeySegmenterThreshold, v, c) },
	},
	{
		Name:     KeyShadowAspect,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.ShadowAspect = parseFloat(KeyShadowAspect, v, c) },
		Validate: func(c *Config) { c.ShadowAspect = positive(KeyShadowAspect, c.ShadowAspect, c, defaultShadowAspect) },
	},
	{
		Name:     KeyShadowB,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.ShadowB = parseFloat(KeyShadowB, v, c) },
		Validate: func(c *Config) { c.ShadowB = positive(KeyShadowB, c.ShadowB, c, defaultShadowB) },
	},
	{
		Name:     KeyShadowL,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.ShadowL = parseFloat(KeyShadowL, v, c) },
		Validate: func(c *Config) { c.ShadowL = positive(KeyShadowL, c.ShadowL, c, defaultShadowL) },
	},
	{
		Name:     KeyShadowMinArea,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.ShadowMinArea = parseFloat(KeyShadowMinArea, v, c) },
		Validate: func(c *Config) { c.ShadowMinArea = positive(KeyShadowMinArea, c.ShadowMinArea, c, defaultShadowMinArea) },
	},
	{
		Name:     KeyShadowPerspective,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.ShadowPerspective = parseFloat(KeyShadowPerspective, v, c) },
		Validate: func(c *Config) { c.ShadowPerspective = positive(KeyShadowPerspective, c.ShadowPerspective, c, defaultShadowPerspective) },
	},
	{
		Name:   KeyStartFrame,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.StartFrame = parseUint(KeyStartFrame, v, c) },
	},
	{
		Name:   KeySuppress,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Suppress = parseBool(KeySuppress, v, c) },
	},
	{
		Name:   KeyTemplateRefresh,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.TemplateRefresh = parseUint(KeyTemplateRefresh, v, c) },
	},
	{
		Name:   KeyTracksPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.TracksPath = v },
	},
	{
		Name:   KeyZoneBottom,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.ZoneBottom = parseInt(KeyZoneBottom, v, c) },
	},
	{
		Name:   KeyZoneMargin,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.ZoneMargin = parseInt(KeyZoneMargin, v, c) },
	},
	{
		Name:   KeyZoneMarginPad,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.ZoneMarginPad = parseInt(KeyZoneMarginPad, v, c) },
	},
	{
		Name:   KeyZoneNearOffset,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.ZoneNearOffset = parseInt(KeyZoneNearOffset, v, c) },
	},
	{
		Name:   KeyZoneTop,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.ZoneTop = parseInt(KeyZoneTop, v, c) },
		Validate: func(c *Config) {
			if c.Zone() == (track.Zone{}) {
				c.LogInvalidField("Zone", track.Zone{
					Top:        defaultZoneTop,
					Bottom:     defaultZoneBottom,
					Margin:     defaultZoneMargin,
					MarginPad:  defaultZoneMarginPad,
					NearOffset: defaultZoneNearOffset,
				})
				c.ZoneTop = defaultZoneTop
				c.ZoneBottom = defaultZoneBottom
				c.ZoneMargin = defaultZoneMargin
				c.ZoneMarginPad = defaultZoneMarginPad
				c.ZoneNearOffset = defaultZoneNearOffset
			}
		},
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseInt(n, v string, c *Config) int {
	_v, err := strconv.Atoi(v)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected integer for param %s", n), "value", v)
	}
	return _v
}

func parseFloat(n, v string, c *Config) float64 {
	_v, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected float for param %s", n), "value", v)
	}
	return _v
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseEnum(n, v string, enums map[string]uint8, c *Config) uint8 {
	_v, ok := enums[strings.ToLower(v)]
	if !ok {
		c.Logger.Warning(fmt.Sprintf("invalid value for %s param", n), "value", v)
	}
	return _v
}

func lessThanOrEqual(n string, v, cmp uint, c *Config, def uint) uint {
	if v <= cmp {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}

func positive(n string, v float64, c *Config, def float64) float64 {
	if v <= 0 {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}
