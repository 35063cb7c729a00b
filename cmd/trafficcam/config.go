/*
DESCRIPTION
  config.go reads pipeline variables from a TOML file and from command line
  flags.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/ausocean/trafficcam/pipeline/config"
)

// varFlags holds the command line flags that set pipeline variables.
type varFlags map[string]*string

// flagVars maps flag names to the pipeline variables they set.
var flagVars = []struct {
	flag, key, usage string
}{
	{"input", config.KeyInput, "input type: file, webcam or manual"},
	{"in", config.KeyInputPath, "video file path, or camera index or device"},
	{"road", config.KeyRoadMaskPath, "road mask image"},
	{"lanes", config.KeyLaneMaskBase, "lane mask path prefix; lane i is read from <prefix><i>.png"},
	{"directions", config.KeyDirections, "comma separated lane directions, inbound or outbound"},
	{"background", config.KeyBackgroundPath, "image of the empty road, used in place of bootstrapping"},
	{"start", config.KeyStartFrame, "first frame to process"},
	{"end", config.KeyEndFrame, "last frame to process, 0 for the whole stream"},
	{"fps", config.KeyFileFPS, "rate at which file frames are processed, 0 for as fast as possible"},
	{"out", config.KeyOutputPath, "annotated video output file"},
	{"frames", config.KeyFramesDir, "directory for annotated frame images"},
	{"tracks", config.KeyTracksPath, "JSON lines file of per-frame tracks"},
	{"plot", config.KeyPlotPath, "plot of vehicle counts per lane"},
}

func (v varFlags) register(fs *flag.FlagSet) {
	for _, f := range flagVars {
		v[f.key] = fs.String(f.flag, "", f.usage)
	}
}

// values returns the variables of the flags that were set.
func (v varFlags) values() map[string]string {
	vars := make(map[string]string)
	for k, p := range v {
		if *p != "" {
			vars[k] = *p
		}
	}
	return vars
}

// load reads the pipeline variables in the TOML file at path and applies
// overrides on top. Keys are variable names, as listed in config.Variables.
// Arrays are joined with commas. An empty path gives only the overrides.
func load(path string, overrides map[string]string) (map[string]string, error) {
	vars := make(map[string]string)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "could not read config file")
		}
		var doc map[string]interface{}
		err = toml.Unmarshal(b, &doc)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse %s", path)
		}
		for k, val := range doc {
			s, err := stringify(val)
			if err != nil {
				return nil, errors.Wrapf(err, "bad value for %s", k)
			}
			vars[k] = s
		}
	}
	for k, v := range overrides {
		vars[k] = v
	}
	return vars, nil
}

// stringify formats a TOML value as the string form of a pipeline variable.
func stringify(v interface{}) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case bool, int64, float64:
		return fmt.Sprint(v), nil
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			s, err := stringify(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}
