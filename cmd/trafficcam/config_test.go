/*
DESCRIPTION
  config_test.go tests the reading of pipeline variables from TOML files.

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
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testFile = `
Input = "file"
InputPath = "road.mp4"
History = 200
BlendRate = 0.05
EdgeMatching = true
Directions = ["inbound", "outbound"]
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trafficcam.toml")
	err := os.WriteFile(path, []byte(testFile), 0o644)
	if err != nil {
		t.Fatalf("could not write config: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		overrides map[string]string
		want      map[string]string
		wantErr   bool
	}{
		{
			name: "file",
			path: path,
			want: map[string]string{
				"Input":        "file",
				"InputPath":    "road.mp4",
				"History":      "200",
				"BlendRate":    "0.05",
				"EdgeMatching": "true",
				"Directions":   "inbound,outbound",
			},
		},
		{
			name:      "overrides",
			path:      path,
			overrides: map[string]string{"InputPath": "other.mp4", "EndFrame": "100"},
			want: map[string]string{
				"Input":        "file",
				"InputPath":    "other.mp4",
				"History":      "200",
				"BlendRate":    "0.05",
				"EdgeMatching": "true",
				"Directions":   "inbound,outbound",
				"EndFrame":     "100",
			},
		},
		{
			name:      "no file",
			overrides: map[string]string{"Input": "webcam"},
			want:      map[string]string{"Input": "webcam"},
		},
		{
			name:    "missing file",
			path:    filepath.Join(t.TempDir(), "missing.toml"),
			wantErr: true,
		},
	}

	for _, test := range tests {
		got, err := load(test.path, test.overrides)
		if (err != nil) != test.wantErr {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if test.wantErr {
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("%s: unexpected vars (-want +got):\n%s", test.name, diff)
		}
	}
}

func TestVarFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	v := varFlags{}
	v.register(fs)
	err := fs.Parse([]string{"-in", "road.mp4", "-lanes", "masks/lane", "-end", "300"})
	if err != nil {
		t.Fatalf("could not parse flags: %v", err)
	}

	want := map[string]string{
		"InputPath":    "road.mp4",
		"LaneMaskBase": "masks/lane",
		"EndFrame":     "300",
	}
	if diff := cmp.Diff(want, v.values()); diff != "" {
		t.Errorf("unexpected vars (-want +got):\n%s", diff)
	}
}
