package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]string{"-in", "photo.jpg", "-out", "t.png"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Colors != 15 || cfg.MinRegionSize != 50 || !cfg.ExactColors || !cfg.FillHoles ||
		cfg.EdgeStyle != "seam" || cfg.Seed != 42 || cfg.MaxSide != 800 || !cfg.Legend {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestParse_Flags(t *testing.T) {
	cfg, err := Parse([]string{
		"-sample", "-sample-width=300", "-sample-height=200",
		"-out=t.png", "-colored=c.png", "-svg=t.svg",
		"-colors=9", "-min-region-size=20", "-exact-colors=false", "-fill-holes=false",
		"-edge-style=sobel", "-seed=7", "-max-side=0", "-save-progress=s.json", "-verbose",
	}, io.Discard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cfg.Sample || cfg.SampleWidth != 300 || cfg.SampleHeight != 200 || cfg.Colors != 9 ||
		cfg.MinRegionSize != 20 || cfg.ExactColors || cfg.FillHoles || cfg.EdgeStyle != "sobel" ||
		cfg.Seed != 7 || cfg.MaxSide != 0 || cfg.SaveProgress != "s.json" || !cfg.Verbose {
		t.Errorf("parsed = %+v", cfg)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no source", []string{"-out=t.png"}},
		{"two sources", []string{"-in=a.png", "-sample", "-out=t.png"}},
		{"no output", []string{"-in=a.png"}},
		{"out not png", []string{"-in=a.png", "-out=t.jpg"}},
		{"colored not png", []string{"-in=a.png", "-colored=c.gif"}},
		{"zero colors", []string{"-in=a.png", "-out=t.png", "-colors=0"}},
		{"too many colors", []string{"-in=a.png", "-out=t.png", "-colors=65"}},
		{"zero min size", []string{"-in=a.png", "-out=t.png", "-min-region-size=0"}},
		{"negative max side", []string{"-in=a.png", "-out=t.png", "-max-side=-1"}},
		{"bad edge style", []string{"-in=a.png", "-out=t.png", "-edge-style=canny"}},
		{"unknown flag", []string{"-in=a.png", "-out=t.png", "-bogus"}},
		{"stray argument", []string{"-in=a.png", "-out=t.png", "extra"}},
		{"bad sample size", []string{"-sample", "-out=t.png", "-sample-width=0"}},
		{"bad edge color", []string{"-in=a.png", "-out=t.png", "-edge-color=#12"}},
		{"bad ink color", []string{"-in=a.png", "-out=t.png", "-ink-color=navy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.args, io.Discard); !errors.Is(err, ErrUsage) {
				t.Errorf("Parse(%q) err = %v, want ErrUsage", tt.args, err)
			}
		})
	}
}

func TestParse_PageColors(t *testing.T) {
	path := writeConfig(t, "background: \"#fffbe6\"\n")
	cfg, err := Parse([]string{"-in=a.png", "-out=t.png", "-config=" + path, "-edge-color=#024", "-ink-color=112233"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Background != "#fffbe6" || cfg.EdgeColor != "#024" || cfg.InkColor != "112233" {
		t.Errorf("colors = %q %q %q", cfg.Background, cfg.EdgeColor, cfg.InkColor)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cbn.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse_ConfigFile(t *testing.T) {
	path := writeConfig(t, "colors: 6\nmin-region-size: 25\nlegend: false\nedge-style: sobel\n")

	cfg, err := Parse([]string{"-in=a.png", "-out=t.png", "-config", path, "-colors=8"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Colors != 8 {
		t.Errorf("flag should win over file: colors = %d", cfg.Colors)
	}
	if cfg.MinRegionSize != 25 || cfg.Legend || cfg.EdgeStyle != "sobel" {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestParse_ConfigFileErrors(t *testing.T) {
	tests := []struct {
		name, body string
		want       error
	}{
		{"unknown key", "colour: 6\n", ErrUsage},
		{"bad value", "colors: many\n", ErrUsage},
		{"nested config", "config: other.yaml\n", ErrUsage},
		{"not yaml", "colors: [6\n", ErrUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			_, err := Parse([]string{"-in=a.png", "-out=t.png", "-config=" + path}, io.Discard)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Parse([]string{"-in=a.png", "-out=t.png", "-config=/does/not/exist.yaml"}, io.Discard); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestParse_EnvVars(t *testing.T) {
	t.Setenv("CBN_COLORS", "11")
	t.Setenv("CBN_MIN_REGION_SIZE", "33")
	path := writeConfig(t, "colors: 6\n")

	cfg, err := Parse([]string{"-in=a.png", "-out=t.png", "-config=" + path, "-min-region-size=40"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Colors != 11 {
		t.Errorf("env should win over file: colors = %d", cfg.Colors)
	}
	if cfg.MinRegionSize != 40 {
		t.Errorf("flag should win over env: min-region-size = %d", cfg.MinRegionSize)
	}
}
