// Package cli parses the cbn command line.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sfomuseum/go-flags/flagset"
	"gopkg.in/yaml.v3"

	"github.com/maax3v3/colorbynumber/internal/color"
)

// EnvPrefix prefixes the environment variables that can set any flag, e.g.
// CBN_MIN_REGION_SIZE for -min-region-size.
const EnvPrefix = "CBN"

// ErrUsage is returned for invalid arguments.
var ErrUsage = errors.New("invalid usage")

// Config holds the parsed CLI arguments.
type Config struct {
	InPath      string
	OutPath     string
	ColoredPath string
	SVGPath     string
	Legend      bool

	Background string
	EdgeColor  string
	InkColor   string

	Colors        int
	MinRegionSize int
	ExactColors   bool
	FillHoles     bool
	EdgeStyle     string
	Seed          uint64
	MaxSide       int

	Sample        bool
	SampleWidth   int
	SampleHeight  int
	SuggestPath   string
	SuggestMethod string
	SaveProgress  string
	Resume        string

	ConfigPath string
	Verbose    bool
}

func newFlagSet(cfg *Config) *flag.FlagSet {
	fs := flagset.NewFlagSet("cbn")
	fs.Init("cbn", flag.ContinueOnError)

	fs.StringVar(&cfg.InPath, "in", "", "Path to input image (PNG, JPEG, GIF, BMP, WEBP)")
	fs.StringVar(&cfg.OutPath, "out", "", "Path to the printable template (must be .png)")
	fs.StringVar(&cfg.ColoredPath, "colored", "", "Path to the colored reference picture (.png)")
	fs.StringVar(&cfg.SVGPath, "svg", "", "Path to an SVG rendition of the template")
	fs.BoolVar(&cfg.Legend, "legend", true, "Append the numbered palette below the template")
	fs.StringVar(&cfg.Background, "background", "", "Page color as #rgb or #rrggbb (default white)")
	fs.StringVar(&cfg.EdgeColor, "edge-color", "", "Boundary color as #rgb or #rrggbb (default #3c3c3c)")
	fs.StringVar(&cfg.InkColor, "ink-color", "", "Number color as #rgb or #rrggbb (default #333333)")

	fs.IntVar(&cfg.Colors, "colors", 15, "Number of palette colors (1-64)")
	fs.IntVar(&cfg.MinRegionSize, "min-region-size", 50, "Smallest region in pixels; smaller patches join their neighbours")
	fs.BoolVar(&cfg.ExactColors, "exact-colors", true, "Use colors found in the image rather than cluster averages")
	fs.BoolVar(&cfg.FillHoles, "fill-holes", true, "Assign leftover pixels to the nearest region")
	fs.StringVar(&cfg.EdgeStyle, "edge-style", "seam", "Boundary style: seam or sobel")
	fs.Uint64Var(&cfg.Seed, "seed", 42, "Seed for color clustering")
	fs.IntVar(&cfg.MaxSide, "max-side", 800, "Downsample so the longest side is at most this many pixels (0 = keep)")

	fs.BoolVar(&cfg.Sample, "sample", false, "Use a generated landscape instead of -in")
	fs.IntVar(&cfg.SampleWidth, "sample-width", 800, "Width of the generated landscape")
	fs.IntVar(&cfg.SampleHeight, "sample-height", 600, "Height of the generated landscape")
	fs.StringVar(&cfg.SuggestPath, "suggest", "", "Write a palette preview strip to this .png and exit")
	fs.StringVar(&cfg.SuggestMethod, "suggest-method", "dominant", "Palette preview method: dominant or kmeans")
	fs.StringVar(&cfg.SaveProgress, "save-progress", "", "Save the session (JSON plus images) to this path")
	fs.StringVar(&cfg.Resume, "resume", "", "Resume a session saved with -save-progress")

	fs.StringVar(&cfg.ConfigPath, "config", "", "YAML file with flag values, keyed by flag name")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log stage timings")
	return fs
}

// Parse parses args (without the program name) and returns a validated
// Config. Values come from, in increasing priority: defaults, the -config
// file, CBN_* environment variables, command-line flags.
func Parse(args []string, stderr io.Writer) (Config, error) {
	var cfg Config
	fs := newFlagSet(&cfg)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: cbn [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEvery option can also be set with %s_<NAME>, e.g. %s_MIN_REGION_SIZE=30.\n", EnvPrefix, EnvPrefix)
		fmt.Fprintf(stderr, "\nExample:\n  cbn -in=photo.jpg -out=template.png -colored=colored.png -colors=12\n")
	}

	if err := flagset.SetFlagsFromEnvVars(fs, EnvPrefix); err != nil {
		return Config{}, fmt.Errorf("%w: environment: %v", ErrUsage, err)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("%w: unexpected arguments %q", ErrUsage, fs.Args())
	}
	if cfg.ConfigPath != "" {
		if err := applyFile(fs, cfg.ConfigPath); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyFile sets every flag named in a YAML file that was not already set
// by the environment or the command line.
func applyFile(fs *flag.FlagSet, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("%w: config %s: %v", ErrUsage, path, err)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == "config" || fs.Lookup(name) == nil {
			return fmt.Errorf("%w: config %s: unknown option %q", ErrUsage, path, name)
		}
		if set[name] {
			continue
		}
		if err := fs.Set(name, values[name]); err != nil {
			return fmt.Errorf("%w: config %s: %s: %v", ErrUsage, path, name, err)
		}
	}
	return nil
}

func (cfg *Config) validate() error {
	sources := 0
	for _, on := range []bool{cfg.InPath != "", cfg.Sample, cfg.Resume != ""} {
		if on {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("%w: exactly one of -in, -sample or -resume is required", ErrUsage)
	}
	if cfg.OutPath == "" && cfg.ColoredPath == "" && cfg.SVGPath == "" && cfg.SuggestPath == "" && cfg.SaveProgress == "" {
		return fmt.Errorf("%w: nothing to write; set -out, -colored, -svg, -suggest or -save-progress", ErrUsage)
	}
	for flagName, p := range map[string]string{"out": cfg.OutPath, "colored": cfg.ColoredPath, "suggest": cfg.SuggestPath} {
		if p == "" {
			continue
		}
		if ext := strings.ToLower(filepath.Ext(p)); ext != ".png" {
			return fmt.Errorf("%w: -%s must be a .png file, got %q", ErrUsage, flagName, ext)
		}
	}
	for flagName, hex := range map[string]string{"background": cfg.Background, "edge-color": cfg.EdgeColor, "ink-color": cfg.InkColor} {
		if hex == "" {
			continue
		}
		if _, err := color.ParseHex(hex); err != nil {
			return fmt.Errorf("%w: -%s: %v", ErrUsage, flagName, err)
		}
	}
	if cfg.Colors < 1 || cfg.Colors > 64 {
		return fmt.Errorf("%w: -colors must be between 1 and 64, got %d", ErrUsage, cfg.Colors)
	}
	if cfg.MinRegionSize < 1 {
		return fmt.Errorf("%w: -min-region-size must be >= 1, got %d", ErrUsage, cfg.MinRegionSize)
	}
	if cfg.MaxSide < 0 {
		return fmt.Errorf("%w: -max-side must be >= 0, got %d", ErrUsage, cfg.MaxSide)
	}
	if cfg.EdgeStyle != "seam" && cfg.EdgeStyle != "sobel" {
		return fmt.Errorf("%w: -edge-style must be seam or sobel, got %q", ErrUsage, cfg.EdgeStyle)
	}
	if cfg.Sample && (cfg.SampleWidth < 1 || cfg.SampleHeight < 1) {
		return fmt.Errorf("%w: sample size must be positive, got %dx%d", ErrUsage, cfg.SampleWidth, cfg.SampleHeight)
	}
	return nil
}
