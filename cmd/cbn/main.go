package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/maax3v3/colorbynumber"
	"github.com/maax3v3/colorbynumber/internal/cli"
	"github.com/maax3v3/colorbynumber/internal/imaging"
	"github.com/maax3v3/colorbynumber/internal/sample"
	"github.com/maax3v3/colorbynumber/internal/suggest"
)

func main() {
	cfg, err := cli.Parse(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg cli.Config) error {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := colorbynumber.DefaultOptions()
	opts.Colors = cfg.Colors
	opts.MinRegionSize = cfg.MinRegionSize
	opts.ExactColors = cfg.ExactColors
	opts.FillMicroHoles = cfg.FillHoles
	opts.EdgeStyle = cfg.EdgeStyle
	opts.Seed = cfg.Seed
	opts.MaxSide = cfg.MaxSide
	opts.Logger = logger
	for _, c := range []struct {
		hex string
		dst *colorbynumber.Color
	}{
		{cfg.Background, &opts.Background},
		{cfg.EdgeColor, &opts.EdgeColor},
		{cfg.InkColor, &opts.InkColor},
	} {
		if c.hex == "" {
			continue
		}
		col, err := colorbynumber.ParseHexColor(c.hex)
		if err != nil {
			return err
		}
		*c.dst = col
	}

	var tmpl *colorbynumber.Template
	if cfg.Resume != "" {
		fmt.Printf("Resuming session: %s\n", cfg.Resume)
		t, err := colorbynumber.Resume(cfg.Resume, opts)
		if err != nil {
			return err
		}
		tmpl = t
	} else {
		img, err := input(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Image loaded: %dx%d\n", img.Bounds().Dx(), img.Bounds().Dy())

		if cfg.SuggestPath != "" {
			return writeSuggestion(cfg, img, logger)
		}

		fmt.Printf("Generating (colors=%d, min-region-size=%d)...\n", cfg.Colors, cfg.MinRegionSize)
		t, err := colorbynumber.Generate(img, opts)
		if err != nil {
			return err
		}
		tmpl = t
	}
	fmt.Printf("Regions: %d, colors: %d, progress: %.1f%%\n", len(tmpl.Regions()), tmpl.NumColors(), tmpl.Percent())
	if n := tmpl.Unowned(); n > 0 {
		fmt.Printf("Warning: %d pixels belong to no region\n", n)
	}

	if cfg.OutPath != "" {
		fmt.Printf("Saving template: %s\n", cfg.OutPath)
		if err := colorbynumber.SavePNG(cfg.OutPath, tmpl.TemplateImage(cfg.Legend)); err != nil {
			return err
		}
	}
	if cfg.ColoredPath != "" {
		fmt.Printf("Saving colored picture: %s\n", cfg.ColoredPath)
		if err := colorbynumber.SavePNG(cfg.ColoredPath, tmpl.ColoredImage()); err != nil {
			return err
		}
	}
	if cfg.SVGPath != "" {
		fmt.Printf("Saving SVG: %s\n", cfg.SVGPath)
		if err := writeSVG(cfg.SVGPath, tmpl); err != nil {
			return err
		}
	}
	if cfg.SaveProgress != "" {
		fmt.Printf("Saving session: %s\n", cfg.SaveProgress)
		if err := tmpl.Save(cfg.SaveProgress); err != nil {
			return err
		}
	}

	fmt.Println("Done!")
	return nil
}

func input(cfg cli.Config) (image.Image, error) {
	if cfg.Sample {
		fmt.Printf("Drawing sample landscape: %dx%d\n", cfg.SampleWidth, cfg.SampleHeight)
		return sample.Scene(cfg.SampleWidth, cfg.SampleHeight), nil
	}
	fmt.Printf("Loading image: %s\n", cfg.InPath)
	return colorbynumber.LoadImage(cfg.InPath)
}

func writeSuggestion(cfg cli.Config, img image.Image, logger *slog.Logger) error {
	method, err := suggest.ParseMethod(cfg.SuggestMethod)
	if err != nil {
		return err
	}
	fmt.Printf("Suggesting %d colors (%s)...\n", cfg.Colors, method)
	swatches, err := suggest.Palette(imaging.Downsample(img, cfg.MaxSide), cfg.Colors, method, logger)
	if err != nil {
		return err
	}
	for i, s := range swatches {
		fmt.Printf("  %2d  %s  %.0f\n", i+1, s.Color.Hex(), s.Weight)
	}
	fmt.Printf("Saving palette preview: %s\n", cfg.SuggestPath)
	return colorbynumber.SavePNG(cfg.SuggestPath, suggest.Strip(swatches, 64))
}

func writeSVG(path string, tmpl *colorbynumber.Template) error {
	f, err := os.Create(imaging.ExpandPath(path))
	if err != nil {
		return fmt.Errorf("creating SVG: %w", err)
	}
	if err := tmpl.WriteSVG(f); err != nil {
		f.Close()
		return fmt.Errorf("writing SVG: %w", err)
	}
	return f.Close()
}
