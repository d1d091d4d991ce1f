// Command segment runs aided foreground segmentation over a directory of numbered frames.
//
// Each frame is scored against the background model learned so far and its probability
// map is written as prob-N.png. The frame then trains the model wherever its rough
// mask (masks/mask-N.png) marks background.
//
//	segment -frames ./frames -masks ./masks -out ./out -max-width 640 -console
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/go-foreground/config"
	"github.com/nvr-ai/go-foreground/foreground"
	"github.com/nvr-ai/go-foreground/logger"
	"github.com/nvr-ai/go-foreground/segmentation"
	"github.com/nvr-ai/go-foreground/util"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "segment: %v\n", err)
		os.Exit(1)
	}
}

// parseConfig loads the optional config file and applies the flags given on the
// command line over it.
func parseConfig(args []string, output io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet("segment", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		configPath string
		frames     string
		masks      string
		outputDir  string
		maxWidth   int
		logLevel   string
		console    bool
	)
	fs.StringVar(&configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&frames, "frames", "", "Directory of numbered frames (frame-1.png, ...)")
	fs.StringVar(&masks, "masks", "", "Directory of numbered rough foreground masks")
	fs.StringVar(&outputDir, "out", "", "Output directory for probability maps")
	fs.IntVar(&maxWidth, "max-width", 0, "Downscale frames wider than this (0 keeps the size)")
	fs.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	fs.BoolVar(&console, "console", false, "Human readable console logging")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "frames":
			cfg.Input.Frames = frames
		case "masks":
			cfg.Input.Masks = masks
		case "out":
			cfg.Output.Dir = outputDir
		case "max-width":
			cfg.Input.MaxWidth = maxWidth
		case "log-level":
			cfg.Log.Level = logLevel
		case "console":
			cfg.Log.Console = console
		}
	})

	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, output io.Writer) error {
	cfg, err := parseConfig(args, output)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log, output)
	if err != nil {
		return err
	}

	src, err := util.NewDirectorySource(cfg.Input.Frames, cfg.Input.Masks, cfg.Input.MaxWidth)
	if err != nil {
		return err
	}
	sink, err := util.NewPNGSink(cfg.Output.Dir)
	if err != nil {
		return err
	}
	finder, err := foreground.NewFromConfig(cfg.Foreground, foreground.WithLogger(logger.Component(log, "finder")))
	if err != nil {
		return err
	}

	log.Info().
		Int("frames", src.Len()).
		Str("input", cfg.Input.Frames).
		Str("output", cfg.Output.Dir).
		Msg("starting segmentation")

	stats, err := segmentation.Run(ctx, src, finder, sink, logger.Component(log, "run"))
	logStats(log, stats)
	return err
}

func logStats(log zerolog.Logger, stats segmentation.Stats) {
	if stats.Frames == 0 {
		log.Warn().Msg("no frames processed")
		return
	}
	log.Info().
		Float64("mean_probability", stat.Mean(stats.MeanProbability, nil)).
		Float64("fps", float64(stats.Frames)/stats.Elapsed.Seconds()).
		Msg("summary")
}
