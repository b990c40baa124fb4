package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"blinkstack/pkg/config"
	"blinkstack/pkg/display"
	"blinkstack/pkg/imageset"
	"blinkstack/pkg/regions"
	"blinkstack/pkg/stack"
	"blinkstack/pkg/tilegrid"
)

func main() {
	// Parse command line arguments
	dir := flag.String("dir", ".", "Directory containing the images to display in a stack")
	pattern := flag.String("pattern", "", "File pattern used to build the display stack (default from config)")
	target := flag.String("target", "", "Viewer instance name to connect to (default from config)")
	configPath := flag.String("config", "blinkstack.yaml", "Path to the YAML configuration file")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n\n%s\n", os.Args[0], stack.Usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	// Configure logger
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	)

	// Load configuration, with flags overriding the file
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *pattern != "" {
		cfg.Files.Pattern = *pattern
	}
	if *target != "" {
		cfg.Display.Target = *target
	}

	// Resolve the image set and the mosaic dimensions; both failures are
	// fatal at startup since nothing can be displayed without them
	set := imageset.New(*dir, cfg.Files.Pattern)
	width, height, err := set.Dimensions()
	if err != nil {
		logger.Error("failed to read mosaic dimensions", "error", err)
		os.Exit(1)
	}
	logger.Info("mosaic resolved", "width", width, "height", height, "pattern", cfg.Files.Pattern)

	grid := tilegrid.New(width, height, cfg.Tiles.Edge)
	store := regions.NewStore(cfg.Files.RegionExtension)
	viewer := display.NewXPA(cfg.Display.Target)

	session := display.NewSession(viewer, store, cfg, logger)
	if err := session.ClearAll(); err != nil {
		logger.Error("failed to reach viewer", "target", cfg.Display.Target, "error", err)
		os.Exit(1)
	}
	if err := session.Setup(); err != nil {
		logger.Error("failed to set up viewer", "error", err)
		os.Exit(1)
	}

	loop := stack.NewLoop(set, grid, session, logger)
	if err := loop.Run(); err != nil {
		logger.Error("session ended with error", "error", err)
		os.Exit(1)
	}
}
