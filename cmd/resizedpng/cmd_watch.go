package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/saori-resized-png-mini/internal/domain-adapters/gateways"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/fswatch"
)

// imageExtensions are the drop-folder files handed to the converter
var imageExtensions = []string{".png", ".bmp", ".gif", ".jpg", ".jpeg", ".webp"}

func runWatch(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	var (
		outDir   = fs.String("out-dir", "", "Directory receiving the converted PNGs (required)")
		width    = fs.Int64("width", 0, "Output width (0 keeps, negative follows the height ratio)")
		height   = fs.Int64("height", 0, "Output height (0 keeps, negative follows the width ratio)")
		debounce = fs.Duration("debounce", fswatch.DefaultDebounce, "Quiet period before a file is converted")
	)
	settingsFlags := addSettingsFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: resizedpng watch <dir> -out-dir <dir> [options]

Convert every image created or written in <dir> into a resized PNG.
Runs until interrupted.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() < 1 || *outDir == "" {
		fmt.Fprintf(os.Stderr, "Error: input directory and -out-dir are required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	inDir := fs.Arg(0)
	if sameDir(inDir, *outDir) {
		fatalf("-out-dir must differ from the watched directory")
	}
	if err := os.MkdirAll(*outDir, 0750); err != nil {
		fatalf("failed to create output directory: %v", err)
	}

	logger := newLogger(*settingsFlags.logLevel)
	converter, err := gateways.NewImageConverter(settingsFlags.resolve(), logger)
	if err != nil {
		fatalf("%v", err)
	}

	watcher, err := fswatch.NewWatcher(fswatch.Config{
		Dir:        inDir,
		Extensions: imageExtensions,
		Debounce:   *debounce,
		Logger:     logger,
	})
	if err != nil {
		fatalf("%v", err)
	}
	defer func() {
		//nolint:errcheck // Shutting down
		watcher.Close()
	}()

	size := entities.SizeCommand{Width: *width, Height: *height}
	fmt.Printf("👀 Watching %s -> %s (Ctrl+C to stop)\n", inDir, *outDir)

	err = watcher.Run(ctx, func(ctx context.Context, path string) {
		dst := outputPath(path, *outDir)
		if err := converter.ToResizedPNG(ctx, path, dst, size); err != nil {
			logger.Error("conversion failed",
				interfaces.F("src", path),
				interfaces.F("kind", entities.KindOf(err).String()),
				interfaces.F("error", err))
			fmt.Fprintf(os.Stderr, "❌ %s: %v\n", filepath.Base(path), err)
			return
		}
		fmt.Printf("✅ %s -> %s\n", filepath.Base(path), dst)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fatalf("%v", err)
	}
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
