package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"

	"github.com/ochairo/saori-resized-png-mini/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/saori-resized-png-mini/internal/domain-orchestrators"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

func runConvert(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	var (
		output  = fs.String("o", "", "Output file (single input only)")
		outDir  = fs.String("out-dir", "", "Output directory; outputs are named <input>.png")
		width   = fs.Int64("width", 0, "Output width (0 keeps, negative follows the height ratio)")
		height  = fs.Int64("height", 0, "Output height (0 keeps, negative follows the width ratio)")
		workers = fs.Int("workers", 0, "Concurrent conversions (0 uses every CPU)")
		quiet   = fs.Bool("quiet", false, "Quiet mode - no progress bar")
	)
	settingsFlags := addSettingsFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: resizedpng convert <input>... [options]

Convert images (PNG, BMP, GIF, JPEG, WEBP) into resized PNGs.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  resizedpng convert face.bmp -o face.png -width 64 -height -1
  resizedpng convert shell/*.png -out-dir thumbs -height 48 -width -1 -workers 4
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: at least one input is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	if *output != "" && fs.NArg() > 1 {
		fatalf("-o accepts a single input; use -out-dir for several")
	}

	size := entities.SizeCommand{Width: *width, Height: *height}
	jobs := make([]orchestrators.BatchJob, 0, fs.NArg())
	for _, src := range fs.Args() {
		dst := *output
		if dst == "" {
			dst = outputPath(src, *outDir)
		}
		jobs = append(jobs, orchestrators.BatchJob{Src: src, Dst: dst, Size: size})
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0750); err != nil {
			fatalf("failed to create output directory: %v", err)
		}
	}

	logger := newLogger(*settingsFlags.logLevel)
	converter, err := gateways.NewImageConverter(settingsFlags.resolve(), logger)
	if err != nil {
		fatalf("%v", err)
	}

	var progress orchestrators.Progress
	if !*quiet && len(jobs) > 1 {
		progress = &barProgress{}
	}

	batch := orchestrators.NewBatchOrchestrator(converter, logger)
	result, err := batch.Convert(ctx, jobs, *workers, progress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	for _, failure := range result.Failures() {
		fmt.Fprintf(os.Stderr, "❌ %s: %s (%v)\n", failure.Job.Src, failure.Kind, failure.Err)
	}
	if !*quiet {
		fmt.Printf("✅ %s\n", result.GetBatchSummary())
	}
	if result.Failed > 0 || err != nil {
		os.Exit(1)
	}
}

// outputPath derives <dir>/<base>.png from an input path; an empty dir keeps
// the input's directory
func outputPath(src, dir string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".png"
	if dir == "" {
		dir = filepath.Dir(src)
	}
	out := filepath.Join(dir, base)
	if out == filepath.Clean(src) {
		out = filepath.Join(dir, strings.TrimSuffix(base, ".png")+".resized.png")
	}
	return out
}

// barProgress reports batch progress on a terminal progress bar
type barProgress struct {
	bar *pb.ProgressBar
}

func (p *barProgress) Start(total int) {
	p.bar = pb.Full.New(total).SetWriter(os.Stderr).Start()
}

func (p *barProgress) Increment() {
	p.bar.Increment()
}

func (p *barProgress) Finish() {
	p.bar.Finish()
}
