package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ochairo/saori-resized-png-mini/internal/domain-adapters/gateways"
)

func runType(_ context.Context, args []string) {
	fs := flag.NewFlagSet("type", flag.ExitOnError)
	settingsFlags := addSettingsFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: resizedpng type <file>... [options]

Print the image type (PNG, BMP, GIF, JPEG, WEBP or UNKNOWN) of each file.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: file path is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	converter, err := gateways.NewImageConverter(settingsFlags.resolve(), newLogger(*settingsFlags.logLevel))
	if err != nil {
		fatalf("%v", err)
	}

	for _, path := range fs.Args() {
		fmt.Printf("%s\t%s\n", converter.DetectFormat(path), path)
	}
}
