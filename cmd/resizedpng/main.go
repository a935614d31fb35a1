// Package main provides the resizedpng CLI: image conversion with the plugin
// pipeline, SAORI request replay, drop-folder watching and plugin releases.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/logging"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "convert":
		runConvert(ctx, os.Args[2:])
	case "type":
		runType(ctx, os.Args[2:])
	case "request":
		runRequest(ctx, os.Args[2:])
	case "watch":
		runWatch(ctx, os.Args[2:])
	case "list":
		runList(ctx, os.Args[2:])
	case "release":
		runRelease(ctx, os.Args[2:])
	case "verify":
		runVerify(ctx, os.Args[2:])
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`resizedpng - Resize images to PNG and release the SAORI plugin

Usage:
  resizedpng <command> [options]

Commands:
  convert   Convert one or more images into resized PNGs
  type      Print the detected image type of files
  request   Answer a raw SAORI/1.0 request read from a file or stdin
  watch     Convert images dropped into a directory
  list      List release manifests
  release   Compile, stage, checksum, sign and archive the plugin
  verify    Verify a staged release against its checksums and signature
  version   Print the CLI version

Use "resizedpng <command> --help" for more information about a command.`)
}

// newLogger returns a stderr logger, or a no-op logger when level is "off"
func newLogger(level string) interfaces.Logger {
	if level == "off" {
		return &interfaces.NoOpLogger{}
	}
	return logging.NewTextLogger(os.Stderr, level)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
