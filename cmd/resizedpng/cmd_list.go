package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/yaml"
)

func runList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var (
		manifestsDir = fs.String("manifests-dir", "release", "Path to release manifests directory")
		logLevel     = fs.String("log-level", "warn", "Log level: debug, info, warn, error, off")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: resizedpng list [options]

List all release manifests.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	repo := yaml.NewManifestRepository(*manifestsDir, newLogger(*logLevel))
	manifests, err := repo.ListManifests(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing manifests: %v\n", err)
		os.Exit(1)
	}

	if len(manifests) == 0 {
		fmt.Println("No manifests found")
		return
	}

	fmt.Printf("Found %d manifest(s):\n\n", len(manifests))
	for _, m := range manifests {
		fmt.Printf("📦 %s\n", m.Name)
		if m.Description != "" {
			fmt.Printf("   %s\n", m.Description)
		}
		fmt.Printf("   Binary:   %s (%s, %s)\n", m.Binary, m.Target.Platform(), m.Build.Mode)
		fmt.Printf("   Files:    %s\n", strings.Join(m.StagedFiles(), ", "))
		if m.Archive != "" {
			fmt.Printf("   Archive:  %s\n", m.Archive)
		}
		if m.Signing.KeyFile != "" {
			fmt.Printf("   Signing:  %s\n", m.Signing.KeyFile)
		}
		fmt.Println()
	}
}
