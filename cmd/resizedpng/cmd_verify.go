package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func runVerify(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	publicKey := fs.String("public-key", "", "Armored public key checking SHA256SUMS.asc (checksums only when empty)")
	flags := addReleaseFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: resizedpng verify <name> [options]

Verify a staged release: the directory holds exactly the manifest files,
every SHA256SUMS entry matches and, with -public-key, the signature is valid.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  resizedpng verify saori-resized-png-mini
  resizedpng verify saori-resized-png-mini -public-key keys/release.pub.asc
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: manifest name is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	orchestrator := flags.newReleaseOrchestrator(newLogger(*flags.logLevel))
	result, err := orchestrator.Verify(ctx, fs.Arg(0), *publicKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Verification failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Staged files: %d\n", len(result.Validation.PresentFiles))
	fmt.Println("✅ Checksums verified")
	if result.SignatureChecked {
		fmt.Println("✅ Signature verified")
	} else {
		fmt.Println("⚠️  Signature not checked (no -public-key)")
	}
}
