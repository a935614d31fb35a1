package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/saori-resized-png-mini/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/saori-resized-png-mini/internal/domain-orchestrators"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/yaml"
)

// releaseFlags are shared by release and verify
type releaseFlags struct {
	manifestsDir *string
	sourceDir    *string
	outputDir    *string
	logLevel     *string
}

func addReleaseFlags(fs *flag.FlagSet) *releaseFlags {
	return &releaseFlags{
		manifestsDir: fs.String("manifests-dir", "release", "Path to release manifests directory"),
		sourceDir:    fs.String("source", ".", "Module root to build from"),
		outputDir:    fs.String("output-dir", "dist", "Output directory for release artifacts"),
		logLevel:     fs.String("log-level", "info", "Log level: debug, info, warn, error, off"),
	}
}

// newReleaseOrchestrator wires the release gateways
func (f *releaseFlags) newReleaseOrchestrator(logger interfaces.Logger) *orchestrators.ReleaseOrchestrator {
	compiler := gateways.NewGoCompiler(logger)
	return orchestrators.NewReleaseOrchestrator(orchestrators.ReleaseDeps{
		Manifests:      yaml.NewManifestRepository(*f.manifestsDir, logger),
		VersionFetcher: gateways.NewVersionFetcher(compiler),
		Compiler:       compiler,
		Inspector:      gateways.NewModuleInspector(),
		Packager:       gateways.NewPackager(),
		Finder:         gateways.NewArtifactFinder(),
		Security:       gateways.NewKeyringSecurityProvider(*f.sourceDir, logger),
		SBOM:           gateways.NewSBOMGenerator("resizedpng", version),
	}, orchestrators.ReleaseOrchestratorConfig{
		SourceDir: *f.sourceDir,
		OutputDir: *f.outputDir,
	}, logger)
}

func runRelease(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("release", flag.ExitOnError)
	var (
		releaseVersion = fs.String("version", "", "Version to stamp (default: latest git tag, else dev)")
		skipSign       = fs.Bool("skip-sign", false, "Do not sign the checksum file")
		skipArchive    = fs.Bool("skip-archive", false, "Do not create the release archive")
		sbom           = fs.Bool("sbom", false, "Write a CycloneDX SBOM next to the release")
	)
	flags := addReleaseFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: resizedpng release <name> [options]

Compile the plugin described by <manifests-dir>/<name>.yml and stage it in
<output-dir>/<name>/ with SHA256SUMS, an optional signature and an archive.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  resizedpng release saori-resized-png-mini
  resizedpng release saori-resized-png-mini -version v1.2.0 -sbom
  resizedpng release saori-resized-png-mini -skip-sign -skip-archive

Environment Variables:
  <signing.passphrase_env>  Passphrase of the signing key, when the key is encrypted
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
	name := fs.Arg(0)

	fmt.Printf("🚀 Releasing %s\n", name)
	fmt.Printf("📁 Output directory: %s\n", *flags.outputDir)

	orchestrator := flags.newReleaseOrchestrator(newLogger(*flags.logLevel))
	result, err := orchestrator.Release(ctx, name, orchestrators.ReleaseOptions{
		Version:      *releaseVersion,
		SkipSign:     *skipSign,
		SkipArchive:  *skipArchive,
		GenerateSBOM: *sbom,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	if result.Module != nil && len(result.Module.Exports) > 0 {
		fmt.Printf("🔍 Exports: %s\n", strings.Join(result.Module.Exports, ", "))
	}
	fmt.Printf("\n✅ %s", result.GetReleaseSummary())
}
