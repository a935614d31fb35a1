// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/gateways"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/repositories"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/services"
)

// DevVersion is stamped into builds when no release tag is reachable
const DevVersion = "dev"

// VersionFetcher interface for resolving the release version
type VersionFetcher interface {
	FetchLatestVersion(ctx context.Context, sourceDir string) (string, error)
}

// Compiler interface for building the plugin module
type Compiler interface {
	Compile(ctx context.Context, manifest *entities.ReleaseManifest, sourceDir, buildDir string) (*entities.Artifact, error)
}

// ModuleInspector interface for checking a compiled module
type ModuleInspector interface {
	Inspect(ctx context.Context, path, platform string) (*entities.ModuleReport, error)
}

// Packager interface for staging and archiving the release directory
type Packager interface {
	Stage(ctx context.Context, manifest *entities.ReleaseManifest, binaryPath, sourceDir, outputDir string) (*entities.Artifact, error)
	Archive(ctx context.Context, manifest *entities.ReleaseManifest, stageDir, outputDir string) (*entities.Artifact, error)
}

// ArtifactFinder interface for locating release outputs
type ArtifactFinder interface {
	FindRelease(outputDir, name string) ([]*entities.Artifact, error)
	ListDir(dir string) ([]string, error)
}

// SecurityProvider interface for building checksum and signature gateways
type SecurityProvider interface {
	ForSigning(manifest *entities.ReleaseManifest) (gateways.SecurityGateway, error)
	ForVerification(publicKeyPath string) (gateways.SecurityGateway, error)
}

// SBOMGenerator interface for describing the linked Go modules
type SBOMGenerator interface {
	GenerateSBOM(ctx context.Context, artifact *entities.Artifact) (*entities.SBOM, error)
	WriteSBOM(sbom *entities.SBOM, path string) error
}

// ReleaseOrchestrator coordinates the compile, stage, checksum, sign and
// archive workflow of a plugin release
type ReleaseOrchestrator struct {
	manifests      repositories.ManifestRepository
	versionFetcher VersionFetcher
	compiler       Compiler
	inspector      ModuleInspector
	packager       Packager
	finder         ArtifactFinder
	security       SecurityProvider
	sbom           SBOMGenerator
	releases       *services.ReleaseService
	sourceDir      string
	outputDir      string
	logger         interfaces.Logger
}

// ReleaseOrchestratorConfig holds configuration for the orchestrator
type ReleaseOrchestratorConfig struct {
	SourceDir string
	OutputDir string
}

// ReleaseDeps groups the gateways the orchestrator drives. SBOM is optional.
type ReleaseDeps struct {
	Manifests      repositories.ManifestRepository
	VersionFetcher VersionFetcher
	Compiler       Compiler
	Inspector      ModuleInspector
	Packager       Packager
	Finder         ArtifactFinder
	Security       SecurityProvider
	SBOM           SBOMGenerator
}

// NewReleaseOrchestrator creates a new release orchestrator
func NewReleaseOrchestrator(deps ReleaseDeps, config ReleaseOrchestratorConfig, logger interfaces.Logger) *ReleaseOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	sourceDir := config.SourceDir
	if sourceDir == "" {
		sourceDir = "."
	}
	outputDir := config.OutputDir
	if outputDir == "" {
		outputDir = "dist"
	}

	return &ReleaseOrchestrator{
		manifests:      deps.Manifests,
		versionFetcher: deps.VersionFetcher,
		compiler:       deps.Compiler,
		inspector:      deps.Inspector,
		packager:       deps.Packager,
		finder:         deps.Finder,
		security:       deps.Security,
		sbom:           deps.SBOM,
		releases:       services.NewReleaseService(),
		sourceDir:      sourceDir,
		outputDir:      outputDir,
		logger:         logger,
	}
}

// ReleaseOptions selects optional release steps
type ReleaseOptions struct {
	Version      string // empty resolves the latest release tag
	SkipSign     bool
	SkipArchive  bool
	GenerateSBOM bool
}

// ReleaseResult contains the result of a release run
type ReleaseResult struct {
	Manifest        *entities.ReleaseManifest
	Version         string
	Binary          *entities.Artifact
	Module          *entities.ModuleReport
	Artifacts       []*entities.Artifact
	SBOMPath        string
	CompileDuration time.Duration
	TotalDuration   time.Duration
	Success         bool
	Error           error
}

// Release runs the complete release workflow for the named manifest
func (o *ReleaseOrchestrator) Release(ctx context.Context, name string, opts ReleaseOptions) (*ReleaseResult, error) {
	startTime := time.Now()
	result := &ReleaseResult{}
	fail := func(err error) (*ReleaseResult, error) {
		result.Error = err
		result.TotalDuration = time.Since(startTime)
		o.logger.Error("release failed", interfaces.F("name", name), interfaces.F("error", err))
		return result, err
	}

	// Step 1: Load and validate the manifest
	manifest, err := o.manifests.GetManifest(ctx, name)
	if err != nil {
		return fail(fmt.Errorf("failed to load manifest: %w", err))
	}
	if err := o.releases.ValidateManifest(manifest); err != nil {
		return fail(fmt.Errorf("invalid manifest: %w", err))
	}
	result.Manifest = manifest

	// Step 2: Resolve the version stamped into the module
	result.Version = o.resolveVersion(ctx, opts.Version)
	build := withVersion(manifest, result.Version)

	// Step 3: Compile into <output>/build
	compileStart := time.Now()
	binary, err := o.compiler.Compile(ctx, build, o.sourceDir, filepath.Join(o.outputDir, "build"))
	if err != nil {
		return fail(fmt.Errorf("compile failed: %w", err))
	}
	binary.Version = result.Version
	result.Binary = binary
	result.CompileDuration = time.Since(compileStart)

	// Step 4: Check the entry points of the module
	report, err := o.inspector.Inspect(ctx, binary.Path, manifest.Target.Platform())
	if err != nil {
		return fail(fmt.Errorf("module inspection failed: %w", err))
	}
	result.Module = report
	if !report.OK() {
		return fail(fmt.Errorf("module check failed: %s", strings.Join(report.Problems, "; ")))
	}

	// Step 5: Stage <output>/<name>/ with exactly the manifest files
	staged, err := o.packager.Stage(ctx, manifest, binary.Path, o.sourceDir, o.outputDir)
	if err != nil {
		return fail(fmt.Errorf("staging failed: %w", err))
	}
	staged.Version = result.Version
	if err := o.checkStage(manifest, staged.Path); err != nil {
		return fail(err)
	}
	result.Artifacts = append(result.Artifacts, staged)

	// Step 6: Checksums, then the detached signature over them
	security, err := o.securityFor(manifest, opts)
	if err != nil {
		return fail(err)
	}
	sumsPath := filepath.Join(o.outputDir, entities.ChecksumFileName)
	if err := security.WriteChecksumFile(ctx, o.outputDir, stagedPaths(manifest), sumsPath); err != nil {
		return fail(fmt.Errorf("failed to write checksums: %w", err))
	}
	result.Artifacts = append(result.Artifacts, o.artifact(manifest, result.Version, sumsPath, entities.ArtifactChecksums))

	if manifest.Signing.Enabled() && !opts.SkipSign {
		sigPath := filepath.Join(o.outputDir, entities.SignatureFileName)
		if err := security.SignFile(ctx, sumsPath, sigPath); err != nil {
			return fail(fmt.Errorf("signing failed: %w", err))
		}
		result.Artifacts = append(result.Artifacts, o.artifact(manifest, result.Version, sigPath, entities.ArtifactSignature))
	}

	// Step 7: Archive
	if manifest.Archive != "" && !opts.SkipArchive {
		archive, err := o.packager.Archive(ctx, manifest, staged.Path, o.outputDir)
		if err != nil {
			return fail(fmt.Errorf("archive failed: %w", err))
		}
		archive.Version = result.Version
		result.Artifacts = append(result.Artifacts, archive)
	}

	// Step 8: SBOM, kept outside the staged directory
	if opts.GenerateSBOM && o.sbom != nil {
		sbom, err := o.sbom.GenerateSBOM(ctx, binary)
		if err != nil {
			return fail(fmt.Errorf("SBOM generation failed: %w", err))
		}
		result.SBOMPath = filepath.Join(o.outputDir, manifest.Name+".cdx.json")
		if err := o.sbom.WriteSBOM(sbom, result.SBOMPath); err != nil {
			return fail(fmt.Errorf("failed to write SBOM: %w", err))
		}
	}

	result.Success = true
	result.TotalDuration = time.Since(startTime)
	o.logger.Info("release complete",
		interfaces.F("name", manifest.Name),
		interfaces.F("version", result.Version),
		interfaces.F("duration", result.TotalDuration))
	return result, nil
}

func (o *ReleaseOrchestrator) resolveVersion(ctx context.Context, requested string) string {
	if requested != "" {
		return strings.TrimPrefix(requested, "v")
	}
	if o.versionFetcher == nil {
		return DevVersion
	}
	version, err := o.versionFetcher.FetchLatestVersion(ctx, o.sourceDir)
	if err != nil {
		o.logger.Warn("no release tag, building dev version", interfaces.F("error", err))
		return DevVersion
	}
	return version
}

func (o *ReleaseOrchestrator) securityFor(manifest *entities.ReleaseManifest, opts ReleaseOptions) (gateways.SecurityGateway, error) {
	signing := *manifest
	if opts.SkipSign {
		signing.Signing = entities.SigningConfig{}
	}
	security, err := o.security.ForSigning(&signing)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare signing: %w", err)
	}
	return security, nil
}

// checkStage confirms the staged directory holds exactly the manifest files
func (o *ReleaseOrchestrator) checkStage(manifest *entities.ReleaseManifest, stageDir string) error {
	present, err := o.finder.ListDir(stageDir)
	if err != nil {
		return fmt.Errorf("failed to list staged files: %w", err)
	}
	validation := o.releases.ValidateStage(manifest.StagedFiles(), present)
	if !validation.IsReady() {
		return fmt.Errorf("staged directory is incomplete: %s", validation.ErrorMessage())
	}
	return nil
}

func (o *ReleaseOrchestrator) artifact(manifest *entities.ReleaseManifest, version, path, kind string) *entities.Artifact {
	return &entities.Artifact{
		Name:     manifest.Name,
		Version:  version,
		Platform: manifest.Target.Platform(),
		Path:     path,
		Type:     kind,
	}
}

// VerifyResult contains the outcome of a release verification
type VerifyResult struct {
	Manifest         *entities.ReleaseManifest
	Validation       *services.ReleaseValidation
	Artifacts        []*entities.Artifact
	ChecksumsOK      bool
	SignatureChecked bool
	Duration         time.Duration
}

// Verify checks an existing release: the staged directory contents, every
// checksum entry and, when publicKeyPath is given, the signature
func (o *ReleaseOrchestrator) Verify(ctx context.Context, name, publicKeyPath string) (*VerifyResult, error) {
	startTime := time.Now()
	result := &VerifyResult{}

	manifest, err := o.manifests.GetManifest(ctx, name)
	if err != nil {
		return result, fmt.Errorf("failed to load manifest: %w", err)
	}
	result.Manifest = manifest

	artifacts, err := o.finder.FindRelease(o.outputDir, manifest.Name)
	if err != nil {
		return result, err
	}
	result.Artifacts = artifacts

	present, err := o.finder.ListDir(filepath.Join(o.outputDir, manifest.Name))
	if err != nil {
		return result, fmt.Errorf("failed to list staged files: %w", err)
	}
	result.Validation = o.releases.ValidateStage(manifest.StagedFiles(), present)
	if !result.Validation.IsReady() {
		return result, errors.New(result.Validation.ErrorMessage())
	}

	security, err := o.security.ForVerification(publicKeyPath)
	if err != nil {
		return result, err
	}

	sums := findArtifact(artifacts, entities.ArtifactChecksums)
	if sums == nil {
		return result, fmt.Errorf("%s not found in %s", entities.ChecksumFileName, o.outputDir)
	}
	if err := security.VerifyChecksumFile(ctx, o.outputDir, sums.Path); err != nil {
		return result, fmt.Errorf("checksum verification failed: %w", err)
	}
	result.ChecksumsOK = true

	if publicKeyPath != "" {
		sig := findArtifact(artifacts, entities.ArtifactSignature)
		if sig == nil {
			return result, fmt.Errorf("%s not found in %s", entities.SignatureFileName, o.outputDir)
		}
		if err := security.VerifySignature(ctx, sums.Path, sig.Path); err != nil {
			return result, fmt.Errorf("signature verification failed: %w", err)
		}
		result.SignatureChecked = true
	}

	result.Duration = time.Since(startTime)
	return result, nil
}

// GetReleaseSummary returns a human-readable summary of the release
func (r *ReleaseResult) GetReleaseSummary() string {
	if !r.Success {
		return fmt.Sprintf("Release failed: %v", r.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Release successful!\nArtifact: %s\nVersion: %s\nPlatform: %s\nCompile: %v\nTotal: %v\n",
		r.Manifest.Name, r.Version, r.Manifest.Target.Platform(), r.CompileDuration, r.TotalDuration)
	for _, a := range r.Artifacts {
		fmt.Fprintf(&b, "  %-9s %s\n", a.Type, a.Path)
	}
	if r.SBOMPath != "" {
		fmt.Fprintf(&b, "  %-9s %s\n", "sbom", r.SBOMPath)
	}
	return b.String()
}

// withVersion returns a copy of manifest whose ldflags stamp version into
// the plugin's main package
func withVersion(manifest *entities.ReleaseManifest, version string) *entities.ReleaseManifest {
	build := *manifest
	build.Build.LDFlags = strings.TrimSpace(build.Build.LDFlags + " -X main.version=" + version)
	return &build
}

// stagedPaths lists the staged files relative to the output directory
func stagedPaths(manifest *entities.ReleaseManifest) []string {
	names := manifest.StagedFiles()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = manifest.Name + "/" + name
	}
	return paths
}

func findArtifact(artifacts []*entities.Artifact, kind string) *entities.Artifact {
	for _, a := range artifacts {
		if a.Type == kind {
			return a
		}
	}
	return nil
}
