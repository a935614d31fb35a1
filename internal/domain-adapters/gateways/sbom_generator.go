package gateways

import (
	"context"
	"debug/buildinfo"
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// sbomGenerator implements SBOM generation using pure Go
// Reads the Go build information embedded in the module (PE or ELF)
type sbomGenerator struct {
	checksums *checksumVerifier
	tool      entities.Tool
}

// NewSBOMGenerator creates a new SBOM generator gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewSBOMGenerator(toolName, toolVersion string) *sbomGenerator {
	return &sbomGenerator{
		checksums: NewChecksumVerifier(),
		tool:      entities.Tool{Name: toolName, Version: toolVersion},
	}
}

// GenerateSBOM lists the module itself and every Go module linked into it
func (g *sbomGenerator) GenerateSBOM(_ context.Context, artifact *entities.Artifact) (*entities.SBOM, error) {
	if artifact == nil {
		return nil, fmt.Errorf("artifact cannot be nil")
	}
	if artifact.Path == "" {
		return nil, fmt.Errorf("artifact path cannot be empty")
	}

	hash, err := g.checksums.CalculateChecksum(artifact.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate artifact hash: %w", err)
	}

	info, err := buildinfo.ReadFile(artifact.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Go build info: %w", err)
	}

	components := []entities.Component{
		{
			Type:    "application",
			Name:    artifact.Name,
			Version: artifact.Version,
			Hashes:  []entities.Hash{{Algorithm: "SHA-256", Value: hash}},
		},
		{
			Type:    "library",
			Name:    "golang.org/toolchain",
			Version: info.GoVersion,
			PURL:    "pkg:golang/golang.org/toolchain@" + info.GoVersion,
		},
	}
	for _, dep := range info.Deps {
		components = append(components, g.moduleComponent(dep))
	}

	return &entities.SBOM{
		BOMFormat:   "CycloneDX",
		SpecVersion: "1.4",
		Version:     1,
		Components:  components,
		Metadata: entities.Metadata{
			Timestamp: time.Now().UTC(),
			Tools:     []entities.Tool{g.tool},
		},
	}, nil
}

// moduleComponent describes one dependency, following replace directives
func (g *sbomGenerator) moduleComponent(mod *debug.Module) entities.Component {
	if mod.Replace != nil {
		mod = mod.Replace
	}
	return entities.Component{
		Type:    "library",
		Name:    mod.Path,
		Version: mod.Version,
		PURL:    fmt.Sprintf("pkg:golang/%s@%s", mod.Path, mod.Version),
	}
}

// WriteSBOM stores sbom as indented JSON
func (g *sbomGenerator) WriteSBOM(sbom *entities.SBOM, path string) error {
	data, err := json.MarshalIndent(sbom, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode SBOM: %w", err)
	}
	//nolint:gosec // G306: SBOM files are published with the release
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write SBOM: %w", err)
	}
	return nil
}
