package gateways

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// TestGenerateSBOM reads the build info of the running test binary
func TestGenerateSBOM(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Skipf("no executable path: %v", err)
	}

	generator := NewSBOMGenerator("resizedpng", "test")
	artifact := &entities.Artifact{
		Name:    "saori-resized-png-mini",
		Version: "1.0.0",
		Path:    exe,
		Type:    entities.ArtifactBinary,
	}

	sbom, err := generator.GenerateSBOM(context.Background(), artifact)
	if err != nil {
		t.Fatalf("GenerateSBOM() error = %v", err)
	}

	if sbom.BOMFormat != "CycloneDX" || sbom.SpecVersion != "1.4" {
		t.Errorf("format = %s %s, want CycloneDX 1.4", sbom.BOMFormat, sbom.SpecVersion)
	}
	if len(sbom.Components) < 2 {
		t.Fatalf("Components = %d, want the module plus the toolchain", len(sbom.Components))
	}

	main := sbom.Components[0]
	if main.Type != "application" || main.Name != artifact.Name || main.Version != "1.0.0" {
		t.Errorf("main component = %+v", main)
	}
	wantHash, err := NewChecksumVerifier().CalculateChecksum(exe)
	if err != nil {
		t.Fatal(err)
	}
	if len(main.Hashes) != 1 || main.Hashes[0].Value != wantHash {
		t.Errorf("main hashes = %+v, want %s", main.Hashes, wantHash)
	}

	toolchain := sbom.Components[1]
	if toolchain.Name != "golang.org/toolchain" || toolchain.Version == "" {
		t.Errorf("toolchain component = %+v", toolchain)
	}
	for _, c := range sbom.Components[1:] {
		if c.Type != "library" || c.PURL == "" {
			t.Errorf("dependency component = %+v", c)
		}
	}

	if len(sbom.Metadata.Tools) != 1 || sbom.Metadata.Tools[0].Name != "resizedpng" {
		t.Errorf("tools = %+v", sbom.Metadata.Tools)
	}
}

func TestGenerateSBOM_Errors(t *testing.T) {
	generator := NewSBOMGenerator("resizedpng", "test")
	tmpDir := t.TempDir()

	notGo := filepath.Join(tmpDir, "plain.dll")
	if err := os.WriteFile(notGo, []byte("not a go binary"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		artifact *entities.Artifact
	}{
		{"nil artifact", nil},
		{"empty path", &entities.Artifact{Name: "x"}},
		{"missing file", &entities.Artifact{Name: "x", Path: filepath.Join(tmpDir, "missing")}},
		{"not a go binary", &entities.Artifact{Name: "x", Path: notGo}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := generator.GenerateSBOM(context.Background(), tt.artifact); err == nil {
				t.Error("GenerateSBOM() should return error")
			}
		})
	}
}

func TestWriteSBOM(t *testing.T) {
	generator := NewSBOMGenerator("resizedpng", "test")
	path := filepath.Join(t.TempDir(), "sbom.cdx.json")

	sbom := &entities.SBOM{
		BOMFormat:   "CycloneDX",
		SpecVersion: "1.4",
		Version:     1,
		Components:  []entities.Component{{Type: "library", Name: "golang.org/x/image", Version: "v0.24.0"}},
	}
	if err := generator.WriteSBOM(sbom, path); err != nil {
		t.Fatalf("WriteSBOM() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("SBOM is not valid JSON: %v", err)
	}
	if decoded["bomFormat"] != "CycloneDX" {
		t.Errorf("bomFormat = %v", decoded["bomFormat"])
	}
}
