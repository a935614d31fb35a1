// Package yaml provides YAML-based manifest and settings parsing and repository implementations.
package yaml

import (
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlManifest represents the raw YAML structure
type yamlManifest struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Binary      string      `yaml:"binary"`
	Package     string      `yaml:"package"`
	Target      yamlTarget  `yaml:"target"`
	Build       yamlBuild   `yaml:"build"`
	Files       []string    `yaml:"files"`
	Archive     string      `yaml:"archive"`
	Signing     yamlSigning `yaml:"signing"`
}

type yamlTarget struct {
	OS   string `yaml:"os"`
	Arch string `yaml:"arch"`
	CGO  *bool  `yaml:"cgo"`
	CC   string `yaml:"cc"`
}

type yamlBuild struct {
	Mode           string   `yaml:"mode"`
	LDFlags        string   `yaml:"ldflags"`
	Tags           []string `yaml:"tags"`
	Trimpath       *bool    `yaml:"trimpath"`
	TimeoutMinutes int      `yaml:"timeout_minutes"`
}

type yamlSigning struct {
	KeyFile       string `yaml:"key_file"`
	PassphraseEnv string `yaml:"passphrase_env"`
}

// ManifestParser parses YAML release manifests
type ManifestParser struct{}

// NewManifestParser creates a new YAML parser
func NewManifestParser() *ManifestParser {
	return &ManifestParser{}
}

// ParseFile parses a YAML manifest file into a ReleaseManifest entity
func (p *ManifestParser) ParseFile(filePath string) (*entities.ReleaseManifest, error) {
	//nolint:gosec // G304: filePath is manifest path from repository
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a ReleaseManifest entity. Unset fields get
// the defaults of a c-shared Windows build.
func (p *ManifestParser) Parse(data []byte) (*entities.ReleaseManifest, error) {
	var yamlDef yamlManifest
	if err := yaml.Unmarshal(data, &yamlDef); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if yamlDef.Name == "" {
		return nil, fmt.Errorf("manifest must have a name")
	}
	if yamlDef.Binary == "" {
		return nil, fmt.Errorf("manifest must have a binary")
	}

	archive := strings.ToLower(strings.TrimSpace(yamlDef.Archive))
	if archive == "none" {
		archive = ""
	}

	return &entities.ReleaseManifest{
		Name:        yamlDef.Name,
		Description: yamlDef.Description,
		Binary:      yamlDef.Binary,
		Package:     defaultString(yamlDef.Package, "."),
		Target:      convertTarget(yamlDef.Target),
		Build:       convertBuild(yamlDef.Build),
		Files:       yamlDef.Files,
		Archive:     archive,
		Signing: entities.SigningConfig{
			KeyFile:       yamlDef.Signing.KeyFile,
			PassphraseEnv: yamlDef.Signing.PassphraseEnv,
		},
	}, nil
}

func convertTarget(yt yamlTarget) entities.BuildTarget {
	return entities.BuildTarget{
		OS:   defaultString(yt.OS, "windows"),
		Arch: defaultString(yt.Arch, "386"),
		CGO:  defaultBool(yt.CGO, true),
		CC:   yt.CC,
	}
}

func convertBuild(yb yamlBuild) entities.BuildSettings {
	return entities.BuildSettings{
		Mode:           defaultString(yb.Mode, "c-shared"),
		LDFlags:        yb.LDFlags,
		Tags:           yb.Tags,
		Trimpath:       defaultBool(yb.Trimpath, true),
		TimeoutMinutes: yb.TimeoutMinutes,
	}
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
