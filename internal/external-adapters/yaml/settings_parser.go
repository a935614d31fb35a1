package yaml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// SettingsFileName is the optional settings file looked up in the plugin directory
const SettingsFileName = "resizedpngmini.yml"

var (
	knownFilters      = entities.ResampleFilters()
	knownCompressions = entities.CompressionLevels()
	knownLogLevels    = []string{"debug", "info", "warn", "error"}
)

type yamlSettings struct {
	Filter      string  `yaml:"filter"`
	Compression string  `yaml:"compression"`
	MaxPixels   *uint64 `yaml:"max_pixels"`
	Log         yamlLog `yaml:"log"`
}

type yamlLog struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// SettingsParser parses plugin settings files
type SettingsParser struct{}

// NewSettingsParser creates a new settings parser
func NewSettingsParser() *SettingsParser {
	return &SettingsParser{}
}

// Load reads <dir>/resizedpngmini.yml. A missing file yields the defaults.
func (p *SettingsParser) Load(dir string) (entities.PluginSettings, error) {
	filePath := filepath.Join(dir, SettingsFileName)

	//nolint:gosec // G304: settings file lives next to the plugin
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return entities.DefaultPluginSettings(), nil
	}
	if err != nil {
		return entities.DefaultPluginSettings(), fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes on top of the default settings
func (p *SettingsParser) Parse(data []byte) (entities.PluginSettings, error) {
	settings := entities.DefaultPluginSettings()

	var raw yamlSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return settings, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if raw.Filter != "" {
		filter, err := oneOf("filter", raw.Filter, knownFilters)
		if err != nil {
			return entities.DefaultPluginSettings(), err
		}
		settings.Filter = filter
	}
	if raw.Compression != "" {
		level, err := oneOf("compression", raw.Compression, knownCompressions)
		if err != nil {
			return entities.DefaultPluginSettings(), err
		}
		settings.CompressionLevel = level
	}
	if raw.Log.Level != "" {
		level, err := oneOf("log level", raw.Log.Level, knownLogLevels)
		if err != nil {
			return entities.DefaultPluginSettings(), err
		}
		settings.LogLevel = level
	}
	if raw.MaxPixels != nil {
		settings.MaxPixels = *raw.MaxPixels
	}
	settings.LogFile = raw.Log.File

	return settings, nil
}

// oneOf normalises v and checks it against the allowed values
func oneOf(field, v string, allowed []string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown %s %q (want one of %s)", field, v, strings.Join(allowed, ", "))
}
