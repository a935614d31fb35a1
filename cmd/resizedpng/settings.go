package main

import (
	"flag"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/yaml"
)

// settingsFlags are the conversion flags shared by convert, type, request and watch
type settingsFlags struct {
	dir         *string
	filter      *string
	compression *string
	maxPixels   *uint64
	logLevel    *string
}

func addSettingsFlags(fs *flag.FlagSet) *settingsFlags {
	return &settingsFlags{
		dir:         fs.String("settings", ".", "Directory holding "+yaml.SettingsFileName),
		filter:      fs.String("filter", "", "Resampling filter: lanczos3, catmullrom, bilinear, nearest"),
		compression: fs.String("compression", "", "PNG compression: default, none, speed, best"),
		maxPixels:   fs.Uint64("max-pixels", 0, "Reject outputs larger than this many pixels (0 keeps the setting)"),
		logLevel:    fs.String("log-level", "warn", "Log level: debug, info, warn, error, off"),
	}
}

// resolve loads the settings file and applies flag overrides
func (f *settingsFlags) resolve() entities.PluginSettings {
	settings, err := yaml.NewSettingsParser().Load(*f.dir)
	if err != nil {
		fatalf("%v", err)
	}
	if *f.filter != "" {
		settings.Filter = *f.filter
	}
	if *f.compression != "" {
		settings.CompressionLevel = *f.compression
	}
	if *f.maxPixels != 0 {
		settings.MaxPixels = *f.maxPixels
	}
	return settings
}
