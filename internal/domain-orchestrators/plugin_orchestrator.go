package orchestrators

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	domainservices "github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/services"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/services"
)

// RequestCodec interface for the SAORI wire format
type RequestCodec interface {
	ParseRequest(raw []byte) (*entities.SaoriRequest, error)
	BuildResponse(resp *entities.SaoriResponse) ([]byte, error)
	BuildErrorResponse(status int, charset string) []byte
}

// SettingsLoader interface for reading the plugin settings of a directory
type SettingsLoader interface {
	Load(dir string) (entities.PluginSettings, error)
}

// ConverterFactory builds the image converter for a set of settings
type ConverterFactory func(settings entities.PluginSettings, logger interfaces.Logger) (domainservices.Converter, error)

// LogOpener opens the plugin log file
type LogOpener func(path, level string) (interfaces.Logger, io.Closer, error)

// PluginDeps groups the adapters the plugin lifecycle drives
type PluginDeps struct {
	Codec        RequestCodec
	Settings     SettingsLoader
	NewConverter ConverterFactory
	OpenLog      LogOpener // optional; without it nothing is logged
}

// PluginOrchestrator owns the plugin state between load and unload. The
// host may call from any thread; calls are serialized.
type PluginOrchestrator struct {
	mu      sync.Mutex
	deps    PluginDeps
	version string

	loaded    bool
	baseDir   string
	settings  entities.PluginSettings
	saori     *services.SaoriService
	logger    interfaces.Logger
	logCloser io.Closer
}

// NewPluginOrchestrator creates an unloaded plugin reporting version
func NewPluginOrchestrator(deps PluginDeps, version string) *PluginOrchestrator {
	return &PluginOrchestrator{
		deps:     deps,
		version:  version,
		logger:   &interfaces.NoOpLogger{},
		settings: entities.DefaultPluginSettings(),
	}
}

// Load records the plugin directory and applies its settings. Unreadable
// settings fall back to the defaults.
func (o *PluginOrchestrator) Load(dir string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closeLog()

	settings, settingsErr := o.deps.Settings.Load(dir)
	o.openLog(dir, settings)
	if settingsErr != nil {
		o.logger.Warn("invalid settings, using defaults", interfaces.F("dir", dir), interfaces.F("error", settingsErr))
		settings = entities.DefaultPluginSettings()
	}

	if err := o.init(dir, settings); err != nil {
		// a failed reload must not keep serving the previous directory
		o.reset()
		return err
	}

	o.logger.Info("plugin loaded",
		interfaces.F("dir", dir),
		interfaces.F("version", o.version),
		interfaces.F("filter", settings.Filter))
	return nil
}

// init builds the dispatcher; the caller holds mu
func (o *PluginOrchestrator) init(dir string, settings entities.PluginSettings) error {
	converter, err := o.deps.NewConverter(settings, o.logger)
	if err != nil {
		return fmt.Errorf("failed to create converter: %w", err)
	}

	o.saori = services.NewSaoriService(converter, services.SaoriConfig{
		Version: o.version,
		BaseDir: dir,
	}, o.logger)
	o.baseDir = dir
	o.settings = settings
	o.loaded = true
	return nil
}

// openLog switches to the configured log file; the caller holds mu
func (o *PluginOrchestrator) openLog(dir string, settings entities.PluginSettings) {
	if settings.LogFile == "" || o.deps.OpenLog == nil {
		return
	}
	path := settings.LogFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	logger, closer, err := o.deps.OpenLog(path, settings.LogLevel)
	if err != nil {
		return
	}
	o.logger = logger
	o.logCloser = closer
}

func (o *PluginOrchestrator) closeLog() {
	if o.logCloser != nil {
		//nolint:errcheck // Nothing left to report to
		o.logCloser.Close()
	}
	o.logCloser = nil
	o.logger = &interfaces.NoOpLogger{}
}

// Request answers one raw SAORI request. It never fails: malformed
// requests get 400 and internal failures (including panics) get 500.
func (o *PluginOrchestrator) Request(ctx context.Context, raw []byte) (out []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()

	charset := ""
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("request panicked",
				interfaces.F("panic", fmt.Sprint(r)),
				interfaces.F("stack", string(debug.Stack())))
			out = o.deps.Codec.BuildErrorResponse(entities.SaoriStatusInternalServerError, charset)
		}
	}()

	if !o.loaded {
		if err := o.init("", entities.DefaultPluginSettings()); err != nil {
			o.logger.Error("plugin not usable", interfaces.F("error", err))
			return o.deps.Codec.BuildErrorResponse(entities.SaoriStatusInternalServerError, "")
		}
	}

	req, err := o.deps.Codec.ParseRequest(raw)
	if err != nil {
		o.logger.Warn("bad request", interfaces.F("error", err))
		return o.deps.Codec.BuildErrorResponse(entities.SaoriStatusBadRequest, "")
	}
	charset = req.Charset

	resp := o.saori.Execute(ctx, req)
	out, err = o.deps.Codec.BuildResponse(resp)
	if err != nil {
		o.logger.Error("failed to build response", interfaces.F("error", err))
		return o.deps.Codec.BuildErrorResponse(entities.SaoriStatusInternalServerError, charset)
	}
	return out
}

// Unload releases the log file and forgets the plugin directory
func (o *PluginOrchestrator) Unload() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.logger.Info("plugin unloaded", interfaces.F("dir", o.baseDir))
	o.closeLog()
	o.reset()
}

// reset forgets the loaded state; the caller holds mu
func (o *PluginOrchestrator) reset() {
	o.loaded = false
	o.saori = nil
	o.baseDir = ""
	o.settings = entities.DefaultPluginSettings()
}

// Settings returns the settings in effect
func (o *PluginOrchestrator) Settings() entities.PluginSettings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settings
}
