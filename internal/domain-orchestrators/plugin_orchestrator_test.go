package orchestrators

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	domainservices "github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/services"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/saori"
)

type mockConverter struct {
	mu     sync.Mutex
	format entities.ImageFormat
	err    error
	panics bool
	calls  [][2]string
}

func (m *mockConverter) DetectFormat(_ string) entities.ImageFormat {
	return m.format
}

func (m *mockConverter) ToResizedPNG(_ context.Context, src, dst string, _ entities.SizeCommand) error {
	if m.panics {
		panic("decoder exploded")
	}
	m.mu.Lock()
	m.calls = append(m.calls, [2]string{src, dst})
	m.mu.Unlock()
	return m.err
}

type mockSettingsLoader struct {
	settings entities.PluginSettings
	err      error
}

func (m *mockSettingsLoader) Load(_ string) (entities.PluginSettings, error) {
	if m.err != nil {
		return entities.DefaultPluginSettings(), m.err
	}
	return m.settings, nil
}

type mockCloser struct {
	closed bool
}

func (m *mockCloser) Close() error {
	m.closed = true
	return nil
}

func newTestPlugin(converter *mockConverter, loader *mockSettingsLoader) (*PluginOrchestrator, *[]entities.PluginSettings) {
	var built []entities.PluginSettings
	plugin := NewPluginOrchestrator(PluginDeps{
		Codec:    saori.NewCodec(),
		Settings: loader,
		NewConverter: func(settings entities.PluginSettings, _ interfaces.Logger) (domainservices.Converter, error) {
			built = append(built, settings)
			return converter, nil
		},
	}, "1.0.0")
	return plugin, &built
}

func execute(args ...string) []byte {
	var b strings.Builder
	b.WriteString("EXECUTE SAORI/1.0\r\nCharset: UTF-8\r\nSender: test\r\n")
	for i, a := range args {
		b.WriteString("Argument")
		b.WriteString(string(rune('0' + i)))
		b.WriteString(": ")
		b.WriteString(a)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

func TestPluginOrchestrator_Version(t *testing.T) {
	plugin, _ := newTestPlugin(&mockConverter{}, &mockSettingsLoader{settings: entities.DefaultPluginSettings()})
	if err := plugin.Load(t.TempDir()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got := string(plugin.Request(context.Background(), []byte("GET Version SAORI/1.0\r\nCharset: UTF-8\r\n\r\n")))
	want := "SAORI/1.0 200 OK\r\nCharset: UTF-8\r\nResult: 1.0.0\r\n\r\n"
	if got != want {
		t.Errorf("Request() = %q, want %q", got, want)
	}
}

func TestPluginOrchestrator_ResolvesAgainstLoadDir(t *testing.T) {
	converter := &mockConverter{format: entities.FormatPNG}
	plugin, _ := newTestPlugin(converter, &mockSettingsLoader{settings: entities.DefaultPluginSettings()})

	// Before load, paths stay relative to the working directory
	resp := string(plugin.Request(context.Background(), execute("in.bmp", "out.png", "10", "-1")))
	if !strings.Contains(resp, "Result: 0\r\n") {
		t.Errorf("Request() before Load = %q", resp)
	}

	dir := t.TempDir()
	if err := plugin.Load(dir); err != nil {
		t.Fatal(err)
	}
	resp = string(plugin.Request(context.Background(), execute("in.bmp", "out.png")))
	if !strings.Contains(resp, "Result: 0\r\n") {
		t.Errorf("Request() = %q", resp)
	}

	want := [][2]string{
		{"in.bmp", "out.png"},
		{filepath.Join(dir, "in.bmp"), filepath.Join(dir, "out.png")},
	}
	if len(converter.calls) != 2 || converter.calls[0] != want[0] || converter.calls[1] != want[1] {
		t.Errorf("converter calls = %v, want %v", converter.calls, want)
	}

	resp = string(plugin.Request(context.Background(), execute("in.bmp")))
	if !strings.Contains(resp, "Result: PNG\r\n") {
		t.Errorf("type request = %q", resp)
	}
}

func TestPluginOrchestrator_ErrorResponses(t *testing.T) {
	tests := []struct {
		name      string
		converter *mockConverter
		raw       []byte
		want      string
	}{
		{"malformed request", &mockConverter{}, []byte("HELLO\r\n\r\n"), "SAORI/1.0 400 Bad Request\r\n"},
		{"no arguments", &mockConverter{}, execute(), "SAORI/1.0 400 Bad Request\r\n"},
		{"bad width", &mockConverter{}, execute("a.png", "b.png", "wide"), "SAORI/1.0 400 Bad Request\r\n"},
		{"panic", &mockConverter{panics: true}, execute("a.png", "b.png"), "SAORI/1.0 500 Internal Server Error\r\n"},
		{
			"conversion failure",
			&mockConverter{err: entities.NewConversionError(entities.FailureNotFound, "read image", errors.New("missing"))},
			execute("a.png", "b.png"),
			"Result: 2\r\nValue0: NotFound\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin, _ := newTestPlugin(tt.converter, &mockSettingsLoader{settings: entities.DefaultPluginSettings()})
			if err := plugin.Load(t.TempDir()); err != nil {
				t.Fatal(err)
			}
			got := string(plugin.Request(context.Background(), tt.raw))
			if !strings.Contains(got, tt.want) {
				t.Errorf("Request() = %q, want containing %q", got, tt.want)
			}
		})
	}
}

func TestPluginOrchestrator_Settings(t *testing.T) {
	t.Run("settings applied", func(t *testing.T) {
		settings := entities.DefaultPluginSettings()
		settings.Filter = "nearest"
		plugin, built := newTestPlugin(&mockConverter{}, &mockSettingsLoader{settings: settings})
		if err := plugin.Load(t.TempDir()); err != nil {
			t.Fatal(err)
		}
		if len(*built) != 1 || (*built)[0].Filter != "nearest" || plugin.Settings().Filter != "nearest" {
			t.Errorf("converter built with %+v", *built)
		}
	})

	t.Run("invalid settings fall back to defaults", func(t *testing.T) {
		plugin, built := newTestPlugin(&mockConverter{}, &mockSettingsLoader{err: errors.New("unknown filter")})
		if err := plugin.Load(t.TempDir()); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if (*built)[0] != entities.DefaultPluginSettings() {
			t.Errorf("converter built with %+v", (*built)[0])
		}
	})

	t.Run("converter failure", func(t *testing.T) {
		plugin := NewPluginOrchestrator(PluginDeps{
			Codec:    saori.NewCodec(),
			Settings: &mockSettingsLoader{settings: entities.DefaultPluginSettings()},
			NewConverter: func(entities.PluginSettings, interfaces.Logger) (domainservices.Converter, error) {
				return nil, errors.New("unknown filter")
			},
		}, "1.0.0")
		if err := plugin.Load(t.TempDir()); err == nil {
			t.Error("Load() should fail when the converter cannot be built")
		}
		got := string(plugin.Request(context.Background(), execute("a.png")))
		if !strings.HasPrefix(got, "SAORI/1.0 500 ") {
			t.Errorf("Request() = %q, want 500", got)
		}
	})
}

func TestPluginOrchestrator_FailedReloadForgetsPreviousLoad(t *testing.T) {
	converter := &mockConverter{}
	loader := &mockSettingsLoader{settings: entities.DefaultPluginSettings()}
	loader.settings.Filter = "nearest"
	plugin := NewPluginOrchestrator(PluginDeps{
		Codec:    saori.NewCodec(),
		Settings: loader,
		NewConverter: func(settings entities.PluginSettings, _ interfaces.Logger) (domainservices.Converter, error) {
			if settings.Filter == "broken" {
				return nil, errors.New("unknown filter")
			}
			return converter, nil
		},
	}, "1.0.0")

	first := t.TempDir()
	if err := plugin.Load(first); err != nil {
		t.Fatal(err)
	}

	loader.settings.Filter = "broken"
	if err := plugin.Load(t.TempDir()); err == nil {
		t.Fatal("Load() should fail when the converter cannot be built")
	}
	if got := plugin.Settings(); got != entities.DefaultPluginSettings() {
		t.Errorf("Settings() after failed reload = %+v, want defaults", got)
	}

	resp := string(plugin.Request(context.Background(), execute("in.png", "out.png")))
	if !strings.Contains(resp, "Result: 0\r\n") {
		t.Fatalf("Request() = %q", resp)
	}
	want := [2]string{"in.png", "out.png"}
	if len(converter.calls) != 1 || converter.calls[0] != want {
		t.Errorf("converter calls = %v, want %v", converter.calls, want)
	}
}

func TestPluginOrchestrator_LogFile(t *testing.T) {
	settings := entities.DefaultPluginSettings()
	settings.LogFile = "plugin.log"
	settings.LogLevel = "debug"

	var gotPath, gotLevel string
	closer := &mockCloser{}
	plugin := NewPluginOrchestrator(PluginDeps{
		Codec:    saori.NewCodec(),
		Settings: &mockSettingsLoader{settings: settings},
		NewConverter: func(entities.PluginSettings, interfaces.Logger) (domainservices.Converter, error) {
			return &mockConverter{}, nil
		},
		OpenLog: func(path, level string) (interfaces.Logger, io.Closer, error) {
			gotPath, gotLevel = path, level
			return &interfaces.NoOpLogger{}, closer, nil
		},
	}, "1.0.0")

	dir := t.TempDir()
	if err := plugin.Load(dir); err != nil {
		t.Fatal(err)
	}
	if gotPath != filepath.Join(dir, "plugin.log") || gotLevel != "debug" {
		t.Errorf("log opened at %q level %q", gotPath, gotLevel)
	}

	plugin.Unload()
	if !closer.closed {
		t.Error("Unload() should close the log file")
	}
}

func TestPluginOrchestrator_ConcurrentRequests(t *testing.T) {
	converter := &mockConverter{}
	plugin, _ := newTestPlugin(converter, &mockSettingsLoader{settings: entities.DefaultPluginSettings()})
	if err := plugin.Load(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := string(plugin.Request(context.Background(), execute("a.png", "b.png")))
			if !strings.HasPrefix(resp, "SAORI/1.0 200 OK") {
				t.Errorf("Request() = %q", resp)
			}
		}()
	}
	wg.Wait()

	if len(converter.calls) != 16 {
		t.Errorf("converter calls = %d, want 16", len(converter.calls))
	}
}
