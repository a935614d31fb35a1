// Package main builds resizedpngmini.dll, a SAORI/1.0 plugin that converts
// images into resized PNGs for the host.
package main

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ochairo/saori-resized-png-mini/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/saori-resized-png-mini/internal/domain-orchestrators"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/logging"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/saori"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/yaml"
)

var version = "dev"

var plugin = orchestrators.NewPluginOrchestrator(orchestrators.PluginDeps{
	Codec:        saori.NewCodec(),
	Settings:     yaml.NewSettingsParser(),
	NewConverter: gateways.NewImageConverter,
	OpenLog:      openLog,
}, version)

// main is never called; the package is built with -buildmode=c-shared
func main() {}

func openLog(path, level string) (interfaces.Logger, io.Closer, error) {
	logger, err := logging.OpenFileLogger(path, level)
	if err != nil {
		return nil, nil, err
	}
	return logger, logger, nil
}

// decodeLoadPath turns the directory bytes handed to load into a path. The
// host passes the ANSI code page: UTF-8 when valid, Shift_JIS otherwise.
func decodeLoadPath(raw []byte) string {
	if i := strings.IndexByte(string(raw), 0); i >= 0 {
		raw = raw[:i]
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	enc, err := saori.LookupCharset(saori.CharsetShiftJIS)
	if err != nil {
		return string(raw)
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func loadPlugin(raw []byte) bool {
	return plugin.Load(decodeLoadPath(raw)) == nil
}

func unloadPlugin() {
	plugin.Unload()
}

func handleRequest(raw []byte) []byte {
	return plugin.Request(context.Background(), raw)
}
