package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ochairo/saori-resized-png-mini/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/saori-resized-png-mini/internal/domain-orchestrators"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/logging"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/saori"
	"github.com/ochairo/saori-resized-png-mini/internal/external-adapters/yaml"
)

func runRequest(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("request", flag.ExitOnError)
	pluginDir := fs.String("dir", ".", "Plugin directory passed to load (settings and relative paths)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: resizedpng request [file] [options]

Answer a raw SAORI/1.0 request the way the plugin does. The request is read
from file, or from stdin when no file is given; the response goes to stdout.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  printf 'GET Version SAORI/1.0\r\nCharset: UTF-8\r\n\r\n' | resizedpng request
  resizedpng request execute.txt -dir ./ghost/master/saori
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	var raw []byte
	var err error
	if fs.NArg() > 0 {
		//nolint:gosec // G304: request file is provided by the user
		raw, err = os.ReadFile(fs.Arg(0))
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fatalf("failed to read request: %v", err)
	}

	plugin := newPlugin()
	if err := plugin.Load(*pluginDir); err != nil {
		fatalf("%v", err)
	}
	defer plugin.Unload()

	if _, err := os.Stdout.Write(plugin.Request(ctx, raw)); err != nil {
		fatalf("failed to write response: %v", err)
	}
}

// newPlugin wires the plugin lifecycle exactly as the DLL does
func newPlugin() *orchestrators.PluginOrchestrator {
	return orchestrators.NewPluginOrchestrator(orchestrators.PluginDeps{
		Codec:        saori.NewCodec(),
		Settings:     yaml.NewSettingsParser(),
		NewConverter: gateways.NewImageConverter,
		OpenLog: func(path, level string) (interfaces.Logger, io.Closer, error) {
			logger, err := logging.OpenFileLogger(path, level)
			if err != nil {
				return nil, nil, err
			}
			return logger, logger, nil
		},
	}, version)
}
