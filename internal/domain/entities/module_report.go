package entities

import "time"

// ModuleReport describes a compiled plugin module
type ModuleReport struct {
	Platform      string
	Format        string // "pe" or "elf"
	Machine       string // GOARCH naming, e.g. "386"
	SharedLibrary bool
	Exports       []string
	Problems      []string
	Timestamp     time.Time
}

// OK reports whether the inspection found no problems
func (r *ModuleReport) OK() bool {
	return len(r.Problems) == 0
}

// PluginExports are the entry points every plugin module must export
var PluginExports = []string{"load", "unload", "request"}
