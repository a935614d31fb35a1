package gateways

import (
	"bytes"
	"context"
	"debug/elf"
	"debug/pe"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// moduleInspector checks compiled plugin modules using pure Go
// Uses debug/pe and debug/elf - no external tools required
type moduleInspector struct{}

// NewModuleInspector creates a new module inspector
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewModuleInspector() *moduleInspector {
	return &moduleInspector{}
}

// Inspect reports whether the module at path is a shared library for
// platform ("<os>-<arch>") that exports the plugin entry points
func (m *moduleInspector) Inspect(_ context.Context, path, platform string) (*entities.ModuleReport, error) {
	goos, goarch, _ := strings.Cut(platform, "-")

	var (
		report *entities.ModuleReport
		err    error
	)
	switch goos {
	case "windows":
		report, err = m.inspectPE(path)
	case "linux":
		report, err = m.inspectELF(path)
	default:
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
	if err != nil {
		return nil, err
	}

	report.Platform = platform
	report.Timestamp = time.Now()

	if goarch != "" && report.Machine != goarch {
		report.Problems = append(report.Problems,
			fmt.Sprintf("machine is %s, want %s", report.Machine, goarch))
	}
	if !report.SharedLibrary {
		report.Problems = append(report.Problems, "not a shared library")
	}
	for _, name := range entities.PluginExports {
		i := sort.SearchStrings(report.Exports, name)
		if i == len(report.Exports) || report.Exports[i] != name {
			report.Problems = append(report.Problems, "missing export "+name)
		}
	}

	return report, nil
}

var peMachines = map[uint16]string{
	pe.IMAGE_FILE_MACHINE_I386:  "386",
	pe.IMAGE_FILE_MACHINE_AMD64: "amd64",
	pe.IMAGE_FILE_MACHINE_ARM64: "arm64",
	pe.IMAGE_FILE_MACHINE_ARMNT: "arm",
}

// inspectPE reads the machine, DLL flag and export names of a PE file
func (m *moduleInspector) inspectPE(path string) (*entities.ModuleReport, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PE file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	report := &entities.ModuleReport{
		Format:        "pe",
		Machine:       peMachines[f.Machine],
		SharedLibrary: f.Characteristics&pe.IMAGE_FILE_DLL != 0,
	}
	if report.Machine == "" {
		report.Machine = fmt.Sprintf("0x%x", f.Machine)
	}

	exports, err := peExports(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read export table: %w", err)
	}
	sort.Strings(exports)
	report.Exports = exports

	return report, nil
}

// peExportDirectory is IMAGE_EXPORT_DIRECTORY
type peExportDirectory struct {
	Characteristics       uint32
	TimeDateStamp         uint32
	MajorVersion          uint16
	MinorVersion          uint16
	Name                  uint32
	Base                  uint32
	NumberOfFunctions     uint32
	NumberOfNames         uint32
	AddressOfFunctions    uint32
	AddressOfNames        uint32
	AddressOfNameOrdinals uint32
}

// peExports lists the exported names. debug/pe only parses imports.
func peExports(f *pe.File) ([]string, error) {
	var dir pe.DataDirectory
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes > pe.IMAGE_DIRECTORY_ENTRY_EXPORT {
			dir = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_EXPORT]
		}
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes > pe.IMAGE_DIRECTORY_ENTRY_EXPORT {
			dir = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_EXPORT]
		}
	}
	if dir.VirtualAddress == 0 || dir.Size == 0 {
		return nil, nil
	}

	data, err := peBytesAt(f, dir.VirtualAddress)
	if err != nil {
		return nil, err
	}
	var exp peExportDirectory
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &exp); err != nil {
		return nil, fmt.Errorf("truncated export directory: %w", err)
	}

	nameTable, err := peBytesAt(f, exp.AddressOfNames)
	if err != nil {
		return nil, err
	}
	if uint64(len(nameTable)) < uint64(exp.NumberOfNames)*4 {
		return nil, fmt.Errorf("truncated export name table")
	}

	names := make([]string, 0, exp.NumberOfNames)
	for i := uint32(0); i < exp.NumberOfNames; i++ {
		raw, err := peBytesAt(f, binary.LittleEndian.Uint32(nameTable[i*4:]))
		if err != nil {
			return nil, err
		}
		if end := bytes.IndexByte(raw, 0); end >= 0 {
			raw = raw[:end]
		}
		names = append(names, string(raw))
	}
	return names, nil
}

// peBytesAt returns the section contents from rva to the end of its section
func peBytesAt(f *pe.File, rva uint32) ([]byte, error) {
	for _, s := range f.Sections {
		size := s.VirtualSize
		if s.Size > size {
			size = s.Size
		}
		if rva < s.VirtualAddress || rva >= s.VirtualAddress+size {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, fmt.Errorf("failed to read section %s: %w", s.Name, err)
		}
		off := rva - s.VirtualAddress
		if off >= uint32(len(data)) {
			return nil, fmt.Errorf("rva 0x%x lies outside the raw data of %s", rva, s.Name)
		}
		return data[off:], nil
	}
	return nil, fmt.Errorf("rva 0x%x is not mapped by any section", rva)
}

var elfMachines = map[elf.Machine]string{
	elf.EM_386:     "386",
	elf.EM_X86_64:  "amd64",
	elf.EM_AARCH64: "arm64",
	elf.EM_ARM:     "arm",
}

// inspectELF reads the machine, object type and dynamic symbols of an ELF file
func (m *moduleInspector) inspectELF(path string) (*entities.ModuleReport, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	report := &entities.ModuleReport{
		Format:        "elf",
		Machine:       elfMachines[f.Machine],
		SharedLibrary: f.Type == elf.ET_DYN,
	}
	if report.Machine == "" {
		report.Machine = f.Machine.String()
	}

	symbols, err := f.DynamicSymbols()
	if err != nil && err != elf.ErrNoSymbols {
		return nil, fmt.Errorf("failed to read dynamic symbols: %w", err)
	}
	for _, sym := range symbols {
		if sym.Section != elf.SHN_UNDEF && elf.ST_TYPE(sym.Info) == elf.STT_FUNC {
			report.Exports = append(report.Exports, sym.Name)
		}
	}
	sort.Strings(report.Exports)

	return report, nil
}
