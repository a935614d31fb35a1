package entities

// Resampling filter names
const (
	FilterLanczos3   = "lanczos3"
	FilterCatmullRom = "catmullrom"
	FilterBiLinear   = "bilinear"
	FilterNearest    = "nearest"
)

// PNG compression level names
const (
	CompressionDefault = "default"
	CompressionNone    = "none"
	CompressionSpeed   = "speed"
	CompressionBest    = "best"
)

// ResampleFilters lists every accepted filter name
func ResampleFilters() []string {
	return []string{FilterLanczos3, FilterCatmullRom, FilterBiLinear, FilterNearest}
}

// CompressionLevels lists every accepted compression level name
func CompressionLevels() []string {
	return []string{CompressionDefault, CompressionNone, CompressionSpeed, CompressionBest}
}

// PluginSettings is the optional per-installation configuration read at load time
type PluginSettings struct {
	Filter           string // one of ResampleFilters
	CompressionLevel string // one of CompressionLevels
	MaxPixels        uint64 // 0 disables the output size limit
	LogFile          string
	LogLevel         string
}

// DefaultPluginSettings returns the settings used when no file is present
func DefaultPluginSettings() PluginSettings {
	return PluginSettings{
		Filter:           FilterLanczos3,
		CompressionLevel: CompressionDefault,
		MaxPixels:        64 * 1024 * 1024,
		LogLevel:         "info",
	}
}
