package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/services"
)

// SaoriConfig configures the request dispatcher
type SaoriConfig struct {
	Version string
	BaseDir string
}

// SaoriService maps SAORI requests onto converter operations.
//
// Argument layout for EXECUTE:
//
//	Argument0                  -> Result is the image type of Argument0
//	Argument0..Argument1[..3]  -> convert Argument0 into a PNG at Argument1,
//	                              Argument2 width and Argument3 height (default 0)
//
// Conversion results are reported as the numeric failure code in Result
// ("0" on success) with the failure name in Value0.
type SaoriService struct {
	converter services.Converter
	version   string
	baseDir   string
	logger    interfaces.Logger
}

// NewSaoriService creates a new dispatcher
func NewSaoriService(converter services.Converter, config SaoriConfig, logger interfaces.Logger) *SaoriService {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &SaoriService{
		converter: converter,
		version:   config.Version,
		baseDir:   config.BaseDir,
		logger:    logger,
	}
}

// Execute answers a single request
func (s *SaoriService) Execute(ctx context.Context, req *entities.SaoriRequest) *entities.SaoriResponse {
	switch req.Method {
	case entities.SaoriMethodGetVersion:
		return s.respond(req, entities.SaoriStatusOK, s.version)
	case entities.SaoriMethodExecute:
		s.logger.Debug("execute request",
			interfaces.F("sender", req.Sender),
			interfaces.F("security_level", req.SecurityLevel),
			interfaces.F("arguments", len(req.Arguments)))
		return s.execute(ctx, req)
	default:
		s.logger.Warn("unsupported method", interfaces.F("method", req.Method))
		return s.respond(req, entities.SaoriStatusBadRequest, "")
	}
}

func (s *SaoriService) execute(ctx context.Context, req *entities.SaoriRequest) *entities.SaoriResponse {
	switch n := len(req.Arguments); {
	case n == 0:
		return s.respond(req, entities.SaoriStatusBadRequest, "")
	case n == 1:
		format := s.converter.DetectFormat(s.resolve(req.Argument(0)))
		return s.respond(req, entities.SaoriStatusOK, string(format))
	case n > 4:
		s.logger.Warn("ignoring extra arguments", interfaces.F("count", n-4))
	}

	cmd, err := parseSizeCommand(req.Argument(2), req.Argument(3))
	if err != nil {
		s.logger.Warn("invalid size arguments", interfaces.F("error", err))
		return s.respond(req, entities.SaoriStatusBadRequest, "")
	}

	src := s.resolve(req.Argument(0))
	dst := s.resolve(req.Argument(1))

	convErr := s.converter.ToResizedPNG(ctx, src, dst, cmd)
	kind := entities.KindOf(convErr)
	resp := s.respond(req, entities.SaoriStatusOK, strconv.FormatUint(uint64(kind.Code()), 10))
	if convErr != nil {
		s.logger.Error("conversion failed",
			interfaces.F("src", src),
			interfaces.F("dst", dst),
			interfaces.F("error", convErr))
		resp.Values = []string{kind.String()}
	}

	return resp
}

func (s *SaoriService) respond(req *entities.SaoriRequest, status int, result string) *entities.SaoriResponse {
	return &entities.SaoriResponse{
		Status:  status,
		Result:  result,
		Charset: req.Charset,
	}
}

// resolve joins relative paths onto the plugin directory
func (s *SaoriService) resolve(path string) string {
	if s.baseDir == "" || filepath.IsAbs(path) || isWindowsAbs(path) {
		return path
	}
	return filepath.Join(s.baseDir, path)
}

// isWindowsAbs recognises drive-letter and UNC paths regardless of the build OS
func isWindowsAbs(path string) bool {
	if strings.HasPrefix(path, `\\`) {
		return true
	}
	return len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/') &&
		((path[0] >= 'A' && path[0] <= 'Z') || (path[0] >= 'a' && path[0] <= 'z'))
}

func parseSizeCommand(width, height string) (entities.SizeCommand, error) {
	w, err := parseLength(width)
	if err != nil {
		return entities.SizeCommand{}, fmt.Errorf("width: %w", err)
	}
	h, err := parseLength(height)
	if err != nil {
		return entities.SizeCommand{}, fmt.Errorf("height: %w", err)
	}
	return entities.SizeCommand{Width: w, Height: h}, nil
}

// parseLength parses one size argument; empty means 0
func parseLength(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
