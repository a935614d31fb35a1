package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
)

// GoCompiler builds plugin modules with the go toolchain
type GoCompiler struct {
	goBinary       string
	defaultTimeout time.Duration
	logger         interfaces.Logger
	execute        func(ctx context.Context, config ExecuteConfig) *ExecuteResult
}

// NewGoCompiler creates a compiler that runs "go" from PATH
func NewGoCompiler(logger interfaces.Logger) *GoCompiler {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	c := &GoCompiler{
		goBinary:       "go",
		defaultTimeout: 30 * time.Minute,
		logger:         logger,
	}
	c.execute = c.Execute
	return c
}

// ExecuteConfig contains configuration for running one command
type ExecuteConfig struct {
	Command     string
	Args        []string
	WorkingDir  string
	Env         map[string]string
	Timeout     time.Duration
	Description string
}

// ExecuteResult contains the result of command execution
type ExecuteResult struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Execute runs a command with the given configuration
func (c *GoCompiler) Execute(ctx context.Context, config ExecuteConfig) *ExecuteResult {
	startTime := time.Now()
	result := &ExecuteResult{}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = c.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: command and arguments come from the release manifest
	cmd := exec.CommandContext(execCtx, config.Command, config.Args...)
	if config.WorkingDir != "" {
		cmd.Dir = config.WorkingDir
	}

	env := os.Environ()
	for key, value := range config.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if config.Description != "" {
		c.logger.Info("executing",
			interfaces.F("step", config.Description),
			interfaces.F("command", config.Command+" "+strings.Join(config.Args, " ")))
	}

	err := cmd.Run()
	result.Duration = time.Since(startTime)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Error = err
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			result.Error = fmt.Errorf("execution timeout after %v", timeout)
			result.ExitCode = -1
		}
		return result
	}

	result.Success = true
	return result
}

// BuildArgs returns the "go build" arguments for a manifest
func (c *GoCompiler) BuildArgs(manifest *entities.ReleaseManifest, outPath string) []string {
	args := []string{"build"}
	if manifest.Build.Mode != "" {
		args = append(args, "-buildmode="+manifest.Build.Mode)
	}
	if manifest.Build.Trimpath {
		args = append(args, "-trimpath")
	}
	if manifest.Build.LDFlags != "" {
		args = append(args, "-ldflags", manifest.Build.LDFlags)
	}
	if len(manifest.Build.Tags) > 0 {
		args = append(args, "-tags", strings.Join(manifest.Build.Tags, ","))
	}
	return append(args, "-o", outPath, manifest.Package)
}

// BuildEnv returns the cross compilation environment for a manifest
func (c *GoCompiler) BuildEnv(manifest *entities.ReleaseManifest) map[string]string {
	env := map[string]string{
		"GOOS":        manifest.Target.OS,
		"GOARCH":      manifest.Target.Arch,
		"CGO_ENABLED": "0",
	}
	if manifest.Target.CGO {
		env["CGO_ENABLED"] = "1"
	}
	if manifest.Target.CC != "" {
		env["CC"] = manifest.Target.CC
	}
	return env
}

// Compile builds the manifest's package into buildDir and returns the binary
func (c *GoCompiler) Compile(
	ctx context.Context,
	manifest *entities.ReleaseManifest,
	sourceDir, buildDir string,
) (*entities.Artifact, error) {
	if err := os.MkdirAll(buildDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create build directory: %w", err)
	}

	outPath, err := filepath.Abs(filepath.Join(buildDir, manifest.Binary))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output path: %w", err)
	}

	timeout := c.defaultTimeout
	if manifest.Build.TimeoutMinutes > 0 {
		timeout = time.Duration(manifest.Build.TimeoutMinutes) * time.Minute
	}

	result := c.execute(ctx, ExecuteConfig{
		Command:     c.goBinary,
		Args:        c.BuildArgs(manifest, outPath),
		WorkingDir:  sourceDir,
		Env:         c.BuildEnv(manifest),
		Timeout:     timeout,
		Description: "compile " + manifest.Binary,
	})
	if !result.Success {
		return nil, fmt.Errorf("go build failed (exit %d): %w\nStderr: %s",
			result.ExitCode, result.Error, result.Stderr)
	}

	if _, err := os.Stat(outPath); err != nil {
		return nil, fmt.Errorf("go build did not produce %s: %w", manifest.Binary, err)
	}

	c.logger.Info("compiled",
		interfaces.F("binary", outPath),
		interfaces.F("platform", manifest.Target.Platform()),
		interfaces.F("duration", result.Duration))

	return &entities.Artifact{
		Name:     manifest.Name,
		Platform: manifest.Target.Platform(),
		Path:     outPath,
		Type:     entities.ArtifactBinary,
	}, nil
}
