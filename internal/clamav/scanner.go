// Package clamav scans downloaded archives with ClamAV, either through a
// clamscan binary on the host or a ClamAV container image.
package clamav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ModeLocal runs clamscan from PATH
	ModeLocal = "local"
	// ModeDocker runs clamscan inside Image
	ModeDocker = "docker"

	// DefaultImage is the container image used in docker mode
	DefaultImage = "clamav/clamav-debian:latest"
)

// Sentinel errors
var (
	ErrUnavailable       = errors.New("clamscan not available")
	ErrUnknownMode       = errors.New("unknown scan mode")
	ErrInfected          = errors.New("archive is infected")
	ErrNoThreatsInOutput = errors.New("malware detected but no threats found in output")
)

// ScanError reports a clamscan run that ended without a verdict.
type ScanError struct {
	ExitCode int
	Output   string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("clamscan exited with code %d: %s", e.ExitCode, e.Output)
}

// InfectedError names the signatures found in an archive.
type InfectedError struct {
	Path    string
	Threats []string
}

func (e *InfectedError) Error() string {
	return fmt.Sprintf("%s: %s", filepath.Base(e.Path), strings.Join(e.Threats, ", "))
}

func (e *InfectedError) Is(target error) bool {
	return target == ErrInfected
}

// Scanner scans files for malware.
type Scanner interface {
	Scan(ctx context.Context, path string) (Result, error)
}

// Result represents the outcome of one scan.
type Result struct {
	Path         string
	Clean        bool
	Threats      []string
	Engine       string
	DatabaseDate string
	Duration     time.Duration
}

// Err returns an *InfectedError for a result with threats, nil otherwise.
func (r Result) Err() error {
	if r.Clean {
		return nil
	}
	return &InfectedError{Path: r.Path, Threats: r.Threats}
}

// Config selects how clamscan is run.
type Config struct {
	Mode  string // local or docker, default local
	Image string // container image for docker mode
}

// CommandScanner runs clamscan through a CommandRunner.
type CommandScanner struct {
	runner CommandRunner
	config Config
	logger *slog.Logger
}

// New creates a scanner for the configured mode. A nil runner runs real commands.
func New(config Config, runner CommandRunner, logger *slog.Logger) (*CommandScanner, error) {
	switch config.Mode {
	case "":
		config.Mode = ModeLocal
	case ModeLocal, ModeDocker:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, config.Mode)
	}
	if config.Mode == ModeDocker && config.Image == "" {
		config.Image = DefaultImage
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandScanner{runner: runner, config: config, logger: logger}, nil
}

// Scan runs clamscan on path. An infected archive is a successful scan with
// Clean set to false; use Result.Err to turn it into an error.
func (s *CommandScanner) Scan(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get absolute path: %w", err)
	}

	version, err := s.version(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	name, args := s.command(absPath)
	output, err := s.runner.Run(ctx, name, args...)
	exitCode := exitClean
	if err != nil {
		exitCode = extractExitCode(err)
		if exitCode < 0 {
			return Result{}, fmt.Errorf("failed to run clamscan: %w", err)
		}
	}

	result, err := parseResult(path, output, exitCode, version)
	if err != nil {
		return result, err
	}
	result.Duration = time.Since(start)

	s.logger.Debug("archive scanned",
		"path", path,
		"clean", result.Clean,
		"threats", result.Threats,
		"duration", result.Duration)
	return result, nil
}

// version reports the engine version and proves clamscan can run.
func (s *CommandScanner) version(ctx context.Context) (string, error) {
	var (
		output []byte
		err    error
	)
	if s.config.Mode == ModeDocker {
		if err := s.ensureImage(ctx); err != nil {
			return "", err
		}
		output, err = s.runner.Run(ctx, "docker", "run", "--rm", s.config.Image, "clamscan", "--version")
	} else {
		output, err = s.runner.Run(ctx, "clamscan", "--version")
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func (s *CommandScanner) ensureImage(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, "docker", "image", "inspect", s.config.Image); err == nil {
		return nil
	}
	s.logger.Info("pulling ClamAV image", "image", s.config.Image)
	if _, err := s.runner.Run(ctx, "docker", "pull", s.config.Image); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", s.config.Image, err)
	}
	return nil
}

// command builds the clamscan invocation for absPath.
func (s *CommandScanner) command(absPath string) (string, []string) {
	if s.config.Mode == ModeDocker {
		target := "/scan/" + filepath.Base(absPath)
		return "docker", []string{
			"run",
			"--rm",
			"-v", fmt.Sprintf("%s:%s:ro", absPath, target),
			s.config.Image,
			"clamscan", "--stdout", "--no-summary",
			target,
		}
	}
	return "clamscan", []string{"--stdout", "--no-summary", absPath}
}

// extractExitCode returns the exit code carried by err, or -1.
func extractExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}
