package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/flaneur2020/pngme/pngme/logger"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const (
	envLogLevel   = "PNGME_LOG_LEVEL"
	envNoProgress = "PNGME_NO_PROGRESS"
)

// Config holds the settings shared by every subcommand.
type Config struct {
	LogLevel   logger.LogLevel
	NoProgress bool
}

// loadEnv reads an optional .env file from the working directory. Variables
// already set in the environment win.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// resolveConfig merges environment defaults with command-line flags.
// Flags take precedence over the environment.
func resolveConfig(verbose, debug, noProgress bool) (*Config, error) {
	cfg := &Config{
		LogLevel:   logger.LogLevelError,
		NoProgress: !term.IsTerminal(int(os.Stderr.Fd())),
	}

	if v := os.Getenv(envLogLevel); v != "" {
		level, err := logger.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envLogLevel, err)
		}
		cfg.LogLevel = level
	}
	if v := os.Getenv(envNoProgress); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envNoProgress, err)
		}
		cfg.NoProgress = cfg.NoProgress || b
	}

	if verbose && cfg.LogLevel < logger.LogLevelInfo {
		cfg.LogLevel = logger.LogLevelInfo
	}
	if debug {
		cfg.LogLevel = logger.LogLevelDebug
	}
	if noProgress {
		cfg.NoProgress = true
	}
	return cfg, nil
}

// validateInput checks that path exists and is a regular file.
func validateInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file %q does not exist", path)
		}
		return fmt.Errorf("cannot stat input file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("input path %q is not a regular file", path)
	}
	return nil
}

// validateOutput checks that an output path can be created: its directory
// must exist and it must not be a directory itself.
func validateOutput(path string) error {
	outDir := filepath.Dir(path)
	outDirInfo, err := os.Stat(outDir)
	if err != nil {
		return fmt.Errorf("cannot access output directory %q: %w", outDir, err)
	}
	if !outDirInfo.IsDir() {
		return fmt.Errorf("output directory %q is not a directory", outDir)
	}

	if outInfo, err := os.Stat(path); err == nil {
		if outInfo.IsDir() {
			return fmt.Errorf("output path %q is a directory", path)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat output path %q: %w", path, err)
	}
	return nil
}
