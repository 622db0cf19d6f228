package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/byo/bswieckidev-blog/internal/config"
)

// loadConfig reads and validates the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", configPath, err)
	}
	return cfg, nil
}

// projectRoot returns the directory containing the config file.
func projectRoot() (string, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return filepath.Dir(abs), nil
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
