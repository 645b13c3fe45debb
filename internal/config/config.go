package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and profile configuration.
type Paths struct {
	ProfileDir           string `toml:"profile_dir"`
	DefaultProfile       string `toml:"default_profile"`
	DefaultProfileSource string `toml:"default_profile_source"`
	LogDir               string `toml:"log_dir"`
	StateDir             string `toml:"state_dir"`
}

// Server contains the kiosk HTTP server settings.
type Server struct {
	Bind    string `toml:"bind"`
	Title   string `toml:"title"`
	Message string `toml:"message"`
}

// EpsonScan contains settings for the external scanning utility.
type EpsonScan struct {
	Binary string `toml:"binary"`
}

// Scan contains settings applied to scan requests.
type Scan struct {
	// TimeoutSeconds bounds a single scan request. Zero waits indefinitely.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// SingleFlight rejects a scan request while another one is running.
	SingleFlight bool `toml:"single_flight"`
}

// Hotplug contains settings for USB scanner attach/detach monitoring.
type Hotplug struct {
	Enabled  bool   `toml:"enabled"`
	VendorID string `toml:"vendor_id"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the kiosk.
//
// Configuration sections by subsystem:
//   - Paths: settings profile directory, default profile, log/state directories
//   - Server: HTTP bind address and page texts
//   - EpsonScan: external utility binary
//   - Scan: per-request timeout and single-flight guard
//   - Hotplug: USB scanner attach/detach events
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Server    Server    `toml:"server"`
	EpsonScan EpsonScan `toml:"epsonscan"`
	Scan      Scan      `toml:"scan"`
	Hotplug   Hotplug   `toml:"hotplug"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scankiosk.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the kiosk writes to. The profile
// directory is created so an empty install can still be seeded with a default.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ProfileDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EpsonScanBinary returns the scanning utility executable name.
func (c *Config) EpsonScanBinary() string {
	if c == nil || strings.TrimSpace(c.EpsonScan.Binary) == "" {
		return defaultEpsonScanBinary
	}
	return strings.TrimSpace(c.EpsonScan.Binary)
}

// ScanTimeout returns the per-request scan timeout, zero when unbounded.
func (c *Config) ScanTimeout() time.Duration {
	if c == nil || c.Scan.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Scan.TimeoutSeconds) * time.Second
}

// LockPath returns the single-instance lock file used by the server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "scankiosk.lock")
}

// LogFilePath returns the log file written next to stdout, or "" when file
// logging is disabled.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "scankiosk.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
