package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateHotplug(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.ProfileDir == "" {
		return errors.New("paths.profile_dir must be set")
	}
	name := c.Paths.DefaultProfile
	if name != filepath.Base(name) {
		return fmt.Errorf("paths.default_profile %q must be a file name, not a path", name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".sf2") {
		return fmt.Errorf("paths.default_profile %q must have the .SF2 extension", name)
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.TimeoutSeconds < 0 {
		return errors.New("scan.timeout_seconds must be zero or positive")
	}
	if c.Scan.TimeoutSeconds > defaultScanTimeoutLimit {
		return fmt.Errorf("scan.timeout_seconds must not exceed %d", defaultScanTimeoutLimit)
	}
	return nil
}

func (c *Config) validateHotplug() error {
	if !c.Hotplug.Enabled {
		return nil
	}
	id := c.Hotplug.VendorID
	if len(id) != 4 {
		return fmt.Errorf("hotplug.vendor_id %q must be four hex digits", id)
	}
	for _, r := range id {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return fmt.Errorf("hotplug.vendor_id %q must be four hex digits", id)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
