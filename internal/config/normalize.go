package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizeEpsonScan()
	c.normalizeHotplug()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ProfileDir) == "" {
		c.Paths.ProfileDir = defaultProfileDir
	}
	if c.Paths.ProfileDir, err = expandPath(c.Paths.ProfileDir); err != nil {
		return fmt.Errorf("paths.profile_dir: %w", err)
	}
	c.Paths.DefaultProfile = strings.TrimSpace(c.Paths.DefaultProfile)
	if c.Paths.DefaultProfile == "" {
		c.Paths.DefaultProfile = defaultProfileName
	}
	if src := strings.TrimSpace(c.Paths.DefaultProfileSource); src != "" {
		if c.Paths.DefaultProfileSource, err = expandPath(src); err != nil {
			return fmt.Errorf("paths.default_profile_source: %w", err)
		}
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if value, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(value) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("PORT: invalid port %q", value)
		}
		host, _, splitErr := net.SplitHostPort(c.Server.Bind)
		if splitErr != nil {
			host = ""
		}
		c.Server.Bind = net.JoinHostPort(host, strconv.Itoa(port))
	}
	c.Server.Title = strings.TrimSpace(c.Server.Title)
	if c.Server.Title == "" {
		c.Server.Title = defaultServerTitle
	}
	c.Server.Message = strings.TrimSpace(c.Server.Message)
	if c.Server.Message == "" {
		c.Server.Message = defaultServerMessage
	}
	return nil
}

func (c *Config) normalizeEpsonScan() {
	c.EpsonScan.Binary = strings.TrimSpace(c.EpsonScan.Binary)
	if c.EpsonScan.Binary == "" {
		c.EpsonScan.Binary = defaultEpsonScanBinary
	}
}

func (c *Config) normalizeHotplug() {
	c.Hotplug.VendorID = strings.ToLower(strings.TrimSpace(c.Hotplug.VendorID))
	if c.Hotplug.VendorID == "" {
		c.Hotplug.VendorID = defaultHotplugVendorID
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
