package config

const (
	defaultConfigPath       = "~/.config/scankiosk/config.toml"
	defaultProfileDir       = "~/.config/scankiosk/profiles"
	defaultProfileName      = "Settings.SF2"
	defaultLogDir           = "~/.local/share/scankiosk/logs"
	defaultStateDir         = "~/.local/share/scankiosk"
	defaultServerBind       = "127.0.0.1:8080"
	defaultServerTitle      = "Epson Scan Kiosk"
	defaultServerMessage    = "Tap to Scan"
	defaultEpsonScanBinary  = "epsonscan2"
	defaultHotplugVendorID  = "04b8"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultScanTimeoutLimit = 3600
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProfileDir:     defaultProfileDir,
			DefaultProfile: defaultProfileName,
			LogDir:         defaultLogDir,
			StateDir:       defaultStateDir,
		},
		Server: Server{
			Bind:    defaultServerBind,
			Title:   defaultServerTitle,
			Message: defaultServerMessage,
		},
		EpsonScan: EpsonScan{
			Binary: defaultEpsonScanBinary,
		},
		Hotplug: Hotplug{
			Enabled:  true,
			VendorID: defaultHotplugVendorID,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
