package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"scankiosk/internal/config"
	"scankiosk/internal/deps"
	"scankiosk/internal/profiles"
)

// InstallProbe reports whether epsonscan2 is usable.
type InstallProbe interface {
	Installed(ctx context.Context) bool
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckDirectoryReadable verifies that the directory exists and can be listed.
func CheckDirectoryReadable(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckDefaultProfile verifies the fallback settings file exists and is readable.
func CheckDefaultProfile(dir, name string) Result {
	const label = "Default profile"
	path := profiles.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: label, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: label, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: label, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: label, Detail: fmt.Sprintf("%s (error: unreadable: %v)", path, err)}
	}
	return Result{Name: label, Passed: true, Detail: path}
}

// CheckInstallation runs the epsonscan2 installation probe.
func CheckInstallation(ctx context.Context, probe InstallProbe) Result {
	const name = "epsonscan2 installation"
	if probe == nil {
		return Result{Name: name, Detail: "not checked"}
	}
	if probe.Installed(ctx) {
		return Result{Name: name, Passed: true, Detail: "Available"}
	}
	return Result{Name: name, Detail: "Unavailable"}
}

// CheckSystemDeps evaluates the external programs required by the config.
// Both serve and the CLI status command use this.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "epsonscan2",
			Command:     cfg.EpsonScanBinary(),
			Description: "Required for scanning",
		},
	})
}
