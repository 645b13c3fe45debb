package main

import (
	"fmt"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"scankiosk/internal/config"
	"scankiosk/internal/preflight"
)

type statusReport struct {
	Running    bool               `json:"running"`
	Bind       string             `json:"bind"`
	ProfileDir string             `json:"profile_dir"`
	Checks     []preflight.Result `json:"checks"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show kiosk and epsonscan2 health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.newClient(cliLogger(cmd, "error"))
			if err != nil {
				return err
			}
			running, err := kioskRunning(cfg)
			if err != nil {
				return fmt.Errorf("probe instance lock: %w", err)
			}
			report := statusReport{
				Running:    running,
				Bind:       cfg.Server.Bind,
				ProfileDir: cfg.Paths.ProfileDir,
				Checks:     preflight.RunAll(cmd.Context(), cfg, client),
			}
			if asJSON {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, strings.Join(statusLines(report, shouldColorize(out)), "\n"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

// kioskRunning reports whether another process holds the instance lock.
func kioskRunning(cfg *config.Config) (bool, error) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}

func statusLines(report statusReport, colorize bool) []string {
	lines := renderSectionHeader("scankiosk", colorize)
	if report.Running {
		lines = append(lines, renderStatusLine("Kiosk", statusOK, "Running", colorize))
	} else {
		lines = append(lines, renderStatusLine("Kiosk", statusInfo, "Not running", colorize))
	}
	lines = append(lines, renderStatusLine("Bind", statusInfo, report.Bind, colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Preflight", colorize)...)
	failed := preflight.Failed(report.Checks)
	for _, check := range report.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	if len(failed) == 0 {
		lines = append(lines, renderStatusLine("Summary", statusOK, "All checks passed", colorize))
	} else {
		lines = append(lines, renderStatusLine("Summary", statusWarn, fmt.Sprintf("%d of %d checks failed", len(failed), len(report.Checks)), colorize))
	}
	return lines
}
