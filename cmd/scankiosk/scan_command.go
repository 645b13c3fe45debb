package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scankiosk/internal/epsonscan"
	"scankiosk/internal/kiosk"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var profileName string
	cmd := &cobra.Command{
		Use:   "scan <scanner-id>",
		Short: "Run a single scan without the web server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := cliLogger(cmd, cfg.Logging.Level)
			client, err := ctx.newClient(logger)
			if err != nil {
				return err
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			runCtx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if timeout := cfg.ScanTimeout(); timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}

			orchestrator := kiosk.NewOrchestrator(client, logger)
			result := orchestrator.RequestScan(runCtx, args[0], profileName, cfg.Paths.ProfileDir, cfg.Paths.DefaultProfile)
			fmt.Fprintf(cmd.OutOrStdout(), "Scan result: %s\n", result)
			if result != epsonscan.ResultOK {
				return fmt.Errorf("scan did not complete (%s)", result)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Settings profile file name (defaults to paths.default_profile)")
	return cmd
}
