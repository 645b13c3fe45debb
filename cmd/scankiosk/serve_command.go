package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scankiosk/internal/daemon"
	"scankiosk/internal/kiosk"
	"scankiosk/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the kiosk web server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(cmdCtx context.Context, ctx *commandContext) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bus := logging.NewEventBus()
	logger, err := logging.NewFromConfig(cfg, bus)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	client, err := ctx.newClient(logger)
	if err != nil {
		return err
	}
	orchestrator := kiosk.NewOrchestrator(client, logger, kiosk.WithSingleFlight(cfg.Scan.SingleFlight))

	d, err := daemon.New(cfg, logger, bus, client, orchestrator)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return err
	}
	defer d.Stop()

	<-signalCtx.Done()
	logger.Info("scankiosk shutting down")
	return nil
}
