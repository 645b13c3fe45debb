package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scankiosk/internal/epsonscan"
	"scankiosk/internal/profiles"
)

func newScannersCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scanners",
		Short: "List scanners reported by epsonscan2",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient(cliLogger(cmd, "warn"))
			if err != nil {
				return err
			}
			scanners, err := client.Scanners(cmd.Context())
			if err != nil {
				if errors.Is(err, epsonscan.ErrNotInstalled) {
					return fmt.Errorf("%s is not installed or cannot be started", client.Binary())
				}
				return fmt.Errorf("list scanners: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, scanners)
			}
			out := cmd.OutOrStdout()
			if len(scanners) == 0 {
				fmt.Fprintln(out, "No scanners found")
				return nil
			}
			rows := make([][]string, 0, len(scanners))
			for _, s := range scanners {
				rows = append(rows, []string{s.ID, s.Model})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Model"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

type profileRow struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Path        string `json:"path"`
	Default     bool   `json:"default"`
}

func newProfilesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List settings profiles in the profile directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			list, err := profiles.List(cfg.Paths.ProfileDir)
			if err != nil {
				return err
			}
			items := make([]profileRow, 0, len(list))
			for _, p := range list {
				items = append(items, profileRow{
					Name:        p.Name,
					DisplayName: p.DisplayName(),
					Path:        p.Path,
					Default:     p.Name == cfg.Paths.DefaultProfile,
				})
			}
			if asJSON {
				return writeJSON(cmd, items)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintf(out, "No profiles in %s\n", cfg.Paths.ProfileDir)
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{item.Name, item.DisplayName, yesNo(item.Default)})
			}
			fmt.Fprintln(out, renderTable([]string{"File", "Name", "Default"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
