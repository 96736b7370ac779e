package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hostwatch-agent/internal/agent"
	"hostwatch-agent/internal/libvirt"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print one health snapshot as JSON",
		Long: `Build a single health snapshot and print it as JSON.

Disk I/O rates need two samples; without --with-rates disk_io_info is empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			withRates, _ := cmd.Flags().GetBool("with-rates")
			pretty, _ := cmd.Flags().GetBool("pretty")

			logger := agent.BuildLoggerTo(cfg, cmd.ErrOrStderr())
			var conn *libvirt.ConnManager
			if cfg.LibvirtURI != "" {
				conn = libvirt.NewConnManager(cfg.LibvirtURI, logger)
				defer func() { _ = conn.Close() }()
			}
			agg := agent.NewAggregator(cfg, logger, conn)

			ctx := cmd.Context()
			if withRates {
				agg.BuildSnapshot(ctx)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(cfg.DiskIOMinInterval):
				}
			}
			snap := agg.BuildSnapshot(ctx)

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(snap)
		},
	}
	cmd.Flags().Bool("with-rates", false, "Sample twice so disk I/O rates are populated")
	cmd.Flags().Bool("pretty", false, "Indent the JSON output")
	return cmd
}
