package commands

import (
	"github.com/spf13/cobra"

	"hostwatch-agent/internal/config"
)

// NewRootCmd builds the command tree. Without a subcommand the agent serves.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hostwatch-agent",
		Short: "hostwatch-agent - live host health feed",
		Long: `hostwatch-agent samples the local host (disk, memory, CPU, sensors,
network, services, cgroups, tailscale, disk I/O rates and optional libvirt
domains) and streams the snapshots over SSE, WebSocket and gRPC.

Use "hostwatch-agent [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Config file (missing file means defaults)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newLogsCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
