package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"hostwatch-agent/internal/agent/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			info := version.Get(cfg)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hostwatch-agent\n")
			fmt.Fprintf(out, "  Version:  %s\n", info.AgentVersion)
			fmt.Fprintf(out, "  Go:       %s\n", info.GoVersion)
			fmt.Fprintf(out, "  HTTP:     %s\n", info.ListenAddr)
			if info.GRPCListenAddr != "" {
				fmt.Fprintf(out, "  gRPC:     %s\n", info.GRPCListenAddr)
			}
			return nil
		},
	}
}
