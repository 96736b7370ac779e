package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"hostwatch-agent/internal/model"
	"hostwatch-agent/internal/stream"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a remote agent's gRPC snapshot stream",
		Long: `Connect to an agent's gRPC endpoint and print every snapshot as one
JSON line. Stops after --count snapshots when it is > 0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			count, _ := cmd.Flags().GetInt("count")
			if count < 0 {
				return fmt.Errorf("--count must be >= 0")
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			client := stream.NewGRPCClient(addr, logger)
			defer func() { _ = client.Close() }()

			enc := json.NewEncoder(cmd.OutOrStdout())
			return client.Watch(cmd.Context(), stream.StreamRequest{MaxSnapshots: count}, func(snap model.HealthSnapshot) error {
				return enc.Encode(snap)
			})
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8001", "Agent gRPC address")
	cmd.Flags().Int("count", 0, "Number of snapshots to receive (0 = until interrupted)")
	return cmd
}
