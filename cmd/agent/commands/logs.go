package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hostwatch-agent/internal/journal"
	"hostwatch-agent/internal/system"
)

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs UNIT",
		Short: "Print recent journal lines of a systemd unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			lines, _ := cmd.Flags().GetInt("lines")
			if lines <= 0 {
				lines = cfg.JournalLines
			}
			out, err := journal.NewReader(system.OSSource{}, lines).Tail(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get logs for %s: %w", args[0], err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().Int("lines", 0, "Number of lines (default: journal_lines from config)")
	return cmd
}
