package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-agent store statistics",
		Run:   runStats,
	}
	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	stats, err := c.Stats(cmd.Context(), resolveAgentArg())
	if err != nil {
		exitErr("stats", err)
	}
	printJSON(stats)
}
