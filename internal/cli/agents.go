package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List agent ids with an on-disk store",
		Run:   runAgents,
	}
	RootCmd.AddCommand(cmd)
}

func runAgents(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	printJSON(c.Pool.DiscoverAgents())
}
