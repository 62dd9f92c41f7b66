package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "forget [query]",
		Short: "Delete a memory by id or top-1 query match",
		Run:   runForget,
	}
	cmd.Flags().String("id", "", "Memory id to forget")
	RootCmd.AddCommand(cmd)
}

func runForget(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("id")
	query := strings.Join(args, " ")

	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	deleted, err := c.Forget(cmd.Context(), agentFlag, id, query)
	if err != nil {
		exitErr("forget", err)
	}

	fmt.Printf(`{"ok":true,"id":%q}`+"\n", deleted)
}
