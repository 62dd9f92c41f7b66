package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	pin := &cobra.Command{
		Use:   "pin [id]",
		Short: "Pin a memory, exempting it from lifecycle attrition",
		Args:  cobra.ExactArgs(1),
		Run:   runPin,
	}
	RootCmd.AddCommand(pin)

	unpin := &cobra.Command{
		Use:   "unpin [id]",
		Short: "Unpin a memory, resuming decay from its current strength",
		Args:  cobra.ExactArgs(1),
		Run:   runUnpin,
	}
	RootCmd.AddCommand(unpin)
}

func runPin(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	if err := c.Pin(cmd.Context(), agentFlag, args[0]); err != nil {
		exitErr("pin", err)
	}
	fmt.Printf(`{"ok":true,"id":%q,"pinned":true}`+"\n", args[0])
}

func runUnpin(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	if err := c.Unpin(cmd.Context(), agentFlag, args[0]); err != nil {
		exitErr("unpin", err)
	}
	fmt.Printf(`{"ok":true,"id":%q,"pinned":false}`+"\n", args[0])
}
