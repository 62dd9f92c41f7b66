package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rule [text]",
		Short: "Store a rule memory (importance=1.0, pinned)",
		Run:   runRule,
	}

	RootCmd.AddCommand(cmd)
}

func runRule(cmd *cobra.Command, args []string) {
	text := strings.TrimSpace(readContent(args))
	if text == "" {
		exitErr("rule", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	res, err := c.Rule(cmd.Context(), agentFlag, namespaceFlag, text)
	if err != nil {
		exitErr("rule", err)
	}

	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
}
