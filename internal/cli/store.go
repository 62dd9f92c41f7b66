package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-memory/internal/core"
	"github.com/rcliao/agent-memory/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "store [text]",
		Short: "Store a single memory",
		Long:  "Store a single memory via the write-merge path. Content can be a positional arg or piped via stdin.",
		Run:   runStore,
	}

	cmd.Flags().String("category", "", "Category: qa_pair, user, assistant, fact, preference, rule, conversation")
	cmd.Flags().String("session", "", "Session tag")
	cmd.Flags().String("source", "", "Source tag (e.g. cron)")
	cmd.Flags().String("provenance", "", "Provenance note")

	RootCmd.AddCommand(cmd)
}

func readContent(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err == nil {
			return string(b)
		}
	}
	return ""
}

func runStore(cmd *cobra.Command, args []string) {
	text := strings.TrimSpace(readContent(args))
	if text == "" {
		exitErr("store", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	category, _ := cmd.Flags().GetString("category")
	session, _ := cmd.Flags().GetString("session")
	source, _ := cmd.Flags().GetString("source")
	provenance, _ := cmd.Flags().GetString("provenance")

	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	res, err := c.Store(cmd.Context(), agentFlag, namespaceFlag, core.CaptureMessage{
		Text:       text,
		Category:   model.Category(category),
		Session:    session,
		Source:     source,
		Provenance: provenance,
	})
	if err != nil {
		exitErr("store", err)
	}

	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
}
