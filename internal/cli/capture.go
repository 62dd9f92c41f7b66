package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-memory/internal/core"
)

// captureMessage is the JSON shape accepted on stdin by `capture`, mirroring
// /v1/capture's batch body per spec.md §6.
type captureMessage struct {
	Text       string `json:"text"`
	Category   string `json:"category,omitempty"`
	Session    string `json:"session,omitempty"`
	Source     string `json:"source,omitempty"`
	Provenance string `json:"provenance,omitempty"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Batch-ingest messages from JSON",
		Long:  "Reads a JSON array of {text, category, session, source, provenance} from stdin and writes each through the dedup-merge path.",
		Run:   runCapture,
	}

	RootCmd.AddCommand(cmd)
}

func runCapture(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var msgs []captureMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		exitErr("parse json", err)
	}

	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	batch := make([]core.CaptureMessage, len(msgs))
	for i, m := range msgs {
		batch[i] = core.CaptureMessage{
			Text:       m.Text,
			Category:   categoryOf(m.Category),
			Session:    m.Session,
			Source:     m.Source,
			Provenance: m.Provenance,
		}
	}

	results, err := c.Capture(cmd.Context(), agentFlag, namespaceFlag, batch)
	if err != nil {
		exitErr("capture", err)
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
