package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-memory/internal/model"
)

func init() {
	export := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Run:   runExport,
	}
	export.Flags().String("category", "", "Filter by category")
	export.Flags().Bool("include-soft-deleted", false, "Include soft-deleted memories")
	RootCmd.AddCommand(export)

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import memories from JSON (stdin), idempotent by id",
		Run:   runImport,
	}
	RootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	includeSoftDeleted, _ := cmd.Flags().GetBool("include-soft-deleted")

	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	memories, err := c.Export(cmd.Context(), agentFlag, model.Filter{
		Namespace:          namespaceFlag,
		Category:           model.Category(category),
		IncludeSoftDeleted: includeSoftDeleted,
	})
	if err != nil {
		exitErr("export", err)
	}

	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var memories []model.Memory
	if err := json.Unmarshal(data, &memories); err != nil {
		exitErr("parse json", err)
	}

	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	imported, skipped, err := c.Import(cmd.Context(), agentFlag, memories)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d,"skipped":%d}`+"\n", imported, skipped)
}
