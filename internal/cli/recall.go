package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-memory/internal/core"
	"github.com/rcliao/agent-memory/internal/model"
)

func init() {
	recall := &cobra.Command{
		Use:   "recall [query]",
		Short: "Recall relevant memories for a query",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRecall,
	}
	recall.Flags().IntP("limit", "l", 10, "Max results")
	recall.Flags().Float64("min-score", 0, "Minimum fused score")
	recall.Flags().String("category", "", "Filter by category")
	recall.Flags().Float64("min-importance", 0, "Filter by minimum importance")
	recall.Flags().Bool("include-soft-deleted", false, "Include soft-deleted memories")
	RootCmd.AddCommand(recall)

	// search is a debug alias for recall, matching /v1/search's GET debug
	// route over the same pipeline.
	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Debug recall (alias for recall)",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRecall,
	}
	search.Flags().IntP("limit", "l", 10, "Max results")
	search.Flags().Float64("min-score", 0, "Minimum fused score")
	search.Flags().String("category", "", "Filter by category")
	search.Flags().Float64("min-importance", 0, "Filter by minimum importance")
	search.Flags().Bool("include-soft-deleted", false, "Include soft-deleted memories")
	RootCmd.AddCommand(search)
}

func runRecall(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	category, _ := cmd.Flags().GetString("category")
	minImportance, _ := cmd.Flags().GetFloat64("min-importance")
	includeSoftDeleted, _ := cmd.Flags().GetBool("include-soft-deleted")

	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	resp, err := c.Recall(cmd.Context(), core.RecallParams{
		Agent:     agentFlag,
		Namespace: namespaceFlag,
		Query:     query,
		Limit:     limit,
		MinScore:  minScore,
		Filter: model.Filter{
			Category:           model.Category(category),
			MinImportance:      minImportance,
			IncludeSoftDeleted: includeSoftDeleted,
		},
	})
	if err != nil {
		exitErr("recall", err)
	}

	b, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(b))
}
