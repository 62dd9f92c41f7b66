package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	decay := &cobra.Command{
		Use:   "decay",
		Short: "Run an Ebbinghaus decay tick",
		Run:   runDecay,
	}
	RootCmd.AddCommand(decay)

	consolidate := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge near-duplicate memories within one namespace",
		Run:   runConsolidate,
	}
	RootCmd.AddCommand(consolidate)

	compress := &cobra.Command{
		Use:   "compress",
		Short: "Consolidate across every namespace an agent has",
		Run:   runCompress,
	}
	RootCmd.AddCommand(compress)

	gc := &cobra.Command{
		Use:   "gc",
		Short: "Soft-delete stale memories and hard-purge expired ones",
		Run:   runGC,
	}
	RootCmd.AddCommand(gc)

	backfill := &cobra.Command{
		Use:   "backfill-embeddings",
		Short: "Retry embedding any memory stuck at embedding_status=pending",
		Run:   runBackfill,
	}
	RootCmd.AddCommand(backfill)

	rescore := &cobra.Command{
		Use:   "rescore-cron",
		Short: "Re-cap importance on cron-origin memories",
		Run:   runRescoreCron,
	}
	RootCmd.AddCommand(rescore)

	amnesia := &cobra.Command{
		Use:   "amnesia-check [topics...]",
		Short: "Check topic coverage after maintenance",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAmnesiaCheck,
	}
	RootCmd.AddCommand(amnesia)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func resolveAgentArg() string {
	if agentFlag == "" {
		return "main"
	}
	return agentFlag
}

func runDecay(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	reports, err := c.Decay(cmd.Context(), resolveAgentArg())
	if err != nil {
		exitErr("decay", err)
	}
	printJSON(reports)
}

func runConsolidate(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	reports, err := c.Consolidate(cmd.Context(), resolveAgentArg(), namespaceFlag)
	if err != nil {
		exitErr("consolidate", err)
	}
	printJSON(reports)
}

func runCompress(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	reports, err := c.Compress(cmd.Context(), resolveAgentArg())
	if err != nil {
		exitErr("compress", err)
	}
	printJSON(reports)
}

func runGC(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	reports, err := c.GC(cmd.Context(), resolveAgentArg())
	if err != nil {
		exitErr("gc", err)
	}
	printJSON(reports)
}

func runBackfill(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	reports, err := c.Backfill(cmd.Context(), resolveAgentArg())
	if err != nil {
		exitErr("backfill-embeddings", err)
	}
	printJSON(reports)
}

func runRescoreCron(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	reports, err := c.RescoreCronMemories(cmd.Context(), resolveAgentArg())
	if err != nil {
		exitErr("rescore-cron", err)
	}
	printJSON(reports)
}

func runAmnesiaCheck(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	topics := args
	if len(args) == 1 && strings.Contains(args[0], ",") {
		topics = strings.Split(args[0], ",")
	}

	report, err := c.AmnesiaCheck(cmd.Context(), agentFlag, topics)
	if err != nil {
		exitErr("amnesia-check", err)
	}
	printJSON(report)
}
