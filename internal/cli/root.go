// Package cli implements the agent-memory CLI commands, generalizing the
// teacher's one-shot-per-command structure (internal/cli/root.go's
// getDBPath/openStore pattern) to a multi-agent Core wired from Config.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-memory/internal/config"
	"github.com/rcliao/agent-memory/internal/core"
	"github.com/rcliao/agent-memory/internal/memerr"
	"github.com/rcliao/agent-memory/internal/pool"
	"github.com/rcliao/agent-memory/internal/store"
)

var (
	agentFlag     string
	namespaceFlag string
	dataDirFlag   string
	configFlag    string
	formatFlag    string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-memory",
	Short: "Persistent long-term memory for conversational agents",
	Long:  "A local-first memory engine: hybrid recall, write-time dedup, and lifecycle maintenance over one embedded store per agent.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&agentFlag, "agent", "a", "", "Agent id (default: main)")
	RootCmd.PersistentFlags().StringVarP(&namespaceFlag, "ns", "n", "", "Namespace")
	RootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Override $AGENT_MEMORY_DATA_DIR")
	RootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "JSON config overlay path")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format (ignored: output is always JSON)")
}

// openCore builds a Core from the environment plus CLI overrides. Every
// command opens its own Core and closes it on the way out, matching the
// teacher's one-shot defer s.Close() per invocation.
func openCore() (*core.Core, error) {
	cfg := config.FromEnv()
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if err := cfg.Overlay(configFlag); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	opener := func(dbPath, agent string) (store.Store, error) {
		return store.Open(dbPath, agent, cfg.Dimensions, log)
	}
	return core.New(cfg, pool.Opener(opener), log)
}

// exitErr reports a command failure and exits with the code spec.md §6's
// exit-code table names: 2 for config errors, 3 for store open/integrity
// failures, 4 for a missing required secret, 1 otherwise.
func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)

	code := 1
	var me *memerr.Error
	if errors.As(err, &me) {
		switch me.Kind {
		case memerr.KindConfig:
			code = 2
			if me.Message == "missing required secret" {
				code = 4
			}
		case memerr.KindStoreIO, memerr.KindStoreIntegrity:
			code = 3
		}
	}
	os.Exit(code)
}
