package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-memory/internal/httpapi"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP adapter over the core (no auth/rate-limiting; add a gateway in front for that)",
		Run:   runServe,
	}
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	c, err := openCore()
	if err != nil {
		exitErr("open core", err)
	}
	defer c.Close()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := httpapi.NewServer(c, log)
	if err := srv.Listen(c.Config.ListenAddr); err != nil {
		exitErr("serve", err)
	}
}
