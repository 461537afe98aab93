package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var collectContinueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Resume the active collection run",
	Long:  "Runs one batch of whichever phase the persisted state is in. Fails if no run is active.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		orch, cleanup, err := buildOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		return orch.Continue(ctx)
	},
}

func init() {
	collectCmd.AddCommand(collectContinueCmd)
}
