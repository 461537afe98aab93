package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var collectStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new collection run",
	Long:  "Resets collection progress, cancels pending continuations, and runs the first search batch synchronously. Later batches continue via the worker.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		orch, cleanup, err := buildOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		return orch.Start(ctx)
	},
}

func init() {
	collectCmd.AddCommand(collectStartCmd)
}
