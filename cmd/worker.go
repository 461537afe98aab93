package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/greenside/golfscout/internal/collector"
	"github.com/greenside/golfscout/internal/sched"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the continuation worker",
	Long:  "Consumes deferred continuation tasks from the queue and resumes the collection run for each one.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w := sched.NewWorker(cfg.Redis, func(taskCtx context.Context) error {
			orch, cleanup, err := buildOrchestrator(taskCtx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := orch.Continue(taskCtx); err != nil {
				// A cleared run can leave a continuation behind; dropping it
				// is the right outcome, not a task failure.
				if errors.Is(err, collector.ErrNoActiveRun) {
					zap.L().Warn("continuation for a run that no longer exists, dropping")
					return nil
				}
				return err
			}
			return nil
		})

		go func() {
			<-ctx.Done()
			w.Shutdown()
		}()

		zap.L().Info("worker started", zap.String("queue", sched.Queue))
		return w.Run()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
