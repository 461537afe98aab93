package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/greenside/golfscout/internal/sched"
)

var clearAll bool

var collectClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear collection progress",
	Long:  "Cancels pending continuations and resets the collection state. With --all, collected records are wiped too. The stored API key is kept either way.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scheduler := sched.New(cfg.Redis)
		defer scheduler.Close() //nolint:errcheck

		if err := scheduler.CancelAll(ctx); err != nil {
			return err
		}
		if err := st.ResetState(ctx); err != nil {
			return err
		}
		if clearAll {
			if err := st.DeleteFacilities(ctx); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	collectClearCmd.Flags().BoolVar(&clearAll, "all", false, "also wipe collected records")
	collectCmd.AddCommand(collectClearCmd)
}
