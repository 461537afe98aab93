package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/greenside/golfscout/internal/store"
)

var collectStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collection progress",
	Long:  "Displays the active run's phase, traversal cursor, processed counter, and pending enrichment backlog.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		state, err := st.LoadState(ctx)
		if err != nil {
			if errors.Is(err, store.ErrNoState) {
				fmt.Println("No active collection run.")
				return nil
			}
			return err
		}

		seen, err := st.SeenPlaceIDs(ctx)
		if err != nil {
			return err
		}
		pending, err := st.CountPendingDetails(ctx)
		if err != nil {
			return err
		}

		fmt.Println("=== Collection Status ===")
		fmt.Printf("Run ID:             %s\n", state.RunID)
		fmt.Printf("Phase:              %s\n", state.Phase)
		fmt.Printf("Center index:       %d / %d\n", state.CenterIndex, len(cfg.Collect.Centers))
		fmt.Printf("Keyword index:      %d / %d\n", state.KeywordIndex, len(cfg.Collect.Keywords))
		if state.PageToken != "" {
			fmt.Printf("Page token:         held\n")
		}
		fmt.Printf("Processed:          %d\n", state.Processed)
		fmt.Printf("Facilities stored:  %d\n", len(seen))
		fmt.Printf("Pending details:    %d\n", pending)
		if !state.LastRunAt.IsZero() {
			fmt.Printf("Last batch:         %s\n", state.LastRunAt.Local().Format(time.RFC3339))
		}

		return nil
	},
}

func init() {
	collectCmd.AddCommand(collectStatusCmd)
}
