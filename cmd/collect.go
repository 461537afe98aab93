package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenside/golfscout/internal/collector"
	"github.com/greenside/golfscout/internal/credstore"
	"github.com/greenside/golfscout/internal/sched"
	"github.com/greenside/golfscout/internal/store"
	"github.com/greenside/golfscout/pkg/places"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run and manage the collection pipeline",
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

// placesClient resolves the API key and builds a provider client.
func placesClient(ctx context.Context, st store.Store) (places.Client, error) {
	creds := credstore.New(st)
	key, err := creds.PlacesKey(ctx)
	if err != nil {
		if errors.Is(err, credstore.ErrNoCredential) {
			return nil, fmt.Errorf("no Places API key configured: set %s or run `golfscout key set`", credstore.EnvVar)
		}
		return nil, err
	}

	var opts []places.Option
	if cfg.Places.BaseURL != "" {
		opts = append(opts, places.WithBaseURL(cfg.Places.BaseURL))
	}
	return places.NewClient(key, opts...), nil
}

// buildOrchestrator wires the store, provider client, scheduler, and both
// stages. The returned cleanup closes everything it opened.
func buildOrchestrator(ctx context.Context) (*collector.Orchestrator, func(), error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	client, err := placesClient(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	scheduler := sched.New(cfg.Redis)
	search := collector.NewSearchStage(st, client, &cfg.Collect, &cfg.Places)
	details := collector.NewDetailsStage(st, client, &cfg.Collect)
	orch := collector.NewOrchestrator(st, search, details, scheduler, &cfg.Collect)

	cleanup := func() {
		_ = scheduler.Close()
		_ = st.Close()
	}
	return orch, cleanup, nil
}
