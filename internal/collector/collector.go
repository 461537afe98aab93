// Package collector implements the resumable collection run: a search
// stage that sweeps centers × keywords against the Places API, a details
// stage that enriches collected rows, and an orchestrator that advances
// the persisted phase machine between bounded invocations.
package collector

import (
	"context"
	"time"

	"github.com/greenside/golfscout/internal/model"
)

// Store is the persistence surface the collector needs. Implemented by
// internal/store; faked in tests.
type Store interface {
	AppendFacility(ctx context.Context, f model.Facility) error
	SeenPlaceIDs(ctx context.Context) (map[string]struct{}, error)
	PendingDetails(ctx context.Context, limit int) ([]model.Facility, error)
	CountPendingDetails(ctx context.Context) (int, error)
	UpdateFacility(ctx context.Context, f model.Facility) error
	MarkEnrichError(ctx context.Context, placeID, reason string) error
	DeleteFacilities(ctx context.Context) error

	LoadState(ctx context.Context) (*model.CollectionState, error)
	SaveState(ctx context.Context, s *model.CollectionState) error
	ResetState(ctx context.Context) error
}

// Scheduler is the deferred re-invocation capability. The collector never
// blocks on it; it only decides whether to arm it. Implementations must
// guarantee at most one pending continuation.
type Scheduler interface {
	ScheduleOnce(ctx context.Context, delay time.Duration) error
	CancelAll(ctx context.Context) error
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
// Non-positive d returns immediately.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
