// Package store persists collected facilities, the collection state
// cursor, and key/value settings, behind one interface with SQLite and
// Postgres drivers.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/greenside/golfscout/internal/model"
)

// ErrNoState is returned by LoadState when no collection run exists.
var ErrNoState = eris.New("store: no collection state")

// ErrNoSetting is returned by GetSetting for an absent key.
var ErrNoSetting = eris.New("store: setting not found")

// Store defines the persistence interface for a collection run.
//
// Appends and state saves must be durable before the method returns: the
// scheduler relies on the prior batch's state being committed before the
// next invocation starts.
type Store interface {
	// Facilities
	AppendFacility(ctx context.Context, f model.Facility) error
	SeenPlaceIDs(ctx context.Context) (map[string]struct{}, error)
	PendingDetails(ctx context.Context, limit int) ([]model.Facility, error)
	CountPendingDetails(ctx context.Context) (int, error)
	// UpdateFacility rewrites the mutable columns of an existing row,
	// keyed by place ID. Used by the details stage after merging.
	UpdateFacility(ctx context.Context, f model.Facility) error
	MarkEnrichError(ctx context.Context, placeID, reason string) error
	ListFacilities(ctx context.Context) ([]model.Facility, error)
	DeleteFacilities(ctx context.Context) error

	// Collection state (single row)
	LoadState(ctx context.Context) (*model.CollectionState, error)
	SaveState(ctx context.Context, s *model.CollectionState) error
	ResetState(ctx context.Context) error

	// Settings (credential scope among others)
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
