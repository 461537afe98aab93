package collector

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/greenside/golfscout/internal/config"
	"github.com/greenside/golfscout/internal/model"
	"github.com/greenside/golfscout/internal/store"
	"github.com/greenside/golfscout/pkg/places"
)

// fakeStore implements Store in memory for testing.
type fakeStore struct {
	facilities map[string]model.Facility
	appended   []string
	state      *model.CollectionState
	saveCalls  int
	resetCalls int
	wipeCalls  int

	appendErr error
	saveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{facilities: make(map[string]model.Facility)}
}

func (m *fakeStore) AppendFacility(_ context.Context, f model.Facility) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	if _, ok := m.facilities[f.PlaceID]; ok {
		return eris.Errorf("duplicate place id %s", f.PlaceID)
	}
	f.CreatedAt = time.Now().UTC().Add(time.Duration(len(m.appended)) * time.Millisecond)
	m.facilities[f.PlaceID] = f
	m.appended = append(m.appended, f.PlaceID)
	return nil
}

func (m *fakeStore) SeenPlaceIDs(context.Context) (map[string]struct{}, error) {
	seen := make(map[string]struct{}, len(m.facilities))
	for id := range m.facilities {
		seen[id] = struct{}{}
	}
	return seen, nil
}

func (m *fakeStore) PendingDetails(_ context.Context, limit int) ([]model.Facility, error) {
	var out []model.Facility
	for _, f := range m.facilities {
		if f.Enrichment == model.EnrichmentPending {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlaceID < out[j].PlaceID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *fakeStore) CountPendingDetails(context.Context) (int, error) {
	n := 0
	for _, f := range m.facilities {
		if f.Enrichment == model.EnrichmentPending {
			n++
		}
	}
	return n, nil
}

func (m *fakeStore) UpdateFacility(_ context.Context, f model.Facility) error {
	if _, ok := m.facilities[f.PlaceID]; !ok {
		return eris.Errorf("facility %s not found", f.PlaceID)
	}
	m.facilities[f.PlaceID] = f
	return nil
}

func (m *fakeStore) MarkEnrichError(_ context.Context, placeID, reason string) error {
	f, ok := m.facilities[placeID]
	if !ok {
		return eris.Errorf("facility %s not found", placeID)
	}
	f.Enrichment = model.EnrichmentError
	f.EnrichError = reason
	m.facilities[placeID] = f
	return nil
}

func (m *fakeStore) DeleteFacilities(context.Context) error {
	m.wipeCalls++
	m.facilities = make(map[string]model.Facility)
	m.appended = nil
	return nil
}

func (m *fakeStore) LoadState(context.Context) (*model.CollectionState, error) {
	if m.state == nil {
		return nil, store.ErrNoState
	}
	cp := *m.state
	return &cp, nil
}

func (m *fakeStore) SaveState(_ context.Context, s *model.CollectionState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saveCalls++
	cp := *s
	m.state = &cp
	return nil
}

func (m *fakeStore) ResetState(context.Context) error {
	m.resetCalls++
	m.state = nil
	return nil
}

// fakePlaces implements places.Client with programmable handlers.
type fakePlaces struct {
	searchFn       func(req places.SearchRequest) (*places.SearchResponse, error)
	detailsFn      func(placeID string) (*places.Place, error)
	searchRequests []places.SearchRequest
	detailsCalls   []string
}

func (m *fakePlaces) SearchText(_ context.Context, req places.SearchRequest) (*places.SearchResponse, error) {
	m.searchRequests = append(m.searchRequests, req)
	if m.searchFn == nil {
		return &places.SearchResponse{}, nil
	}
	return m.searchFn(req)
}

func (m *fakePlaces) Details(_ context.Context, placeID string) (*places.Place, error) {
	m.detailsCalls = append(m.detailsCalls, placeID)
	if m.detailsFn == nil {
		return &places.Place{ID: placeID}, nil
	}
	return m.detailsFn(placeID)
}

// fakeScheduler implements Scheduler and records calls.
type fakeScheduler struct {
	scheduled   []time.Duration
	cancelCalls int
	scheduleErr error
}

func (m *fakeScheduler) ScheduleOnce(_ context.Context, delay time.Duration) error {
	if m.scheduleErr != nil {
		return m.scheduleErr
	}
	m.scheduled = append(m.scheduled, delay)
	return nil
}

func (m *fakeScheduler) CancelAll(context.Context) error {
	m.cancelCalls++
	return nil
}

func testCollectConfig(centers ...model.Center) *config.CollectConfig {
	if len(centers) == 0 {
		centers = []model.Center{{Name: "東京", Lat: 35.6895, Lng: 139.6917, Region: "東京都"}}
	}
	return &config.CollectConfig{
		Centers:             centers,
		Keywords:            []string{"ゴルフ練習場", "インドアゴルフ"},
		RadiusMeters:        20000,
		RelaxedRadiusMeters: 50000,
		PageSize:            20,
		RelaxedPageSize:     10,
		IncludedType:        "golf_course",
		SearchBatchSize:     60,
		DetailsBatchSize:    40,
		RateLimit:           1000,
		ContinueDelay:       time.Minute,
		OutdoorTags:         []string{"golf_course", "country_club", "driving_range", "park"},
		IndoorTags:          []string{"gym", "fitness_center", "sports_complex", "indoor_golf"},
	}
}

func testPlacesConfig() *config.PlacesConfig {
	return &config.PlacesConfig{LanguageCode: "ja", RegionCode: "JP"}
}
