package collector

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/greenside/golfscout/internal/config"
	"github.com/greenside/golfscout/internal/model"
	"github.com/greenside/golfscout/internal/resilience"
	"github.com/greenside/golfscout/pkg/places"
)

// SearchStage sweeps the configured centers × keywords in row-major
// order (centers outer, keywords inner), appending deduplicated rows
// until the batch quota is reached. The traversal order is part of the
// resumability contract: the persisted cursor only makes sense against
// this exact order.
type SearchStage struct {
	store      Store
	places     places.Client
	cfg        *config.CollectConfig
	placesCfg  *config.PlacesConfig
	limiter    *rate.Limiter
	classifier *Classifier
	regions    *RegionFilter
	retry      resilience.RetryConfig
}

// NewSearchStage creates a SearchStage with the given dependencies.
func NewSearchStage(store Store, client places.Client, cfg *config.CollectConfig, placesCfg *config.PlacesConfig) *SearchStage {
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 5
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("places", "search")
	return &SearchStage{
		store:      store,
		places:     client,
		cfg:        cfg,
		placesCfg:  placesCfg,
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), 1),
		classifier: NewClassifier(cfg.OutdoorTags, cfg.IndoorTags),
		regions:    NewRegionFilter(cfg.AllowedRegions),
		retry:      retry,
	}
}

// Run resumes the sweep at the state's cursor and appends up to quota new
// rows. It returns finished=true only once every center and keyword has
// been exhausted. On a quota yield the cursor (including any pagination
// token) is left pointing at the position to resume from; rows already
// appended from a partially consumed page are skipped on revisit by the
// dedup set.
func (s *SearchStage) Run(ctx context.Context, st *model.CollectionState, quota int) (bool, error) {
	log := zap.L().With(
		zap.String("stage", "search"),
		zap.String("run_id", st.RunID),
	)

	seen, err := s.store.SeenPlaceIDs(ctx)
	if err != nil {
		return false, eris.Wrap(err, "search: seed dedup set")
	}

	appended := 0
	for st.CenterIndex < len(s.cfg.Centers) {
		center := s.cfg.Centers[st.CenterIndex]

		if !s.regions.Allow(center.Region) {
			log.Info("skipping center outside region allow-list",
				zap.String("center", center.Name),
				zap.String("region", center.Region),
			)
			st.AdvanceCenter()
			continue
		}

		for st.KeywordIndex < len(s.cfg.Keywords) {
			keyword := s.cfg.Keywords[st.KeywordIndex]

			yielded, err := s.sweepKeyword(ctx, st, center, keyword, quota, &appended, seen, log)
			if err != nil {
				return false, err
			}
			if yielded {
				log.Info("batch quota reached",
					zap.Int("appended", appended),
					zap.Int("center_index", st.CenterIndex),
					zap.Int("keyword_index", st.KeywordIndex),
				)
				return false, nil
			}
			st.AdvanceKeyword()
		}

		st.AdvanceCenter()
	}

	log.Info("search sweep complete", zap.Int("appended", appended))
	return true, nil
}

// sweepKeyword paginates one (center, keyword) pair from the cursor's
// page token. Returns yielded=true when the quota was hit mid-sweep; the
// state cursor is left untouched in that case so the same page is
// refetched on resume.
func (s *SearchStage) sweepKeyword(
	ctx context.Context,
	st *model.CollectionState,
	center model.Center,
	keyword string,
	quota int,
	appended *int,
	seen map[string]struct{},
	log *zap.Logger,
) (bool, error) {
	for {
		resp, err := s.queryPage(ctx, center, keyword, st.PageToken)
		if err != nil {
			return false, eris.Wrapf(err, "search: query %s near %s", keyword, center.Name)
		}

		for _, p := range resp.Places {
			if p.ID == "" {
				// Degraded candidate without an identity cannot be
				// deduplicated; drop rather than append twice forever.
				log.Warn("candidate missing place id", zap.String("name", p.DisplayName.Text))
				continue
			}
			if _, ok := seen[p.ID]; ok {
				continue
			}

			f := s.buildFacility(p, center, keyword)
			if err := s.store.AppendFacility(ctx, f); err != nil {
				return false, eris.Wrapf(err, "search: append %s", p.ID)
			}
			seen[p.ID] = struct{}{}
			st.Processed++
			*appended++

			if *appended >= quota {
				return true, nil
			}
		}

		if resp.NextPageToken == "" {
			return false, nil
		}
		st.PageToken = resp.NextPageToken

		// The provider needs a moment before a fresh token is valid.
		if err := sleepCtx(ctx, s.cfg.PageTokenDelay); err != nil {
			return false, eris.Wrap(err, "search: page token wait")
		}
	}
}

// queryPage issues one search call. A first page (no token) that comes
// back empty is retried without the type filter, then once more with a
// relaxed query (wider radius, smaller cap) before "no results" is
// accepted.
func (s *SearchStage) queryPage(ctx context.Context, center model.Center, keyword, pageToken string) (*places.SearchResponse, error) {
	base := places.SearchRequest{
		TextQuery:    keyword,
		LanguageCode: s.placesCfg.LanguageCode,
		RegionCode:   s.placesCfg.RegionCode,
		IncludedType: s.cfg.IncludedType,
		PageSize:     s.cfg.PageSize,
		PageToken:    pageToken,
		LocationBias: &places.LocationBias{
			Circle: places.Circle{
				Center: places.LatLng{Latitude: center.Lat, Longitude: center.Lng},
				Radius: s.cfg.RadiusMeters,
			},
		},
	}

	resp, err := s.call(ctx, base)
	if err != nil {
		return nil, err
	}
	if len(resp.Places) > 0 || pageToken != "" {
		return resp, nil
	}

	// Fallback 1: drop the type filter.
	untyped := base
	untyped.IncludedType = ""
	resp, err = s.call(ctx, untyped)
	if err != nil {
		return nil, err
	}
	if len(resp.Places) > 0 {
		return resp, nil
	}

	// Fallback 2: maximally relaxed — no type, wider radius, smaller cap.
	// Copy the bias so widening the radius does not write through the
	// pointer shared with the earlier requests.
	relaxed := untyped
	relaxedBias := *untyped.LocationBias
	relaxedBias.Circle.Radius = s.cfg.RelaxedRadiusMeters
	relaxed.LocationBias = &relaxedBias
	relaxed.PageSize = s.cfg.RelaxedPageSize
	return s.call(ctx, relaxed)
}

// call applies rate limiting and the bounded transient retry to one
// provider request. Rate-limit and permission statuses get one retry;
// anything else non-200 surfaces as fatal.
func (s *SearchStage) call(ctx context.Context, req places.SearchRequest) (*places.SearchResponse, error) {
	return resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*places.SearchResponse, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "search: rate limit wait")
		}
		resp, err := s.places.SearchText(ctx, req)
		if err != nil {
			return nil, classifyProviderError(err)
		}
		return resp, nil
	})
}

func (s *SearchStage) buildFacility(p places.Place, center model.Center, keyword string) model.Facility {
	return model.Facility{
		PlaceID:        p.ID,
		Name:           p.DisplayName.Text,
		Address:        p.FormattedAddress,
		Category:       s.classifier.Classify(p.Types),
		Phone:          p.PhoneNumber,
		Website:        p.WebsiteURI,
		Rating:         p.Rating,
		ReviewCount:    p.UserRatingCount,
		BusinessStatus: p.BusinessStatus,
		MapURL:         p.GoogleMapsURI,
		SourceRegion:   center.Region,
		SourceKeyword:  keyword,
		Enrichment:     model.EnrichmentPending,
	}
}

// classifyProviderError tags retryable provider statuses as transient so
// the retry wrapper picks them up; other errors pass through untouched
// and abort the stage.
func classifyProviderError(err error) error {
	var se *places.StatusError
	if errors.As(err, &se) && resilience.IsTransientHTTPStatus(se.Code) {
		return resilience.NewTransientError(err, se.Code)
	}
	return err
}
