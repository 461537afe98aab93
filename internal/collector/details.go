package collector

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/width"
	"golang.org/x/time/rate"

	"github.com/greenside/golfscout/internal/config"
	"github.com/greenside/golfscout/internal/model"
	"github.com/greenside/golfscout/internal/resilience"
	"github.com/greenside/golfscout/pkg/places"
)

// DetailsStage enriches collected rows via per-place details lookups.
// Progress is tracked entirely by the per-row enrichment markers; the
// collection state carries no cursor for this phase.
type DetailsStage struct {
	store      Store
	places     places.Client
	cfg        *config.CollectConfig
	limiter    *rate.Limiter
	classifier *Classifier
	retry      resilience.RetryConfig
}

// NewDetailsStage creates a DetailsStage with the given dependencies.
func NewDetailsStage(store Store, client places.Client, cfg *config.CollectConfig) *DetailsStage {
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 5
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("places", "details")
	return &DetailsStage{
		store:      store,
		places:     client,
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), 1),
		classifier: NewClassifier(cfg.OutdoorTags, cfg.IndoorTags),
		retry:      retry,
	}
}

// Run enriches up to quota pending rows. A lookup failure marks only that
// row as errored so it is not retried this run; an authentication failure
// aborts the stage, since every remaining lookup would fail the same way.
// Returns finished=true only when a fresh scan finds zero pending rows.
func (d *DetailsStage) Run(ctx context.Context, st *model.CollectionState, quota int) (bool, error) {
	log := zap.L().With(
		zap.String("stage", "details"),
		zap.String("run_id", st.RunID),
	)

	rows, err := d.store.PendingDetails(ctx, quota)
	if err != nil {
		return false, eris.Wrap(err, "details: scan pending")
	}
	if len(rows) == 0 {
		log.Info("no pending rows, enrichment complete")
		return true, nil
	}

	var enriched, failed int
	for _, row := range rows {
		place, err := d.lookup(ctx, row.PlaceID)
		if err != nil {
			if isAuthError(err) || ctx.Err() != nil {
				return false, eris.Wrapf(err, "details: lookup %s", row.PlaceID)
			}
			log.Warn("details lookup failed",
				zap.String("place_id", row.PlaceID),
				zap.Error(err),
			)
			if markErr := d.store.MarkEnrichError(ctx, row.PlaceID, err.Error()); markErr != nil {
				return false, eris.Wrapf(markErr, "details: mark error %s", row.PlaceID)
			}
			failed++
			continue
		}

		row.Merge(enrichmentFromPlace(place))
		if len(place.Types) > 0 {
			row.Category = d.classifier.Classify(place.Types)
		}
		row.Enrichment = model.EnrichmentDone
		row.EnrichError = ""

		if err := d.store.UpdateFacility(ctx, row); err != nil {
			return false, eris.Wrapf(err, "details: update %s", row.PlaceID)
		}
		st.Processed++
		enriched++
	}

	remaining, err := d.store.CountPendingDetails(ctx)
	if err != nil {
		return false, eris.Wrap(err, "details: count pending")
	}

	log.Info("details batch complete",
		zap.Int("enriched", enriched),
		zap.Int("failed", failed),
		zap.Int("remaining", remaining),
	)
	return remaining == 0, nil
}

// lookup applies rate limiting and the bounded transient retry to one
// details call.
func (d *DetailsStage) lookup(ctx context.Context, placeID string) (*places.Place, error) {
	return resilience.DoVal(ctx, d.retry, func(ctx context.Context) (*places.Place, error) {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "details: rate limit wait")
		}
		place, err := d.places.Details(ctx, placeID)
		if err != nil {
			return nil, classifyProviderError(err)
		}
		return place, nil
	})
}

// enrichmentFromPlace converts a details response into merge fields.
// Phone numbers are width-normalized so full-width digits from localized
// responses compare and export consistently.
func enrichmentFromPlace(p *places.Place) model.Enrichment {
	var hours string
	if p.OpeningHours != nil {
		hours = strings.Join(p.OpeningHours.WeekdayDescriptions, "; ")
	}
	return model.Enrichment{
		Name:           p.DisplayName.Text,
		Address:        p.FormattedAddress,
		Phone:          width.Narrow.String(p.PhoneNumber),
		Website:        p.WebsiteURI,
		Rating:         p.Rating,
		ReviewCount:    p.UserRatingCount,
		BusinessStatus: p.BusinessStatus,
		OpeningHours:   hours,
	}
}

// isAuthError reports whether the error is a credential/authorization
// failure that survived the retry budget.
func isAuthError(err error) bool {
	var se *places.StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
}
