// Package model defines the golf facility record and collection run state.
package model

import "time"

// Category classifies a facility by where the golf happens.
type Category string

const (
	CategoryOutdoor Category = "outdoor"
	CategoryIndoor  Category = "indoor"
	CategoryMixed   Category = "mixed"
	CategoryOther   Category = "other"
)

// EnrichmentStatus tracks per-row progress of the details phase.
type EnrichmentStatus string

const (
	// EnrichmentPending marks rows the details phase has not reached yet.
	EnrichmentPending EnrichmentStatus = "pending"
	// EnrichmentDone marks rows whose details lookup succeeded.
	EnrichmentDone EnrichmentStatus = "done"
	// EnrichmentError marks rows whose details lookup failed. They are not
	// retried within a run but stay visible for manual follow-up.
	EnrichmentError EnrichmentStatus = "error"
)

// Facility is one collected place, keyed by its Google place ID.
type Facility struct {
	PlaceID        string           `json:"place_id" db:"place_id"`
	Name           string           `json:"name" db:"name"`
	Address        string           `json:"address" db:"address"`
	Category       Category         `json:"category" db:"category"`
	Phone          string           `json:"phone,omitempty" db:"phone"`
	Website        string           `json:"website,omitempty" db:"website"`
	Rating         float64          `json:"rating,omitempty" db:"rating"`
	ReviewCount    int              `json:"review_count,omitempty" db:"review_count"`
	BusinessStatus string           `json:"business_status,omitempty" db:"business_status"`
	OpeningHours   string           `json:"opening_hours,omitempty" db:"opening_hours"`
	MapURL         string           `json:"map_url,omitempty" db:"map_url"`
	SourceRegion   string           `json:"source_region" db:"source_region"`
	SourceKeyword  string           `json:"source_keyword" db:"source_keyword"`
	Enrichment     EnrichmentStatus `json:"enrichment" db:"enrichment"`
	EnrichError    string           `json:"enrich_error,omitempty" db:"enrich_error"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// Enrichment holds the fields a details lookup may contribute. Empty values
// never overwrite existing ones (non-empty-overwrite merge).
type Enrichment struct {
	Name           string
	Address        string
	Phone          string
	Website        string
	Rating         float64
	ReviewCount    int
	BusinessStatus string
	OpeningHours   string
}

// Merge applies e onto f under the non-empty-overwrite policy and returns
// whether anything changed. Applying the same enrichment twice is a no-op
// the second time.
func (f *Facility) Merge(e Enrichment) bool {
	changed := false
	set := func(dst *string, src string) {
		if src != "" && *dst != src {
			*dst = src
			changed = true
		}
	}
	set(&f.Name, e.Name)
	set(&f.Address, e.Address)
	set(&f.Phone, e.Phone)
	set(&f.Website, e.Website)
	set(&f.BusinessStatus, e.BusinessStatus)
	set(&f.OpeningHours, e.OpeningHours)
	if e.Rating != 0 && f.Rating != e.Rating {
		f.Rating = e.Rating
		changed = true
	}
	if e.ReviewCount != 0 && f.ReviewCount != e.ReviewCount {
		f.ReviewCount = e.ReviewCount
		changed = true
	}
	return changed
}
