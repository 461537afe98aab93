// Package places is a minimal Google Places API (New) client covering the
// two operations golfscout needs: text search and place details.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

const searchFieldMask = "places.id,places.displayName,places.formattedAddress," +
	"places.location,places.rating,places.userRatingCount,places.types," +
	"places.businessStatus,places.nationalPhoneNumber,places.websiteUri," +
	"places.googleMapsUri,nextPageToken"

const detailsFieldMask = "id,displayName,formattedAddress,rating,userRatingCount," +
	"types,businessStatus,nationalPhoneNumber,websiteUri,regularOpeningHours"

// Client performs Places API operations.
type Client interface {
	SearchText(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	Details(ctx context.Context, placeID string) (*Place, error)
}

// SearchRequest describes one text-search call. LocationBias is a circle
// around a center point; IncludedType is optional.
type SearchRequest struct {
	TextQuery    string        `json:"textQuery"`
	LanguageCode string        `json:"languageCode,omitempty"`
	RegionCode   string        `json:"regionCode,omitempty"`
	IncludedType string        `json:"includedType,omitempty"`
	PageSize     int           `json:"pageSize,omitempty"`
	PageToken    string        `json:"pageToken,omitempty"`
	LocationBias *LocationBias `json:"locationBias,omitempty"`
}

// LocationBias biases results toward a circular area.
type LocationBias struct {
	Circle Circle `json:"circle"`
}

// Circle is a center point plus radius in meters.
type Circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchResponse is one page of text-search results.
type SearchResponse struct {
	Places        []Place `json:"places"`
	NextPageToken string  `json:"nextPageToken"`
}

// Place is a candidate returned by search or details.
type Place struct {
	ID               string        `json:"id"`
	DisplayName      DisplayName   `json:"displayName"`
	FormattedAddress string        `json:"formattedAddress"`
	Location         *LatLng       `json:"location,omitempty"`
	Rating           float64       `json:"rating"`
	UserRatingCount  int           `json:"userRatingCount"`
	Types            []string      `json:"types"`
	BusinessStatus   string        `json:"businessStatus"`
	PhoneNumber      string        `json:"nationalPhoneNumber"`
	WebsiteURI       string        `json:"websiteUri"`
	GoogleMapsURI    string        `json:"googleMapsUri"`
	OpeningHours     *OpeningHours `json:"regularOpeningHours,omitempty"`
}

// DisplayName holds the place's localized display name.
type DisplayName struct {
	Text string `json:"text"`
}

// OpeningHours is the structured weekly schedule from a details lookup.
type OpeningHours struct {
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

// StatusError reports a non-200 API response. Callers branch on Code to
// separate rate-limit/permission glitches from fatal misconfiguration.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("places: unexpected status %d: %s", e.Code, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Places API client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchText(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal search request")
	}

	var result SearchResponse
	if err := c.post(ctx, "/places:searchText", searchFieldMask, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) Details(ctx context.Context, placeID string) (*Place, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places/"+placeID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create details request")
	}
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", detailsFieldMask)

	var result Place
	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) post(ctx context.Context, path, fieldMask string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "places: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "places: unmarshal response")
	}
	return nil
}
