package places

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchText_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.id")
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "nextPageToken")

		var body SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ゴルフ練習場", body.TextQuery)
		assert.Equal(t, "golf_course", body.IncludedType)
		require.NotNil(t, body.LocationBias)
		assert.InDelta(t, 35.6895, body.LocationBias.Circle.Center.Latitude, 0.001)
		assert.InDelta(t, 20000, body.LocationBias.Circle.Radius, 0.001)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{
			Places: []Place{
				{
					ID:               "ChIJ-golf1",
					DisplayName:      DisplayName{Text: "東京ゴルフセンター"},
					FormattedAddress: "東京都世田谷区1-2-3",
					Types:            []string{"golf_course", "point_of_interest"},
					Rating:           4.2,
					UserRatingCount:  310,
				},
			},
			NextPageToken: "page-2-token",
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.SearchText(context.Background(), SearchRequest{
		TextQuery:    "ゴルフ練習場",
		IncludedType: "golf_course",
		LocationBias: &LocationBias{
			Circle: Circle{Center: LatLng{Latitude: 35.6895, Longitude: 139.6917}, Radius: 20000},
		},
	})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "ChIJ-golf1", resp.Places[0].ID)
	assert.Equal(t, "東京ゴルフセンター", resp.Places[0].DisplayName.Text)
	assert.Equal(t, "page-2-token", resp.NextPageToken)
}

func TestSearchText_Pagination(t *testing.T) {
	callCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		var body SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		if body.PageToken == "" {
			_ = json.NewEncoder(w).Encode(SearchResponse{
				Places:        []Place{{ID: "place-1"}},
				NextPageToken: "token-2",
			})
		} else {
			assert.Equal(t, "token-2", body.PageToken)
			_ = json.NewEncoder(w).Encode(SearchResponse{
				Places: []Place{{ID: "place-2"}},
			})
		}
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	resp, err := client.SearchText(context.Background(), SearchRequest{TextQuery: "golf"})
	require.NoError(t, err)
	assert.Equal(t, "token-2", resp.NextPageToken)

	resp, err = client.SearchText(context.Background(), SearchRequest{TextQuery: "golf", PageToken: resp.NextPageToken})
	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "place-2", resp.Places[0].ID)
	assert.Empty(t, resp.NextPageToken)
	assert.Equal(t, 2, callCount)
}

func TestSearchText_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limit exceeded"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.SearchText(context.Background(), SearchRequest{TextQuery: "golf"})

	assert.Nil(t, resp)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
}

func TestDetails_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/places/ChIJ-golf1", r.URL.Path)
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "regularOpeningHours")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Place{
			ID:          "ChIJ-golf1",
			DisplayName: DisplayName{Text: "東京ゴルフセンター"},
			PhoneNumber: "03-1234-5678",
			WebsiteURI:  "https://tokyogolf.example.com",
			OpeningHours: &OpeningHours{
				WeekdayDescriptions: []string{"月曜日: 9:00~21:00"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	place, err := client.Details(context.Background(), "ChIJ-golf1")

	require.NoError(t, err)
	assert.Equal(t, "03-1234-5678", place.PhoneNumber)
	require.NotNil(t, place.OpeningHours)
	assert.Len(t, place.OpeningHours.WeekdayDescriptions, 1)
}

func TestDetails_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "not found"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	place, err := client.Details(context.Background(), "ChIJ-missing")

	assert.Nil(t, place)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestDetails_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	place, err := client.Details(ctx, "ChIJ-golf1")

	assert.Error(t, err)
	assert.Nil(t, place)
}
