package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFacilityMergeNonEmptyOverwrite(t *testing.T) {
	f := Facility{
		PlaceID: "p1",
		Name:    "旧名称",
		Phone:   "03-1111-2222",
		Rating:  3.5,
	}
	changed := f.Merge(Enrichment{
		Name:        "新名称",
		Address:     "東京都渋谷区1-2-3",
		Rating:      4.2,
		ReviewCount: 88,
	})

	assert.True(t, changed)
	assert.Equal(t, "新名称", f.Name)
	assert.Equal(t, "東京都渋谷区1-2-3", f.Address)
	// Absent from the enrichment, so untouched.
	assert.Equal(t, "03-1111-2222", f.Phone)
	assert.InDelta(t, 4.2, f.Rating, 0.001)
	assert.Equal(t, 88, f.ReviewCount)
}

func TestFacilityMergeEmptyValuesNeverClobber(t *testing.T) {
	f := Facility{
		Name:        "名称",
		Address:     "住所",
		Phone:       "03-1111-2222",
		Website:     "https://example.com",
		Rating:      4.0,
		ReviewCount: 10,
	}
	changed := f.Merge(Enrichment{})

	assert.False(t, changed)
	assert.Equal(t, "名称", f.Name)
	assert.Equal(t, "住所", f.Address)
	assert.Equal(t, "03-1111-2222", f.Phone)
	assert.Equal(t, "https://example.com", f.Website)
	assert.InDelta(t, 4.0, f.Rating, 0.001)
	assert.Equal(t, 10, f.ReviewCount)
}

func TestFacilityMergeIsIdempotent(t *testing.T) {
	f := Facility{PlaceID: "p1"}
	e := Enrichment{
		Name:           "施設",
		Phone:          "03-1234-5678",
		BusinessStatus: "OPERATIONAL",
		OpeningHours:   "月曜日: 9時00分～21時00分",
		Rating:         4.5,
		ReviewCount:    42,
	}

	assert.True(t, f.Merge(e))
	assert.False(t, f.Merge(e), "second application must change nothing")
}
