package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/greenside/golfscout/internal/model"
)

type fakeLister struct {
	rows []model.Facility
	err  error
}

func (f *fakeLister) ListFacilities(context.Context) ([]model.Facility, error) {
	return f.rows, f.err
}

func sampleRows() []model.Facility {
	return []model.Facility{
		{
			PlaceID:       "p1",
			Name:          "グリーンゴルフ練習場",
			Address:       "東京都世田谷区1-2-3",
			Category:      model.CategoryOutdoor,
			Phone:         "03-1234-5678",
			Website:       "https://example.com",
			Rating:        4.3,
			ReviewCount:   120,
			SourceRegion:  "東京都",
			SourceKeyword: "ゴルフ練習場",
			Enrichment:    model.EnrichmentDone,
			CreatedAt:     time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			PlaceID:    "p2",
			Name:       "Tom's, Golf Studio",
			Category:   model.CategoryIndoor,
			Enrichment: model.EnrichmentPending,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "place_id,name,address"), "header first")
	assert.Contains(t, out, "\r\n", "spreadsheet-friendly line endings")
	// Commas and quotes inside a field survive the round trip.
	assert.Contains(t, out, `"Tom's, Golf Studio"`)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, header, records[0])
	assert.Equal(t, "グリーンゴルフ練習場", records[1][1])
	assert.Equal(t, "4.3", records[1][6])
	assert.Equal(t, "120", records[1][7])
	assert.Equal(t, "2026-08-01T09:30:00Z", records[1][15])
	// Unenriched row has blank rating cells, not zeros.
	assert.Equal(t, "Tom's, Golf Studio", records[2][1])
	assert.Empty(t, records[2][6])
	assert.Empty(t, records[2][7])
}

func TestWriteCSVEmptyStore(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteXLSX(f, sampleRows()))
	require.NoError(t, f.Close())

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	sheet := wb.Sheets[0]
	assert.Equal(t, sheetName, sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "place_id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "グリーンゴルフ練習場", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "Tom's, Golf Studio", sheet.Rows[2].Cells[1].String())
}

func TestExporterWritesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	e := New(&fakeLister{rows: sampleRows()}, dir)
	e.now = func() time.Time { return time.Date(2026, 8, 23, 14, 5, 9, 0, time.UTC) }

	path, err := e.Export(context.Background(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "golf_facilities_20260823_140509.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "p1")
}

func TestExporterUnsupportedFormat(t *testing.T) {
	e := New(&fakeLister{}, t.TempDir())

	_, err := e.Export(context.Background(), Format("pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestExporterListFailure(t *testing.T) {
	e := New(&fakeLister{err: eris.New("db gone")}, t.TempDir())

	_, err := e.Export(context.Background(), FormatCSV)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db gone")
}
