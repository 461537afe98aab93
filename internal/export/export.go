// Package export writes collected facilities to timestamped CSV or XLSX
// files for hand-off to spreadsheet users.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/greenside/golfscout/internal/model"
)

// Format selects the output file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// header is the column order shared by both formats.
var header = []string{
	"place_id", "name", "address", "category", "phone", "website",
	"rating", "review_count", "business_status", "opening_hours",
	"map_url", "source_region", "source_keyword", "enrichment",
	"enrich_error", "created_at",
}

// Lister is the read surface the exporter needs from the store.
type Lister interface {
	ListFacilities(ctx context.Context) ([]model.Facility, error)
}

// Exporter writes facility snapshots into a target directory.
type Exporter struct {
	store Lister
	dir   string
	now   func() time.Time
}

// New creates an Exporter writing into dir.
func New(store Lister, dir string) *Exporter {
	return &Exporter{store: store, dir: dir, now: time.Now}
}

// Export writes every stored facility in the given format and returns the
// path of the file it created.
func (e *Exporter) Export(ctx context.Context, format Format) (string, error) {
	rows, err := e.store.ListFacilities(ctx)
	if err != nil {
		return "", eris.Wrap(err, "export: list facilities")
	}

	path := filepath.Join(e.dir, FileName(format, e.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "export: create output file")
	}
	defer f.Close() //nolint:errcheck

	switch format {
	case FormatCSV:
		err = WriteCSV(f, rows)
	case FormatXLSX:
		err = WriteXLSX(f, rows)
	default:
		err = eris.Errorf("export: unsupported format %q", format)
	}
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrap(err, "export: close output file")
	}

	zap.L().Info("export written",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
	)
	return path, nil
}

// FileName builds the timestamped output name for a format.
func FileName(format Format, now time.Time) string {
	return fmt.Sprintf("golf_facilities_%s.%s", now.Format("20060102_150405"), format)
}

// record flattens one facility into the shared column order. Zero ratings
// and counts become empty cells so unenriched rows read as blank, not as
// a zero-star facility.
func record(f model.Facility) []string {
	rating := ""
	if f.Rating > 0 {
		rating = strconv.FormatFloat(f.Rating, 'f', -1, 64)
	}
	reviews := ""
	if f.ReviewCount > 0 {
		reviews = strconv.Itoa(f.ReviewCount)
	}
	created := ""
	if !f.CreatedAt.IsZero() {
		created = f.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		f.PlaceID, f.Name, f.Address, string(f.Category), f.Phone, f.Website,
		rating, reviews, f.BusinessStatus, f.OpeningHours,
		f.MapURL, f.SourceRegion, f.SourceKeyword, string(f.Enrichment),
		f.EnrichError, created,
	}
}
