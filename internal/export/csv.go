package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/greenside/golfscout/internal/model"
)

// WriteCSV writes the facilities as CSV with a header row. CRLF line
// endings keep the output friendly to spreadsheet imports on Windows.
func WriteCSV(w io.Writer, rows []model.Facility) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, f := range rows {
		if err := cw.Write(record(f)); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", f.PlaceID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}
