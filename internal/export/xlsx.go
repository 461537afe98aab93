package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/greenside/golfscout/internal/model"
)

const sheetName = "facilities"

// WriteXLSX writes the facilities as a single-sheet workbook with the
// same columns as the CSV export.
func WriteXLSX(w io.Writer, rows []model.Facility) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	hr := sheet.AddRow()
	for _, col := range header {
		hr.AddCell().SetString(col)
	}
	for _, fac := range rows {
		row := sheet.AddRow()
		for _, val := range record(fac) {
			row.AddCell().SetString(val)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}
