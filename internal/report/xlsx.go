package report

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// SheetName is the name of the summary sheet.
const SheetName = "Salgsmotor"

// Header is the first row of the summary sheet.
var Header = []string{"Orgnr", "Navn", "Økonomisk status", "Primær anbefaling", "Alle anbefalinger"}

// WriteXLSX writes one row per summary to a new workbook at path.
func WriteXLSX(path string, rows []Summary) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	addRow(sheet, Header)
	for _, s := range rows {
		addRow(sheet, []string{
			s.OrgNumber,
			s.Name,
			s.HealthStatus,
			s.Primary,
			strings.Join(s.Recommendations, "; "),
		})
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}
