package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

// SheetName is the worksheet leads are written to.
const SheetName = "Leads"

// NewWorkbook builds a workbook with one header row and one row per lead.
// Score, rating and reviews are stored as numbers.
func NewWorkbook(results []model.LeadResult) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range fullColumns {
		header.AddCell().SetString(col)
	}

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Business)
		row.AddCell().SetString(r.Industry)
		row.AddCell().SetString(r.Location)
		row.AddCell().SetString(r.Website)
		row.AddCell().SetString(r.Phone)
		row.AddCell().SetInt(r.SEOScore)
		row.AddCell().SetString(CategoryLabel(r.Category()))
		row.AddCell().SetString(strings.Join(r.Issues, IssueSeparator))
		row.AddCell().SetFloat(r.Rating)
		row.AddCell().SetInt(r.Reviews)
	}
	return f, nil
}

// WriteXLSX writes the workbook to w.
func WriteXLSX(w io.Writer, results []model.LeadResult) error {
	f, err := NewWorkbook(results)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}
