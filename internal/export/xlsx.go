package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/geopost/internal/model"
)

const xlsxSheet = "Posts"

// WriteXLSX writes a single-sheet workbook: a header row then one row per
// entry. Coordinates and retweet counts are numeric cells.
func WriteXLSX(path string, entries []model.Entry) (int, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(xlsxSheet)
	if err != nil {
		return 0, eris.Wrap(err, "export: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, name := range model.Header {
		header.AddCell().SetString(name)
	}

	for _, e := range entries {
		row := sheet.AddRow()
		cells := e.Row()
		for i, v := range cells {
			cell := row.AddCell()
			switch i {
			case 0:
				cell.SetFloat(e.Latitude)
			case 1:
				cell.SetFloat(e.Longitude)
			case 4:
				cell.SetInt(e.RetweetCount)
			default:
				cell.SetString(v)
			}
		}
	}

	if err := f.Save(path); err != nil {
		return 0, eris.Wrapf(err, "export: save xlsx file %s", path)
	}
	return len(entries), nil
}
