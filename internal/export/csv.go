package export

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geopost/internal/model"
)

// WriteCSV writes the header row then one row per entry. It returns the
// number of entry rows written.
func WriteCSV(path string, entries []model.Entry) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create csv file %s", path)
	}
	defer f.Close() //nolint:errcheck

	cw := csv.NewWriter(f)
	if err := cw.Write(model.Header); err != nil {
		return 0, eris.Wrap(err, "export: write csv header")
	}

	rows := 0
	for _, e := range entries {
		if err := cw.Write(e.Row()); err != nil {
			return rows, eris.Wrapf(err, "export: write csv row %d", rows+1)
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, eris.Wrap(err, "export: flush csv")
	}
	if err := f.Close(); err != nil {
		return rows, eris.Wrapf(err, "export: close csv file %s", path)
	}
	return rows, nil
}
