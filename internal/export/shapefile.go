package export

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geopost/internal/model"
)

const dbfTextSize = 254

// shapeFields mirrors model.Header with DBF-safe names (max 10 chars).
var shapeFields = []shp.Field{
	shp.FloatField("LATITUDE", 18, 8),
	shp.FloatField("LONGITUDE", 18, 8),
	shp.StringField("LOCATION", dbfTextSize),
	shp.StringField("TIMEZONE", dbfTextSize),
	shp.NumberField("RETWEETS", 10),
	shp.StringField("FAVORITED", 5),
	shp.StringField("DATE", 10),
	shp.StringField("COORDS", dbfTextSize),
	shp.StringField("GEO", dbfTextSize),
	shp.StringField("TEXT", dbfTextSize),
	shp.StringField("SEARCH", dbfTextSize),
}

// WriteShapefile writes a POINT shapefile (.shp, .shx, .dbf) with one
// record per entry. Text attributes longer than the DBF limit are cut at a
// rune boundary.
func WriteShapefile(path string, entries []model.Entry) (int, error) {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create shapefile %s", path)
	}
	// Close would retry the failed DBF create and panic, so it is skipped here.
	if err := w.SetFields(shapeFields); err != nil {
		return 0, eris.Wrap(err, "export: set shapefile fields")
	}

	rows, err := writeShapeRecords(w, entries)
	w.Close()
	if err != nil {
		return rows, err
	}

	// go-shp names the attribute table "<base>dbf"; readers expect "<base>.dbf".
	base := path
	if strings.HasSuffix(strings.ToLower(path), ".shp") {
		base = path[:len(path)-len(".shp")]
	}
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return rows, eris.Wrapf(err, "export: finalize shapefile attributes %s", base+".dbf")
	}
	return rows, nil
}

func writeShapeRecords(w *shp.Writer, entries []model.Entry) (int, error) {
	rows := 0
	for _, e := range entries {
		idx := int(w.Write(&shp.Point{X: e.Longitude, Y: e.Latitude}))
		row := e.Row()
		for field := range shapeFields {
			var value any
			switch field {
			case 0:
				value = e.Latitude
			case 1:
				value = e.Longitude
			case 4:
				value = e.RetweetCount
			default:
				value = truncateBytes(row[field], dbfTextSize)
			}
			if err := w.WriteAttribute(idx, field, value); err != nil {
				return rows, eris.Wrapf(err, "export: write shapefile attribute %s", model.Header[field])
			}
		}
		rows++
	}
	return rows, nil
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
