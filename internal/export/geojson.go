package export

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/geopost/internal/model"
)

// FeatureCollection builds one point feature per entry. Point coordinates
// are ordered [longitude, latitude].
func FeatureCollection(entries []model.Entry) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(entries))}
	for _, e := range entries {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{e.Longitude, e.Latitude}),
			Properties: e.Properties(),
		})
	}
	return fc
}

// WriteGeoJSON writes a FeatureCollection document. Text properties are
// written as UTF-8 strings.
func WriteGeoJSON(path string, entries []model.Entry) (int, error) {
	fc := FeatureCollection(entries)
	data, err := json.Marshal(fc)
	if err != nil {
		return 0, eris.Wrap(err, "export: marshal geojson")
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create geojson file %s", path)
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.Write(data); err != nil {
		return 0, eris.Wrapf(err, "export: write geojson file %s", path)
	}
	if err := f.Close(); err != nil {
		return 0, eris.Wrapf(err, "export: close geojson file %s", path)
	}
	return len(fc.Features), nil
}
