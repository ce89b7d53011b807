// Package export serializes resolved entries to the requested output files.
package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geopost/internal/model"
)

// Format names an output encoding.
type Format string

const (
	FormatCSV       Format = "csv"
	FormatGeoJSON   Format = "geojson"
	FormatShapefile Format = "shapefile"
	FormatXLSX      Format = "xlsx"
)

// Target is one requested output file.
type Target struct {
	Format Format
	Path   string
}

// Targets is the set of outputs requested for a run, written in order.
type Targets []Target

// Validate requires at least one target, a known format for each, and an
// existing destination directory.
func (ts Targets) Validate() error {
	if len(ts) == 0 {
		return eris.New("export: at least one output path is required")
	}
	for _, t := range ts {
		if _, ok := writers[t.Format]; !ok {
			return eris.Errorf("export: unknown format %q", t.Format)
		}
		if strings.TrimSpace(t.Path) == "" {
			return eris.Errorf("export: %s path is empty", t.Format)
		}
		if t.Format == FormatShapefile && !strings.EqualFold(filepath.Ext(t.Path), ".shp") {
			return eris.Errorf("export: shapefile path %q must end in .shp", t.Path)
		}
		dir := filepath.Dir(t.Path)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return eris.Errorf("export: target directory of the %s file does not exist: %s", t.Format, dir)
		}
	}
	return nil
}

type writeFunc func(path string, entries []model.Entry) (int, error)

var writers = map[Format]writeFunc{
	FormatCSV:       WriteCSV,
	FormatGeoJSON:   WriteGeoJSON,
	FormatShapefile: WriteShapefile,
	FormatXLSX:      WriteXLSX,
}

// WriteAll runs every target in order. A failing writer is reported and the
// remaining writers still run.
func WriteAll(ts Targets, entries []model.Entry) []model.WriteReport {
	reports := make([]model.WriteReport, 0, len(ts))
	for _, t := range ts {
		report := model.WriteReport{Format: string(t.Format), Path: t.Path}

		write, ok := writers[t.Format]
		if !ok {
			report.Err = eris.Errorf("export: unknown format %q", t.Format)
		} else {
			report.Rows, report.Err = write(t.Path, entries)
		}

		if report.Err != nil {
			zap.L().Warn("export: write failed",
				zap.String("format", report.Format),
				zap.String("path", report.Path),
				zap.Int("rows_written", report.Rows),
				zap.Error(report.Err),
			)
		} else {
			zap.L().Info("export: wrote output",
				zap.String("format", report.Format),
				zap.String("path", report.Path),
				zap.Int("rows", report.Rows),
			)
		}
		reports = append(reports, report)
	}
	return reports
}
