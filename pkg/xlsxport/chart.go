package xlsxport

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ChartSeries is one plotted series; Categories and Values are qualified
// ranges.
type ChartSeries struct {
	Name       string
	Categories string
	Values     string
}

// ChartDef describes a chart anchored near the exported data. When no series
// are given a single series over the whole data range is plotted.
type ChartDef struct {
	Type   string // "col", "bar", "line", "pie", ...
	Title  string
	Anchor string // top-left cell; defaults to two columns right of the data
	Series []ChartSeries
	Width  uint
	Height uint
}

var chartTypes = map[string]excelize.ChartType{
	"area":       excelize.Area,
	"bar":        excelize.Bar,
	"barStacked": excelize.BarStacked,
	"col":        excelize.Col,
	"colStacked": excelize.ColStacked,
	"doughnut":   excelize.Doughnut,
	"line":       excelize.Line,
	"pie":        excelize.Pie,
	"radar":      excelize.Radar,
	"scatter":    excelize.Scatter,
}

// applyChart adds one chart definition to the sheet. rgn provides the default
// anchor and series source.
func applyChart(f *excelize.File, sheet string, def *ChartDef, rgn region) error {
	chartType, ok := chartTypes[def.Type]
	if !ok {
		return fmt.Errorf("unsupported chart type %q", def.Type)
	}

	anchor := def.Anchor
	if anchor == "" {
		anchor, _ = excelize.CoordinatesToCellName(rgn.lastCol+2, rgn.firstRow)
	}

	series := make([]excelize.ChartSeries, 0, len(def.Series))
	for _, s := range def.Series {
		series = append(series, excelize.ChartSeries{
			Name:       s.Name,
			Categories: s.Categories,
			Values:     s.Values,
		})
	}
	if len(series) == 0 {
		series = append(series, excelize.ChartSeries{Values: rgn.qualifiedRef()})
	}

	chart := &excelize.Chart{
		Type:   chartType,
		Series: series,
		Legend: excelize.ChartLegend{Position: "bottom"},
	}
	if def.Title != "" {
		chart.Title = []excelize.RichTextRun{{Text: def.Title}}
	}
	if def.Width > 0 && def.Height > 0 {
		chart.Dimension = excelize.ChartDimension{Width: def.Width, Height: def.Height}
	}

	if err := f.AddChart(sheet, anchor, chart); err != nil {
		return fmt.Errorf("adding %s chart at %s!%s: %w", def.Type, sheet, anchor, err)
	}
	return nil
}
