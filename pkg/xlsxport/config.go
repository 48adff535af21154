package xlsxport

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// defaultSheetNumFmt is the worksheet default number format. A requested
// number format is only materialized into a cell style when it differs from
// this value.
const defaultSheetNumFmt = "General"

// dateTimeNumFmt is applied to every date cell regardless of any requested
// number format.
const dateTimeNumFmt = "m/d/yy h:mm"

// NoConversionAll is the wildcard for WithNoNumberConversion: every field is
// kept as text, no numeric parsing is attempted anywhere.
const NoConversionAll = "*"

// CellStyler is a caller-supplied hook run as the last styling step of the
// pipeline against the final data range.
type CellStyler func(f *excelize.File, sheet, dataRange string) error

// ConditionalFormat describes one conditional-formatting rule applied to the
// data range (or to Range when set).
type ConditionalFormat struct {
	Range    string // defaults to the data range
	Type     string // "cell", "top", "duplicate", ... (collaborator types)
	Criteria string
	Value    string
	Style    *CellStyle
}

// ExportConfig is the flat set of options for one export invocation. It is
// built once from functional options, validated once, and not mutated during
// emission.
type ExportConfig struct {
	SheetName string
	StartRow  int // 1-based
	StartCol  int // 1-based

	Title      string
	Append     bool
	ClearSheet bool
	NoHeader   bool
	DisplaySet bool // use FieldProvider.ExportFields when the record offers it

	Columns      []string // pins header names and order; bypasses resolution
	Exclude      []string // field names dropped from the header
	NoConversion []string // field names exempt from numeric parsing, or "*"

	NumberFormat string // requested number format for numeric cells
	Locale       string // BCP-47 tag driving the numeric parse separators

	// Finishing steps, each skipped when zero-valued.
	NamedRange  string
	TableName   string
	TableStyle  string
	PivotTables []*PivotTableDef
	Charts      []*ChartDef
	AutoFilter  bool

	FreezeTopRow         bool
	FreezeFirstColumn    bool
	FreezeTopRowFirstCol bool
	FreezePane           string // explicit top-left cell of the scrollable area

	BoldTopRow  bool
	AutoSize    bool
	MaxColWidth float64
	HideSheet   bool
	MoveToStart bool

	ConditionalFormats []ConditionalFormat
	CellStyler         CellStyler

	Password string
}

// Option mutates the export configuration before validation.
type Option func(*ExportConfig)

func defaultConfig() *ExportConfig {
	return &ExportConfig{
		SheetName:    "Sheet1",
		StartRow:     1,
		StartCol:     1,
		NumberFormat: defaultSheetNumFmt,
		MaxColWidth:  50,
	}
}

// validate catches configuration conflicts before any worksheet mutation.
func (cfg *ExportConfig) validate() error {
	if cfg.Append && cfg.ClearSheet {
		return fmt.Errorf("%w: append and clear-sheet cannot be combined", ErrConfigConflict)
	}
	if cfg.SheetName == "" {
		return fmt.Errorf("%w: sheet name must not be empty", ErrConfigConflict)
	}
	if cfg.StartRow < 1 || cfg.StartCol < 1 {
		return fmt.Errorf("%w: start cell must be at or after A1", ErrConfigConflict)
	}
	if cfg.FreezePane != "" {
		if _, _, err := excelize.CellNameToCoordinates(cfg.FreezePane); err != nil {
			return fmt.Errorf("%w: invalid freeze pane cell %q", ErrConfigConflict, cfg.FreezePane)
		}
	}
	return nil
}

// WithSheetName targets a worksheet other than Sheet1.
func WithSheetName(name string) Option { return func(c *ExportConfig) { c.SheetName = name } }

// WithStartCell places the export region; everything (title, header, data)
// is laid out from this cell.
func WithStartCell(cell string) Option {
	return func(c *ExportConfig) {
		if col, row, err := excelize.CellNameToCoordinates(cell); err == nil {
			c.StartCol, c.StartRow = col, row
		} else {
			c.StartRow = 0 // force validation failure with the bad cell kept visible
		}
	}
}

// WithTitle writes a bold title cell above the header row.
func WithTitle(title string) Option { return func(c *ExportConfig) { c.Title = title } }

// WithAppend continues below existing data, reusing the sheet's header row
// instead of deriving one from the incoming records.
func WithAppend() Option { return func(c *ExportConfig) { c.Append = true } }

// WithClearSheet drops any existing content of the target sheet first.
func WithClearSheet() Option { return func(c *ExportConfig) { c.ClearSheet = true } }

// WithNoHeader suppresses the header row. The header is still resolved
// internally to drive per-field iteration.
func WithNoHeader() Option { return func(c *ExportConfig) { c.NoHeader = true } }

// WithDisplaySet prefers a record's ExportFields() selection over its full
// field list.
func WithDisplaySet() Option { return func(c *ExportConfig) { c.DisplaySet = true } }

// WithColumns pins the header to exactly these names, in this order.
func WithColumns(names ...string) Option { return func(c *ExportConfig) { c.Columns = names } }

// WithExclude removes fields from the resolved header.
func WithExclude(names ...string) Option { return func(c *ExportConfig) { c.Exclude = names } }

// WithNoNumberConversion keeps the named fields as verbatim text even when
// their values look numeric. Pass NoConversionAll to disable parsing for
// every field.
func WithNoNumberConversion(names ...string) Option {
	return func(c *ExportConfig) { c.NoConversion = names }
}

// WithNumberFormat requests a number format for numeric cells. It is applied
// only when it differs from the sheet default and never to date cells.
func WithNumberFormat(format string) Option {
	return func(c *ExportConfig) { c.NumberFormat = format }
}

// WithLocale selects the decimal and group separators used when parsing
// numeric-looking text, e.g. "de-DE" makes "1.555,83" parse to 1555.83.
func WithLocale(tag string) Option { return func(c *ExportConfig) { c.Locale = tag } }

// WithNamedRange registers (or re-points) a workbook-scoped named range over
// the data region.
func WithNamedRange(name string) Option { return func(c *ExportConfig) { c.NamedRange = name } }

// WithTable creates (or re-points) a table over the data region. style may be
// empty for the collaborator default.
func WithTable(name, style string) Option {
	return func(c *ExportConfig) { c.TableName, c.TableStyle = name, style }
}

// WithPivotTable adds a pivot table definition sourced from the data region
// unless the definition names its own source.
func WithPivotTable(defs ...*PivotTableDef) Option {
	return func(c *ExportConfig) { c.PivotTables = append(c.PivotTables, defs...) }
}

// WithChart adds a chart definition anchored next to the data region.
func WithChart(defs ...*ChartDef) Option {
	return func(c *ExportConfig) { c.Charts = append(c.Charts, defs...) }
}

// WithAutoFilter puts an auto-filter on the header row.
func WithAutoFilter() Option { return func(c *ExportConfig) { c.AutoFilter = true } }

// WithFreezeTopRow freezes the row above the data rows.
func WithFreezeTopRow() Option { return func(c *ExportConfig) { c.FreezeTopRow = true } }

// WithFreezeFirstColumn freezes the first data column.
func WithFreezeFirstColumn() Option { return func(c *ExportConfig) { c.FreezeFirstColumn = true } }

// WithFreezeTopRowFirstColumn freezes both.
func WithFreezeTopRowFirstColumn() Option {
	return func(c *ExportConfig) { c.FreezeTopRowFirstCol = true }
}

// WithFreezePane freezes everything above and left of the given cell.
func WithFreezePane(cell string) Option { return func(c *ExportConfig) { c.FreezePane = cell } }

// WithBoldTopRow bolds the header (or first) row after emission.
func WithBoldTopRow() Option { return func(c *ExportConfig) { c.BoldTopRow = true } }

// WithAutoSize widens each column to fit its longest value, capped by
// WithMaxColumnWidth.
func WithAutoSize() Option { return func(c *ExportConfig) { c.AutoSize = true } }

// WithMaxColumnWidth caps auto-sized column widths.
func WithMaxColumnWidth(width float64) Option {
	return func(c *ExportConfig) { c.MaxColWidth = width }
}

// WithHideSheet hides the target sheet after the export.
func WithHideSheet() Option { return func(c *ExportConfig) { c.HideSheet = true } }

// WithSheetFirst moves the target sheet to the front of the workbook.
func WithSheetFirst() Option { return func(c *ExportConfig) { c.MoveToStart = true } }

// WithConditionalFormat appends conditional-formatting rules for the data
// range.
func WithConditionalFormat(rules ...ConditionalFormat) Option {
	return func(c *ExportConfig) { c.ConditionalFormats = append(c.ConditionalFormats, rules...) }
}

// WithCellStyler installs a per-export styling callback run after all other
// finishing steps except password protection.
func WithCellStyler(fn CellStyler) Option { return func(c *ExportConfig) { c.CellStyler = fn } }

// WithPassword protects the workbook structure. A failure here aborts the
// export instead of degrading to a warning.
func WithPassword(password string) Option { return func(c *ExportConfig) { c.Password = password } }
