package xlsxport

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/xlsxport/internal/logger"
)

// region is the final occupied data range the finishing steps operate on.
type region struct {
	sheet     string
	firstCol  int
	firstRow  int
	lastCol   int
	lastRow   int
	headerRow int
}

func (r region) ref() string {
	first, _ := excelize.CoordinatesToCellName(r.firstCol, r.firstRow)
	last, _ := excelize.CoordinatesToCellName(r.lastCol, r.lastRow)
	return first + ":" + last
}

func (r region) qualifiedRef() string {
	return r.sheet + "!" + r.ref()
}

func (r region) absoluteRef() string {
	first, _ := excelize.CoordinatesToCellName(r.firstCol, r.firstRow, true)
	last, _ := excelize.CoordinatesToCellName(r.lastCol, r.lastRow, true)
	return r.sheet + "!" + first + ":" + last
}

func (r region) headerRef() string {
	first, _ := excelize.CoordinatesToCellName(r.firstCol, r.headerRow)
	last, _ := excelize.CoordinatesToCellName(r.lastCol, r.headerRow)
	return first + ":" + last
}

var artifactNameRe = regexp.MustCompile(`[^A-Za-z0-9_.]`)

// sanitizeArtifactName substitutes characters the format rejects in range,
// table, and pivot names with underscores, warning when anything changed.
func sanitizeArtifactName(ctx context.Context, name string) string {
	clean := artifactNameRe.ReplaceAllString(name, "_")
	if clean != "" && clean[0] >= '0' && clean[0] <= '9' {
		clean = "_" + clean
	}
	if clean != name {
		logger.WarnLog(ctx, "artifact name %q sanitized to %q", name, clean)
	}
	return clean
}

// runPostProcess applies the configured finishing steps in a fixed order
// against the populated region. A failing step is reported as a warning
// tagged with the sheet name and does not stop the ones after it; only
// password protection is fatal.
func runPostProcess(ctx context.Context, f *excelize.File, cfg *ExportConfig, rgn region) error {
	steps := []struct {
		name    string
		enabled bool
		run     func() error
	}{
		{"named range", cfg.NamedRange != "", func() error {
			return applyNamedRange(ctx, f, cfg.NamedRange, rgn)
		}},
		{"table", cfg.TableName != "", func() error {
			return applyTable(ctx, f, cfg.TableName, cfg.TableStyle, rgn)
		}},
		{"pivot tables", len(cfg.PivotTables) > 0, func() error {
			for _, def := range cfg.PivotTables {
				if err := applyPivotTable(ctx, f, def, rgn.qualifiedRef()); err != nil {
					return err
				}
			}
			return nil
		}},
		{"auto filter", cfg.AutoFilter, func() error {
			return f.AutoFilter(rgn.sheet, rgn.ref(), nil)
		}},
		{"freeze panes", cfg.FreezeTopRow || cfg.FreezeFirstColumn || cfg.FreezeTopRowFirstCol || cfg.FreezePane != "", func() error {
			return applyFreeze(f, cfg, rgn)
		}},
		{"bold top row", cfg.BoldTopRow, func() error {
			return applyBoldTopRow(f, rgn)
		}},
		{"auto size", cfg.AutoSize, func() error {
			return applyAutoSize(f, cfg.MaxColWidth, rgn)
		}},
		{"hide sheet", cfg.HideSheet, func() error {
			return f.SetSheetVisible(rgn.sheet, false)
		}},
		{"charts", len(cfg.Charts) > 0, func() error {
			for _, def := range cfg.Charts {
				if err := applyChart(f, rgn.sheet, def, rgn); err != nil {
					return err
				}
			}
			return nil
		}},
		{"conditional formats", len(cfg.ConditionalFormats) > 0, func() error {
			return applyConditionalFormats(f, cfg.ConditionalFormats, rgn)
		}},
		{"cell styler", cfg.CellStyler != nil, func() error {
			return cfg.CellStyler(f, rgn.sheet, rgn.ref())
		}},
	}

	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if err := step.run(); err != nil {
			logger.WarnLog(ctx, "sheet %s: %s step failed: %v", rgn.sheet, step.name, err)
		}
	}

	if cfg.Password != "" {
		if err := f.ProtectWorkbook(&excelize.WorkbookProtectionOptions{
			Password:      cfg.Password,
			LockStructure: true,
		}); err != nil {
			return fmt.Errorf("%w: %v", ErrPassword, err)
		}
	}
	return nil
}

// applyNamedRange registers a workbook-scoped name over the region, replacing
// the reference of an existing name instead of erroring so repeated exports
// stay idempotent.
func applyNamedRange(ctx context.Context, f *excelize.File, name string, rgn region) error {
	name = sanitizeArtifactName(ctx, name)
	for _, dn := range f.GetDefinedName() {
		if dn.Name == name && dn.Scope == "Workbook" {
			if err := f.DeleteDefinedName(&excelize.DefinedName{Name: name}); err != nil {
				return fmt.Errorf("replacing named range %s: %w", name, err)
			}
			break
		}
	}
	if err := f.SetDefinedName(&excelize.DefinedName{Name: name, RefersTo: rgn.absoluteRef()}); err != nil {
		return fmt.Errorf("defining named range %s: %w", name, err)
	}
	return nil
}

// applyTable creates a table over the region, dropping a previous table of
// the same name first.
func applyTable(ctx context.Context, f *excelize.File, name, style string, rgn region) error {
	name = sanitizeArtifactName(ctx, name)
	if tables, err := f.GetTables(rgn.sheet); err == nil {
		for _, t := range tables {
			if t.Name == name {
				if err := f.DeleteTable(name); err != nil {
					return fmt.Errorf("replacing table %s: %w", name, err)
				}
				break
			}
		}
	}
	if style == "" {
		style = "TableStyleMedium2"
	}
	if err := f.AddTable(rgn.sheet, &excelize.Table{
		Range:     rgn.ref(),
		Name:      name,
		StyleName: style,
	}); err != nil {
		return fmt.Errorf("adding table %s: %w", name, err)
	}
	return nil
}

// applyFreeze resolves the freeze request with a fixed precedence: top row,
// then first column, then both, then an explicit cell.
func applyFreeze(f *excelize.File, cfg *ExportConfig, rgn region) error {
	panes := &excelize.Panes{Freeze: true}
	switch {
	case cfg.FreezeTopRow:
		panes.YSplit = rgn.headerRow
		panes.ActivePane = "bottomLeft"
		panes.TopLeftCell, _ = excelize.CoordinatesToCellName(1, rgn.headerRow+1)
	case cfg.FreezeFirstColumn:
		panes.XSplit = 1
		panes.ActivePane = "topRight"
		panes.TopLeftCell, _ = excelize.CoordinatesToCellName(2, 1)
	case cfg.FreezeTopRowFirstCol:
		panes.XSplit = 1
		panes.YSplit = rgn.headerRow
		panes.ActivePane = "bottomRight"
		panes.TopLeftCell, _ = excelize.CoordinatesToCellName(2, rgn.headerRow+1)
	default:
		col, row, err := excelize.CellNameToCoordinates(cfg.FreezePane)
		if err != nil {
			return err
		}
		panes.XSplit = col - 1
		panes.YSplit = row - 1
		panes.ActivePane = "bottomRight"
		panes.TopLeftCell = cfg.FreezePane
	}
	return f.SetPanes(rgn.sheet, panes)
}

func applyBoldTopRow(f *excelize.File, rgn region) error {
	id, err := buildStyle(f, boldStyle())
	if err != nil {
		return err
	}
	parts := strings.SplitN(rgn.headerRef(), ":", 2)
	return f.SetCellStyle(rgn.sheet, parts[0], parts[1], id)
}

// applyAutoSize widens each data column to its longest rendered value. Widths
// are approximate (character counts), matching what the format itself does
// for fit-to-content.
func applyAutoSize(f *excelize.File, maxWidth float64, rgn region) error {
	cols, err := f.GetCols(rgn.sheet)
	if err != nil {
		return err
	}
	for col := rgn.firstCol; col <= rgn.lastCol; col++ {
		if col > len(cols) {
			break
		}
		longest := 0
		for _, cell := range cols[col-1] {
			if n := len(cell); n > longest {
				longest = n
			}
		}
		width := float64(longest) + 2
		if maxWidth > 0 && width > maxWidth {
			width = maxWidth
		}
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(rgn.sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

func applyConditionalFormats(f *excelize.File, rules []ConditionalFormat, rgn region) error {
	for _, rule := range rules {
		target := rule.Range
		if target == "" {
			target = rgn.ref()
		}
		var formatID *int
		if rule.Style != nil {
			// Conditional rules need a differential style, not a cell style.
			id, err := buildConditionalStyle(f, rule.Style)
			if err != nil {
				return err
			}
			formatID = &id
		}
		opts := []excelize.ConditionalFormatOptions{{
			Type:     rule.Type,
			Criteria: rule.Criteria,
			Value:    rule.Value,
			Format:   formatID,
		}}
		if err := f.SetConditionalFormat(rgn.sheet, target, opts); err != nil {
			return fmt.Errorf("conditional format on %s: %w", target, err)
		}
	}
	return nil
}
