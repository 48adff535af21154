package xlsxport

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/xlsxport/internal/logger"
)

// emitter owns the layout cursor for one export invocation. It is not shared
// across invocations; concurrent exports against the same sheet are not
// supported.
type emitter struct {
	f      *excelize.File
	sheet  string
	cfg    *ExportConfig
	cc     coerceContext
	styles *styleCache

	header []string
	skip   map[string]struct{}

	layoutRow int // first row of the header/data block (title excluded)
	row       int // next row to write
	maxCol    int // rightmost column touched
	wroteAny  bool
	headerSet bool
	hasTitle  bool
}

func newEmitter(f *excelize.File, sheet string, cfg *ExportConfig) *emitter {
	return &emitter{
		f:      f,
		sheet:  sheet,
		cfg:    cfg,
		cc:     newCoerceContext(cfg),
		styles: newStyleCache(f),
		maxCol: cfg.StartCol,
	}
}

// prepare performs the pre-emission layout work: title placement for fresh
// exports, header readback and cursor positioning for append mode.
func (e *emitter) prepare(ctx context.Context) error {
	e.layoutRow = e.cfg.StartRow
	e.row = e.cfg.StartRow

	if e.cfg.Append {
		if e.cfg.Title != "" {
			logger.WarnLog(ctx, "sheet %s: title ignored in append mode", e.sheet)
		}
		header, err := readHeaderRow(e.f, e.sheet, e.cfg.StartRow, e.cfg.StartCol)
		if err != nil {
			return err
		}
		// The sheet's header is positional: an excluded field keeps its
		// column and is left blank, so the fields after it do not shift.
		e.header = header
		if len(e.cfg.Exclude) > 0 {
			e.skip = make(map[string]struct{}, len(e.cfg.Exclude))
			for _, name := range e.cfg.Exclude {
				e.skip[name] = struct{}{}
			}
		}
		e.headerSet = true
		e.maxCol = e.cfg.StartCol + len(e.header) - 1

		rows, err := e.f.GetRows(e.sheet)
		if err != nil {
			return fmt.Errorf("reading dimension of %s: %w", e.sheet, err)
		}
		last := len(rows)
		if last < e.cfg.StartRow {
			last = e.cfg.StartRow
		}
		e.row = last + 1
		return nil
	}

	if e.cfg.Title != "" {
		cell, _ := excelize.CoordinatesToCellName(e.cfg.StartCol, e.cfg.StartRow)
		if err := e.f.SetCellStr(e.sheet, cell, e.cfg.Title); err != nil {
			return fmt.Errorf("writing title to %s!%s: %w", e.sheet, cell, err)
		}
		if id, err := buildStyle(e.f, boldStyle()); err == nil {
			_ = e.f.SetCellStyle(e.sheet, cell, cell, id)
		}
		e.hasTitle = true
		e.layoutRow = e.cfg.StartRow + 1
		e.row = e.layoutRow
	}
	return nil
}

// emit writes one record (or scalar) at the cursor and advances it. Rows land
// in input order; columns within a row follow the header order.
func (e *emitter) emit(ctx context.Context, rec interface{}) error {
	if isScalar(rec) {
		cw := classify(rec, "", e.cc)
		if err := e.writeCell(cw, e.row, e.cfg.StartCol, ""); err != nil {
			return err
		}
		e.row++
		e.wroteAny = true
		return nil
	}

	if !e.headerSet {
		e.header = resolveHeader(rec, e.cfg)
		e.headerSet = true
		if len(e.header) == 0 {
			return fmt.Errorf("record of type %T yields no exportable fields", rec)
		}
		e.maxCol = e.cfg.StartCol + len(e.header) - 1
		if !e.cfg.NoHeader {
			for i, name := range e.header {
				cell, _ := excelize.CoordinatesToCellName(e.cfg.StartCol+i, e.row)
				if err := e.f.SetCellStr(e.sheet, cell, name); err != nil {
					return fmt.Errorf("writing header to %s!%s: %w", e.sheet, cell, err)
				}
			}
			e.row++
		}
	}

	for i, name := range e.header {
		if _, ok := e.skip[name]; ok {
			continue
		}
		value, ok := fieldValue(rec, name)
		if !ok {
			continue // field absent from this record, cell stays blank
		}
		cw := classify(value, name, e.cc)
		if err := e.writeCell(cw, e.row, e.cfg.StartCol+i, name); err != nil {
			return err
		}
	}
	e.row++
	e.wroteAny = true
	return nil
}

func (e *emitter) writeCell(cw CellWrite, row, col int, field string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	fail := func(err error) error {
		if field == "" {
			return fmt.Errorf("writing %s!%s: %w", e.sheet, cell, err)
		}
		return fmt.Errorf("writing %s!%s (field %q): %w", e.sheet, cell, field, err)
	}

	switch cw.Type {
	case TypeDate:
		if err := e.f.SetCellValue(e.sheet, cell, cw.Value); err != nil {
			return fail(err)
		}
		id, err := e.styles.numberFormat(cw.NumberFormat)
		if err != nil {
			return fail(err)
		}
		if err := e.f.SetCellStyle(e.sheet, cell, cell, id); err != nil {
			return fail(err)
		}
	case TypeNumber:
		if err := e.f.SetCellValue(e.sheet, cell, cw.Value); err != nil {
			return fail(err)
		}
		if cw.NumberFormat != "" {
			id, err := e.styles.numberFormat(cw.NumberFormat)
			if err != nil {
				return fail(err)
			}
			if err := e.f.SetCellStyle(e.sheet, cell, cell, id); err != nil {
				return fail(err)
			}
		}
	case TypeFormula:
		if err := e.f.SetCellFormula(e.sheet, cell, cw.Value.(string)); err != nil {
			return fail(err)
		}
	case TypeHyperlink:
		uri := cw.Value.(string)
		if err := e.f.SetCellStr(e.sheet, cell, uri); err != nil {
			return fail(err)
		}
		if err := e.f.SetCellHyperLink(e.sheet, cell, uri, "External"); err != nil {
			return fail(err)
		}
		id, err := e.styles.hyperlink()
		if err != nil {
			return fail(err)
		}
		if err := e.f.SetCellStyle(e.sheet, cell, cell, id); err != nil {
			return fail(err)
		}
	default:
		if err := e.f.SetCellStr(e.sheet, cell, cw.Value.(string)); err != nil {
			return fail(err)
		}
	}
	return nil
}

// dataRegion is the occupied region the finishing steps operate on: header
// plus data rows, title row excluded. In append mode it spans the
// pre-existing rows too. ok is false when nothing was written.
func (e *emitter) dataRegion() (region, bool) {
	if !e.wroteAny && !e.cfg.Append {
		return region{}, false
	}
	firstRow := e.layoutRow
	if e.cfg.Append {
		firstRow = e.cfg.StartRow
	}
	lastRow := e.row - 1
	if lastRow < firstRow {
		lastRow = firstRow
	}
	return region{
		sheet:     e.sheet,
		firstCol:  e.cfg.StartCol,
		firstRow:  firstRow,
		lastCol:   e.maxCol,
		lastRow:   lastRow,
		headerRow: firstRow,
	}, true
}
