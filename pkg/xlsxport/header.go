package xlsxport

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// resolveHeader derives the ordered field set for one export call from the
// first record. The result is fixed for the whole call: later records are
// projected onto it, missing fields become blank cells and extra fields are
// dropped.
func resolveHeader(first interface{}, cfg *ExportConfig) []string {
	if len(cfg.Columns) > 0 {
		return applyExclusions(cfg.Columns, cfg.Exclude)
	}
	if cfg.DisplaySet {
		if p, ok := first.(FieldProvider); ok {
			return applyExclusions(p.ExportFields(), cfg.Exclude)
		}
	}
	return applyExclusions(fieldNames(first), cfg.Exclude)
}

func applyExclusions(names, exclude []string) []string {
	if len(exclude) == 0 {
		return names
	}
	drop := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		drop[e] = struct{}{}
	}
	kept := names[:0:0]
	for _, n := range names {
		if _, ok := drop[n]; !ok {
			kept = append(kept, n)
		}
	}
	return kept
}

// readHeaderRow reads an existing sheet's header back for append mode. The
// incoming records' shape is deliberately not consulted; they are projected
// onto whatever the sheet already has.
func readHeaderRow(f *excelize.File, sheet string, headerRow, startCol int) ([]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading header row of %s: %w", sheet, err)
	}
	if headerRow > len(rows) {
		return nil, fmt.Errorf("sheet %s has no header at row %d to append to", sheet, headerRow)
	}
	row := rows[headerRow-1]
	if startCol > len(row) {
		return nil, fmt.Errorf("sheet %s has no header at row %d to append to", sheet, headerRow)
	}
	header := make([]string, 0, len(row)-startCol+1)
	for _, cell := range row[startCol-1:] {
		if cell == "" {
			break
		}
		header = append(header, cell)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("sheet %s has an empty header at row %d", sheet, headerRow)
	}
	return header, nil
}
