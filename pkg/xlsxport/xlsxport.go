// Package xlsxport exports record streams to spreadsheet workbooks: it
// classifies each value into a cell type (date, number, text, formula,
// hyperlink), lays out titles, headers and rows, and applies finishing steps
// such as named ranges, tables, pivot tables, charts and protection.
//
// The whole export is a single synchronous pass over the input; a Workbook
// and its cursor state must not be shared across concurrent exports.
package xlsxport

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/xlsxport/internal/logger"
)

// Workbook wraps the underlying file handle so several exports can target
// the same document before it is saved once.
type Workbook struct {
	f    *excelize.File
	path string
}

// Open opens an existing workbook or creates a new one for the given path.
// The file on disk is not touched until Save.
func Open(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err == nil {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening workbook %s: %w", path, err)
		}
		return &Workbook{f: f, path: path}, nil
	}
	return &Workbook{f: excelize.NewFile(), path: path}, nil
}

// NewWorkbook creates an in-memory workbook with no backing path; use
// WriteTo to emit it.
func NewWorkbook() *Workbook {
	return &Workbook{f: excelize.NewFile()}
}

// File exposes the underlying handle for callers that need collaborator
// operations this package does not wrap.
func (w *Workbook) File() *excelize.File { return w.f }

// Save writes the workbook to its path.
func (w *Workbook) Save() error {
	if w.path == "" {
		return fmt.Errorf("workbook has no backing path; use WriteTo")
	}
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}

// WriteTo streams the workbook to a writer.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	return w.f.WriteTo(out)
}

// Close releases the handle without saving.
func (w *Workbook) Close() error { return w.f.Close() }

// GetOrCreateSheet ensures the named worksheet exists, optionally dropping
// any existing content first.
func (w *Workbook) GetOrCreateSheet(name string, clearExisting bool) error {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("looking up sheet %s: %w", name, err)
	}
	if idx < 0 {
		if _, err := w.f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
		return nil
	}
	if clearExisting {
		return w.clearSheet(name)
	}
	return nil
}

// clearSheet recreates a sheet in place. The format cannot delete the last
// sheet of a workbook, so a scratch sheet bridges the swap.
func (w *Workbook) clearSheet(name string) error {
	const scratch = "__xlsxport_scratch__"
	if _, err := w.f.NewSheet(scratch); err != nil {
		return fmt.Errorf("clearing sheet %s: %w", name, err)
	}
	if err := w.f.DeleteSheet(name); err != nil {
		return fmt.Errorf("clearing sheet %s: %w", name, err)
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("clearing sheet %s: %w", name, err)
	}
	if err := w.f.DeleteSheet(scratch); err != nil {
		return fmt.Errorf("clearing sheet %s: %w", name, err)
	}
	return nil
}

// Export runs one export invocation against this workbook. data may be a
// slice of records (structs or maps), a slice of scalars, a single value, or
// an Iterator for streaming sources. Fatal errors leave the workbook
// unsaved; finishing-step failures other than password protection degrade to
// warnings.
func (w *Workbook) Export(ctx context.Context, data interface{}, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	existed, err := w.f.GetSheetIndex(cfg.SheetName)
	if err != nil {
		return fmt.Errorf("looking up sheet %s: %w", cfg.SheetName, err)
	}
	if err := w.GetOrCreateSheet(cfg.SheetName, cfg.ClearSheet && existed >= 0); err != nil {
		return err
	}
	if cfg.Append {
		// Appending to a sheet that has nothing yet is a fresh export.
		rows, err := w.f.GetRows(cfg.SheetName)
		if err != nil {
			return fmt.Errorf("reading sheet %s: %w", cfg.SheetName, err)
		}
		if len(rows) < cfg.StartRow {
			cfg.Append = false
		}
	}

	em := newEmitter(w.f, cfg.SheetName, cfg)
	if err := em.prepare(ctx); err != nil {
		return err
	}

	it := recordsOf(data)
	for {
		rec, ok, err := it.Next(ctx)
		if err != nil {
			return fmt.Errorf("reading records for sheet %s: %w", cfg.SheetName, err)
		}
		if !ok {
			break
		}
		if err := em.emit(ctx, rec); err != nil {
			return err
		}
	}

	rgn, ok := em.dataRegion()
	if !ok {
		if !em.hasTitle {
			return ErrNoRecords
		}
		logger.WarnLog(ctx, "sheet %s: no records, only title written", cfg.SheetName)
		return nil
	}

	if err := runPostProcess(ctx, w.f, cfg, rgn); err != nil {
		return err
	}

	if cfg.MoveToStart {
		if list := w.f.GetSheetList(); len(list) > 0 && list[0] != cfg.SheetName {
			if err := w.f.MoveSheet(cfg.SheetName, list[0]); err != nil {
				logger.WarnLog(ctx, "sheet %s: move to front failed: %v", cfg.SheetName, err)
			}
		}
	}
	if idx, err := w.f.GetSheetIndex(cfg.SheetName); err == nil && idx >= 0 && !cfg.HideSheet {
		w.f.SetActiveSheet(idx)
	}
	return nil
}

// Export is the one-shot form: open or create the workbook at path, run a
// single export, and save. Nothing is saved when the export fails, so a
// fatal error never leaves a partially finished document behind.
func Export(ctx context.Context, data interface{}, path string, opts ...Option) error {
	w, err := Open(path)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Export(ctx, data, opts...); err != nil {
		return fmt.Errorf("exporting to %s: %w", path, err)
	}
	w.dropUnusedDefaultSheet()
	return w.Save()
}

// dropUnusedDefaultSheet removes the format's default Sheet1 when an export
// targeted a different sheet and left it empty.
func (w *Workbook) dropUnusedDefaultSheet() {
	const def = "Sheet1"
	if len(w.f.GetSheetList()) < 2 {
		return
	}
	rows, err := w.f.GetRows(def)
	if err != nil || len(rows) > 0 {
		return
	}
	_ = w.f.DeleteSheet(def)
}
