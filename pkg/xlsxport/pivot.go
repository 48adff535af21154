package xlsxport

import (
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/xlsxport/internal/logger"
)

// PivotTableDef is a configuration fragment describing one pivot table. It is
// produced by NewPivotTableDef (or a YAML template) and consumed by export.
type PivotTableDef struct {
	Name        string
	TargetSheet string            // sheet the pivot lands on; defaults to Name
	SourceRange string            // qualified range; defaults to the export's data range
	Rows        []string          // row fields, outer to inner
	Columns     []string          // column fields
	Filter      []string          // page filter fields
	Data        map[string]string // data field -> aggregation ("Sum", "Count", "Average", ...)
	GrandTotals bool
}

// NewPivotTableDef builds a pivot definition over the exported range. Filters
// are optional trailing arguments.
func NewPivotTableDef(name string, rows []string, data map[string]string, filter ...string) *PivotTableDef {
	return &PivotTableDef{
		Name:        name,
		Rows:        rows,
		Data:        data,
		Filter:      filter,
		GrandTotals: true,
	}
}

// WithSource points the definition at an explicit qualified range instead of
// the export's own data range.
func (d *PivotTableDef) WithSource(rng string) *PivotTableDef {
	d.SourceRange = rng
	return d
}

// WithColumnFields adds column fields to the definition.
func (d *PivotTableDef) WithColumnFields(names ...string) *PivotTableDef {
	d.Columns = append(d.Columns, names...)
	return d
}

// defaultPivotAnchor leaves room above the pivot body for its page filters.
const defaultPivotAnchor = "A3:P20"

// applyPivotTable creates the pivot, or re-points an existing one of the same
// name so repeated exports stay idempotent. The collaborator has no in-place
// mutate operation, so re-pointing is a delete-by-name followed by a re-add
// at the previous placement.
func applyPivotTable(ctx context.Context, f *excelize.File, def *PivotTableDef, sourceRange string) error {
	name := sanitizeArtifactName(ctx, def.Name)
	if name == "" {
		return fmt.Errorf("pivot table needs a name")
	}
	target := def.TargetSheet
	if target == "" {
		target = name
	}
	if idx, _ := f.GetSheetIndex(target); idx < 0 {
		if _, err := f.NewSheet(target); err != nil {
			return fmt.Errorf("creating pivot sheet %s: %w", target, err)
		}
	}

	src := def.SourceRange
	if src == "" {
		src = sourceRange
	}

	placement := target + "!" + defaultPivotAnchor
	if existing, err := f.GetPivotTables(target); err == nil {
		for _, p := range existing {
			if p.Name != name {
				continue
			}
			// Keep the placement (and therefore any manual formatting
			// around it) and swap the source.
			placement = p.PivotTableRange
			if err := f.DeletePivotTable(target, name); err != nil {
				return fmt.Errorf("replacing pivot table %s: %w", name, err)
			}
			break
		}
	}

	opts := &excelize.PivotTableOptions{
		Name:            name,
		DataRange:       src,
		PivotTableRange: placement,
		Rows:            pivotFields(def.Rows, true),
		Columns:         pivotFields(def.Columns, true),
		Filter:          pivotFields(def.Filter, false),
		Data:            pivotDataFields(def.Data),
		RowGrandTotals:  def.GrandTotals,
		ColGrandTotals:  def.GrandTotals,
		ShowRowHeaders:  true,
		ShowColHeaders:  true,
		ShowDrill:       true,
	}
	if err := f.AddPivotTable(opts); err != nil {
		return fmt.Errorf("adding pivot table %s on %s: %w", name, target, err)
	}
	logger.DebugLog(ctx, "pivot table %s built on sheet %s from %s", name, target, src)
	return nil
}

func pivotFields(names []string, subtotal bool) []excelize.PivotTableField {
	fields := make([]excelize.PivotTableField, 0, len(names))
	for _, n := range names {
		fields = append(fields, excelize.PivotTableField{Data: n, DefaultSubtotal: subtotal})
	}
	return fields
}

func pivotDataFields(data map[string]string) []excelize.PivotTableField {
	names := make([]string, 0, len(data))
	for field := range data {
		names = append(names, field)
	}
	sort.Strings(names)

	fields := make([]excelize.PivotTableField, 0, len(names))
	for _, field := range names {
		fn := data[field]
		if fn == "" {
			fn = "Sum"
		}
		fields = append(fields, excelize.PivotTableField{
			Data:     field,
			Subtotal: fn,
			Name:     fn + " of " + field,
		})
	}
	return fields
}
