package xlsxport

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesRecords() []map[string]interface{} {
	return []map[string]interface{}{
		{"Region": "East", "Rep": "Alice", "Amount": 5000.0},
		{"Region": "West", "Rep": "Bob", "Amount": 4500.0},
		{"Region": "East", "Rep": "Carol", "Amount": 3200.0},
	}
}

func TestExport_PivotTable(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	def := NewPivotTableDef("SalesPivot", []string{"Region"}, map[string]string{"Amount": "Sum"})
	require.NoError(t, wb.Export(ctx, salesRecords(),
		WithColumns("Region", "Rep", "Amount"),
		WithPivotTable(def),
	))

	f := wb.File()
	idx, err := f.GetSheetIndex("SalesPivot")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, idx, 0, "pivot lands on its own sheet named after the definition")

	pivots, err := f.GetPivotTables("SalesPivot")
	require.NoError(t, err)
	require.Len(t, pivots, 1)
	assert.Equal(t, "SalesPivot", pivots[0].Name)
	assert.Equal(t, "Sheet1!A1:C4", pivots[0].DataRange)
}

func TestExport_PivotTableIdempotent(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	def := NewPivotTableDef("SalesPivot", []string{"Region"}, map[string]string{"Amount": "Sum"})
	opts := []Option{WithColumns("Region", "Rep", "Amount"), WithPivotTable(def), WithClearSheet()}

	require.NoError(t, wb.Export(ctx, salesRecords(), opts...))
	require.NoError(t, wb.Export(ctx, salesRecords(), opts...))

	pivots, err := wb.File().GetPivotTables("SalesPivot")
	require.NoError(t, err)
	assert.Len(t, pivots, 1, "re-export replaces the pivot instead of stacking a second one")
}

func TestExport_PivotTableFilters(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	def := NewPivotTableDef("ByRep", []string{"Rep"}, map[string]string{"Amount": "Average"}, "Region").
		WithColumnFields("Region")
	require.NoError(t, wb.Export(ctx, salesRecords(),
		WithColumns("Region", "Rep", "Amount"),
		WithPivotTable(def),
	))

	pivots, err := wb.File().GetPivotTables("ByRep")
	require.NoError(t, err)
	require.Len(t, pivots, 1)
	require.Len(t, pivots[0].Data, 1)
	assert.True(t, strings.EqualFold("Average", pivots[0].Data[0].Subtotal))
	assert.Equal(t, "Average of Amount", pivots[0].Data[0].Name)
}

func TestPivotDataFields_Deterministic(t *testing.T) {
	fields := pivotDataFields(map[string]string{"Zeta": "", "Alpha": "Count"})
	require.Len(t, fields, 2)
	assert.Equal(t, "Alpha", fields[0].Data)
	assert.Equal(t, "Count", fields[0].Subtotal)
	assert.Equal(t, "Zeta", fields[1].Data)
	assert.Equal(t, "Sum", fields[1].Subtotal, "missing aggregation defaults to Sum")
}

func TestExport_Chart(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, salesRecords(),
		WithColumns("Region", "Rep", "Amount"),
		WithChart(&ChartDef{Type: "col", Title: "Sales by Region"}),
	))
}

func TestExport_ChartBadTypeIsNonFatal(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	// Finishing steps degrade to warnings; the data itself must survive.
	require.NoError(t, wb.Export(ctx, salesRecords(),
		WithColumns("Region", "Rep", "Amount"),
		WithChart(&ChartDef{Type: "hologram"}),
	))

	rows, err := wb.File().GetRows("Sheet1")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}
