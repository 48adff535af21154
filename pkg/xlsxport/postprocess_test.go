package xlsxport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecords() []map[string]interface{} {
	return []map[string]interface{}{
		{"Region": "East", "Amount": 5000.0},
		{"Region": "West", "Amount": 4500.0},
	}
}

func sampleOptions(extra ...Option) []Option {
	return append([]Option{WithColumns("Region", "Amount")}, extra...)
}

func TestExport_NamedRange(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, sampleRecords(), sampleOptions(WithNamedRange("SalesData"))...))

	names := wb.File().GetDefinedName()
	require.Len(t, names, 1)
	assert.Equal(t, "SalesData", names[0].Name)
	assert.Equal(t, "Sheet1!$A$1:$B$3", names[0].RefersTo)

	// A second export with more rows re-points the same name instead of
	// erroring.
	more := append(sampleRecords(), map[string]interface{}{"Region": "North", "Amount": 100.0})
	require.NoError(t, wb.Export(ctx, more, sampleOptions(WithNamedRange("SalesData"), WithClearSheet())...))

	names = wb.File().GetDefinedName()
	require.Len(t, names, 1)
	assert.Equal(t, "Sheet1!$A$1:$B$4", names[0].RefersTo)
}

func TestExport_Table(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, sampleRecords(), sampleOptions(WithTable("Sales", ""))...))

	tables, err := wb.File().GetTables("Sheet1")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "Sales", tables[0].Name)
	assert.Equal(t, "TableStyleMedium2", tables[0].StyleName)

	require.NoError(t, wb.Export(ctx, sampleRecords(), sampleOptions(WithTable("Sales", "TableStyleLight1"), WithClearSheet())...))
	tables, err = wb.File().GetTables("Sheet1")
	require.NoError(t, err)
	require.Len(t, tables, 1, "same-named table is replaced, not duplicated")
	assert.Equal(t, "TableStyleLight1", tables[0].StyleName)
}

func TestExport_FreezeAndFilter(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, sampleRecords(),
		sampleOptions(WithAutoFilter(), WithFreezeTopRow(), WithBoldTopRow())...))

	panes, err := wb.File().GetPanes("Sheet1")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
	assert.Equal(t, 0, panes.XSplit)
}

func TestExport_FreezePaneCell(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, sampleRecords(), sampleOptions(WithFreezePane("B2"))...))

	panes, err := wb.File().GetPanes("Sheet1")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.XSplit)
	assert.Equal(t, 1, panes.YSplit)
}

func TestExport_AutoSize(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	data := []map[string]interface{}{
		{"Name": "a very long product name that needs room", "Qty": 1},
	}
	require.NoError(t, wb.Export(ctx, data,
		WithColumns("Name", "Qty"), WithAutoSize(), WithMaxColumnWidth(30)))

	width, err := wb.File().GetColWidth("Sheet1", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(30), width, "width is capped at the configured maximum")

	width, err = wb.File().GetColWidth("Sheet1", "B")
	require.NoError(t, err)
	assert.Equal(t, float64(5), width, "short columns fit their longest value plus padding")
}

func TestExport_HideSheet(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, sampleRecords(), sampleOptions(WithHideSheet(), WithSheetName("Raw"))...))

	visible, err := wb.File().GetSheetVisible("Raw")
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestExport_Password(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, sampleRecords(), sampleOptions(WithPassword("s3cret"))...))
}

func TestExport_ConditionalFormat(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, sampleRecords(), sampleOptions(
		WithConditionalFormat(ConditionalFormat{
			Type:     "cell",
			Criteria: ">",
			Value:    "4800",
			Style:    &CellStyle{FillColor: "FFC7CE", FontColor: "9C0006"},
		}),
	)...))

	formats, err := wb.File().GetConditionalFormats("Sheet1")
	require.NoError(t, err)
	assert.NotEmpty(t, formats)
}

func TestExport_CellStyler(t *testing.T) {
	ctx := context.Background()
	wb := NewWorkbook()
	defer wb.Close()

	var gotSheet, gotRange string
	require.NoError(t, wb.Export(ctx, sampleRecords(), sampleOptions(
		WithCellStyler(func(f *excelize.File, sheet, dataRange string) error {
			gotSheet, gotRange = sheet, dataRange
			return nil
		}),
	)...))

	assert.Equal(t, "Sheet1", gotSheet)
	assert.Equal(t, "A1:B3", gotRange)
}

func TestSanitizeArtifactName(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "Sales_2024", sanitizeArtifactName(ctx, "Sales 2024"))
	assert.Equal(t, "_1Report", sanitizeArtifactName(ctx, "1Report"))
	assert.Equal(t, "Clean.Name_1", sanitizeArtifactName(ctx, "Clean.Name_1"))
}
