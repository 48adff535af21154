package xlsxport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTemplate = `
sheet: Sales
title: Quarterly Sales
columns: [Region, Rep, Amount]
no_conversion: [Rep]
locale: de-DE
named_range: SalesData
table:
  name: Sales
  style: TableStyleMedium9
auto_filter: true
freeze_top_row: true
bold_top_row: true
auto_size: true
max_column_width: 40
pivot_tables:
  - name: ByRegion
    rows: [Region]
    data:
      Amount: Sum
charts:
  - type: col
    title: Sales by Region
conditional_formats:
  - type: cell
    criteria: ">"
    value: "4800"
    fill: FFC7CE
`

func TestLoadTemplateFromString(t *testing.T) {
	tpl, err := LoadTemplateFromString(sampleTemplate)
	require.NoError(t, err)

	assert.Equal(t, "Sales", tpl.Sheet)
	assert.Equal(t, []string{"Region", "Rep", "Amount"}, tpl.Columns)
	require.Len(t, tpl.PivotTables, 1)
	assert.Equal(t, "ByRegion", tpl.PivotTables[0].Name)

	cfg := defaultConfig()
	for _, opt := range tpl.Options() {
		opt(cfg)
	}
	require.NoError(t, cfg.validate())
	assert.Equal(t, "Sales", cfg.SheetName)
	assert.Equal(t, "Quarterly Sales", cfg.Title)
	assert.Equal(t, []string{"Rep"}, cfg.NoConversion)
	assert.Equal(t, "de-DE", cfg.Locale)
	assert.Equal(t, "SalesData", cfg.NamedRange)
	assert.Equal(t, "Sales", cfg.TableName)
	assert.Equal(t, "TableStyleMedium9", cfg.TableStyle)
	assert.True(t, cfg.AutoFilter)
	assert.True(t, cfg.FreezeTopRow)
	assert.True(t, cfg.BoldTopRow)
	assert.True(t, cfg.AutoSize)
	assert.Equal(t, float64(40), cfg.MaxColWidth)
	require.Len(t, cfg.PivotTables, 1)
	require.Len(t, cfg.Charts, 1)
	require.Len(t, cfg.ConditionalFormats, 1)
	require.NotNil(t, cfg.ConditionalFormats[0].Style)
	assert.Equal(t, "FFC7CE", cfg.ConditionalFormats[0].Style.FillColor)
}

func TestTemplateValidation(t *testing.T) {
	_, err := LoadTemplateFromString("append: true\nclear_sheet: true\n")
	assert.ErrorIs(t, err, ErrConfigConflict)

	_, err = LoadTemplateFromString("pivot_tables:\n  - rows: [Region]\n")
	assert.ErrorContains(t, err, "name is required")

	_, err = LoadTemplateFromString("pivot_tables:\n  - name: P\n")
	assert.ErrorContains(t, err, "at least one row or column field")

	_, err = LoadTemplateFromString("charts:\n  - type: hologram\n")
	assert.ErrorContains(t, err, "unsupported type")

	_, err = LoadTemplateFromString("sheet: [not, a, string]\n")
	assert.Error(t, err)
}

func TestExport_FromTemplate(t *testing.T) {
	ctx := context.Background()
	tpl, err := LoadTemplateFromString(sampleTemplate)
	require.NoError(t, err)

	wb := NewWorkbook()
	defer wb.Close()
	require.NoError(t, wb.Export(ctx, salesRecords(), tpl.Options()...))

	f := wb.File()
	rows, err := f.GetRows("Sales")
	require.NoError(t, err)
	require.Len(t, rows, 5, "title, header, three data rows")
	assert.Equal(t, "Quarterly Sales", rows[0][0])

	tables, err := f.GetTables("Sales")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "Sales", tables[0].Name)
}
