package xlsxport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_Append(t *testing.T) {
	ctx := context.Background()

	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, []map[string]interface{}{
		{"Id": 1, "Name": "Georgi"},
	}, WithColumns("Id", "Name")))

	// The appended records are projected onto the sheet's existing header:
	// the Extra field has no column and is dropped, the record without Name
	// leaves a blank cell.
	require.NoError(t, wb.Export(ctx, []map[string]interface{}{
		{"Id": 2, "Name": "Bezalel", "Extra": "dropped"},
		{"Id": 3},
	}, WithAppend()))

	rows, err := wb.File().GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Id", "Name"}, rows[0])
	assert.Equal(t, "2", rows[2][0])
	assert.Equal(t, "Bezalel", rows[2][1])
	assert.Equal(t, []string{"3"}, rows[3])
	for _, row := range rows {
		assert.LessOrEqual(t, len(row), 2, "no third column may appear")
	}
}

func TestExport_AppendExcludedColumnsKeepPosition(t *testing.T) {
	ctx := context.Background()

	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, []map[string]interface{}{
		{"Id": 1, "Skip": "s1", "Name": "Georgi"},
	}, WithColumns("Id", "Skip", "Name")))

	require.NoError(t, wb.Export(ctx, []map[string]interface{}{
		{"Id": 2, "Skip": "s2", "Name": "Bezalel"},
	}, WithAppend(), WithExclude("Skip")))

	f := wb.File()
	name, err := f.GetCellValue("Sheet1", "C3")
	require.NoError(t, err)
	assert.Equal(t, "Bezalel", name, "fields after an excluded column keep their position")

	skipped, err := f.GetCellValue("Sheet1", "B3")
	require.NoError(t, err)
	assert.Empty(t, skipped, "the excluded column stays blank")
}

func TestExport_AppendTitleIgnored(t *testing.T) {
	ctx := context.Background()

	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, []map[string]interface{}{{"Id": 1}}))
	require.NoError(t, wb.Export(ctx, []map[string]interface{}{{"Id": 2}},
		WithAppend(), WithTitle("ignored")))

	rows, err := wb.File().GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Id", rows[0][0], "header row untouched, no title inserted")
}

func TestExport_AppendToEmptySheetIsFreshExport(t *testing.T) {
	ctx := context.Background()

	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, []map[string]interface{}{{"Id": 1}}, WithAppend()))

	rows, err := wb.File().GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Id", rows[0][0], "a header is derived when there is nothing to append to")
}

func TestExport_ClearSheet(t *testing.T) {
	ctx := context.Background()

	wb := NewWorkbook()
	defer wb.Close()

	require.NoError(t, wb.Export(ctx, []map[string]interface{}{{"Id": 1}, {"Id": 2}, {"Id": 3}}))
	require.NoError(t, wb.Export(ctx, []map[string]interface{}{{"Id": 9}}, WithClearSheet()))

	rows, err := wb.File().GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 2, "previous content is gone")
	assert.Equal(t, "9", rows[1][0])
}
