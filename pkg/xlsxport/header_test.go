package xlsxport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestResolveHeader(t *testing.T) {
	t.Run("FirstRecordWins", func(t *testing.T) {
		cfg := defaultConfig()
		header := resolveHeader(testEmployee{}, cfg)
		assert.Equal(t, []string{"ID", "First Name", "HireDate"}, header)
	})

	t.Run("ColumnsPinOrder", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Columns = []string{"HireDate", "ID"}
		header := resolveHeader(testEmployee{}, cfg)
		assert.Equal(t, []string{"HireDate", "ID"}, header,
			"pinned columns bypass record shape entirely")
	})

	t.Run("DisplaySet", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.DisplaySet = true
		header := resolveHeader(testEmployee{}, cfg)
		assert.Equal(t, []string{"First Name", "HireDate"}, header)

		// Records without a field selection fall back to the full set.
		header = resolveHeader(map[string]interface{}{"a": 1}, cfg)
		assert.Equal(t, []string{"a"}, header)
	})

	t.Run("Exclusions", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Exclude = []string{"ID"}
		header := resolveHeader(testEmployee{}, cfg)
		assert.Equal(t, []string{"First Name", "HireDate"}, header)

		cfg.Columns = []string{"ID", "HireDate"}
		header = resolveHeader(testEmployee{}, cfg)
		assert.Equal(t, []string{"HireDate"}, header, "exclusions apply to pinned columns too")
	})
}

func TestReadHeaderRow(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellStr("Sheet1", "B2", "Id"))
	require.NoError(t, f.SetCellStr("Sheet1", "C2", "Name"))
	require.NoError(t, f.SetCellStr("Sheet1", "E2", "Orphan"))

	header, err := readHeaderRow(f, "Sheet1", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "Name"}, header, "header stops at the first empty cell")

	_, err = readHeaderRow(f, "Sheet1", 9, 1)
	assert.Error(t, err, "appending needs an existing header row")

	_, err = readHeaderRow(f, "Sheet1", 2, 7)
	assert.Error(t, err)
}
