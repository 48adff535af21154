package source

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHitToRecord(t *testing.T) {
	raw := json.RawMessage(`{"id": 9007199254740993, "name": "Georgi", "score": 4.5}`)
	rec, err := hitToRecord(raw)
	require.NoError(t, err)

	assert.Equal(t, "Georgi", rec["name"])
	// Large integer identifiers must not round through float64.
	assert.Equal(t, json.Number("9007199254740993"), rec["id"])
	assert.Equal(t, json.Number("4.5"), rec["score"])

	_, err = hitToRecord(json.RawMessage(`[1, 2]`))
	assert.Error(t, err)
}

func TestPropertiesToRecord(t *testing.T) {
	props := datastore.PropertyList{
		{Name: "Name", Value: "Georgi"},
		{Name: "Age", Value: int64(42)},
		{Name: "Address", Value: &datastore.Entity{
			Properties: []datastore.Property{
				{Name: "City", Value: "Sofia"},
				{Name: "Zip", Value: "1000"},
			},
		}},
	}

	rec := propertiesToRecord(props)
	assert.Equal(t, "Georgi", rec["Name"])
	assert.Equal(t, int64(42), rec["Age"])
	assert.Equal(t, "Sofia", rec["Address.City"])
	assert.Equal(t, "1000", rec["Address.Zip"])
}

func TestNormalizeSQLValue(t *testing.T) {
	assert.Equal(t, "text", normalizeSQLValue([]byte("text")))
	assert.Equal(t, int64(5), normalizeSQLValue(int64(5)))
	assert.Nil(t, normalizeSQLValue(nil))
}
