package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slopewatch/slopewatch-go/internal/api"
)

func sampleRecords() []api.Record {
	return []api.Record{
		{TableKey: "stations", "id": float64(1), "station_code": "S1", "name": "Hillside North"},
		{TableKey: "stations", "id": float64(2), "station_code": "S2", "name": "Valley Floor"},
		{TableKey: "devices", "id": float64(1), "device_type": "gnss", "mqtt_topic": "stations/S1/gnss"},
		{TableKey: "devices", "id": float64(2), "device_type": "rain", "mqtt_topic": "stations/S2/rain"},
		{TableKey: "alerts", "id": float64(1), "severity": "critical", "message": "GNSS displacement"},
	}
}

func TestFilterByTable(t *testing.T) {
	out := Filter(sampleRecords(), "devices", "", 0)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.Equal(t, "devices", r[TableKey])
	}
}

func TestFilterSearchIsCaseInsensitiveAndCrossField(t *testing.T) {
	// "gnss" appears in a device_type, a topic and an alert message.
	out := Filter(sampleRecords(), "", "GNSS", 0)
	assert.Len(t, out, 2)

	out = Filter(sampleRecords(), "", "hillside", 0)
	require.Len(t, out, 1)
	assert.Equal(t, "Hillside North", out[0]["name"])
}

func TestFilterSearchMatchesFieldNames(t *testing.T) {
	out := Filter(sampleRecords(), "", "mqtt_topic", 0)
	assert.Len(t, out, 2)
}

func TestFilterCombinesTableAndSearch(t *testing.T) {
	out := Filter(sampleRecords(), "devices", "gnss", 0)
	require.Len(t, out, 1)
	assert.Equal(t, "gnss", out[0]["device_type"])
}

func TestFilterLimitTruncates(t *testing.T) {
	out := Filter(sampleRecords(), "", "", 3)
	assert.Len(t, out, 3)

	out = Filter(sampleRecords(), "", "", 0)
	assert.Len(t, out, 5, "zero means unlimited")
}

func TestFilterIsPureAndIdempotent(t *testing.T) {
	records := sampleRecords()
	once := Filter(records, "stations", "valley", 0)
	twice := Filter(once, "stations", "valley", 0)
	assert.Equal(t, once, twice)
	assert.Len(t, records, 5, "input slice is untouched")
}

func TestFilterNoMatches(t *testing.T) {
	out := Filter(sampleRecords(), "", "nonexistent-term", 0)
	assert.Empty(t, out)
}
