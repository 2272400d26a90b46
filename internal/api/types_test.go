package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloatAcceptsNumberAndString(t *testing.T) {
	var v struct {
		Lat FlexFloat `json:"lat"`
		Lon FlexFloat `json:"lon"`
		H   FlexFloat `json:"h"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"lat":63.43,"lon":"10.39","h":null}`), &v))
	assert.InDelta(t, 63.43, float64(v.Lat), 1e-9)
	assert.InDelta(t, 10.39, float64(v.Lon), 1e-9)
	assert.Zero(t, float64(v.H))
}

func TestFlexFloatRejectsGarbage(t *testing.T) {
	var v FlexFloat
	assert.Error(t, json.Unmarshal([]byte(`"not-a-number"`), &v))
}

func TestStationPayloadLocationIsAlwaysNull(t *testing.T) {
	payload := StationPayload{
		StationCode: "S1",
		Name:        "Hillside",
		Sensors:     map[string]SensorPayload{},
	}

	data, err := json.Marshal(&payload)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"location":null`)
}

func TestStationConfigAbsentSectionsStayAbsent(t *testing.T) {
	var cfg StationConfig
	require.NoError(t, json.Unmarshal([]byte(`{"Water":{"warning_threshold":0.2}}`), &cfg))

	require.NotNil(t, cfg.Water)
	require.NotNil(t, cfg.Water.WarningThreshold)
	assert.InDelta(t, 0.2, *cfg.Water.WarningThreshold, 1e-9)
	assert.Nil(t, cfg.Water.CriticalThreshold)
	assert.Nil(t, cfg.RainAlerting)
	assert.Nil(t, cfg.GnssAlerting)
	assert.Nil(t, cfg.GnssOrigin)
}
