package console

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slopewatch/slopewatch-go/internal/api"
)

func TestOpenStationWizardStartsWithDefaults(t *testing.T) {
	h := newTestHarness(t)
	h.ctrl.OpenStationWizard()

	assert.True(t, h.ctrl.WizardOpen())
	assert.False(t, h.ctrl.WizardEditing())
	assert.Equal(t, 1, h.ctrl.WizardStep())

	form := h.ctrl.WizardForm()
	assert.InDelta(t, DefaultWaterWarning, form.Thresholds.WaterWarning, 1e-9)
	assert.InDelta(t, DefaultRainCritical, form.Thresholds.RainCritical, 1e-9)
	assert.Equal(t, DefaultGnssConfirmSteps, form.Thresholds.GnssConfirmSteps)
	assert.False(t, form.Origin.Set)
	for _, typ := range SensorTypes {
		assert.False(t, form.Sensors[typ].Enabled)
	}
}

func TestWizardStepsClampAndButtonsFollow(t *testing.T) {
	h := newTestHarness(t)
	h.ctrl.OpenStationWizard()

	h.ctrl.WizardPrev()
	assert.Equal(t, 1, h.ctrl.WizardStep(), "cannot step below 1")
	assert.Equal(t, WizardButtons{Prev: false, Next: true, Save: false}, ButtonsForStep(1))

	h.ctrl.WizardNext()
	assert.Equal(t, 2, h.ctrl.WizardStep())
	assert.Equal(t, WizardButtons{Prev: true, Next: true, Save: false}, ButtonsForStep(2))

	h.ctrl.WizardNext()
	h.ctrl.WizardNext()
	assert.Equal(t, 3, h.ctrl.WizardStep(), "cannot step above 3")
	assert.Equal(t, WizardButtons{Prev: true, Next: false, Save: true}, ButtonsForStep(3))
}

func TestWizardStepsNeverValidate(t *testing.T) {
	h := newTestHarness(t)
	h.ctrl.OpenStationWizard()

	// An entirely blank form may walk to the last step and back.
	h.ctrl.WizardNext()
	h.ctrl.WizardNext()
	h.ctrl.WizardPrev()
	assert.Equal(t, 2, h.ctrl.WizardStep())
	assert.False(t, h.notifier.HasLevel("warning"))
	assert.False(t, h.notifier.HasLevel("error"))
}

func TestEditStationMergesConfigAndDevices(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/stations/10/config", http.StatusOK,
		`{"id":10,"station_code":"S10","name":"Hillside","location":null,
		  "config":{"Water":{"warning_threshold":0.2},
		            "GnssAlerting":{"gnss_max_hdop":2.5,"gnss_confirm_steps":5},
		            "gnss_origin":{"lat":63.43,"lon":10.39,"h":45.2}}}`)
	mockJSON(http.MethodGet, "/api/admin/stations/10/devices", http.StatusOK,
		`[{"id":1,"device_code":"D1","name":"gnss rover","station_id":10,"device_type":"gnss","mqtt_topic":"stations/S10/gnss","is_active":true},
		  {"id":2,"device_code":"D2","name":"rain gauge","station_id":10,"device_type":"rain","mqtt_topic":"stations/S10/rain","is_active":true}]`)

	require.NoError(t, h.ctrl.EditStation(context.Background(), 10))
	require.True(t, h.ctrl.WizardOpen())
	assert.True(t, h.ctrl.WizardEditing())

	form := h.ctrl.WizardForm()
	assert.Equal(t, "S10", form.StationCode)
	assert.Equal(t, "Hillside", form.Name)

	// Stored values win over defaults, field by field.
	assert.InDelta(t, 0.2, form.Thresholds.WaterWarning, 1e-9)
	assert.InDelta(t, DefaultWaterCritical, form.Thresholds.WaterCritical, 1e-9)
	assert.InDelta(t, 2.5, form.Thresholds.GnssMaxHDOP, 1e-9)
	assert.Equal(t, 5, form.Thresholds.GnssConfirmSteps)
	assert.Equal(t, DefaultGnssSafeStreak, form.Thresholds.GnssSafeStreak)

	// RainAlerting was absent entirely: every rain field gets its default.
	assert.InDelta(t, DefaultRainWatch, form.Thresholds.RainWatch, 1e-9)
	assert.InDelta(t, DefaultRainWarning, form.Thresholds.RainWarning, 1e-9)
	assert.InDelta(t, DefaultRainCritical, form.Thresholds.RainCritical, 1e-9)

	assert.Equal(t, SensorBinding{Enabled: true, Topic: "stations/S10/gnss"}, form.Sensors[SensorGNSS])
	assert.Equal(t, SensorBinding{Enabled: true, Topic: "stations/S10/rain"}, form.Sensors[SensorRain])
	assert.False(t, form.Sensors[SensorWater].Enabled)

	assert.True(t, form.Origin.Set)
	assert.InDelta(t, 63.43, form.Origin.Lat, 1e-9)
}

func TestEditStationFailsWholeWhenEitherFetchFails(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/stations/10/config", http.StatusOK,
		`{"id":10,"station_code":"S10","name":"Hillside","location":null,"config":null}`)
	mockJSON(http.MethodGet, "/api/admin/stations/10/devices", http.StatusInternalServerError,
		`{"detail":"boom"}`)

	require.Error(t, h.ctrl.EditStation(context.Background(), 10))
	assert.False(t, h.ctrl.WizardOpen(), "a half-loaded form must never open")
	assert.True(t, h.notifier.HasLevel("error"))
}

func TestBuildStationPayloadShapes(t *testing.T) {
	form := StationForm{
		StationCode: "S1",
		Name:        "Hillside",
		Sensors: map[SensorType]SensorBinding{
			SensorGNSS:  {Enabled: true, Topic: "stations/S1/gnss"},
			SensorRain:  {Enabled: true, Topic: "  "},
			SensorWater: {Enabled: false, Topic: "stations/S1/water"},
			SensorIMU:   {Enabled: true, Topic: "stations/S1/imu"},
		},
		Thresholds: defaultThresholds(),
		Origin:     OriginForm{Set: true, Lat: 63.43, Lon: 10.39, H: 45.2},
	}

	payload := buildStationPayload(form)

	// Disabled or blank-topic sensors are dropped from the payload.
	require.Len(t, payload.Sensors, 2)
	assert.Contains(t, payload.Sensors, "gnss")
	assert.Contains(t, payload.Sensors, "imu")

	// Only the GNSS binding carries the origin coordinate.
	gnss := payload.Sensors["gnss"]
	require.NotNil(t, gnss.Lat)
	assert.InDelta(t, 63.43, float64(*gnss.Lat), 1e-9)
	assert.Nil(t, payload.Sensors["imu"].Lat)

	assert.Nil(t, payload.Location)
	assert.InDelta(t, 63.43, float64(payload.Config.GnssOrigin.Lat), 1e-9)
}

func TestBuildStationPayloadWithoutOriginOmitsCoordinates(t *testing.T) {
	form := StationForm{
		StationCode: "S1",
		Name:        "Hillside",
		Sensors: map[SensorType]SensorBinding{
			SensorGNSS: {Enabled: true, Topic: "stations/S1/gnss"},
		},
		Thresholds: defaultThresholds(),
	}

	payload := buildStationPayload(form)
	gnss := payload.Sensors["gnss"]
	assert.Nil(t, gnss.Lat)
	assert.Nil(t, gnss.Lon)
	assert.Nil(t, gnss.H)
}

func TestSaveRoundTripPreservesStoredThresholds(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/projects/5/stations", http.StatusOK, `[]`)
	mockJSON(http.MethodGet, "/api/admin/stations/10/config", http.StatusOK,
		`{"id":10,"station_code":"S10","name":"Hillside","location":null,
		  "config":{"Water":{"warning_threshold":0.22,"critical_threshold":0.44}}}`)
	mockJSON(http.MethodGet, "/api/admin/stations/10/devices", http.StatusOK, `[]`)

	var saved api.StationPayload
	httpmock.RegisterResponder(http.MethodPut, testBackend+"/api/admin/stations/10/config",
		func(req *http.Request) (*http.Response, error) {
			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &saved))
			return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
		})

	require.NoError(t, h.ctrl.LoadStations(context.Background(), 5))
	require.NoError(t, h.ctrl.EditStation(context.Background(), 10))
	require.NoError(t, h.ctrl.SaveStation(context.Background()))

	// Stored values ride through untouched; absent ones became defaults.
	assert.InDelta(t, 0.22, saved.Config.Water.WarningThreshold, 1e-9)
	assert.InDelta(t, 0.44, saved.Config.Water.CriticalThreshold, 1e-9)
	assert.InDelta(t, DefaultRainWatch, saved.Config.RainAlerting.WatchThreshold, 1e-9)
	assert.False(t, h.ctrl.WizardOpen(), "wizard closes after a successful save")
}

func TestSaveStationCreatePostsUnderProject(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/projects/5/stations", http.StatusOK, `[]`)
	mockJSON(http.MethodPost, "/api/admin/projects/5/stations", http.StatusOK,
		`{"id":11,"station_code":"S11","name":"New","status":"active","project_id":5}`)

	require.NoError(t, h.ctrl.LoadStations(context.Background(), 5))
	h.ctrl.OpenStationWizard()
	require.NoError(t, h.ctrl.UpdateWizardForm(func(f *StationForm) {
		f.StationCode = "S11"
		f.Name = "New"
	}))

	require.NoError(t, h.ctrl.SaveStation(context.Background()))

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["POST "+testBackend+"/api/admin/projects/5/stations"])
	assert.False(t, h.ctrl.WizardOpen())
}

func TestSaveStationFailureKeepsWizardOpen(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/projects/5/stations", http.StatusOK, `[]`)
	mockJSON(http.MethodPost, "/api/admin/projects/5/stations", http.StatusConflict,
		`{"detail":"Station code already exists"}`)

	require.NoError(t, h.ctrl.LoadStations(context.Background(), 5))
	h.ctrl.OpenStationWizard()
	require.NoError(t, h.ctrl.UpdateWizardForm(func(f *StationForm) {
		f.StationCode = "S11"
		f.Name = "New"
	}))

	require.Error(t, h.ctrl.SaveStation(context.Background()))
	assert.True(t, h.ctrl.WizardOpen(), "form stays intact for a retry")
	assert.Equal(t, "Station code already exists", h.notifier.Last().Text)
}

func TestSaveStationRequiresCodeAndName(t *testing.T) {
	h := newTestHarness(t)
	h.ctrl.OpenStationWizard()

	require.Error(t, h.ctrl.SaveStation(context.Background()))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
	assert.True(t, h.ctrl.WizardOpen())
}

func TestDeleteStationClosesItsWizard(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/projects/5/stations", http.StatusOK, `[]`)
	mockJSON(http.MethodGet, "/api/admin/stations/10/config", http.StatusOK,
		`{"id":10,"station_code":"S10","name":"Hillside","location":null,"config":null}`)
	mockJSON(http.MethodGet, "/api/admin/stations/10/devices", http.StatusOK, `[]`)
	mockJSON(http.MethodDelete, "/api/admin/stations/10", http.StatusOK, `{}`)

	require.NoError(t, h.ctrl.LoadStations(context.Background(), 5))
	require.NoError(t, h.ctrl.EditStation(context.Background(), 10))
	require.NoError(t, h.ctrl.DeleteStation(context.Background(), 10))

	assert.False(t, h.ctrl.WizardOpen())
}

func TestFetchLatestOriginRequiresTopic(t *testing.T) {
	h := newTestHarness(t)
	h.ctrl.OpenStationWizard()

	require.Error(t, h.ctrl.FetchLatestOrigin(context.Background()))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
	assert.True(t, h.notifier.HasLevel("warning"))
}

func TestFetchLatestOriginPopulatesForm(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodPost, "/api/admin/gnss/fetch-live-origin", http.StatusOK,
		`{"lat":63.4305,"lon":10.3950,"h":45.2,"num_sats":12,"fix_quality":4}`)

	h.ctrl.OpenStationWizard()
	require.NoError(t, h.ctrl.UpdateWizardForm(func(f *StationForm) {
		f.Sensors[SensorGNSS] = SensorBinding{Enabled: true, Topic: "stations/S1/gnss"}
	}))

	require.NoError(t, h.ctrl.FetchLatestOrigin(context.Background()))

	form := h.ctrl.WizardForm()
	assert.True(t, form.Origin.Set)
	assert.InDelta(t, 63.4305, form.Origin.Lat, 1e-9)
	assert.Equal(t, 12, form.Origin.NumSats)
	assert.Equal(t, 4, form.Origin.FixQuality)
	assert.False(t, h.ctrl.OriginFetchInProgress(), "guard released after completion")
}

func TestFetchLatestOriginWithoutWizard(t *testing.T) {
	h := newTestHarness(t)
	require.Error(t, h.ctrl.FetchLatestOrigin(context.Background()))
}

func TestUpdateWizardFormWithoutWizard(t *testing.T) {
	h := newTestHarness(t)
	err := h.ctrl.UpdateWizardForm(func(f *StationForm) { f.Name = "x" })
	require.Error(t, err)
}
